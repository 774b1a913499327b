package yacal

import (
	"context"
	"strconv"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	statusNeedsAction = "NEEDS-ACTION"
	statusCompleted   = "COMPLETED"

	// DefaultPriority is the VTODO priority assigned when none is given
	// (1 is highest, 9 lowest).
	DefaultPriority = 5
)

// Todo is one VTODO fetched from the server, with its calendar object
// kept for write-back.
type Todo struct {
	UID         string
	Title       string
	Description string
	Tags        []string
	Priority    int
	Status      string
	Due         time.Time
	Created     time.Time
	Completed   time.Time

	path string
	cal  *ical.Calendar
	comp *ical.Component
}

// Path returns the server path of the underlying calendar object.
func (t *Todo) Path() string { return t.path }

// CreateTodoOptions describe a new todo. Zero Priority means
// DefaultPriority; zero Due means no due time.
type CreateTodoOptions struct {
	Title       string
	Description string
	Tags        []string
	Priority    int
	Due         time.Time
}

// Todos lists the todos of the task calendar. When the account has no
// task calendar the result is empty, not an error.
func (c *Client) Todos(ctx context.Context) ([]Todo, error) {
	cal, err := c.TaskCalendar(ctx)
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return nil, nil
	}
	return c.todosIn(ctx, cal)
}

func (c *Client) todosIn(ctx context.Context, cal *caldav.Calendar) ([]Todo, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{Name: ical.CompToDo, AllProps: true}},
		},
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{{Name: ical.CompToDo}},
		},
	}

	objs, err := c.dav.QueryCalendar(ctx, cal.Path, query)
	if err != nil {
		// Some servers reject VTODO filters; fetch everything and keep
		// the VTODO components ourselves.
		log.WithError(err).Debug("VTODO query failed, scanning all calendar objects")
		objs, err = c.dav.QueryCalendar(ctx, cal.Path, allObjectsQuery())
		if err != nil {
			return nil, errors.Wrap(err, "listing todo calendar objects")
		}
	}
	return todosFromObjects(objs), nil
}

func allObjectsQuery() *caldav.CalendarQuery {
	return &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{Name: ical.CompCalendar},
	}
}

// CreateTodo builds one VTODO from the options and saves it to the task
// calendar. A nil result (without error) means no task calendar
// resolved.
func (c *Client) CreateTodo(ctx context.Context, opts CreateTodoOptions) (*Todo, error) {
	cal, err := c.TaskCalendar(ctx)
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return nil, nil
	}

	priority := opts.Priority
	if priority == 0 {
		priority = DefaultPriority
	}

	uid := uuid.NewString()
	now := time.Now()

	todo := &ical.Component{Name: ical.CompToDo, Props: make(ical.Props)}
	todo.Props.SetText(ical.PropUID, uid)
	todo.Props.SetDateTime(ical.PropDateTimeStamp, now)
	todo.Props.SetText(ical.PropSummary, opts.Title)
	if opts.Description != "" {
		todo.Props.SetText(ical.PropDescription, opts.Description)
	}
	if len(opts.Tags) > 0 {
		categories := ical.NewProp(ical.PropCategories)
		categories.SetTextList(opts.Tags)
		todo.Props.Set(categories)
	}
	priorityProp := ical.NewProp(ical.PropPriority)
	priorityProp.Value = strconv.Itoa(priority)
	todo.Props.Set(priorityProp)
	todo.Props.SetText(ical.PropStatus, statusNeedsAction)
	todo.Props.SetDateTime(ical.PropCreated, now)
	if !opts.Due.IsZero() {
		todo.Props.SetDateTime(ical.PropDue, opts.Due)
	}

	data := newICalendar()
	data.Children = append(data.Children, todo)

	p := objectPath(cal, uid)
	log.WithFields(log.Fields{"path": p, "uid": uid}).Debug("saving todo")
	if _, err := c.dav.PutCalendarObject(ctx, p, data); err != nil {
		return nil, errors.Wrap(err, "saving todo")
	}

	saved := parseTodo(caldav.CalendarObject{Path: p, Data: data}, todo)
	return &saved, nil
}

// CompleteTodo marks the first todo matching the UID as completed and
// stamps the completion time. The boolean reports whether a match was
// found.
func (c *Client) CompleteTodo(ctx context.Context, uid string) (bool, error) {
	todos, err := c.Todos(ctx)
	if err != nil {
		return false, err
	}
	for i := range todos {
		td := &todos[i]
		if td.UID != uid {
			continue
		}
		td.comp.Props.SetText(ical.PropStatus, statusCompleted)
		td.comp.Props.SetDateTime(ical.PropCompleted, time.Now())

		log.WithFields(log.Fields{"path": td.path, "uid": uid}).Debug("completing todo")
		if _, err := c.dav.PutCalendarObject(ctx, td.path, td.cal); err != nil {
			return false, errors.Wrap(err, "saving todo")
		}
		return true, nil
	}
	return false, nil
}

// DeleteTodo removes the first todo matching the UID. The boolean
// reports whether a match was found and deleted.
func (c *Client) DeleteTodo(ctx context.Context, uid string) (bool, error) {
	todos, err := c.Todos(ctx)
	if err != nil {
		return false, err
	}
	for i := range todos {
		if todos[i].UID != uid {
			continue
		}
		log.WithFields(log.Fields{"path": todos[i].path, "uid": uid}).Debug("deleting todo")
		if err := c.dav.RemoveAll(ctx, todos[i].path); err != nil {
			return false, errors.Wrap(err, "deleting todo")
		}
		return true, nil
	}
	return false, nil
}

func todosFromObjects(objs []caldav.CalendarObject) []Todo {
	var todos []Todo
	for _, obj := range objs {
		if obj.Data == nil {
			continue
		}
		for _, comp := range obj.Data.Children {
			if comp.Name != ical.CompToDo {
				continue
			}
			todos = append(todos, parseTodo(obj, comp))
		}
	}
	return todos
}

func parseTodo(obj caldav.CalendarObject, comp *ical.Component) Todo {
	td := Todo{
		Priority: DefaultPriority,
		Status:   statusNeedsAction,
		path:     obj.Path,
		cal:      obj.Data,
		comp:     comp,
	}

	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		td.UID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		td.Title = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDescription); prop != nil {
		td.Description = prop.Value
	}
	if prop := comp.Props.Get(ical.PropCategories); prop != nil {
		if tags, err := prop.TextList(); err == nil {
			td.Tags = tags
		}
	}
	if prop := comp.Props.Get(ical.PropPriority); prop != nil {
		if p, err := strconv.Atoi(prop.Value); err == nil {
			td.Priority = p
		}
	}
	if prop := comp.Props.Get(ical.PropStatus); prop != nil {
		td.Status = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDue); prop != nil {
		if t, err := prop.DateTime(time.Local); err == nil {
			td.Due = t
		}
	}
	if prop := comp.Props.Get(ical.PropCreated); prop != nil {
		if t, err := prop.DateTime(time.UTC); err == nil {
			td.Created = t
		}
	}
	if prop := comp.Props.Get(ical.PropCompleted); prop != nil {
		if t, err := prop.DateTime(time.UTC); err == nil {
			td.Completed = t
		}
	}
	return td
}
