package yacal

import (
	"context"
	"strings"

	ical "github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

// fakeBackend is an in-memory Backend double for tests.
type fakeBackend struct {
	calendars []caldav.Calendar
	objects   map[string][]caldav.CalendarObject // calendar path -> objects

	todoQueryErr error // returned for VTODO-filtered queries

	lastQuery *caldav.CalendarQuery
	puts      []string
	removed   []string
}

func newFakeBackend(calendars ...caldav.Calendar) *fakeBackend {
	return &fakeBackend{
		calendars: calendars,
		objects:   make(map[string][]caldav.CalendarObject),
	}
}

func (f *fakeBackend) FindCurrentUserPrincipal(ctx context.Context) (string, error) {
	return "/principals/users/me/", nil
}

func (f *fakeBackend) FindCalendarHomeSet(ctx context.Context, principal string) (string, error) {
	return "/calendars/me/", nil
}

func (f *fakeBackend) FindCalendars(ctx context.Context, home string) ([]caldav.Calendar, error) {
	return f.calendars, nil
}

func (f *fakeBackend) QueryCalendar(ctx context.Context, calPath string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error) {
	if f.todoQueryErr != nil && len(query.CompFilter.Comps) > 0 && query.CompFilter.Comps[0].Name == ical.CompToDo {
		return nil, f.todoQueryErr
	}
	f.lastQuery = query
	return f.objects[calPath], nil
}

func (f *fakeBackend) PutCalendarObject(ctx context.Context, p string, cal *ical.Calendar) (*caldav.CalendarObject, error) {
	f.puts = append(f.puts, p)
	obj := caldav.CalendarObject{Path: p, Data: cal}

	key := f.calendarFor(p)
	objs := f.objects[key]
	for i := range objs {
		if objs[i].Path == p {
			objs[i] = obj
			f.objects[key] = objs
			return &obj, nil
		}
	}
	f.objects[key] = append(objs, obj)
	return &obj, nil
}

func (f *fakeBackend) RemoveAll(ctx context.Context, p string) error {
	f.removed = append(f.removed, p)
	key := f.calendarFor(p)
	objs := f.objects[key]
	for i := range objs {
		if objs[i].Path == p {
			f.objects[key] = append(objs[:i:i], objs[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeBackend) calendarFor(p string) string {
	for _, cal := range f.calendars {
		if strings.HasPrefix(p, cal.Path) {
			return cal.Path
		}
	}
	return ""
}

// addEvent stores a VEVENT object under the given calendar path.
func (f *fakeBackend) addEvent(calPath, uid, title, description, location string) {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetText(ical.PropSummary, title)
	if description != "" {
		event.Props.SetText(ical.PropDescription, description)
	}
	if location != "" {
		event.Props.SetText(ical.PropLocation, location)
	}
	f.addComponent(calPath, uid, event.Component)
}

// addTodo stores a VTODO object under the given calendar path.
func (f *fakeBackend) addTodo(calPath, uid, title string) {
	todo := &ical.Component{Name: ical.CompToDo, Props: make(ical.Props)}
	todo.Props.SetText(ical.PropUID, uid)
	todo.Props.SetText(ical.PropSummary, title)
	todo.Props.SetText(ical.PropStatus, statusNeedsAction)
	f.addComponent(calPath, uid, todo)
}

func (f *fakeBackend) addComponent(calPath, uid string, comp *ical.Component) {
	data := newICalendar()
	data.Children = append(data.Children, comp)
	f.objects[calPath] = append(f.objects[calPath], caldav.CalendarObject{
		Path: calPath + uid + ".ics",
		Data: data,
	})
}
