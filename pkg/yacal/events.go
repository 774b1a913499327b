package yacal

import (
	"context"
	"fmt"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"
)

// Event is one VEVENT fetched from the server. The underlying calendar
// object is kept so the event can be written back after mutation.
type Event struct {
	UID          string
	Title        string
	Description  string
	Location     string
	Start        time.Time
	End          time.Time
	RRule        string
	Created      time.Time
	LastModified time.Time

	path string
	cal  *ical.Calendar
	comp *ical.Component
}

// Path returns the server path of the underlying calendar object.
func (e *Event) Path() string { return e.path }

// CreateEventOptions describe a new event. Zero Start means "now"; zero
// End means Start plus one hour.
type CreateEventOptions struct {
	Title           string
	Description     string
	Location        string
	Start           time.Time
	End             time.Time
	ReminderMinutes int
	RRule           string
}

// EventPatch holds replacement field values for UpdateEvent. Empty
// strings and zero times mean "leave untouched"; fields cannot be
// cleared.
type EventPatch struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// Events returns the events of a calendar within the given range. Window
// semantics are those of the CalDAV time-range filter; start and end are
// passed through unmodified.
func (c *Client) Events(ctx context.Context, cal *caldav.Calendar, start, end time.Time) ([]Event, error) {
	objs, err := c.queryEvents(ctx, cal, start, end)
	if err != nil {
		return nil, err
	}
	return eventsFromObjects(objs), nil
}

// allEvents fetches every event in the calendar, without a time range.
func (c *Client) allEvents(ctx context.Context, cal *caldav.Calendar) ([]Event, error) {
	return c.Events(ctx, cal, time.Time{}, time.Time{})
}

func (c *Client) queryEvents(ctx context.Context, cal *caldav.Calendar, start, end time.Time) ([]caldav.CalendarObject, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{Name: ical.CompEvent, AllProps: true}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: start,
				End:   end,
			}},
		},
	}

	log.WithFields(log.Fields{"calendar": cal.Path, "start": start, "end": end}).Debug("querying events")
	objs, err := c.dav.QueryCalendar(ctx, cal.Path, query)
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return objs, nil
}

// CreateEvent builds one VEVENT from the options and saves it to the
// calendar. The saved event is returned.
func (c *Client) CreateEvent(ctx context.Context, cal *caldav.Calendar, opts CreateEventOptions) (*Event, error) {
	start := opts.Start
	if start.IsZero() {
		start = time.Now()
	}
	end := opts.End
	if end.IsZero() {
		end = start.Add(time.Hour)
	}

	if opts.RRule != "" {
		if _, err := rrule.StrToROption(opts.RRule); err != nil {
			return nil, errors.Wrapf(err, "invalid recurrence rule %q", opts.RRule)
		}
	}

	uid := uuid.NewString()

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now())
	event.Props.SetText(ical.PropSummary, opts.Title)
	if opts.Description != "" {
		event.Props.SetText(ical.PropDescription, opts.Description)
	}
	if opts.Location != "" {
		event.Props.SetText(ical.PropLocation, opts.Location)
	}
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetDateTime(ical.PropDateTimeEnd, end)
	if opts.RRule != "" {
		// The rule goes on the wire verbatim; RRULE's default value
		// type is RECUR, so no text escaping must be applied.
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = opts.RRule
		event.Props.Set(prop)
	}
	if opts.ReminderMinutes > 0 {
		event.Children = append(event.Children, newDisplayAlarm(opts.Title, opts.ReminderMinutes))
	}

	data := newICalendar()
	data.Children = append(data.Children, event.Component)

	p := objectPath(cal, uid)
	log.WithFields(log.Fields{"path": p, "uid": uid}).Debug("saving event")
	if _, err := c.dav.PutCalendarObject(ctx, p, data); err != nil {
		return nil, errors.Wrap(err, "saving event")
	}

	saved := parseEvent(caldav.CalendarObject{Path: p, Data: data}, event.Component)
	return &saved, nil
}

// UpdateEvent scans the calendar for the event with the given UID and
// applies the patch to it. Returns the updated event, or nil when no
// event matches.
func (c *Client) UpdateEvent(ctx context.Context, cal *caldav.Calendar, uid string, patch EventPatch) (*Event, error) {
	events, err := c.allEvents(ctx, cal)
	if err != nil {
		return nil, err
	}

	for i := range events {
		ev := &events[i]
		if ev.UID != uid {
			continue
		}

		if patch.Title != "" {
			ev.comp.Props.SetText(ical.PropSummary, patch.Title)
			ev.Title = patch.Title
		}
		if patch.Description != "" {
			ev.comp.Props.SetText(ical.PropDescription, patch.Description)
			ev.Description = patch.Description
		}
		if patch.Location != "" {
			ev.comp.Props.SetText(ical.PropLocation, patch.Location)
			ev.Location = patch.Location
		}
		if !patch.Start.IsZero() {
			ev.comp.Props.SetDateTime(ical.PropDateTimeStart, patch.Start)
			ev.Start = patch.Start
		}
		if !patch.End.IsZero() {
			ev.comp.Props.SetDateTime(ical.PropDateTimeEnd, patch.End)
			ev.End = patch.End
		}

		log.WithFields(log.Fields{"path": ev.path, "uid": uid}).Debug("updating event")
		if _, err := c.dav.PutCalendarObject(ctx, ev.path, ev.cal); err != nil {
			return nil, errors.Wrap(err, "saving event")
		}
		return ev, nil
	}
	return nil, nil
}

// DeleteEvent removes the first event matching the UID. The boolean
// reports whether a match was found and deleted.
func (c *Client) DeleteEvent(ctx context.Context, cal *caldav.Calendar, uid string) (bool, error) {
	events, err := c.allEvents(ctx, cal)
	if err != nil {
		return false, err
	}
	for i := range events {
		if events[i].UID != uid {
			continue
		}
		log.WithFields(log.Fields{"path": events[i].path, "uid": uid}).Debug("deleting event")
		if err := c.dav.RemoveAll(ctx, events[i].path); err != nil {
			return false, errors.Wrap(err, "deleting event")
		}
		return true, nil
	}
	return false, nil
}

// SearchEvents returns the events whose title, description or location
// contains the query, case-insensitively, in server order. This is a
// whole-calendar substring scan.
func (c *Client) SearchEvents(ctx context.Context, cal *caldav.Calendar, query string) ([]Event, error) {
	events, err := c.allEvents(ctx, cal)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var matches []Event
	for _, ev := range events {
		text := strings.ToLower(ev.Title + ev.Description + ev.Location)
		if strings.Contains(text, q) {
			matches = append(matches, ev)
		}
	}
	return matches, nil
}

// newDisplayAlarm builds a VALARM firing the given number of minutes
// before the event start.
func newDisplayAlarm(title string, minutes int) *ical.Component {
	alarm := &ical.Component{Name: ical.CompAlarm, Props: make(ical.Props)}
	alarm.Props.SetText(ical.PropAction, "DISPLAY")
	alarm.Props.SetText(ical.PropDescription, "Напоминание: "+title)

	// TRIGGER's default value type is DURATION; a negative duration
	// fires before DTSTART.
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = fmt.Sprintf("-PT%dM", minutes)
	alarm.Props.Set(trigger)
	return alarm
}

func eventsFromObjects(objs []caldav.CalendarObject) []Event {
	var events []Event
	for _, obj := range objs {
		if obj.Data == nil {
			continue
		}
		for _, comp := range obj.Data.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			events = append(events, parseEvent(obj, comp))
		}
	}
	return events
}

func parseEvent(obj caldav.CalendarObject, comp *ical.Component) Event {
	ev := Event{path: obj.Path, cal: obj.Data, comp: comp}

	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		ev.UID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		ev.Title = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDescription); prop != nil {
		ev.Description = prop.Value
	}
	if prop := comp.Props.Get(ical.PropLocation); prop != nil {
		ev.Location = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		if t, err := prop.DateTime(time.Local); err == nil {
			ev.Start = t
		}
	}
	if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
		if t, err := prop.DateTime(time.Local); err == nil {
			ev.End = t
		}
	}
	if prop := comp.Props.Get(ical.PropRecurrenceRule); prop != nil {
		ev.RRule = prop.Value
	}
	if prop := comp.Props.Get(ical.PropCreated); prop != nil {
		if t, err := prop.DateTime(time.UTC); err == nil {
			ev.Created = t
		}
	}
	if prop := comp.Props.Get(ical.PropLastModified); prop != nil {
		if t, err := prop.DateTime(time.UTC); err == nil {
			ev.LastModified = t
		}
	}
	return ev
}
