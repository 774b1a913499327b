package main

import (
	"context"
	"strings"

	ical "github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

// fakeBackend makes it easy to stub CalDAV responses in tests.
type fakeBackend struct {
	calendars []caldav.Calendar
	objects   map[string][]caldav.CalendarObject

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
	f.lastQuery = query
	return f.objects[calPath], nil
}

func (f *fakeBackend) PutCalendarObject(ctx context.Context, p string, cal *ical.Calendar) (*caldav.CalendarObject, error) {
	f.puts = append(f.puts, p)
	obj := caldav.CalendarObject{Path: p, Data: cal}
	for _, c := range f.calendars {
		if strings.HasPrefix(p, c.Path) {
			f.objects[c.Path] = append(f.objects[c.Path], obj)
			break
		}
	}
	return &obj, nil
}

func (f *fakeBackend) RemoveAll(ctx context.Context, p string) error {
	f.removed = append(f.removed, p)
	return nil
}

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

	data := ical.NewCalendar()
	data.Props.SetText(ical.PropProductID, "-//test//EN")
	data.Props.SetText(ical.PropVersion, "2.0")
	data.Children = append(data.Children, event.Component)

	f.objects[calPath] = append(f.objects[calPath], caldav.CalendarObject{
		Path: calPath + uid + ".ics",
		Data: data,
	})
}
