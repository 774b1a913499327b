package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Zim-zilim-ai-agent/skill-yandex-calendar/pkg/yacal"
)

// eventOutput represents an event for JSON output.
type eventOutput struct {
	UID          string `json:"uid"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	Start        string `json:"start,omitempty"`
	End          string `json:"end,omitempty"`
	Created      string `json:"created,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	RRule        string `json:"rrule,omitempty"`
}

// statusOutput acknowledges a mutation.
type statusOutput struct {
	Status string `json:"status"`
	UID    string `json:"uid"`
}

type createEventArgs struct {
	title       string
	description string
	location    string
	start       string
	end         string
	reminder    int
	rrule       string
}

type updateEventArgs struct {
	uid         string
	title       string
	description string
	location    string
	start       string
	end         string
}

// eventOutputFromEvent converts a yacal.Event to eventOutput.
func eventOutputFromEvent(ev yacal.Event) eventOutput {
	return eventOutput{
		UID:          ev.UID,
		Title:        ev.Title,
		Description:  ev.Description,
		Location:     ev.Location,
		Start:        formatTime(ev.Start),
		End:          formatTime(ev.End),
		Created:      formatTime(ev.Created),
		LastModified: formatTime(ev.LastModified),
		RRule:        ev.RRule,
	}
}

// runEvents lists events within the requested window.
func runEvents(ctx context.Context, client *yacal.Client, today bool, from, to, calendarName string, out *outputWriter) error {
	start, end, err := eventWindow(today, from, to, time.Now())
	if err != nil {
		return err
	}

	cal, err := client.ResolveCalendar(ctx, calendarName)
	if err != nil {
		return fmt.Errorf("failed to resolve calendar: %w", err)
	}
	if cal == nil {
		return fmt.Errorf("no calendar found")
	}

	out.writeVerbose("Fetching events from calendar %q between %s and %s...",
		cal.Name, start.Format(time.RFC3339), end.Format(time.RFC3339))

	events, err := client.Events(ctx, cal, start, end)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	return writeEvents(events, out)
}

// runSearch does a substring search across the default calendar.
func runSearch(ctx context.Context, client *yacal.Client, query string, out *outputWriter) error {
	cal, err := client.ResolveCalendar(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to resolve calendar: %w", err)
	}
	if cal == nil {
		return fmt.Errorf("no calendar found")
	}

	out.writeVerbose("Searching calendar %q for %q...", cal.Name, query)

	events, err := client.SearchEvents(ctx, cal, query)
	if err != nil {
		return fmt.Errorf("failed to search events: %w", err)
	}

	return writeEvents(events, out)
}

func writeEvents(events []yacal.Event, out *outputWriter) error {
	if out.json {
		output := make([]eventOutput, len(events))
		for i, ev := range events {
			output[i] = eventOutputFromEvent(ev)
		}
		return out.writeJSON(output)
	}

	if len(events) == 0 {
		out.writeMessage("No events found.")
		return nil
	}

	headers := []string{"DATE", "TIME", "TITLE", "UID"}
	rows := make([][]string, len(events))
	for i, ev := range events {
		date, timeStr := "", ""
		if !ev.Start.IsZero() {
			date = ev.Start.Format("2006-01-02")
			timeStr = ev.Start.Format("15:04")
		}
		rows[i] = []string{date, timeStr, truncateString(ev.Title, 40), ev.UID}
	}
	return out.writeTable(headers, rows)
}

// runCreate creates a new event in the default calendar.
func runCreate(ctx context.Context, client *yacal.Client, args createEventArgs, out *outputWriter) error {
	var start, end time.Time
	var err error
	if args.start != "" {
		if start, err = parseDate(args.start); err != nil {
			return err
		}
	}
	if args.end != "" {
		if end, err = parseDate(args.end); err != nil {
			return err
		}
	}

	cal, err := client.ResolveCalendar(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to resolve calendar: %w", err)
	}
	if cal == nil {
		return fmt.Errorf("no calendar found")
	}

	out.writeVerbose("Creating event %q in calendar %q...", args.title, cal.Name)

	ev, err := client.CreateEvent(ctx, cal, yacal.CreateEventOptions{
		Title:           args.title,
		Description:     args.description,
		Location:        args.location,
		Start:           start,
		End:             end,
		ReminderMinutes: args.reminder,
		RRule:           args.rrule,
	})
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	if out.json {
		return out.writeJSON(statusOutput{Status: "created", UID: ev.UID})
	}
	out.writeMessage(fmt.Sprintf("Created event %q (UID: %s)", ev.Title, ev.UID))
	return nil
}

// runUpdate patches the event matching the UID.
func runUpdate(ctx context.Context, client *yacal.Client, args updateEventArgs, out *outputWriter) error {
	var start, end time.Time
	var err error
	if args.start != "" {
		if start, err = parseDate(args.start); err != nil {
			return err
		}
	}
	if args.end != "" {
		if end, err = parseDate(args.end); err != nil {
			return err
		}
	}

	cal, err := client.ResolveCalendar(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to resolve calendar: %w", err)
	}
	if cal == nil {
		return fmt.Errorf("no calendar found")
	}

	out.writeVerbose("Updating event %s in calendar %q...", args.uid, cal.Name)

	ev, err := client.UpdateEvent(ctx, cal, args.uid, yacal.EventPatch{
		Title:       args.title,
		Description: args.description,
		Location:    args.location,
		Start:       start,
		End:         end,
	})
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if ev == nil {
		return fmt.Errorf("event not found")
	}

	if out.json {
		return out.writeJSON(statusOutput{Status: "updated", UID: ev.UID})
	}
	out.writeMessage(fmt.Sprintf("Updated event %q (UID: %s)", ev.Title, ev.UID))
	return nil
}

// runDelete removes the event matching the UID.
func runDelete(ctx context.Context, client *yacal.Client, uid string, out *outputWriter) error {
	cal, err := client.ResolveCalendar(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to resolve calendar: %w", err)
	}
	if cal == nil {
		return fmt.Errorf("no calendar found")
	}

	out.writeVerbose("Deleting event %s from calendar %q...", uid, cal.Name)

	ok, err := client.DeleteEvent(ctx, cal, uid)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if !ok {
		return fmt.Errorf("event not found")
	}

	if out.json {
		return out.writeJSON(statusOutput{Status: "deleted", UID: uid})
	}
	out.writeMessage(fmt.Sprintf("Deleted event %s", uid))
	return nil
}
