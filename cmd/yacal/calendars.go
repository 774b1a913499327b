package main

import (
	"context"
	"fmt"

	"github.com/Zim-zilim-ai-agent/skill-yandex-calendar/pkg/yacal"
)

// calendarOutput represents a calendar for JSON output.
type calendarOutput struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// runListCalendars lists all calendars visible to the authenticated user.
func runListCalendars(ctx context.Context, client *yacal.Client, out *outputWriter) error {
	out.writeVerbose("Fetching calendars...")

	calendars, err := client.Calendars(ctx)
	if err != nil {
		return fmt.Errorf("failed to list calendars: %w", err)
	}

	if out.json {
		output := make([]calendarOutput, len(calendars))
		for i, cal := range calendars {
			output[i] = calendarOutput{Name: cal.Name, URL: cal.Path}
		}
		return out.writeJSON(output)
	}

	if len(calendars) == 0 {
		out.writeMessage("No calendars found.")
		return nil
	}

	headers := []string{"NAME", "URL"}
	rows := make([][]string, len(calendars))
	for i, cal := range calendars {
		rows[i] = []string{truncateString(cal.Name, 40), cal.Path}
	}
	return out.writeTable(headers, rows)
}
