package main

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// parseDate parses DATE/DATETIME arguments in the local timezone.
// dateparse accepts more formats than the documented YYYY-MM-DD and
// YYYY-MM-DDTHH:MM:SS.
func parseDate(s string) (time.Time, error) {
	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// eventWindow computes the query range for the events command: --today
// spans local midnight to midnight plus one day, otherwise --from
// (default now) to --to (default from plus seven days).
func eventWindow(today bool, from, to string, now time.Time) (time.Time, time.Time, error) {
	if today {
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 0, 1), nil
	}

	start := now
	if from != "" {
		var err error
		start, err = parseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	end := start.AddDate(0, 0, 7)
	if to != "" {
		var err error
		end, err = parseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	return start, end, nil
}

// formatTime renders a timestamp for JSON output, empty for the zero
// time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
