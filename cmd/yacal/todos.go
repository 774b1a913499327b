package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Zim-zilim-ai-agent/skill-yandex-calendar/pkg/yacal"
)

// todoOutput represents a todo for JSON output.
type todoOutput struct {
	UID         string   `json:"uid"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Priority    int      `json:"priority"`
	Status      string   `json:"status"`
	Due         string   `json:"due,omitempty"`
	Created     string   `json:"created,omitempty"`
	Completed   string   `json:"completed,omitempty"`
}

type createTodoArgs struct {
	title       string
	description string
	tags        string
	priority    int
	due         string
}

// todoOutputFromTodo converts a yacal.Todo to todoOutput.
func todoOutputFromTodo(td yacal.Todo) todoOutput {
	tags := td.Tags
	if tags == nil {
		tags = []string{}
	}
	return todoOutput{
		UID:         td.UID,
		Title:       td.Title,
		Description: td.Description,
		Tags:        tags,
		Priority:    td.Priority,
		Status:      td.Status,
		Due:         formatTime(td.Due),
		Created:     formatTime(td.Created),
		Completed:   formatTime(td.Completed),
	}
}

// runListTodos lists the todos of the task calendar.
func runListTodos(ctx context.Context, client *yacal.Client, out *outputWriter) error {
	out.writeVerbose("Fetching todos...")

	todos, err := client.Todos(ctx)
	if err != nil {
		return fmt.Errorf("failed to list todos: %w", err)
	}

	if out.json {
		output := make([]todoOutput, len(todos))
		for i, td := range todos {
			output[i] = todoOutputFromTodo(td)
		}
		return out.writeJSON(output)
	}

	if len(todos) == 0 {
		out.writeMessage("No todos found.")
		return nil
	}

	headers := []string{"STATUS", "TITLE", "DUE", "UID"}
	rows := make([][]string, len(todos))
	for i, td := range todos {
		status := "[ ]"
		if td.Status == "COMPLETED" {
			status = "[x]"
		}
		due := ""
		if !td.Due.IsZero() {
			due = td.Due.Format("2006-01-02")
		}
		rows[i] = []string{status, truncateString(td.Title, 50), due, td.UID}
	}
	return out.writeTable(headers, rows)
}

// runCreateTodo creates a new todo in the task calendar.
func runCreateTodo(ctx context.Context, client *yacal.Client, args createTodoArgs, out *outputWriter) error {
	if args.priority < 1 || args.priority > 9 {
		return fmt.Errorf("priority must be between 1 and 9, got %d", args.priority)
	}

	var due time.Time
	var err error
	if args.due != "" {
		if due, err = parseDate(args.due); err != nil {
			return err
		}
	}

	out.writeVerbose("Creating todo %q...", args.title)

	td, err := client.CreateTodo(ctx, yacal.CreateTodoOptions{
		Title:       args.title,
		Description: args.description,
		Tags:        splitTags(args.tags),
		Priority:    args.priority,
		Due:         due,
	})
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	if td == nil {
		return fmt.Errorf("failed to create todo: no todo calendar found")
	}

	if out.json {
		return out.writeJSON(statusOutput{Status: "created", UID: td.UID})
	}
	out.writeMessage(fmt.Sprintf("Created todo %q (UID: %s)", td.Title, td.UID))
	return nil
}

// runCompleteTodo marks the todo matching the UID as completed.
func runCompleteTodo(ctx context.Context, client *yacal.Client, uid string, out *outputWriter) error {
	out.writeVerbose("Completing todo %s...", uid)

	ok, err := client.CompleteTodo(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to complete todo: %w", err)
	}
	if !ok {
		return fmt.Errorf("todo not found")
	}

	if out.json {
		return out.writeJSON(statusOutput{Status: "completed", UID: uid})
	}
	out.writeMessage(fmt.Sprintf("Completed todo %s", uid))
	return nil
}

// runDeleteTodo removes the todo matching the UID.
func runDeleteTodo(ctx context.Context, client *yacal.Client, uid string, out *outputWriter) error {
	out.writeVerbose("Deleting todo %s...", uid)

	ok, err := client.DeleteTodo(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if !ok {
		return fmt.Errorf("todo not found")
	}

	if out.json {
		return out.writeJSON(statusOutput{Status: "deleted", UID: uid})
	}
	out.writeMessage(fmt.Sprintf("Deleted todo %s", uid))
	return nil
}

// splitTags parses the comma-separated --tags value.
func splitTags(csv string) []string {
	if csv == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
