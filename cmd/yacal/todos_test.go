package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/emersion/go-webdav/caldav"

	"github.com/Zim-zilim-ai-agent/skill-yandex-calendar/pkg/yacal"
)

const cmdTodosPath = "/calendars/me/todos-1/"

func todoCalendar() caldav.Calendar {
	return caldav.Calendar{Path: cmdTodosPath, Name: "Дела"}
}

func TestRunListTodosNoTaskCalendar(t *testing.T) {
	client := yacal.NewFake(newFakeBackend(personalCalendar()))
	var buf bytes.Buffer
	out := &outputWriter{json: true, writer: &buf}

	if err := runListTodos(context.Background(), client, out); err != nil {
		t.Fatalf("runListTodos failed: %v", err)
	}

	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("expected empty JSON array, got %q", got)
	}
}

func TestRunCreateTodoAndList(t *testing.T) {
	fake := newFakeBackend(personalCalendar(), todoCalendar())
	client := yacal.NewFake(fake)
	var buf bytes.Buffer
	out := &outputWriter{json: true, writer: &buf}

	args := createTodoArgs{title: "Купить молоко", tags: "дом, покупки", priority: 5}
	if err := runCreateTodo(context.Background(), client, args, out); err != nil {
		t.Fatalf("runCreateTodo failed: %v", err)
	}

	var status statusOutput
	if err := json.Unmarshal(buf.Bytes(), &status); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if status.Status != "created" || status.UID == "" {
		t.Errorf("unexpected status output: %+v", status)
	}

	buf.Reset()
	if err := runListTodos(context.Background(), client, out); err != nil {
		t.Fatalf("runListTodos failed: %v", err)
	}

	var todos []todoOutput
	if err := json.Unmarshal(buf.Bytes(), &todos); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(todos) != 1 {
		t.Fatalf("expected 1 todo, got %d", len(todos))
	}
	td := todos[0]
	if td.Title != "Купить молоко" || td.Status != "NEEDS-ACTION" || td.Priority != 5 {
		t.Errorf("unexpected todo: %+v", td)
	}
	if len(td.Tags) != 2 || td.Tags[0] != "дом" || td.Tags[1] != "покупки" {
		t.Errorf("unexpected tags: %v", td.Tags)
	}
}

func TestRunCreateTodoPriorityOutOfRange(t *testing.T) {
	client := yacal.NewFake(newFakeBackend(todoCalendar()))
	var buf bytes.Buffer
	out := &outputWriter{json: true, writer: &buf}

	for _, priority := range []int{0, 10} {
		args := createTodoArgs{title: "Задача", priority: priority}
		err := runCreateTodo(context.Background(), client, args, out)
		if err == nil || !strings.Contains(err.Error(), "priority") {
			t.Errorf("priority %d: expected validation error, got %v", priority, err)
		}
	}
}

func TestRunCreateTodoNoTaskCalendar(t *testing.T) {
	client := yacal.NewFake(newFakeBackend(personalCalendar()))
	var buf bytes.Buffer
	out := &outputWriter{json: true, writer: &buf}

	args := createTodoArgs{title: "Задача", priority: 5}
	err := runCreateTodo(context.Background(), client, args, out)
	if err == nil || !strings.Contains(err.Error(), "no todo calendar") {
		t.Errorf("expected no todo calendar error, got %v", err)
	}
}

func TestRunCompleteTodoNotFound(t *testing.T) {
	client := yacal.NewFake(newFakeBackend(todoCalendar()))
	var buf bytes.Buffer
	out := &outputWriter{json: true, writer: &buf}

	err := runCompleteTodo(context.Background(), client, "missing", out)
	if err == nil || !strings.Contains(err.Error(), "todo not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestRunDeleteTodoNotFound(t *testing.T) {
	client := yacal.NewFake(newFakeBackend(todoCalendar()))
	var buf bytes.Buffer
	out := &outputWriter{json: true, writer: &buf}

	err := runDeleteTodo(context.Background(), client, "missing", out)
	if err == nil || !strings.Contains(err.Error(), "todo not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"one", []string{"one"}},
		{"one,two", []string{"one", "two"}},
		{" one , two ,, three ", []string{"one", "two", "three"}},
	}

	for _, tt := range tests {
		got := splitTags(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitTags(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitTags(%q) = %v, want %v", tt.input, got, tt.want)
				break
			}
		}
	}
}
