package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	log "github.com/sirupsen/logrus"

	"github.com/Zim-zilim-ai-agent/skill-yandex-calendar/pkg/yacal"
)

var version = "dev"

type CLI struct {
	Token    string `help:"OAuth token" env:"YANDEX_CALENDAR_OAUTH_TOKEN"`
	Username string `help:"Yandex username (for Basic auth)" env:"YANDEX_CALENDAR_USERNAME"`
	Password string `help:"Yandex password or app password" env:"YANDEX_CALENDAR_PASSWORD"`
	UserID   string `name:"user-id" help:"Yandex user ID" env:"YANDEX_CALENDAR_USER_ID"`
	Plain    bool   `help:"Plain table output instead of JSON"`
	NoColor  bool   `help:"Disable colored output"`
	Verbose  bool   `help:"Verbose logging"`

	ListCalendars struct{} `cmd:"" name:"list-calendars" help:"List available calendars"`

	Events struct {
		Today    bool   `help:"Events for today" xor:"window"`
		From     string `help:"Start date (YYYY-MM-DD)" xor:"window"`
		To       string `help:"End date (YYYY-MM-DD)"`
		Calendar string `help:"Calendar name (default: first found)"`
	} `cmd:"" help:"List events"`

	Create struct {
		Title       string `required:"" help:"Event title"`
		Description string `help:"Event description"`
		Location    string `help:"Event location"`
		Start       string `help:"Start datetime (YYYY-MM-DDTHH:MM:SS)"`
		End         string `help:"End datetime (YYYY-MM-DDTHH:MM:SS)"`
		Reminder    int    `help:"Reminder before event in minutes"`
		Rrule       string `help:"Recurrence rule (RRULE), e.g. 'FREQ=WEEKLY;BYDAY=WE'"`
	} `cmd:"" help:"Create event"`

	Update struct {
		UID         string `name:"uid" required:"" help:"Event UID"`
		Title       string `help:"New title"`
		Description string `help:"New description"`
		Location    string `help:"New location"`
		Start       string `help:"New start datetime"`
		End         string `help:"New end datetime"`
	} `cmd:"" help:"Update event"`

	Delete struct {
		UID string `name:"uid" required:"" help:"Event UID"`
	} `cmd:"" help:"Delete event"`

	Search struct {
		Query string `required:"" help:"Search query"`
	} `cmd:"" help:"Search events"`

	ListTodos struct{} `cmd:"" name:"list-todos" help:"List todos"`

	CreateTodo struct {
		Title       string `required:"" help:"Todo title"`
		Description string `help:"Todo description"`
		Tags        string `help:"Todo tags (comma-separated)"`
		Priority    int    `default:"5" help:"Priority (1-9, 1 highest)"`
		Due         string `help:"Due datetime (YYYY-MM-DDTHH:MM:SS)"`
	} `cmd:"" name:"create-todo" help:"Create todo"`

	CompleteTodo struct {
		UID string `name:"uid" required:"" help:"Todo UID"`
	} `cmd:"" name:"complete-todo" help:"Mark todo as completed"`

	DeleteTodo struct {
		UID string `name:"uid" required:"" help:"Todo UID"`
	} `cmd:"" name:"delete-todo" help:"Delete todo"`

	Version struct{} `cmd:"" help:"Show version"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("yacal"),
		kong.Description("Yandex Calendar CLI via CalDAV"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	out := newOutputWriter(!cli.Plain, cli.NoColor, cli.Verbose)

	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if ctx.Command() == "version" {
		fmt.Printf("yacal %s\n", version)
		return
	}

	client, err := yacal.New(yacal.Options{
		Token:    cli.Token,
		Username: cli.Username,
		Password: cli.Password,
		UserID:   cli.UserID,
	})
	if err != nil {
		out.writeError(err)
		if errors.Is(err, yacal.ErrNoCredentials) {
			fmt.Fprintln(os.Stderr, "Set YANDEX_CALENDAR_OAUTH_TOKEN or YANDEX_CALENDAR_USERNAME/YANDEX_CALENDAR_PASSWORD environment variables.")
		}
		os.Exit(1)
	}

	cmdCtx := context.Background()

	var runErr error
	switch ctx.Command() {
	case "list-calendars":
		runErr = runListCalendars(cmdCtx, client, out)

	case "events":
		runErr = runEvents(cmdCtx, client, cli.Events.Today, cli.Events.From, cli.Events.To, cli.Events.Calendar, out)

	case "create":
		args := createEventArgs{
			title:       cli.Create.Title,
			description: cli.Create.Description,
			location:    cli.Create.Location,
			start:       cli.Create.Start,
			end:         cli.Create.End,
			reminder:    cli.Create.Reminder,
			rrule:       cli.Create.Rrule,
		}
		runErr = runCreate(cmdCtx, client, args, out)

	case "update":
		args := updateEventArgs{
			uid:         cli.Update.UID,
			title:       cli.Update.Title,
			description: cli.Update.Description,
			location:    cli.Update.Location,
			start:       cli.Update.Start,
			end:         cli.Update.End,
		}
		runErr = runUpdate(cmdCtx, client, args, out)

	case "delete":
		runErr = runDelete(cmdCtx, client, cli.Delete.UID, out)

	case "search":
		runErr = runSearch(cmdCtx, client, cli.Search.Query, out)

	case "list-todos":
		runErr = runListTodos(cmdCtx, client, out)

	case "create-todo":
		args := createTodoArgs{
			title:       cli.CreateTodo.Title,
			description: cli.CreateTodo.Description,
			tags:        cli.CreateTodo.Tags,
			priority:    cli.CreateTodo.Priority,
			due:         cli.CreateTodo.Due,
		}
		runErr = runCreateTodo(cmdCtx, client, args, out)

	case "complete-todo":
		runErr = runCompleteTodo(cmdCtx, client, cli.CompleteTodo.UID, out)

	case "delete-todo":
		runErr = runDeleteTodo(cmdCtx, client, cli.DeleteTodo.UID, out)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", ctx.Command())
		os.Exit(1)
	}

	if runErr != nil {
		out.writeError(runErr)
		os.Exit(1)
	}
}
