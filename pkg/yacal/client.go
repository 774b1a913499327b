// Package yacal is a client facade for Yandex Calendar over CalDAV. It
// maps logical calendar and todo operations onto an authenticated CalDAV
// session; all protocol and serialization work is delegated to
// emersion/go-webdav and emersion/go-ical.
package yacal

import (
	"context"
	"net/http"
	"path"
	"strings"

	ical "github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultEndpoint is the Yandex CalDAV endpoint.
	DefaultEndpoint = "https://caldav.yandex.ru/"

	// Calendars whose path contains this marker hold VTODO items. Yandex
	// exposes the todo collection this way; there is no explicit flag.
	todoPathMarker = "todos"

	prodID = "-//Yandex Calendar CLI//EN"
)

// ErrNoCredentials is returned by New when neither a token nor a
// username/password pair is supplied.
var ErrNoCredentials = errors.New("either token or username/password must be provided")

// Backend is the subset of the CalDAV client the facade needs. It is
// satisfied by *caldav.Client and replaceable in tests via NewFake.
type Backend interface {
	FindCurrentUserPrincipal(ctx context.Context) (string, error)
	FindCalendarHomeSet(ctx context.Context, principal string) (string, error)
	FindCalendars(ctx context.Context, calendarHomeSet string) ([]caldav.Calendar, error)
	QueryCalendar(ctx context.Context, calendar string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error)
	PutCalendarObject(ctx context.Context, path string, cal *ical.Calendar) (*caldav.CalendarObject, error)
	RemoveAll(ctx context.Context, path string) error
}

// Options configure a Client. Exactly one of Token or Username+Password
// must be set; UserID is optional.
type Options struct {
	Token    string
	Username string
	Password string
	UserID   string

	// Endpoint overrides DefaultEndpoint, mainly for tests.
	Endpoint string
	// HTTPClient overrides http.DefaultClient.
	HTTPClient *http.Client
}

// Client is a facade over one authenticated CalDAV session. It holds no
// local state beyond the session; calendars are fetched fresh on every
// call and all lookups are linear scans over server-returned lists.
type Client struct {
	dav    Backend
	userID string
}

// oauthHTTPClient sends the "OAuth" authorization scheme Yandex expects
// for token auth.
type oauthHTTPClient struct {
	c     *http.Client
	token string
}

func (c *oauthHTTPClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "OAuth "+c.token)
	return c.c.Do(req)
}

// New builds a Client from the given options.
func New(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var hc webdav.HTTPClient
	switch {
	case opts.Token != "":
		hc = &oauthHTTPClient{c: httpClient, token: opts.Token}
	case opts.Username != "" && opts.Password != "":
		hc = webdav.HTTPClientWithBasicAuth(httpClient, opts.Username, opts.Password)
	default:
		return nil, ErrNoCredentials
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	dav, err := caldav.NewClient(hc, endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "creating CalDAV client")
	}

	return &Client{dav: dav, userID: opts.UserID}, nil
}

// NewFake returns a Client backed by the given Backend. For tests.
func NewFake(dav Backend) *Client {
	return &Client{dav: dav}
}

// Calendars returns all calendars visible to the authenticated principal.
func (c *Client) Calendars(ctx context.Context) ([]caldav.Calendar, error) {
	principal, err := c.dav.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "finding current user principal")
	}
	log.WithField("principal", principal).Debug("resolved current user principal")

	homeSet, err := c.dav.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, errors.Wrap(err, "finding calendar home set")
	}

	calendars, err := c.dav.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, errors.Wrap(err, "listing calendars")
	}
	log.WithField("count", len(calendars)).Debug("fetched calendars")
	return calendars, nil
}

// ResolveCalendar returns the calendar whose name matches exactly, or the
// first calendar in server order when name is empty. A nil result means
// no match; it is not an error.
func (c *Client) ResolveCalendar(ctx context.Context, name string) (*caldav.Calendar, error) {
	calendars, err := c.Calendars(ctx)
	if err != nil {
		return nil, err
	}
	if len(calendars) == 0 {
		return nil, nil
	}
	if name == "" {
		return &calendars[0], nil
	}
	for i := range calendars {
		if calendars[i].Name == name {
			return &calendars[i], nil
		}
	}
	return nil, nil
}

// TaskCalendar returns the calendar holding VTODO items, identified by
// the todo marker in its path. Nil when the account has none.
func (c *Client) TaskCalendar(ctx context.Context) (*caldav.Calendar, error) {
	calendars, err := c.Calendars(ctx)
	if err != nil {
		return nil, err
	}
	for i := range calendars {
		if strings.Contains(calendars[i].Path, todoPathMarker) {
			return &calendars[i], nil
		}
	}
	return nil, nil
}

// newICalendar returns an empty VCALENDAR with our PRODID and version.
func newICalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	return cal
}

// objectPath is where a new object with the given UID lives inside a
// calendar collection.
func objectPath(cal *caldav.Calendar, uid string) string {
	return path.Join(cal.Path, uid+".ics")
}
