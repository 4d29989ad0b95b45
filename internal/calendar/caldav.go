package calendar

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/cpuguy83/freebusy"
)

// CalDAVSource fetches events from a CalDAV server.
type CalDAVSource struct {
	name      string
	url       string
	username  string
	password  string
	calendars []string // Optional: restrict to specific calendars
}

// NewCalDAVSource creates a new CalDAV calendar source.
func NewCalDAVSource(name, url, username, password string, calendars []string) *CalDAVSource {
	return &CalDAVSource{
		name:      name,
		url:       url,
		username:  username,
		password:  password,
		calendars: calendars,
	}
}

// iCloudCalDAVURL is the base URL for iCloud CalDAV.
const iCloudCalDAVURL = "https://caldav.icloud.com"

// NewICloudSource creates a new iCloud calendar source.
// iCloud uses CalDAV with a specific server URL.
func NewICloudSource(name, username, password string, calendars []string) *CalDAVSource {
	return &CalDAVSource{
		name:      name,
		url:       iCloudCalDAVURL,
		username:  username,
		password:  password,
		calendars: calendars,
	}
}

// Name returns the display name of this calendar source.
func (s *CalDAVSource) Name() string {
	return s.name
}

// Fetch retrieves events overlapping the search window from all calendars.
func (s *CalDAVSource) Fetch(ctx context.Context, span freebusy.Span) ([]Event, error) {
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &basicAuthTransport{
			username: s.username,
			password: s.password,
			base:     http.DefaultTransport,
		},
	}

	client, err := caldav.NewClient(httpClient, s.url)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}

	// Find the user's calendar home
	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find calendar home: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var allEvents []Event

	for _, cal := range cals {
		if len(s.calendars) > 0 && !s.wantCalendar(cal.Name) {
			continue
		}

		events, err := s.queryCalendar(ctx, client, cal, span)
		if err != nil {
			// Continue with other calendars
			continue
		}

		allEvents = append(allEvents, events...)
	}

	return allEvents, nil
}

// wantCalendar checks if a calendar is among the configured names.
func (s *CalDAVSource) wantCalendar(name string) bool {
	for _, c := range s.calendars {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// queryCalendar fetches events from a single calendar using a calendar-query
// scoped to the search window.
func (s *CalDAVSource) queryCalendar(ctx context.Context, client *caldav.Client, cal caldav.Calendar, span freebusy.Span) ([]Event, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{{
				Name: "VEVENT",
				Props: []string{
					"SUMMARY",
					"DTSTART",
					"DTEND",
					"UID",
					"DESCRIPTION",
					"LOCATION",
					"ORGANIZER",
					"TRANSP",
					"STATUS",
				},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: span.Start(),
				End:   span.End(),
			}},
		},
	}

	objects, err := client.QueryCalendar(ctx, cal.Path, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar %s: %w", cal.Name, err)
	}

	var events []Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}

		for _, comp := range obj.Data.Children {
			if comp.Name != ics.CompEvent {
				continue
			}

			event, err := s.parseEventComponent(comp, cal.Name)
			if err != nil {
				continue
			}

			events = append(events, event)
		}
	}

	return events, nil
}

// parseEventComponent converts an ICS VEVENT to our Event type.
func (s *CalDAVSource) parseEventComponent(comp *ics.Component, calName string) (Event, error) {
	event := Event{
		Source: fmt.Sprintf("%s/%s", s.name, calName),
	}

	if prop := comp.Props.Get(ics.PropUID); prop != nil {
		event.UID = prop.Value
	}
	if prop := comp.Props.Get(ics.PropSummary); prop != nil {
		event.Summary = prop.Value
	}
	if prop := comp.Props.Get(ics.PropDescription); prop != nil {
		event.Description = prop.Value
	}
	if prop := comp.Props.Get(ics.PropLocation); prop != nil {
		event.Location = prop.Value
	}
	if prop := comp.Props.Get(ics.PropOrganizer); prop != nil {
		event.Organizer = strings.TrimPrefix(prop.Value, "mailto:")
	}
	if prop := comp.Props.Get(ics.PropStatus); prop != nil {
		if strings.EqualFold(prop.Value, "CANCELLED") {
			return event, fmt.Errorf("event %s is cancelled", event.UID)
		}
	}
	if prop := comp.Props.Get(ics.PropTransparency); prop != nil {
		event.Transparent = strings.EqualFold(prop.Value, "TRANSPARENT")
	}

	// Start time
	if prop := comp.Props.Get(ics.PropDateTimeStart); prop != nil {
		t, err := prop.DateTime(time.Local)
		if err != nil {
			// Try as date-only (all-day event)
			t, err = parseDateOnly(prop.Value)
			if err != nil {
				return event, fmt.Errorf("parse start time: %w", err)
			}
			event.AllDay = true
		}
		event.StartsAt = t
	}

	// End time
	if prop := comp.Props.Get(ics.PropDateTimeEnd); prop != nil {
		t, err := prop.DateTime(time.Local)
		if err != nil {
			t, err = parseDateOnly(prop.Value)
			if err != nil {
				return event, fmt.Errorf("parse end time: %w", err)
			}
		}
		event.EndsAt = t
	} else {
		// Default duration
		event.EndsAt = event.StartsAt.Add(time.Hour)
	}

	if !event.AllDay {
		event.AllDay = isEffectivelyAllDay(event.StartsAt, event.EndsAt)
	}

	return event, nil
}

// basicAuthTransport adds basic auth to HTTP requests.
type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(req)
}

// Ensure CalDAVSource implements Source interface.
var _ Source = (*CalDAVSource)(nil)
