package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cpuguy83/freebusy"
	"github.com/cpuguy83/freebusy/internal/auth"
)

const (
	// MS Graph API endpoint for calendar events
	graphCalendarEndpoint = "https://graph.microsoft.com/v1.0/me/calendarView"

	// Required scope for reading calendars
	calendarReadScope = "Calendars.Read"
)

// tokenProvider can acquire access tokens.
type tokenProvider interface {
	GetToken(ctx context.Context) (*auth.Token, error)
	Close() error
}

// MS365Source fetches events from a Microsoft 365 calendar via the Graph API.
type MS365Source struct {
	name     string
	auth     tokenProvider
	client   *http.Client
	initOnce sync.Once
	initErr  error
}

// NewMS365Source creates a new MS365 calendar source.
func NewMS365Source(name string) *MS365Source {
	return &MS365Source{
		name: name,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// initAuth initializes the device code authentication provider.
func (s *MS365Source) initAuth() error {
	s.initOnce.Do(func() {
		deviceCode, err := auth.NewDeviceCodeAuth("", []string{calendarReadScope})
		if err != nil {
			s.initErr = fmt.Errorf("initialize device code auth: %w", err)
			return
		}
		s.auth = deviceCode
	})
	return s.initErr
}

// Name returns the display name of this calendar source.
func (s *MS365Source) Name() string {
	return s.name
}

// Fetch retrieves events overlapping the search window.
func (s *MS365Source) Fetch(ctx context.Context, span freebusy.Span) ([]Event, error) {
	if err := s.initAuth(); err != nil {
		return nil, err
	}

	token, err := s.auth.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	events, err := s.fetchCalendarView(ctx, token.AccessToken, span)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}

	return events, nil
}

// Close cleans up resources.
func (s *MS365Source) Close() error {
	if s.auth != nil {
		return s.auth.Close()
	}
	return nil
}

// graphCalendarResponse is the MS Graph API response for calendar events.
type graphCalendarResponse struct {
	Value    []graphEvent `json:"value"`
	NextLink string       `json:"@odata.nextLink,omitempty"`
}

// graphEvent represents an event from MS Graph API. Only the fields relevant
// to free/busy computation are requested.
type graphEvent struct {
	ID          string          `json:"id"`
	Subject     string          `json:"subject"`
	Start       graphDateTime   `json:"start"`
	End         graphDateTime   `json:"end"`
	Location    *graphLocation  `json:"location,omitempty"`
	IsAllDay    bool            `json:"isAllDay"`
	IsCancelled bool            `json:"isCancelled"`
	Organizer   *graphOrganizer `json:"organizer,omitempty"`
	ShowAs      string          `json:"showAs"`
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphLocation struct {
	DisplayName string `json:"displayName"`
}

type graphOrganizer struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

type graphEmailAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// fetchCalendarView fetches events using the calendarView endpoint, which
// expands recurrences server-side.
func (s *MS365Source) fetchCalendarView(ctx context.Context, accessToken string, span freebusy.Span) ([]Event, error) {
	params := url.Values{}
	params.Set("startDateTime", span.Start().UTC().Format(time.RFC3339))
	params.Set("endDateTime", span.End().UTC().Format(time.RFC3339))
	params.Set("$orderby", "start/dateTime")
	params.Set("$top", "500")
	params.Set("$select", "id,subject,start,end,location,isAllDay,isCancelled,organizer,showAs")

	reqURL := graphCalendarEndpoint + "?" + params.Encode()

	var allEvents []Event

	// Handle pagination
	for reqURL != "" {
		events, nextLink, err := s.fetchPage(ctx, accessToken, reqURL)
		if err != nil {
			return nil, err
		}
		allEvents = append(allEvents, events...)
		reqURL = nextLink
	}

	slog.Debug("fetched MS365 events", "count", len(allEvents))
	return allEvents, nil
}

// fetchPage fetches a single page of events.
func (s *MS365Source) fetchPage(ctx context.Context, accessToken, reqURL string) ([]Event, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	// Request times in UTC; comparisons downstream only need ordering
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("graph API error: status %d: %s", resp.StatusCode, string(body))
	}

	var graphResp graphCalendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&graphResp); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}

	events := make([]Event, 0, len(graphResp.Value))
	for _, ge := range graphResp.Value {
		// Cancelled events never consume time
		if ge.IsCancelled {
			continue
		}

		event, err := s.convertEvent(ge)
		if err != nil {
			slog.Warn("skip event conversion error", "id", ge.ID, "error", err)
			continue
		}
		events = append(events, event)
	}

	return events, graphResp.NextLink, nil
}

// convertEvent converts a Graph API event to our Event type.
func (s *MS365Source) convertEvent(ge graphEvent) (Event, error) {
	event := Event{
		UID:     ge.ID,
		Summary: ge.Subject,
		Source:  s.name,
		AllDay:  ge.IsAllDay,

		// Events the owner shows as "free" do not block time
		Transparent: ge.ShowAs == "free",
	}

	start, err := parseGraphDateTime(ge.Start)
	if err != nil {
		return event, fmt.Errorf("parse start: %w", err)
	}
	event.StartsAt = start

	end, err := parseGraphDateTime(ge.End)
	if err != nil {
		return event, fmt.Errorf("parse end: %w", err)
	}
	event.EndsAt = end

	if ge.Location != nil {
		event.Location = ge.Location.DisplayName
	}
	if ge.Organizer != nil {
		event.Organizer = ge.Organizer.EmailAddress.Address
	}

	return event, nil
}

// parseGraphDateTime parses a Graph API datetime value.
func parseGraphDateTime(gdt graphDateTime) (time.Time, error) {
	// Graph API returns datetime in UTC (as we requested via Prefer header)
	// Format: "2024-01-15T09:00:00.0000000"

	formats := []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		t, err := time.ParseInLocation(format, gdt.DateTime, time.UTC)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse datetime: %s", gdt.DateTime)
}

// Ensure MS365Source implements Source interface.
var _ Source = (*MS365Source)(nil)
