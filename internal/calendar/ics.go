package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"

	"github.com/cpuguy83/freebusy"
)

// ICSSource fetches events from an ICS/iCal URL or local file.
type ICSSource struct {
	name     string
	location string // http(s) URL or filesystem path
	username string
	password string
	client   *http.Client
}

// NewICSSource creates a new ICS calendar source. The location may be an
// http(s) URL or a local file path.
func NewICSSource(name, location, username, password string) *ICSSource {
	return &ICSSource{
		name:     name,
		location: location,
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the display name of this calendar source.
func (s *ICSSource) Name() string {
	return s.name
}

// Fetch retrieves events overlapping the search window.
func (s *ICSSource) Fetch(ctx context.Context, span freebusy.Span) ([]Event, error) {
	if !strings.HasPrefix(s.location, "http://") && !strings.HasPrefix(s.location, "https://") {
		f, err := os.Open(s.location)
		if err != nil {
			return nil, fmt.Errorf("open ICS file: %w", err)
		}
		defer f.Close()
		return s.parseICS(f, span)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Add basic auth if credentials provided
	if s.username != "" && s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ICS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch ICS: status %d", resp.StatusCode)
	}

	return s.parseICS(resp.Body, span)
}

// parseICS parses an ICS stream and returns events overlapping the window.
func (s *ICSSource) parseICS(r io.Reader, span freebusy.Span) ([]Event, error) {
	dec := ics.NewDecoder(r)

	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ICS: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ics.CompEvent {
				continue
			}

			parsed, err := s.parseEvent(comp, span)
			if err != nil {
				// Skip events we can't parse
				continue
			}

			for _, event := range parsed {
				// Keep only events that overlap the window
				if event.EndsAt.After(span.Start()) && event.StartsAt.Before(span.End()) {
					events = append(events, event)
				}
			}
		}
	}

	return events, nil
}

// parseEvent converts an ICS VEVENT component to Event values.
// For recurring events, it expands occurrences within the search window.
func (s *ICSSource) parseEvent(comp *ics.Component, span freebusy.Span) ([]Event, error) {
	base := Event{
		Source: s.name,
	}

	if prop := comp.Props.Get(ics.PropUID); prop != nil {
		base.UID = prop.Value
	}
	if prop := comp.Props.Get(ics.PropSummary); prop != nil {
		base.Summary = prop.Value
	}
	if prop := comp.Props.Get(ics.PropDescription); prop != nil {
		base.Description = prop.Value
	}
	if prop := comp.Props.Get(ics.PropLocation); prop != nil {
		base.Location = prop.Value
	}
	if prop := comp.Props.Get(ics.PropOrganizer); prop != nil {
		base.Organizer = strings.TrimPrefix(prop.Value, "mailto:")
	}

	// Cancelled events never consume time
	if prop := comp.Props.Get(ics.PropStatus); prop != nil {
		if strings.EqualFold(prop.Value, "CANCELLED") {
			return nil, nil
		}
	}

	// TRANSP:TRANSPARENT marks the event as not blocking time
	if prop := comp.Props.Get(ics.PropTransparency); prop != nil {
		base.Transparent = strings.EqualFold(prop.Value, "TRANSPARENT")
	}

	// Start time
	var startTime time.Time
	var isAllDay bool
	if prop := comp.Props.Get(ics.PropDateTimeStart); prop != nil {
		t, err := prop.DateTime(time.Local)
		if err != nil {
			// Try parsing as local datetime without timezone (floating time)
			t, err = parseDateTime(prop.Value)
			if err != nil {
				// Try as date-only (all-day event)
				t, err = parseDateOnly(prop.Value)
				if err != nil {
					return nil, fmt.Errorf("parse start time: %w", err)
				}
				isAllDay = true
			}
		}
		startTime = t
	}

	// End time / duration
	var duration time.Duration
	if prop := comp.Props.Get(ics.PropDateTimeEnd); prop != nil {
		t, err := prop.DateTime(time.Local)
		if err != nil {
			t, err = parseDateTime(prop.Value)
			if err != nil {
				t, err = parseDateOnly(prop.Value)
				if err != nil {
					return nil, fmt.Errorf("parse end time: %w", err)
				}
			}
		}
		duration = t.Sub(startTime)
	} else {
		// Default to 1 hour duration
		duration = time.Hour
	}
	if duration <= 0 {
		return nil, fmt.Errorf("event %s has non-positive duration", base.UID)
	}

	// Check for recurrence rule
	rset, err := comp.RecurrenceSet(time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence: %w", err)
	}

	if rset == nil {
		base.StartsAt = startTime
		base.EndsAt = startTime.Add(duration)
		base.AllDay = isAllDay || isEffectivelyAllDay(base.StartsAt, base.EndsAt)
		return []Event{base}, nil
	}

	// Recurring event: expand occurrences. Look back by the event duration to
	// catch occurrences that started before the window but reach into it.
	occurrences := rset.Between(span.Start().Add(-duration), span.End(), true)

	var events []Event
	for _, occ := range occurrences {
		event := base
		event.StartsAt = occ
		event.EndsAt = occ.Add(duration)
		event.AllDay = isAllDay || isEffectivelyAllDay(event.StartsAt, event.EndsAt)
		// Make UID unique per occurrence
		event.UID = fmt.Sprintf("%s_%d", base.UID, occ.Unix())
		events = append(events, event)
	}

	return events, nil
}

// parseDateOnly parses a date-only value (YYYYMMDD format).
func parseDateOnly(s string) (time.Time, error) {
	return time.ParseInLocation("20060102", s, time.Local)
}

// parseDateTime parses a datetime value without timezone (YYYYMMDDTHHmmss format).
// This handles "floating time" values that are neither UTC nor have a TZID.
func parseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation("20060102T150405", s, time.Local)
}

// Ensure ICSSource implements Source interface.
var _ Source = (*ICSSource)(nil)
