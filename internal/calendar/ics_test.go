package calendar

import (
	"strings"
	"testing"
	"time"

	ics "github.com/emersion/go-ical"

	"github.com/cpuguy83/freebusy"
)

func testSpan(t *testing.T, start, end time.Time) freebusy.Span {
	t.Helper()
	span, err := freebusy.NewSpan(start, end)
	if err != nil {
		t.Fatalf("NewSpan: %v", err)
	}
	return span
}

func decodeEvents(t *testing.T, icsData string, span freebusy.Span) []Event {
	t.Helper()

	s := &ICSSource{name: "test"}
	events, err := s.parseICS(strings.NewReader(icsData), span)
	if err != nil {
		t.Fatalf("parseICS: %v", err)
	}
	return events
}

func TestParseICS_TimedEvent(t *testing.T) {
	icsData := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:test-timed
SUMMARY:Meeting
DTSTART:20260217T100000
DTEND:20260217T110000
END:VEVENT
END:VCALENDAR`

	span := testSpan(t,
		time.Date(2026, 2, 17, 0, 0, 0, 0, time.Local),
		time.Date(2026, 2, 18, 0, 0, 0, 0, time.Local))

	events := decodeEvents(t, icsData, span)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Summary != "Meeting" {
		t.Errorf("unexpected summary: %s", ev.Summary)
	}
	if ev.Transparent {
		t.Errorf("expected Transparent=false for plain event")
	}
	if ev.Duration() != time.Hour {
		t.Errorf("duration = %v, want 1h", ev.Duration())
	}
}

func TestParseICS_TransparentEvent(t *testing.T) {
	icsData := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:test-transp
SUMMARY:Out of office reminder
TRANSP:TRANSPARENT
DTSTART:20260217T100000
DTEND:20260217T110000
END:VEVENT
END:VCALENDAR`

	span := testSpan(t,
		time.Date(2026, 2, 17, 0, 0, 0, 0, time.Local),
		time.Date(2026, 2, 18, 0, 0, 0, 0, time.Local))

	events := decodeEvents(t, icsData, span)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if !events[0].Transparent {
		t.Errorf("expected Transparent=true for TRANSP:TRANSPARENT event")
	}
}

func TestParseICS_CancelledEventSkipped(t *testing.T) {
	icsData := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:test-cancelled
SUMMARY:Cancelled meeting
STATUS:CANCELLED
DTSTART:20260217T100000
DTEND:20260217T110000
END:VEVENT
END:VCALENDAR`

	span := testSpan(t,
		time.Date(2026, 2, 17, 0, 0, 0, 0, time.Local),
		time.Date(2026, 2, 18, 0, 0, 0, 0, time.Local))

	events := decodeEvents(t, icsData, span)
	if len(events) != 0 {
		t.Fatalf("expected cancelled event to be skipped, got %d events", len(events))
	}
}

func TestParseICS_OutsideWindowSkipped(t *testing.T) {
	icsData := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:test-before
SUMMARY:Last week
DTSTART:20260210T100000
DTEND:20260210T110000
END:VEVENT
BEGIN:VEVENT
UID:test-inside
SUMMARY:Today
DTSTART:20260217T100000
DTEND:20260217T110000
END:VEVENT
END:VCALENDAR`

	span := testSpan(t,
		time.Date(2026, 2, 17, 0, 0, 0, 0, time.Local),
		time.Date(2026, 2, 18, 0, 0, 0, 0, time.Local))

	events := decodeEvents(t, icsData, span)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].UID != "test-inside" {
		t.Errorf("unexpected event kept: %s", events[0].UID)
	}
}

func TestParseICS_RecurringExpandedWithinWindow(t *testing.T) {
	// Daily standup; only the occurrences inside the window should appear.
	icsData := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:test-recurring
SUMMARY:Standup
DTSTART:20260202T091500
DTEND:20260202T093000
RRULE:FREQ=DAILY
END:VEVENT
END:VCALENDAR`

	span := testSpan(t,
		time.Date(2026, 2, 17, 0, 0, 0, 0, time.Local),
		time.Date(2026, 2, 19, 0, 0, 0, 0, time.Local))

	events := decodeEvents(t, icsData, span)
	if len(events) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(events))
	}
	want := time.Date(2026, 2, 17, 9, 15, 0, 0, time.Local)
	if !events[0].StartsAt.Equal(want) {
		t.Errorf("first occurrence = %v, want %v", events[0].StartsAt, want)
	}
	if events[0].UID == events[1].UID {
		t.Errorf("occurrence UIDs must be unique, both %s", events[0].UID)
	}
}

func TestParseICS_DateOnlyAllDay(t *testing.T) {
	icsData := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:test-dateonly-allday
SUMMARY:Holiday
DTSTART;VALUE=DATE:20260217
DTEND;VALUE=DATE:20260218
END:VEVENT
END:VCALENDAR`

	dec := ics.NewDecoder(strings.NewReader(icsData))
	cal, err := dec.Decode()
	if err != nil {
		t.Fatalf("failed to decode ICS: %v", err)
	}

	span := testSpan(t,
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local))

	s := &ICSSource{name: "test"}
	for _, child := range cal.Children {
		if child.Name != ics.CompEvent {
			continue
		}
		events, err := s.parseEvent(child, span)
		if err != nil {
			t.Fatalf("parseEvent error: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(events))
		}
		if !events[0].AllDay {
			t.Errorf("expected AllDay=true for date-only event, got false")
		}
	}
}
