// Package calendar provides calendar source interfaces and the busy-event
// record types fed into the freebusy core.
package calendar

import (
	"context"
	"time"

	"github.com/cpuguy83/freebusy"
)

// Event represents a scheduled calendar event fetched from a source.
// It implements freebusy.Input so it can be fed directly into a search.
type Event struct {
	// UID is the unique identifier for this event.
	UID string

	// Summary is the event title.
	Summary string

	// Description is the full event description/body.
	Description string

	// Location is the event location.
	Location string

	// StartsAt is when the event begins.
	StartsAt time.Time

	// EndsAt is when the event ends.
	EndsAt time.Time

	// AllDay indicates this is an all-day event.
	AllDay bool

	// Transparent indicates the event does not consume time on the
	// schedule (TRANSP:TRANSPARENT in iCal, showAs "free" in MS Graph).
	// Transparent events are not counted as busy.
	Transparent bool

	// Organizer is the email of the event organizer.
	Organizer string

	// Source is the name of the calendar source this event came from.
	Source string
}

// Start is the inclusive start of the event.
func (e Event) Start() time.Time { return e.StartsAt }

// End is the exclusive end of the event.
func (e Event) End() time.Time { return e.EndsAt }

// Duration returns the duration of the event.
func (e Event) Duration() time.Duration { return e.EndsAt.Sub(e.StartsAt) }

// ToBlock converts the event to a validated busy interval.
func (e Event) ToBlock() (freebusy.Block, error) {
	return freebusy.NewBlock(e.StartsAt, e.EndsAt)
}

var _ freebusy.Input = Event{}

// isEffectivelyAllDay reports whether an event spans whole local days.
// Some providers encode all-day events as midnight-to-midnight datetimes
// instead of date-only values.
func isEffectivelyAllDay(start, end time.Time) bool {
	if !end.After(start) {
		return false
	}
	return isLocalMidnight(start) && isLocalMidnight(end)
}

func isLocalMidnight(t time.Time) bool {
	t = t.In(time.Local)
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// FreePeriod is an available interval on the schedule, produced from a
// search result. It implements the freebusy output capability.
type FreePeriod struct {
	// StartsAt is when the free period begins.
	StartsAt time.Time

	// EndsAt is when the free period ends.
	EndsAt time.Time
}

// Start is the inclusive start of the free period.
func (p FreePeriod) Start() time.Time { return p.StartsAt }

// End is the exclusive end of the free period.
func (p FreePeriod) End() time.Time { return p.EndsAt }

// Duration returns the length of the free period.
func (p FreePeriod) Duration() time.Duration { return p.EndsAt.Sub(p.StartsAt) }

// FromSlot constructs a FreePeriod from a resulting slot.
func (FreePeriod) FromSlot(s freebusy.Slot) FreePeriod {
	return FreePeriod{StartsAt: s.Start(), EndsAt: s.End()}
}

var _ freebusy.Output[FreePeriod] = FreePeriod{}

// Source is the interface that calendar sources must implement.
type Source interface {
	// Name returns the display name of this calendar source.
	Name() string

	// Fetch retrieves events overlapping the search window.
	Fetch(ctx context.Context, span freebusy.Span) ([]Event, error)
}
