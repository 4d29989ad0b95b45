// Package freebusy computes available time: given a search window (Span) and
// a collection of busy intervals (Blocks), it returns the ordered list of
// maximal free intervals (Slots) within the window.
//
// All intervals are half-open [start, end) and validated at construction:
// start must be strictly before end. Times are compared as-is; timezone
// handling is the caller's concern.
package freebusy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRange is returned when a requested interval has start >= end.
// It is the only error the package produces.
var ErrInvalidRange = errors.New("start must be before end")

// timeLayout is the layout used when formatting periods for display.
const timeLayout = "2006-01-02 15:04:05"

// Period is any value with a start and an end instant.
// Block, Span, Slot, and caller record types all satisfy it.
type Period interface {
	// Start is the inclusive start of the period.
	Start() time.Time

	// End is the exclusive end of the period.
	End() time.Time
}

// Input is implemented by caller records representing scheduled events.
// It lets Find accept arbitrary record shapes without knowing their layout.
type Input interface {
	Period

	// ToBlock converts the record to a validated busy interval.
	ToBlock() (Block, error)
}

// Output is implemented by caller records built from resulting free slots.
// FromSlot must be callable on the zero value of O.
type Output[O any] interface {
	// FromSlot constructs a record from a free slot.
	FromSlot(slot Slot) O
}

// FormatPeriod renders a period's start, end, and duration for display.
func FormatPeriod(p Period) string {
	d := p.End().Sub(p.Start())
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("start: %s, end: %s, duration: %dh %dm",
		p.Start().Format(timeLayout), p.End().Format(timeLayout), hours, mins)
}

// FormatPeriods renders a list of periods, one per line.
func FormatPeriods[P Period](periods []P) string {
	parts := make([]string, 0, len(periods))
	for _, p := range periods {
		parts = append(parts, FormatPeriod(p))
	}
	return strings.Join(parts, "\n ")
}
