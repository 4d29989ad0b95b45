package freebusy

import (
	"fmt"
	"time"
)

// Slot is a resulting free interval. It is structurally identical to Block
// but kept as a distinct type so a search result cannot be fed back in as a
// busy interval without an explicit conversion.
type Slot struct {
	start time.Time
	end   time.Time
}

// NewSlot creates a free interval. It fails with ErrInvalidRange unless
// start is strictly before end.
func NewSlot(start, end time.Time) (Slot, error) {
	if !start.Before(end) {
		return Slot{}, fmt.Errorf("slot [%s, %s): %w",
			start.Format(timeLayout), end.Format(timeLayout), ErrInvalidRange)
	}
	return Slot{start: start, end: end}, nil
}

// Start is the inclusive start of the slot.
func (s Slot) Start() time.Time { return s.start }

// End is the exclusive end of the slot.
func (s Slot) End() time.Time { return s.end }

// Duration returns the length of the slot.
func (s Slot) Duration() time.Duration { return s.end.Sub(s.start) }

func (s Slot) String() string { return FormatPeriod(s) }
