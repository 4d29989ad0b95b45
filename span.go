package freebusy

import (
	"fmt"
	"time"
)

// Span is the search window: the outer bound within which free slots are
// computed. It carries the same [start, end) validation as Block but is kept
// as a distinct type; exactly one Span bounds each search.
type Span struct {
	start time.Time
	end   time.Time
}

// NewSpan creates a search window. It fails with ErrInvalidRange unless
// start is strictly before end.
func NewSpan(start, end time.Time) (Span, error) {
	if !start.Before(end) {
		return Span{}, fmt.Errorf("span [%s, %s): %w",
			start.Format(timeLayout), end.Format(timeLayout), ErrInvalidRange)
	}
	return Span{start: start, end: end}, nil
}

// Start is the inclusive start of the span.
func (s Span) Start() time.Time { return s.start }

// End is the exclusive end of the span.
func (s Span) End() time.Time { return s.end }

// Duration returns the length of the span.
func (s Span) Duration() time.Duration { return s.end.Sub(s.start) }

func (s Span) String() string { return FormatPeriod(s) }
