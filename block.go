package freebusy

import (
	"fmt"
	"time"
)

// Block is a validated busy interval: a half-open range [start, end) covering
// an already scheduled event. Blocks are immutable values; the only way to
// obtain one is NewBlock, so downstream code never re-checks the invariant.
type Block struct {
	start time.Time
	end   time.Time
}

// NewBlock creates a busy interval. It fails with ErrInvalidRange unless
// start is strictly before end.
func NewBlock(start, end time.Time) (Block, error) {
	if !start.Before(end) {
		return Block{}, fmt.Errorf("block [%s, %s): %w",
			start.Format(timeLayout), end.Format(timeLayout), ErrInvalidRange)
	}
	return Block{start: start, end: end}, nil
}

// Start is the inclusive start of the block.
func (b Block) Start() time.Time { return b.start }

// End is the exclusive end of the block.
func (b Block) End() time.Time { return b.end }

// Duration returns the length of the block.
func (b Block) Duration() time.Duration { return b.end.Sub(b.start) }

// Overlaps reports whether the block shares any time with p.
// Half-open semantics: touching endpoints do not overlap.
func (b Block) Overlaps(p Period) bool {
	return b.start.Before(p.End()) && p.Start().Before(b.end)
}

// Contains reports whether p lies entirely within the block.
func (b Block) Contains(p Period) bool {
	return !b.start.After(p.Start()) && !p.End().After(b.end)
}

func (b Block) String() string { return FormatPeriod(b) }
