package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/cpuguy83/freebusy"
)

func TestEventToBlock(t *testing.T) {
	ev := Event{
		UID:      "evt-1",
		Summary:  "Planning",
		StartsAt: time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 2, 17, 11, 0, 0, 0, time.UTC),
	}

	b, err := ev.ToBlock()
	if err != nil {
		t.Fatalf("ToBlock: %v", err)
	}
	if !b.Start().Equal(ev.StartsAt) || !b.End().Equal(ev.EndsAt) {
		t.Errorf("block = [%v, %v), want [%v, %v)", b.Start(), b.End(), ev.StartsAt, ev.EndsAt)
	}
}

func TestEventToBlockInvalid(t *testing.T) {
	at := time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC)
	ev := Event{UID: "evt-bad", StartsAt: at, EndsAt: at}

	if _, err := ev.ToBlock(); !errors.Is(err, freebusy.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

func TestFreePeriodFromSlot(t *testing.T) {
	start := time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 17, 14, 30, 0, 0, time.UTC)
	slot, err := freebusy.NewSlot(start, end)
	if err != nil {
		t.Fatalf("NewSlot: %v", err)
	}

	p := FreePeriod{}.FromSlot(slot)
	if !p.Start().Equal(start) || !p.End().Equal(end) {
		t.Errorf("period = [%v, %v), want [%v, %v)", p.Start(), p.End(), start, end)
	}
	if p.Duration() != 150*time.Minute {
		t.Errorf("duration = %v, want 2h30m", p.Duration())
	}
}

func TestIsEffectivelyAllDay(t *testing.T) {
	loc := time.Local

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{
			name:  "single day midnight to midnight",
			start: time.Date(2026, 2, 17, 0, 0, 0, 0, loc),
			end:   time.Date(2026, 2, 18, 0, 0, 0, 0, loc),
			want:  true,
		},
		{
			name:  "multi-day midnight to midnight",
			start: time.Date(2026, 2, 16, 0, 0, 0, 0, loc),
			end:   time.Date(2026, 2, 21, 0, 0, 0, 0, loc),
			want:  true,
		},
		{
			name:  "start not midnight",
			start: time.Date(2026, 2, 17, 9, 0, 0, 0, loc),
			end:   time.Date(2026, 2, 18, 0, 0, 0, 0, loc),
			want:  false,
		},
		{
			name:  "end not midnight",
			start: time.Date(2026, 2, 17, 0, 0, 0, 0, loc),
			end:   time.Date(2026, 2, 18, 17, 0, 0, 0, loc),
			want:  false,
		},
		{
			name:  "zero duration",
			start: time.Date(2026, 2, 17, 0, 0, 0, 0, loc),
			end:   time.Date(2026, 2, 17, 0, 0, 0, 0, loc),
			want:  false,
		},
		{
			name:  "end before start",
			start: time.Date(2026, 2, 18, 0, 0, 0, 0, loc),
			end:   time.Date(2026, 2, 17, 0, 0, 0, 0, loc),
			want:  false,
		},
		{
			name:  "normal timed event",
			start: time.Date(2026, 2, 17, 10, 30, 0, 0, loc),
			end:   time.Date(2026, 2, 17, 11, 30, 0, 0, loc),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isEffectivelyAllDay(tt.start, tt.end)
			if got != tt.want {
				t.Errorf("isEffectivelyAllDay(%v, %v) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}
