// Package avail orchestrates an availability search: it fetches scheduled
// events from the configured calendar sources, drops events that do not
// consume time, and runs the freebusy core over the search window.
package avail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cpuguy83/freebusy"
	"github.com/cpuguy83/freebusy/internal/calendar"
	"github.com/cpuguy83/freebusy/internal/config"
	"github.com/cpuguy83/freebusy/internal/filter"
)

// sourceWithFilter pairs a calendar source with its optional ignore filter.
type sourceWithFilter struct {
	source calendar.Source
	filter *filter.Filter
}

// Finder runs availability searches over the configured sources.
type Finder struct {
	sources      []sourceWithFilter
	ignore       *filter.Filter
	ignoreAllDay bool
	minSlot      time.Duration
}

// NewFinder creates a new Finder from configuration.
func NewFinder(cfg *config.Config) (*Finder, error) {
	sources, err := createSources(cfg.Sources)
	if err != nil {
		return nil, err
	}

	ignore, err := filter.New(cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("global ignore rules: %w", err)
	}

	return &Finder{
		sources:      sources,
		ignore:       ignore,
		ignoreAllDay: cfg.IgnoreAllDay,
		minSlot:      cfg.Window.MinSlot,
	}, nil
}

// SourceCount returns the number of configured sources.
func (f *Finder) SourceCount() int {
	return len(f.sources)
}

// Find fetches busy events from all sources and returns the free periods
// within span. Unlike a best-effort sync, a source failure aborts the
// search: availability computed from an incomplete busy set would report
// time as free that may be booked.
func (f *Finder) Find(ctx context.Context, span freebusy.Span) ([]calendar.FreePeriod, error) {
	events, err := f.fetchAll(ctx, span)
	if err != nil {
		return nil, err
	}

	busy := f.selectBusy(events)

	slog.Info("searching for free slots",
		"window", freebusy.FormatPeriod(span),
		"busy_events", len(busy),
	)

	free, err := freebusy.Find[calendar.Event, calendar.FreePeriod](span, busy)
	if err != nil {
		return nil, fmt.Errorf("find free slots: %w", err)
	}

	if f.minSlot > 0 {
		free = minDuration(free, f.minSlot)
	}

	slog.Info("search complete", "slots", len(free))
	return free, nil
}

// fetchAll fetches all sources in parallel, applying per-source filters.
func (f *Finder) fetchAll(ctx context.Context, span freebusy.Span) ([]calendar.Event, error) {
	type result struct {
		events []calendar.Event
		name   string
		err    error
	}

	results := make(chan result, len(f.sources))
	var wg sync.WaitGroup

	for _, swf := range f.sources {
		swf := swf
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := swf.source.Name()
			slog.Debug("fetching source", "name", name)

			events, err := swf.source.Fetch(ctx, span)
			if err != nil {
				results <- result{name: name, err: err}
				return
			}

			if swf.filter != nil {
				events = swf.filter.Apply(events)
			}

			results <- result{events: events, name: name}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []calendar.Event
	for r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("fetch source %s: %w", r.name, r.err)
		}
		slog.Debug("fetched source", "name", r.name, "events", len(r.events))
		all = append(all, r.events...)
	}

	return f.ignore.Apply(all), nil
}

// selectBusy drops events that do not consume time on the schedule.
func (f *Finder) selectBusy(events []calendar.Event) []calendar.Event {
	var busy []calendar.Event
	for _, e := range events {
		if e.Transparent {
			continue
		}
		if f.ignoreAllDay && e.AllDay {
			continue
		}
		busy = append(busy, e)
	}
	return busy
}

// minDuration keeps only free periods of at least the given length.
func minDuration(periods []calendar.FreePeriod, min time.Duration) []calendar.FreePeriod {
	var kept []calendar.FreePeriod
	for _, p := range periods {
		if p.Duration() >= min {
			kept = append(kept, p)
		}
	}
	return kept
}

// createSources creates calendar sources with their per-source ignore
// filters from configuration.
func createSources(cfgs []config.SourceConfig) ([]sourceWithFilter, error) {
	var sources []sourceWithFilter

	for _, cfg := range cfgs {
		var src calendar.Source

		switch cfg.Type {
		case "ics":
			password, err := cfg.GetPassword()
			if err != nil {
				return nil, err
			}
			src = calendar.NewICSSource(cfg.Name, cfg.URL, cfg.Username, password)

		case "caldav":
			password, err := cfg.GetPassword()
			if err != nil {
				return nil, err
			}
			src = calendar.NewCalDAVSource(cfg.Name, cfg.URL, cfg.Username, password, cfg.Calendars)

		case "icloud":
			password, err := cfg.GetPassword()
			if err != nil {
				return nil, err
			}
			src = calendar.NewICloudSource(cfg.Name, cfg.Username, password, cfg.Calendars)

		case "ms365":
			src = calendar.NewMS365Source(cfg.Name)

		default:
			return nil, fmt.Errorf("unknown source type %q for source %q", cfg.Type, cfg.Name)
		}

		f, err := filter.New(cfg.Ignore)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
		}

		sources = append(sources, sourceWithFilter{
			source: src,
			filter: f,
		})
	}

	return sources, nil
}
