// freebusy finds available time: the gaps in a search window not covered by
// events from the configured calendar sources.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cpuguy83/freebusy"
	"github.com/cpuguy83/freebusy/internal/avail"
	"github.com/cpuguy83/freebusy/internal/calendar"
	"github.com/cpuguy83/freebusy/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (default: ~/.config/freebusy/config.yaml)")
		verbose    = flag.Bool("v", false, "verbose logging")
		from       = flag.String("from", "", "window start, RFC 3339 (default: config, then now)")
		window     = flag.String("window", "", `window length, e.g. "8h", "7d", "2w" (default: config, then 24h)`)
		minSlot    = flag.Duration("min", 0, "drop slots shorter than this (default: config)")
		format     = flag.String("o", "", `output format: "text" or "ics" (default: config, then text)`)
	)
	flag.Parse()

	// Setup logging
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Flags override the config file
	if *from != "" {
		start, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			slog.Error("invalid -from value", "error", err)
			os.Exit(1)
		}
		cfg.Window.Start = start
	}
	if *window != "" {
		d, err := config.ParseDuration(*window)
		if err != nil {
			slog.Error("invalid -window value", "error", err)
			os.Exit(1)
		}
		cfg.Window.Duration = d
	}
	if *minSlot != 0 {
		cfg.Window.MinSlot = *minSlot
	}
	if *format != "" {
		cfg.Output.Format = *format
	}

	if err := run(cfg); err != nil {
		slog.Error("freebusy failed", "error", err)
		os.Exit(1)
	}
}

// run executes a single availability search and emits the result.
func run(cfg *config.Config) error {
	start := cfg.Window.Start
	if start.IsZero() {
		start = time.Now()
	}

	span, err := freebusy.NewSpan(start, start.Add(cfg.Window.Duration))
	if err != nil {
		return fmt.Errorf("build search window: %w", err)
	}

	finder, err := avail.NewFinder(cfg)
	if err != nil {
		return fmt.Errorf("create finder: %w", err)
	}
	if finder.SourceCount() == 0 {
		return fmt.Errorf("no calendar sources configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	free, err := finder.Find(ctx, span)
	if err != nil {
		return err
	}

	switch cfg.Output.Format {
	case "text":
		if len(free) == 0 {
			fmt.Println("no free time in window")
			return nil
		}
		fmt.Println(freebusy.FormatPeriods(free))
		return nil

	case "ics":
		if cfg.Output.Path != "" {
			return calendar.WriteFreeBusyFile(cfg.Output.Path, span, free)
		}
		return calendar.WriteFreeBusy(os.Stdout, span, free)

	default:
		return fmt.Errorf("unknown output format %q", cfg.Output.Format)
	}
}
