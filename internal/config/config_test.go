package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFrom(t *testing.T) {
	path := writeConfig(t, `
window:
  start: "2026-02-17T09:00:00Z"
  duration: 8h
  min_slot: 30m
output:
  format: ics
  path: /tmp/freebusy.ics
ignore_all_day: true
sources:
  - name: work
    type: caldav
    url: https://cal.example.com/dav/
    username: me
    password_cmd: pass show cal
    calendars:
      - Work
ignore:
  mode: and
  rules:
    - field: title
      contains: Focus
      case_insensitive: true
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	wantStart := time.Date(2026, 2, 17, 9, 0, 0, 0, time.UTC)
	if !cfg.Window.Start.Equal(wantStart) {
		t.Errorf("window start = %v, want %v", cfg.Window.Start, wantStart)
	}
	if cfg.Window.Duration != 8*time.Hour {
		t.Errorf("window duration = %v, want 8h", cfg.Window.Duration)
	}
	if cfg.Window.MinSlot != 30*time.Minute {
		t.Errorf("min_slot = %v, want 30m", cfg.Window.MinSlot)
	}
	if cfg.Output.Format != "ics" {
		t.Errorf("output format = %q, want ics", cfg.Output.Format)
	}
	if !cfg.IgnoreAllDay {
		t.Error("expected ignore_all_day=true")
	}

	if len(cfg.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(cfg.Sources))
	}
	src := cfg.Sources[0]
	if src.Name != "work" || src.Type != "caldav" {
		t.Errorf("unexpected source: %+v", src)
	}
	if src.PasswordCmd != "pass show cal" {
		t.Errorf("password_cmd = %q", src.PasswordCmd)
	}
	if len(src.Calendars) != 1 || src.Calendars[0] != "Work" {
		t.Errorf("calendars = %v, want [Work]", src.Calendars)
	}

	if cfg.Ignore.Mode != "and" {
		t.Errorf("ignore mode = %q, want and", cfg.Ignore.Mode)
	}
	if len(cfg.Ignore.Rules) != 1 {
		t.Fatalf("expected 1 ignore rule, got %d", len(cfg.Ignore.Rules))
	}
	rule := cfg.Ignore.Rules[0]
	if rule.Field != "title" || rule.Contains != "Focus" || !rule.CaseInsensitive {
		t.Errorf("unexpected rule: %+v", rule)
	}
}

func TestLoadFromDefaults(t *testing.T) {
	path := writeConfig(t, `
sources:
  - name: personal
    type: ics
    url: https://example.com/cal.ics
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if !cfg.Window.Start.IsZero() {
		t.Errorf("expected zero window start, got %v", cfg.Window.Start)
	}
	if cfg.Window.Duration != 24*time.Hour {
		t.Errorf("default duration = %v, want 24h", cfg.Window.Duration)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("default format = %q, want text", cfg.Output.Format)
	}
	if cfg.Ignore.Mode != "or" {
		t.Errorf("default ignore mode = %q, want or", cfg.Ignore.Mode)
	}
}

func TestLoadFromWindowDaySuffix(t *testing.T) {
	path := writeConfig(t, `
window:
  duration: 7d
  min_slot: 1h
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Window.Duration != 7*24*time.Hour {
		t.Errorf("duration = %v, want 168h", cfg.Window.Duration)
	}
}

func TestLoadFromBadWindow(t *testing.T) {
	path := writeConfig(t, `
window:
  start: "not a time"
`)

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid window start")
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		// Days
		{"1d", 24 * time.Hour, false},
		{"14d", 14 * 24 * time.Hour, false},

		// Weeks
		{"1w", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},

		// Standard Go durations
		{"5m", 5 * time.Minute, false},
		{"24h", 24 * time.Hour, false},
		{"1h30m", time.Hour + 30*time.Minute, false},

		// Edge cases
		{"0d", 0, false},
		{"", 0, false},
		{"  14d  ", 14 * 24 * time.Hour, false},

		// Errors
		{"invalid", 0, true},
		{"d", 0, true},
		{"w", 0, true},
		{"14x", 0, true},
		{"-1d", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetPassword(t *testing.T) {
	src := SourceConfig{Password: "hunter2", PasswordCmd: "echo nope"}
	got, err := src.GetPassword()
	if err != nil {
		t.Fatalf("GetPassword: %v", err)
	}
	if got != "hunter2" {
		t.Errorf("password = %q, want literal password to win", got)
	}

	src = SourceConfig{PasswordCmd: "echo  s3cret "}
	got, err = src.GetPassword()
	if err != nil {
		t.Fatalf("GetPassword: %v", err)
	}
	if got != "s3cret" {
		t.Errorf("password = %q, want trimmed command output", got)
	}

	src = SourceConfig{}
	got, err = src.GetPassword()
	if err != nil {
		t.Fatalf("GetPassword: %v", err)
	}
	if got != "" {
		t.Errorf("password = %q, want empty", got)
	}
}
