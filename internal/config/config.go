// Package config provides configuration loading for the freebusy CLI.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Window  WindowConfig   `yaml:"window"`
	Output  OutputConfig   `yaml:"output"`
	Sources []SourceConfig `yaml:"sources"`
	Ignore  FilterConfig   `yaml:"ignore"`

	// IgnoreAllDay drops all-day events from the busy set. All-day entries
	// are usually reminders rather than booked time.
	IgnoreAllDay bool `yaml:"ignore_all_day"`
}

// WindowConfig configures the search window.
type WindowConfig struct {
	// Start of the window. Zero means "now".
	Start time.Time `yaml:"start"`

	// Duration is the window length from Start.
	Duration time.Duration `yaml:"duration"`

	// MinSlot drops resulting slots shorter than this. Zero keeps all.
	MinSlot time.Duration `yaml:"min_slot"`
}

// OutputConfig configures how results are emitted.
type OutputConfig struct {
	Format string `yaml:"format"` // "text" or "ics"
	Path   string `yaml:"path"`   // for "ics": output file ("" = stdout)
}

// SourceConfig configures a calendar source.
type SourceConfig struct {
	Name        string       `yaml:"name"`
	Type        string       `yaml:"type"` // "ics", "caldav", "icloud", "ms365"
	URL         string       `yaml:"url"`
	Username    string       `yaml:"username,omitempty"`
	Password    string       `yaml:"password,omitempty"`
	PasswordCmd string       `yaml:"password_cmd,omitempty"`
	Calendars   []string     `yaml:"calendars,omitempty"` // For CalDAV: which calendars to read
	Ignore      FilterConfig `yaml:"ignore,omitempty"`    // Per-source ignore rules
}

// FilterConfig configures event ignore rules.
type FilterConfig struct {
	Mode  string       `yaml:"mode"` // "or" or "and"
	Rules []FilterRule `yaml:"rules"`
}

// FilterRule defines a single ignore rule.
// Use exactly one of: Contains, Exact, Prefix, Suffix, or Regex.
type FilterRule struct {
	Field           string `yaml:"field"`              // "title", "organizer", "source", "description", "location"
	Contains        string `yaml:"contains,omitempty"` // Substring match
	Exact           string `yaml:"exact,omitempty"`    // Exact string match
	Prefix          string `yaml:"prefix,omitempty"`   // Starts with
	Suffix          string `yaml:"suffix,omitempty"`   // Ends with
	Regex           string `yaml:"regex,omitempty"`    // Regular expression
	CaseInsensitive bool   `yaml:"case_insensitive"`
}

// Load reads configuration from the default location (~/.config/freebusy/config.yaml).
func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("get config dir: %w", err)
	}

	path := filepath.Join(configDir, "freebusy", "config.yaml")
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	// Expand paths
	cfg.Output.Path = expandPath(cfg.Output.Path)

	return &cfg, nil
}

// applyDefaults sets default values for unspecified config options.
func (c *Config) applyDefaults() {
	if c.Window.Duration == 0 {
		c.Window.Duration = 24 * time.Hour
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if c.Ignore.Mode == "" {
		c.Ignore.Mode = "or"
	}
}

// GetPassword returns the password for a source, executing password_cmd if needed.
func (s *SourceConfig) GetPassword() (string, error) {
	if s.Password != "" {
		return s.Password, nil
	}
	if s.PasswordCmd == "" {
		return "", nil
	}

	// Execute the password command
	cmd := exec.Command("sh", "-c", s.PasswordCmd)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("execute password_cmd: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// UnmarshalYAML implements custom unmarshaling for window config: durations
// are duration strings and start is RFC 3339.
func (c *WindowConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Start    string `yaml:"start"`
		Duration string `yaml:"duration"`
		MinSlot  string `yaml:"min_slot"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Start != "" {
		t, err := time.Parse(time.RFC3339, raw.Start)
		if err != nil {
			return fmt.Errorf("parse window start: %w", err)
		}
		c.Start = t
	}
	if raw.Duration != "" {
		d, err := ParseDuration(raw.Duration)
		if err != nil {
			return fmt.Errorf("parse window duration: %w", err)
		}
		c.Duration = d
	}
	if raw.MinSlot != "" {
		d, err := ParseDuration(raw.MinSlot)
		if err != nil {
			return fmt.Errorf("parse min_slot: %w", err)
		}
		c.MinSlot = d
	}
	return nil
}

// ParseDuration parses a duration string. In addition to the standard Go
// duration units it accepts day ("14d") and week ("2w") suffixes.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if n := len(s); n > 1 && (s[n-1] == 'd' || s[n-1] == 'w') {
		v, err := strconv.Atoi(s[:n-1])
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		d := time.Duration(v) * 24 * time.Hour
		if s[n-1] == 'w' {
			d *= 7
		}
		return d, nil
	}

	return time.ParseDuration(s)
}
