package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// parsers picks the settings file format by extension.
var parsers = map[string]func([]byte) (Config, error){
	".yaml": FromYAML,
	".yml":  FromYAML,
	".json": FromJSON,
}

// Settings is the typed configuration of a compositor process.
type Settings struct {
	// PollTimeout bounds each readiness wait of the run loop.
	PollTimeout time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFormat is text or json.
	LogFormat string

	// Metrics enables OpenTelemetry metrics.
	Metrics bool

	// Tracing enables OpenTelemetry tracing.
	Tracing bool

	// StatsPath is the key statistics database; ":memory:" keeps it in memory.
	StatsPath string

	// ExitKey is the key name that stops the compositor.
	ExitKey string

	// Greeting is printed by the greeting shortcut.
	Greeting string
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		PollTimeout: 100 * time.Millisecond,
		LogLevel:    "info",
		LogFormat:   "text",
		StatsPath:   ":memory:",
		ExitKey:     "escape",
		Greeting:    "Hello from TWM!",
	}
}

// FromConfig overlays c on the defaults.
func FromConfig(c Config) Settings {
	s := Defaults()
	s.PollTimeout = c.Duration("poll_timeout", s.PollTimeout)
	s.LogLevel = strings.ToLower(c.String("log_level", s.LogLevel))
	s.LogFormat = strings.ToLower(c.String("log_format", s.LogFormat))
	s.Metrics = c.Bool("metrics", s.Metrics)
	s.Tracing = c.Bool("tracing", s.Tracing)
	s.StatsPath = c.String("stats_path", s.StatsPath)

	shortcuts := c.Section("shortcuts")
	s.ExitKey = strings.ToLower(shortcuts.String("exit_key", s.ExitKey))
	s.Greeting = shortcuts.String("greeting", s.Greeting)
	return s
}

// Load reads settings from a .yaml, .yml or .json file. An empty path
// yields the defaults. The result is validated.
func Load(path string) (Settings, error) {
	if path == "" {
		return Defaults(), nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	parse, ok := parsers[ext]
	if !ok {
		return Settings{}, fmt.Errorf("config %s: unsupported config file extension: %q", path, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}
	c, err := parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", path, err)
	}

	s := FromConfig(c)
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

// Validate reports every invalid field, joined.
func (s Settings) Validate() error {
	var errs []error
	if s.PollTimeout <= 0 {
		errs = append(errs, fmt.Errorf("poll_timeout must be positive, got %s", s.PollTimeout))
	}
	if _, ok := parseLevel(s.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown log_level %q", s.LogLevel))
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log_format %q", s.LogFormat))
	}
	if s.StatsPath == "" {
		errs = append(errs, errors.New("stats_path cannot be empty"))
	}
	if s.ExitKey == "" {
		errs = append(errs, errors.New("shortcuts.exit_key cannot be empty"))
	}
	return errors.Join(errs...)
}

// Level returns the slog level for LogLevel, defaulting to info.
func (s Settings) Level() slog.Level {
	level, _ := parseLevel(s.LogLevel)
	return level
}

func parseLevel(name string) (slog.Level, bool) {
	switch name {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
