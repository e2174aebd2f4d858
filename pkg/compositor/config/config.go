/*
Package config loads compositor settings from YAML or JSON files.

# Overview

Config wraps a decoded map[string]any and provides typed accessors that
fall back to a default when a key is missing or holds the wrong type.
Settings is the typed view the compositor and its process consume:

	settings, err := config.Load("twm.yaml")
	if err != nil {
	    return err
	}
	runner, _ := compositor.NewRunner(host, compositor.WithPollTimeout(settings.PollTimeout))

# File Format

	poll_timeout: 100ms
	log_level: debug
	log_format: json
	metrics: true
	tracing: false
	stats_path: ./keystats.db
	shortcuts:
	  exit_key: escape
	  greeting: Hello from TWM!

Durations accept Go duration strings ("250ms") or numbers of
milliseconds. Nested maps are read with Section.
*/
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is a read-only view over decoded configuration data.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// lookup returns the value for key if it exists and has type T.
func lookup[T any](c Config, key string) (T, bool) {
	var zero T
	raw, ok := c.data[key]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// String returns the string at key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	if v, ok := lookup[string](c, key); ok {
		return v
	}
	return defaultVal
}

// Bool returns the bool at key, or defaultVal.
func (c Config) Bool(key string, defaultVal bool) bool {
	if v, ok := lookup[bool](c, key); ok {
		return v
	}
	return defaultVal
}

// Int returns the integer at key, or defaultVal.
// Whole float64 values (as produced by JSON decoding) are accepted.
func (c Config) Int(key string, defaultVal int) int {
	switch v := c.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return defaultVal
}

// Duration returns the duration at key, or defaultVal.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: milliseconds
//   - time.Duration: used directly
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch v := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v * float64(time.Millisecond))
	case time.Duration:
		return v
	}
	return defaultVal
}

// Section returns the nested map at key as a Config.
// A missing or non-map value yields an empty Config.
func (c Config) Section(key string) Config {
	if m, ok := lookup[map[string]any](c, key); ok {
		return New(m)
	}
	return New(nil)
}

// Has returns true if the key exists.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

// FromYAML parses a YAML document into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses a JSON object into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}
