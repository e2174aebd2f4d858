package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/compositor/pkg/compositor/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew verifies Config creation from maps.
func TestNew(t *testing.T) {
	assert.NotNil(t, config.New(nil).Raw())
	assert.Equal(t, "v", config.New(map[string]any{"k": "v"}).Raw()["k"])
}

func TestAccessors(t *testing.T) {
	cfg := config.New(map[string]any{
		"name":     "twm",
		"enabled":  true,
		"count":    3,
		"count64":  int64(4),
		"countf":   float64(5),
		"fraction": 1.5,
		"nested":   map[string]any{"inner": "yes"},
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string present", cfg.String("name", "x"), "twm"},
		{"string missing", cfg.String("missing", "x"), "x"},
		{"string wrong type", cfg.String("count", "x"), "x"},
		{"bool present", cfg.Bool("enabled", false), true},
		{"bool wrong type", cfg.Bool("name", false), false},
		{"int", cfg.Int("count", 0), 3},
		{"int64", cfg.Int("count64", 0), 4},
		{"whole float", cfg.Int("countf", 0), 5},
		{"fractional float", cfg.Int("fraction", 9), 9},
		{"int missing", cfg.Int("missing", 7), 7},
		{"section", cfg.Section("nested").String("inner", ""), "yes"},
		{"section missing", cfg.Section("missing").String("inner", "none"), "none"},
		{"section wrong type", cfg.Section("name").Has("inner"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"string", "250ms", 250 * time.Millisecond},
		{"complex string", "1m30s", 90 * time.Second},
		{"int millis", 50, 50 * time.Millisecond},
		{"int64 millis", int64(75), 75 * time.Millisecond},
		{"float millis", 12.5, 12500 * time.Microsecond},
		{"duration", 3 * time.Second, 3 * time.Second},
		{"invalid string", "soon", time.Second},
		{"wrong type", true, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"d": tt.value})
			assert.Equal(t, tt.want, cfg.Duration("d", time.Second))
		})
	}
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
poll_timeout: 250ms
metrics: true
shortcuts:
  exit_key: Q
`))
	require.NoError(t, err)

	s := config.FromConfig(cfg)
	assert.Equal(t, 250*time.Millisecond, s.PollTimeout)
	assert.True(t, s.Metrics)
	assert.False(t, s.Tracing)
	assert.Equal(t, "q", s.ExitKey)
	assert.Equal(t, "Hello from TWM!", s.Greeting)
}

func TestFromYAML_Invalid(t *testing.T) {
	_, err := config.FromYAML([]byte("poll_timeout: [unterminated"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"poll_timeout": 40, "log_level": "DEBUG"}`))
	require.NoError(t, err)

	s := config.FromConfig(cfg)
	assert.Equal(t, 40*time.Millisecond, s.PollTimeout)
	assert.Equal(t, slog.LevelDebug, s.Level())

	_, err = config.FromJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path gives defaults", func(t *testing.T) {
		s, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, config.Defaults(), s)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(dir, "twm.yml")
		require.NoError(t, os.WriteFile(path, []byte("stats_path: ./stats.db\nlog_format: json\n"), 0o600))

		s, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "./stats.db", s.StatsPath)
		assert.Equal(t, "json", s.LogFormat)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "twm.toml")
		require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))

		_, err := config.Load(path)
		assert.ErrorContains(t, err, "unsupported config file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("extension is case insensitive", func(t *testing.T) {
		path := filepath.Join(dir, "twm.YML")
		require.NoError(t, os.WriteFile(path, []byte("shortcuts:\n  exit_key: Q\n"), 0o600))

		s, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "q", s.ExitKey)
	})

	t.Run("malformed file names the path", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("poll_timeout: [unterminated"), 0o600))

		_, err := config.Load(path)
		assert.ErrorContains(t, err, path)
		assert.ErrorContains(t, err, "parse yaml")
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"poll_timeout": "-1s", "log_level": "loud"}`), 0o600))

		_, err := config.Load(path)
		require.Error(t, err)
		assert.ErrorContains(t, err, "poll_timeout must be positive")
		assert.ErrorContains(t, err, `unknown log_level "loud"`)
	})
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, config.Defaults().Validate())

	s := config.Defaults()
	s.LogFormat = "xml"
	s.StatsPath = ""
	s.ExitKey = ""
	err := s.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "log_format")
	assert.ErrorContains(t, err, "stats_path")
	assert.ErrorContains(t, err, "exit_key")
}

func TestSettings_Level(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	} {
		s := config.Defaults()
		s.LogLevel = name
		assert.Equal(t, want, s.Level(), name)
	}
}
