//go:build unix

// Package main is the entry point for twm, a terminal shortcut daemon
// built on the compositor.
//
// twm reads key presses from the controlling terminal and signals from the
// OS, counts keys, and reacts to a few shortcuts until the exit key,
// ctrl+c, SIGINT or SIGTERM arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/randalmurphal/compositor/internal/keyboard"
	"github.com/randalmurphal/compositor/internal/keystats"
	"github.com/randalmurphal/compositor/internal/shortcuts"
	"github.com/randalmurphal/compositor/pkg/compositor"
	"github.com/randalmurphal/compositor/pkg/compositor/config"
	"github.com/randalmurphal/compositor/pkg/compositor/module"
	"github.com/randalmurphal/compositor/pkg/compositor/signal"
)

// options holds command line flags. Non-empty values override the
// configuration file.
type options struct {
	configPath string
	statsPath  string
	logLevel   string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	settings, err := loadSettings(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	logger := newLogger(os.Stderr, settings)

	exitKey, err := keyboard.Parse(settings.ExitKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: shortcuts.exit_key: %v\n", err)
		return 2
	}

	keys := keyboard.New(int(os.Stdin.Fd()), keyboard.WithLogger(logger))
	sigs := signal.New(
		signal.WithSignals(syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP),
		signal.WithLogger(logger),
	)
	shorts := shortcuts.New(
		shortcuts.WithExitKey(exitKey),
		shortcuts.WithGreeting(settings.Greeting),
		shortcuts.WithOutput(os.Stdout),
		shortcuts.WithLogger(logger),
	)

	ctx := context.Background()
	host, err := compositor.NewInitialized(ctx,
		[]module.Module{
			keys,
			sigs,
			keystats.New(settings.StatsPath, keystats.WithLogger(logger)),
			shorts,
		},
		compositor.WithLogger(logger),
		compositor.WithMetrics(settings.Metrics),
		compositor.WithTracing(settings.Tracing),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start: %v\n", err)
		return 1
	}

	// Ensure the terminal is restored on all exit paths
	defer func() {
		if err := host.Cleanup(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cleanup: %v\n", err)
		}
	}()

	compositor.InjectPublisher[keyboard.KeyPress](host)
	compositor.InjectPublisher[signal.Received](host)

	runner, err := compositor.NewRunner(host, compositor.WithPollTimeout(settings.PollTimeout))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stdout, "twm running; press %s to exit\r\n", exitKey)
	if err := runner.Run(ctx, compositor.WithExitCheck(shorts.ExitRequested)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\r\n", err)
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (.yaml, .yml, .json)")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.statsPath, "stats", "", "Key statistics database (:memory: for none)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "twm - terminal shortcut daemon\n\n")
		fmt.Fprintf(os.Stderr, "Usage: twm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nShortcuts:\n")
		fmt.Fprintf(os.Stderr, "  escape, ctrl+c   exit (exit key is configurable)\n")
		fmt.Fprintf(os.Stderr, "  ctrl+b           print the greeting\n")
		fmt.Fprintf(os.Stderr, "  ctrl+r           reset key statistics\n")
		fmt.Fprintf(os.Stderr, "  ?                print key statistics\n")
	}

	flag.Parse()
	return opts
}

// loadSettings reads the configuration file and applies flag overrides.
func loadSettings(opts options) (config.Settings, error) {
	settings, err := config.Load(opts.configPath)
	if err != nil {
		return config.Settings{}, err
	}
	if opts.statsPath != "" {
		settings.StatsPath = opts.statsPath
	}
	if opts.logLevel != "" {
		settings.LogLevel = opts.logLevel
	}
	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

func newLogger(w io.Writer, settings config.Settings) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: settings.Level()}
	if settings.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
