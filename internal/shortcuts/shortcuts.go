//go:build unix

package shortcuts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/randalmurphal/compositor/internal/keyboard"
	"github.com/randalmurphal/compositor/internal/keystats"
	"github.com/randalmurphal/compositor/pkg/compositor/bus"
	"github.com/randalmurphal/compositor/pkg/compositor/signal"
)

// DefaultGreeting is printed by ctrl+b unless WithGreeting is set.
const DefaultGreeting = "Hello from TWM!"

// summaryTop is how many keys the statistics summary lists.
const summaryTop = 3

var (
	interrupt = keyboard.Rune('c', keyboard.ModCtrl)
	greet     = keyboard.Rune('b', keyboard.ModCtrl)
	reset     = keyboard.Rune('r', keyboard.ModCtrl)
	summary   = keyboard.Rune('?', 0)
)

// Module reacts to shortcut keys and termination signals.
type Module struct {
	exitKey  keyboard.KeyPress
	greeting string
	out      io.Writer
	logger   *slog.Logger

	bus  *bus.Table
	exit atomic.Bool
}

// Option configures a Module.
type Option func(*Module)

// WithExitKey sets the key that requests exit. Default: escape.
func WithExitKey(k keyboard.KeyPress) Option {
	return func(m *Module) {
		m.exitKey = k
	}
}

// WithGreeting sets the text printed by ctrl+b.
func WithGreeting(greeting string) Option {
	return func(m *Module) {
		m.greeting = greeting
	}
}

// WithOutput sets where shortcut output is written. Default: discard.
func WithOutput(w io.Writer) Option {
	return func(m *Module) {
		m.out = w
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

// New creates a shortcuts module.
func New(opts ...Option) *Module {
	m := &Module{
		exitKey:  keyboard.Special(keyboard.KeyEscape, 0),
		greeting: DefaultGreeting,
		out:      io.Discard,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements module.Namer.
func (m *Module) Name() string { return "shortcuts" }

// UseBus implements module.BusUser.
func (m *Module) UseBus(t *bus.Table) { m.bus = t }

// Register subscribes to key presses and signals.
func (m *Module) Register(t *bus.Table) *bus.Table {
	t = bus.Subscribe(t, m.onKeyPress, bus.WithLabel("shortcuts.keys"))
	return bus.Subscribe(t, m.onSignal, bus.WithLabel("shortcuts.signals"))
}

// ExitRequested reports whether an exit shortcut or signal was seen.
func (m *Module) ExitRequested() bool {
	return m.exit.Load()
}

// RequestExit marks exit as requested.
func (m *Module) RequestExit() {
	m.exit.Store(true)
}

func (m *Module) onKeyPress(ctx context.Context, evt keyboard.KeyPressEvent) error {
	switch k := evt.Payload; k {
	case m.exitKey, interrupt:
		m.logger.Info("exit requested", slog.String("key", k.String()))
		m.RequestExit()
		return nil
	case greet:
		return m.println(m.greeting)
	case reset:
		return m.resetStats(ctx)
	case summary:
		return m.printStats(ctx)
	default:
		return nil
	}
}

func (m *Module) onSignal(_ context.Context, evt signal.ReceivedEvent) error {
	switch sig := evt.Payload.Signal; sig {
	case syscall.SIGINT, syscall.SIGTERM:
		m.logger.Info("exit requested", slog.String("signal", sig.String()))
		m.RequestExit()
	default:
		m.logger.Debug("signal ignored", slog.String("signal", sig.String()))
	}
	return nil
}

func (m *Module) resetStats(ctx context.Context) error {
	if m.bus == nil {
		return errors.New("shortcuts: no bus")
	}
	err := bus.Dispatch(ctx, m.bus, keystats.ResetCommand{})
	if errors.Is(err, bus.ErrNoHandler) {
		return m.println("key statistics unavailable")
	}
	if err != nil {
		return fmt.Errorf("reset key statistics: %w", err)
	}
	return m.println("key statistics reset")
}

func (m *Module) printStats(ctx context.Context) error {
	if m.bus == nil {
		return errors.New("shortcuts: no bus")
	}
	total, err := bus.Ask(ctx, m.bus, keystats.CountRequest{})
	if errors.Is(err, bus.ErrNoHandler) {
		return m.println("key statistics unavailable")
	}
	if err != nil {
		return fmt.Errorf("count keys: %w", err)
	}
	top, err := bus.Ask(ctx, m.bus, keystats.TopRequest{Payload: keystats.Top{N: summaryTop}})
	if err != nil {
		return fmt.Errorf("top keys: %w", err)
	}
	return m.println(formatStats(total, top))
}

// println writes line terminated with CRLF, since raw mode disables
// output newline translation.
func (m *Module) println(line string) error {
	_, err := io.WriteString(m.out, line+"\r\n")
	return err
}

func formatStats(total int64, top []keystats.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d keys pressed", total)
	for i, e := range top {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%d", e.Key, e.Count)
	}
	return b.String()
}
