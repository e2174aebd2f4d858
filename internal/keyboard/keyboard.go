//go:build unix

package keyboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/compositor/pkg/compositor/bus"
	"github.com/randalmurphal/compositor/pkg/compositor/module"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNotTerminal indicates the input descriptor is not a terminal.
var ErrNotTerminal = errors.New("input is not a terminal")

// Module reads key presses from a terminal descriptor.
type Module struct {
	fd              int
	requireTerminal bool
	logger          *slog.Logger
	publish         module.PublishFunc[KeyPress]

	dec     Decoder
	buf     []byte
	keys    []KeyPress
	restore *term.State
	ready   bool
}

// Option configures a Module.
type Option func(*Module)

// RequireTerminal controls whether Initialize fails on a non-terminal
// descriptor. Default: true. With false, a pipe or file is read as-is,
// without raw mode.
func RequireTerminal(require bool) Option {
	return func(m *Module) {
		m.requireTerminal = require
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

// New creates a keyboard module reading from fd. It does not touch fd
// until Initialize.
func New(fd int, opts ...Option) *Module {
	m := &Module{
		fd:              fd,
		requireTerminal: true,
		buf:             make([]byte, 256),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register binds nothing; the module only originates events.
func (m *Module) Register(t *bus.Table) *bus.Table { return t }

// Name implements module.Namer.
func (m *Module) Name() string { return "keyboard" }

// SetPublisher implements module.PublisherSink.
func (m *Module) SetPublisher(publish module.PublishFunc[KeyPress]) {
	m.publish = publish
}

// Initialize puts the terminal in raw mode and makes reads non-blocking.
func (m *Module) Initialize(context.Context) error {
	if m.ready {
		return nil
	}

	if term.IsTerminal(m.fd) {
		state, err := term.MakeRaw(m.fd)
		if err != nil {
			return fmt.Errorf("enter raw mode: %w", err)
		}
		m.restore = state
	} else if m.requireTerminal {
		return fmt.Errorf("fd %d: %w", m.fd, ErrNotTerminal)
	}

	if err := unix.SetNonblock(m.fd, true); err != nil {
		return errors.Join(fmt.Errorf("set non-blocking: %w", err), m.restoreTerminal())
	}
	m.ready = true
	return nil
}

// EventFD returns the input descriptor, or -1 before Initialize.
func (m *Module) EventFD() int {
	if !m.ready {
		return -1
	}
	return m.fd
}

// Drain reads every pending byte and publishes the decoded key presses in
// order. End of input asks the runner to stop.
func (m *Module) Drain(ctx context.Context) (bool, error) {
	more := true
	m.keys = m.keys[:0]

read:
	for {
		n, err := unix.Read(m.fd, m.buf)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			break read
		case err != nil:
			return false, fmt.Errorf("read input: %w", err)
		case n == 0:
			more = false
			break read
		}
		m.keys = m.dec.Decode(m.keys, m.buf[:n])
	}
	if !more {
		m.keys = m.dec.Flush(m.keys)
	}

	for _, k := range m.keys {
		if m.logger != nil {
			m.logger.Debug("key pressed", slog.String("key", k.String()))
		}
		if m.publish == nil {
			continue
		}
		if err := m.publish(ctx, k); err != nil {
			return false, err
		}
	}
	return more, nil
}

// Cleanup restores the terminal. Safe before Initialize and repeatable.
func (m *Module) Cleanup(context.Context) error {
	if !m.ready {
		return nil
	}
	m.ready = false

	err := unix.SetNonblock(m.fd, false)
	if rerr := m.restoreTerminal(); rerr != nil {
		err = errors.Join(err, rerr)
	}
	return err
}

func (m *Module) restoreTerminal() error {
	if m.restore == nil {
		return nil
	}
	state := m.restore
	m.restore = nil
	if err := term.Restore(m.fd, state); err != nil {
		return fmt.Errorf("restore terminal: %w", err)
	}
	return nil
}

var (
	_ module.Initializer             = (*Module)(nil)
	_ module.Cleaner                 = (*Module)(nil)
	_ module.EventSource             = (*Module)(nil)
	_ module.PublisherSink[KeyPress] = (*Module)(nil)
)
