// Package keystats counts key presses and answers queries about them.
//
// The module subscribes to keyboard.KeyPressEvent and keeps per-key counts
// in a Store. Other modules reset the counts with ResetCommand and read
// them with CountRequest and TopRequest:
//
//	total, err := compositor.Ask(ctx, host, keystats.CountRequest{})
//	top, err := compositor.Ask(ctx, host, keystats.TopRequest{Payload: keystats.Top{N: 3}})
package keystats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/randalmurphal/compositor/internal/keyboard"
	"github.com/randalmurphal/compositor/pkg/compositor/bus"
	"github.com/randalmurphal/compositor/pkg/compositor/message"
)

// MemoryPath selects the in-memory store.
const MemoryPath = ":memory:"

// Reset clears every count.
type Reset struct{}

// Count asks for the count of Key, or the total when Key is empty.
type Count struct {
	Key string
}

// Top asks for the N most pressed keys. N <= 0 asks for all of them.
type Top struct {
	N int
}

// Message aliases used on the bus.
type (
	ResetCommand = message.Command[Reset]
	CountRequest = message.Request[Count, int64]
	TopRequest   = message.Request[Top, []Entry]
)

// Module counts key presses.
type Module struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	store Store
}

// Option configures a Module.
type Option func(*Module)

// WithStore uses store instead of opening one from the path.
// The module still closes it on Cleanup.
func WithStore(store Store) Option {
	return func(m *Module) {
		m.store = store
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

// New creates a module persisting to path. MemoryPath or an empty path
// keeps counts in memory.
func New(path string, opts ...Option) *Module {
	m := &Module{path: path}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OpenStore opens the store for path.
func OpenStore(path string) (Store, error) {
	if path == "" || path == MemoryPath {
		return NewMemoryStore(), nil
	}
	s, err := NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open keystats store %s: %w", path, err)
	}
	return s, nil
}

// Name implements module.Namer.
func (m *Module) Name() string { return "keystats" }

// Register binds the key press subscriber, the reset command and both
// queries.
func (m *Module) Register(t *bus.Table) *bus.Table {
	return t.ExtendAll(
		bus.OnEvent(m.onKeyPress, bus.WithLabel("keystats.count")),
		bus.OnCommand(m.onReset, bus.WithLabel("keystats.reset")),
		bus.OnRequest(m.onCount, bus.WithLabel("keystats.count")),
		bus.OnRequest(m.onTop, bus.WithLabel("keystats.top")),
	)
}

// Initialize opens the store unless one was injected.
func (m *Module) Initialize(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil {
		return nil
	}
	s, err := OpenStore(m.path)
	if err != nil {
		return err
	}
	m.store = s
	if m.logger != nil {
		m.logger.Debug("keystats store opened", slog.String("path", m.path))
	}
	return nil
}

// Cleanup closes the store. Safe to call more than once.
func (m *Module) Cleanup(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	err := m.store.Close()
	m.store = nil
	return err
}

func (m *Module) open() (Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.store == nil {
		return nil, ErrNotOpen
	}
	return m.store, nil
}

func (m *Module) onKeyPress(ctx context.Context, evt keyboard.KeyPressEvent) error {
	s, err := m.open()
	if err != nil {
		return err
	}
	return s.Add(ctx, evt.Payload.String(), 1)
}

func (m *Module) onReset(ctx context.Context, _ ResetCommand) error {
	s, err := m.open()
	if err != nil {
		return err
	}
	if err := s.Reset(ctx); err != nil {
		return err
	}
	if m.logger != nil {
		m.logger.Info("key counts reset")
	}
	return nil
}

func (m *Module) onCount(ctx context.Context, req CountRequest) (int64, error) {
	s, err := m.open()
	if err != nil {
		return 0, err
	}
	return s.Count(ctx, req.Payload.Key)
}

func (m *Module) onTop(ctx context.Context, req TopRequest) ([]Entry, error) {
	s, err := m.open()
	if err != nil {
		return nil, err
	}
	return s.Top(ctx, req.Payload.N)
}
