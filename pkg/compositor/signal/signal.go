//go:build unix

// Package signal turns OS signals into bus events.
//
// The Module installs a signal handler on Initialize and forwards every
// delivered signal through a self-pipe, so signals become an ordinary
// pollable descriptor for the compositor run loop. Drain publishes one
// Received event per signal through the injected publisher:
//
//	sig := signal.New(signal.WithStopOn(syscall.SIGTERM))
//	host := compositor.New([]module.Module{sig, ...})
//	compositor.InjectPublisher[signal.Received](host)
//
// A signal listed in WithStopOn also makes Drain ask the runner to stop.
package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	ossignal "os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/randalmurphal/compositor/pkg/compositor/bus"
	"github.com/randalmurphal/compositor/pkg/compositor/message"
	"github.com/randalmurphal/compositor/pkg/compositor/module"
	"golang.org/x/sys/unix"
)

// Received is published once per delivered signal.
type Received struct {
	// Signal is the delivered signal.
	Signal syscall.Signal
	// At is when Drain observed it.
	At time.Time
}

// ReceivedEvent is the bus message carrying a Received payload.
type ReceivedEvent = message.Event[Received]

// ErrNotInitialized indicates Raise was called before Initialize.
var ErrNotInitialized = errors.New("signal module not initialized")

// Module is an event source for OS signals.
type Module struct {
	signals []syscall.Signal
	stopOn  map[syscall.Signal]bool
	logger  *slog.Logger
	now     func() time.Time
	publish module.PublishFunc[Received]

	mu   sync.Mutex
	rfd  int
	wfd  int
	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Module.
type Option func(*Module)

// WithSignals sets the signals to catch.
// Default: SIGINT, SIGTERM, SIGHUP
func WithSignals(sigs ...syscall.Signal) Option {
	return func(m *Module) {
		if len(sigs) > 0 {
			m.signals = append([]syscall.Signal(nil), sigs...)
		}
	}
}

// WithStopOn makes Drain report stop after publishing any of sigs.
func WithStopOn(sigs ...syscall.Signal) Option {
	return func(m *Module) {
		for _, s := range sigs {
			m.stopOn[s] = true
		}
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

// New creates a signal module. It installs nothing until Initialize.
func New(opts ...Option) *Module {
	m := &Module{
		signals: []syscall.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP},
		stopOn:  make(map[syscall.Signal]bool),
		now:     time.Now,
		rfd:     -1,
		wfd:     -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register binds nothing; the module only originates events.
func (m *Module) Register(t *bus.Table) *bus.Table { return t }

// Name implements module.Namer.
func (m *Module) Name() string { return "signal" }

// SetPublisher implements module.PublisherSink.
func (m *Module) SetPublisher(publish module.PublishFunc[Received]) {
	m.publish = publish
}

// Initialize opens the self-pipe and starts catching signals.
func (m *Module) Initialize(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rfd >= 0 {
		return nil
	}

	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return fmt.Errorf("create signal pipe: %w", err)
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return fmt.Errorf("set signal pipe non-blocking: %w", err)
		}
		unix.CloseOnExec(fd)
	}
	m.rfd, m.wfd = fds[0], fds[1]

	m.done = make(chan struct{})
	relay := make(chan os.Signal, 8)
	caught := make([]os.Signal, len(m.signals))
	for i, sig := range m.signals {
		caught[i] = sig
	}
	ossignal.Notify(relay, caught...)

	m.wg.Add(1)
	go m.forward(relay)
	return nil
}

// forward copies caught signals into the pipe until Cleanup.
func (m *Module) forward(relay chan os.Signal) {
	defer m.wg.Done()
	defer ossignal.Stop(relay)
	for {
		select {
		case <-m.done:
			return
		case s := <-relay:
			if sig, ok := s.(syscall.Signal); ok {
				m.write(sig)
			}
		}
	}
}

// write puts one signal number into the pipe. A full pipe drops it.
func (m *Module) write(sig syscall.Signal) {
	if _, err := unix.Write(m.wfd, []byte{byte(sig)}); err != nil && m.logger != nil {
		m.logger.Warn("signal dropped",
			slog.String("signal", sig.String()),
			slog.String("error", err.Error()),
		)
	}
}

// Raise queues sig as if the process had received it.
func (m *Module) Raise(sig syscall.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wfd < 0 {
		return ErrNotInitialized
	}
	if _, err := unix.Write(m.wfd, []byte{byte(sig)}); err != nil {
		return fmt.Errorf("raise %s: %w", sig, err)
	}
	return nil
}

// EventFD returns the read end of the self-pipe, or -1 before Initialize.
func (m *Module) EventFD() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rfd
}

// Drain publishes every queued signal in arrival order.
// It returns false if any of them is a stop signal.
func (m *Module) Drain(ctx context.Context) (bool, error) {
	sigs, err := m.readAll()
	if err != nil {
		return false, err
	}

	more := true
	for _, sig := range sigs {
		if m.logger != nil {
			m.logger.Debug("signal received", slog.String("signal", sig.String()))
		}
		if m.publish != nil {
			if err := m.publish(ctx, Received{Signal: sig, At: m.now()}); err != nil {
				return false, err
			}
		}
		if m.stopOn[sig] {
			more = false
		}
	}
	return more, nil
}

func (m *Module) readAll() ([]syscall.Signal, error) {
	fd := m.EventFD()
	if fd < 0 {
		return nil, ErrNotInitialized
	}

	var sigs []syscall.Signal
	buf := make([]byte, 32)
	for {
		n, err := unix.Read(fd, buf)
		for _, b := range buf[:max(n, 0)] {
			sigs = append(sigs, syscall.Signal(b))
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return sigs, nil
		case err != nil:
			return sigs, fmt.Errorf("read signal pipe: %w", err)
		case n == 0:
			return sigs, nil
		}
	}
}

// Cleanup stops catching signals and closes the pipe.
// It is safe to call before Initialize and more than once.
func (m *Module) Cleanup(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rfd < 0 {
		return nil
	}

	close(m.done)
	m.wg.Wait()

	err := errors.Join(unix.Close(m.rfd), unix.Close(m.wfd))
	m.rfd, m.wfd = -1, -1
	return err
}

var (
	_ module.Module                  = (*Module)(nil)
	_ module.Initializer             = (*Module)(nil)
	_ module.Cleaner                 = (*Module)(nil)
	_ module.EventSource             = (*Module)(nil)
	_ module.PublisherSink[Received] = (*Module)(nil)
)
