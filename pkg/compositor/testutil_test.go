package compositor

import (
	"context"
	"time"

	"github.com/randalmurphal/compositor/pkg/compositor/bus"
)

// Test payloads used across tests.

type tick struct{ N int }

type store struct{ Num int }

type load struct{}

// lifecycle is a module that records its hooks into a shared log.
type lifecycle struct {
	name       string
	log        *[]string
	initErr    error
	cleanupErr error
}

func (m *lifecycle) Register(t *bus.Table) *bus.Table { return t }

func (m *lifecycle) Name() string { return m.name }

func (m *lifecycle) Initialize(context.Context) error {
	*m.log = append(*m.log, "init:"+m.name)
	return m.initErr
}

func (m *lifecycle) Cleanup(context.Context) error {
	*m.log = append(*m.log, "cleanup:"+m.name)
	return m.cleanupErr
}

// bare has no optional capabilities.
type bare struct{}

func (bare) Register(t *bus.Table) *bus.Table { return t }

// fdSource is an event source module with a scripted drain.
type fdSource struct {
	name   string
	fd     int
	drains int
	drain  func(n int) (bool, error)
}

func (s *fdSource) Register(t *bus.Table) *bus.Table { return t }

func (s *fdSource) Name() string { return s.name }

func (s *fdSource) EventFD() int { return s.fd }

func (s *fdSource) Drain(context.Context) (bool, error) {
	s.drains++
	if s.drain == nil {
		return true, nil
	}
	return s.drain(s.drains)
}

// waitResult is one scripted Poller.Wait outcome.
type waitResult struct {
	ready []int
	err   error
}

// fakePoller replays scripted wait results, then reports every watched
// descriptor ready, or times out when idle is set.
type fakePoller struct {
	watched  []int
	script   []waitResult
	waits    int
	timeouts []time.Duration
	idle     bool
}

func (p *fakePoller) Watch(fds []int) error {
	p.watched = append([]int(nil), fds...)
	return nil
}

func (p *fakePoller) Wait(timeout time.Duration) ([]int, error) {
	p.waits++
	p.timeouts = append(p.timeouts, timeout)
	if len(p.script) > 0 {
		next := p.script[0]
		p.script = p.script[1:]
		return next.ready, next.err
	}
	if p.idle {
		return nil, nil
	}
	all := make([]int, len(p.watched))
	for i := range all {
		all[i] = i
	}
	return all, nil
}
