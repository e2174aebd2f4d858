//go:build unix

package keyboard

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeInput returns a keyboard module reading from a pipe and the pipe's
// write end.
func pipeInput(t *testing.T) (*Module, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})

	m := New(int(r.Fd()), RequireTerminal(false))
	require.NoError(t, m.Initialize(context.Background()))
	t.Cleanup(func() { _ = m.Cleanup(context.Background()) })
	return m, w
}

func TestModule_RequiresTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	m := New(int(r.Fd()))
	err = m.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrNotTerminal)
	assert.Equal(t, -1, m.EventFD())
	assert.NoError(t, m.Cleanup(context.Background()))
}

func TestModule_DrainPublishesKeys(t *testing.T) {
	m, w := pipeInput(t)

	var got []string
	m.SetPublisher(func(_ context.Context, k KeyPress) error {
		got = append(got, k.String())
		return nil
	})

	_, err := w.Write([]byte("a\x02\x1b[A"))
	require.NoError(t, err)

	more, err := m.Drain(context.Background())
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, []string{"a", "ctrl+b", "up"}, got)

	more, err = m.Drain(context.Background())
	require.NoError(t, err, "empty input drains cleanly")
	assert.True(t, more)
	assert.Len(t, got, 3)
}

func TestModule_DrainLargeBacklog(t *testing.T) {
	m, w := pipeInput(t)

	n := 0
	m.SetPublisher(func(context.Context, KeyPress) error {
		n++
		return nil
	})

	backlog := make([]byte, 1000)
	for i := range backlog {
		backlog[i] = 'k'
	}
	_, err := w.Write(backlog)
	require.NoError(t, err)

	_, err = m.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1000, n)
}

func TestModule_EndOfInputStops(t *testing.T) {
	m, w := pipeInput(t)
	m.SetPublisher(func(context.Context, KeyPress) error { return nil })

	_, err := w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	more, err := m.Drain(context.Background())
	require.NoError(t, err)
	assert.False(t, more)
}

func TestModule_PublishError(t *testing.T) {
	m, w := pipeInput(t)
	boom := errors.New("handler failed")
	m.SetPublisher(func(context.Context, KeyPress) error { return boom })

	_, err := w.Write([]byte("x"))
	require.NoError(t, err)

	_, err = m.Drain(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestModule_Lifecycle(t *testing.T) {
	m, _ := pipeInput(t)
	assert.GreaterOrEqual(t, m.EventFD(), 0)
	assert.Equal(t, "keyboard", m.Name())

	require.NoError(t, m.Initialize(context.Background()), "initialize is idempotent")
	require.NoError(t, m.Cleanup(context.Background()))
	assert.Equal(t, -1, m.EventFD())
	assert.NoError(t, m.Cleanup(context.Background()))
}

func TestModule_SequenceSplitAcrossDrains(t *testing.T) {
	m, w := pipeInput(t)

	var got []string
	m.SetPublisher(func(_ context.Context, k KeyPress) error {
		got = append(got, k.String())
		return nil
	})

	_, err := w.Write([]byte("?\x1b[1;5"))
	require.NoError(t, err)
	more, err := m.Drain(context.Background())
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, []string{"?"}, got)

	_, err = w.Write([]byte("A"))
	require.NoError(t, err)
	_, err = m.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"?", "ctrl+up"}, got)
}

func TestModule_EndOfInputFlushesPending(t *testing.T) {
	m, w := pipeInput(t)

	var got []string
	m.SetPublisher(func(_ context.Context, k KeyPress) error {
		got = append(got, k.String())
		return nil
	})

	_, err := w.Write([]byte("\x1b["))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	more, err := m.Drain(context.Background())
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, []string{"alt+["}, got)
}
