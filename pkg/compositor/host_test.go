package compositor

import (
	"context"
	"errors"
	"testing"

	"github.com/randalmurphal/compositor/pkg/compositor/bus"
	"github.com/randalmurphal/compositor/pkg/compositor/message"
	"github.com/randalmurphal/compositor/pkg/compositor/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("composes bindings in module order", func(t *testing.T) {
		var seen []string
		a := &module.Funcs{Label: "a", Bindings: []bus.Binding{
			bus.OnEvent(func(context.Context, message.Event[tick]) error { seen = append(seen, "a"); return nil }),
		}}
		b := &module.Funcs{Label: "b", Bindings: []bus.Binding{
			bus.OnEvent(func(context.Context, message.Event[tick]) error { seen = append(seen, "b"); return nil }),
		}}

		h := New([]module.Module{a, nil, b})
		assert.Equal(t, 2, h.Bus().Len())
		assert.Len(t, h.Modules(), 2)
		assert.Equal(t, StateCreated, h.State())

		require.NoError(t, Publish(context.Background(), h, message.NewEvent(tick{})))
		assert.Equal(t, []string{"a", "b"}, seen)
	})

	t.Run("generates an id", func(t *testing.T) {
		h1, h2 := New(nil), New(nil)
		assert.NotEmpty(t, h1.ID())
		assert.NotEqual(t, h1.ID(), h2.ID())
		assert.Equal(t, "fixed", New(nil, WithID("fixed")).ID())
	})

	t.Run("modules returns a copy", func(t *testing.T) {
		h := New([]module.Module{bare{}})
		mods := h.Modules()
		mods[0] = nil
		assert.NotNil(t, h.Modules()[0])
	})
}

func TestHost_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("runs hooks in construction order and skips modules without one", func(t *testing.T) {
		var log []string
		h := New([]module.Module{
			&lifecycle{name: "a", log: &log},
			bare{},
			&lifecycle{name: "b", log: &log},
		})

		require.NoError(t, h.Initialize(ctx))
		assert.Equal(t, []string{"init:a", "init:b"}, log)
		assert.Equal(t, StateReady, h.State())
	})

	t.Run("stops at first failure", func(t *testing.T) {
		var log []string
		boom := errors.New("no display")
		h := New([]module.Module{
			&lifecycle{name: "a", log: &log},
			&lifecycle{name: "b", log: &log, initErr: boom},
			&lifecycle{name: "c", log: &log},
		})

		err := h.Initialize(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)

		var modErr *ModuleError
		require.ErrorAs(t, err, &modErr)
		assert.Equal(t, "b", modErr.Module)
		assert.Equal(t, "initialize", modErr.Op)

		assert.Equal(t, []string{"init:a", "init:b"}, log)
		assert.Equal(t, StateFailed, h.State())
	})

	t.Run("only once", func(t *testing.T) {
		h := New(nil)
		require.NoError(t, h.Initialize(ctx))

		err := h.Initialize(ctx)
		assert.ErrorIs(t, err, ErrInvalidState)
		var lcErr *LifecycleError
		require.ErrorAs(t, err, &lcErr)
		assert.Equal(t, StateReady, lcErr.State)
	})

	t.Run("cancelled context", func(t *testing.T) {
		var log []string
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		h := New([]module.Module{&lifecycle{name: "a", log: &log}})
		assert.ErrorIs(t, h.Initialize(cctx), context.Canceled)
		assert.Empty(t, log)
	})

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck // testing nil context handling
		assert.ErrorIs(t, New(nil).Initialize(nil), ErrNilContext)
	})
}

func TestHost_Cleanup(t *testing.T) {
	ctx := context.Background()

	t.Run("runs every hook in construction order", func(t *testing.T) {
		var log []string
		h := New([]module.Module{
			&lifecycle{name: "a", log: &log},
			&lifecycle{name: "b", log: &log},
		})
		require.NoError(t, h.Initialize(ctx))
		log = nil

		require.NoError(t, h.Cleanup(ctx))
		assert.Equal(t, []string{"cleanup:a", "cleanup:b"}, log)
		assert.Equal(t, StateClosed, h.State())
	})

	t.Run("safe after partial initialization", func(t *testing.T) {
		var log []string
		h := New([]module.Module{
			&lifecycle{name: "a", log: &log},
			&lifecycle{name: "b", log: &log, initErr: errors.New("fail")},
			&lifecycle{name: "c", log: &log},
		})
		require.Error(t, h.Initialize(ctx))
		log = nil

		require.NoError(t, h.Cleanup(ctx))
		assert.Equal(t, []string{"cleanup:a", "cleanup:b", "cleanup:c"}, log)
	})

	t.Run("joins errors and keeps going", func(t *testing.T) {
		var log []string
		e1, e2 := errors.New("e1"), errors.New("e2")
		h := New([]module.Module{
			&lifecycle{name: "a", log: &log, cleanupErr: e1},
			&lifecycle{name: "b", log: &log},
			&lifecycle{name: "c", log: &log, cleanupErr: e2},
		})

		err := h.Cleanup(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, e1)
		assert.ErrorIs(t, err, e2)
		assert.Equal(t, []string{"cleanup:a", "cleanup:b", "cleanup:c"}, log)
	})

	t.Run("idempotent", func(t *testing.T) {
		var log []string
		h := New([]module.Module{&lifecycle{name: "a", log: &log, cleanupErr: errors.New("x")}})

		assert.Error(t, h.Cleanup(ctx))
		assert.NoError(t, h.Cleanup(ctx))
		assert.Equal(t, []string{"cleanup:a"}, log)
	})

	t.Run("initialize after cleanup fails", func(t *testing.T) {
		h := New(nil)
		require.NoError(t, h.Cleanup(ctx))
		assert.ErrorIs(t, h.Initialize(ctx), ErrInvalidState)
	})
}

func TestNewInitialized(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var log []string
		h, err := NewInitialized(ctx, []module.Module{&lifecycle{name: "a", log: &log}})
		require.NoError(t, err)
		assert.Equal(t, StateReady, h.State())
		assert.Equal(t, []string{"init:a"}, log)
	})

	t.Run("failure cleans up", func(t *testing.T) {
		var log []string
		initErr, cleanupErr := errors.New("init"), errors.New("cleanup")
		h, err := NewInitialized(ctx, []module.Module{
			&lifecycle{name: "a", log: &log, cleanupErr: cleanupErr},
			&lifecycle{name: "b", log: &log, initErr: initErr},
		})

		assert.Nil(t, h)
		assert.ErrorIs(t, err, initErr)
		assert.ErrorIs(t, err, cleanupErr)
		assert.Equal(t, []string{"init:a", "init:b", "cleanup:a", "cleanup:b"}, log)
	})
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateCreated:      "created",
		StateInitializing: "initializing",
		StateReady:        "ready",
		StateFailed:       "failed",
		StateClosed:       "closed",
		State(42):         "unknown",
	}
	for s, want := range tests {
		assert.Equal(t, want, s.String())
	}
}
