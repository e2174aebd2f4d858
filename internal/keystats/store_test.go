package keystats_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/randalmurphal/compositor/internal/keystats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stores runs fn against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s keystats.Store)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		s := keystats.NewMemoryStore()
		defer s.Close()
		fn(t, s)
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := keystats.NewSQLiteStore(":memory:")
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})
}

func TestStore_AddAndCount(t *testing.T) {
	stores(t, func(t *testing.T, s keystats.Store) {
		ctx := context.Background()

		require.NoError(t, s.Add(ctx, "a", 1))
		require.NoError(t, s.Add(ctx, "a", 2))
		require.NoError(t, s.Add(ctx, "ctrl+b", 1))

		tests := []struct {
			key  string
			want int64
		}{
			{"a", 3},
			{"ctrl+b", 1},
			{"missing", 0},
			{"", 4},
		}
		for _, tt := range tests {
			got, err := s.Count(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "key %q", tt.key)
		}
	})
}

func TestStore_Empty(t *testing.T) {
	stores(t, func(t *testing.T, s keystats.Store) {
		ctx := context.Background()

		total, err := s.Count(ctx, "")
		require.NoError(t, err)
		assert.Zero(t, total)

		top, err := s.Top(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, top)
	})
}

func TestStore_Top(t *testing.T) {
	stores(t, func(t *testing.T, s keystats.Store) {
		ctx := context.Background()
		for key, n := range map[string]int64{"a": 2, "b": 5, "c": 2, "d": 1} {
			require.NoError(t, s.Add(ctx, key, n))
		}

		top, err := s.Top(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, []keystats.Entry{
			{Key: "b", Count: 5},
			{Key: "a", Count: 2},
			{Key: "c", Count: 2},
		}, top)

		all, err := s.Top(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, 4)
		assert.Equal(t, "d", all[3].Key)
	})
}

func TestStore_Reset(t *testing.T) {
	stores(t, func(t *testing.T, s keystats.Store) {
		ctx := context.Background()
		require.NoError(t, s.Add(ctx, "a", 7))
		require.NoError(t, s.Reset(ctx))

		total, err := s.Count(ctx, "")
		require.NoError(t, err)
		assert.Zero(t, total)

		require.NoError(t, s.Add(ctx, "a", 1))
		n, err := s.Count(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestStore_Closed(t *testing.T) {
	stores(t, func(t *testing.T, s keystats.Store) {
		ctx := context.Background()
		require.NoError(t, s.Close())
		assert.NoError(t, s.Close())

		assert.ErrorIs(t, s.Add(ctx, "a", 1), keystats.ErrStoreClosed)
		_, err := s.Count(ctx, "")
		assert.ErrorIs(t, err, keystats.ErrStoreClosed)
		_, err = s.Top(ctx, 1)
		assert.ErrorIs(t, err, keystats.ErrStoreClosed)
		assert.ErrorIs(t, s.Reset(ctx), keystats.ErrStoreClosed)
	})
}

func TestStore_Concurrent(t *testing.T) {
	stores(t, func(t *testing.T, s keystats.Store) {
		ctx := context.Background()
		const workers = 20
		const presses = 25

		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range presses {
					assert.NoError(t, s.Add(ctx, "x", 1))
				}
			}()
		}
		wg.Wait()

		n, err := s.Count(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, int64(workers*presses), n)
	})
}

func TestSQLiteStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystats.db")
	ctx := context.Background()

	first, err := keystats.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Add(ctx, "q", 3))
	require.NoError(t, first.Close())

	second, err := keystats.NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	n, err := second.Count(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := keystats.NewSQLiteStore("/nonexistent/path/keystats.db")
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	for _, path := range []string{"", keystats.MemoryPath} {
		s, err := keystats.OpenStore(path)
		require.NoError(t, err)
		assert.IsType(t, &keystats.MemoryStore{}, s)
		require.NoError(t, s.Close())
	}

	s, err := keystats.OpenStore(filepath.Join(t.TempDir(), "k.db"))
	require.NoError(t, err)
	assert.IsType(t, &keystats.SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = keystats.OpenStore("/nonexistent/dir/k.db")
	assert.ErrorContains(t, err, "open keystats store")
}
