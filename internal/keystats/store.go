package keystats

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Store persists per-key press counts.
// Implementations must be safe for concurrent use.
type Store interface {
	// Add increments the count for key by n.
	Add(ctx context.Context, key string, n int64) error

	// Count returns the count for key, or the total over all keys when key
	// is empty. Unknown keys count zero.
	Count(ctx context.Context, key string) (int64, error)

	// Top returns the n most pressed keys, highest count first, ties by
	// key. n <= 0 returns every key.
	Top(ctx context.Context, n int) ([]Entry, error)

	// Reset forgets every count.
	Reset(ctx context.Context) error

	// Close releases any resources (connections, files).
	Close() error
}

// Entry is one key's count.
type Entry struct {
	Key   string
	Count int64
}

// Sentinel errors for store operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("keystats store closed")

	// ErrNotOpen indicates a handler ran before the module was initialized.
	ErrNotOpen = errors.New("keystats store not open")
)

// MemoryStore keeps counts in memory. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	counts map[string]int64
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[string]int64)}
}

// Add implements Store.
func (s *MemoryStore) Add(_ context.Context, key string, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.counts[key] += n
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	if key != "" {
		return s.counts[key], nil
	}
	var total int64
	for _, c := range s.counts {
		total += c
	}
	return total, nil
}

// Top implements Store.
func (s *MemoryStore) Top(_ context.Context, n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	entries := make([]Entry, 0, len(s.counts))
	for k, c := range s.counts {
		entries = append(entries, Entry{Key: k, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	clear(s.counts)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
