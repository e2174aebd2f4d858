// Package registry provides an index that is writable during a
// construction phase and read-only afterwards.
//
// The host maps each module's concrete type to its slot exactly once, at
// construction. Index enforces that with a phase flag: Add works until
// Freeze is called, and panics after.
//
//	ix := registry.New[string, int]()
//	ix.Add("keyboard", 0)
//	ix.Add("shortcuts", 1)
//	ix.Freeze()
//
//	slot, ok := ix.Get("shortcuts") // 1, true
//
// A frozen Index is safe for concurrent readers. An Index that is still
// being built is not safe for concurrent use.
package registry

// Index maps keys to values.
// The first value added for a key wins; later Adds for the same key are
// ignored and reported.
type Index[K comparable, V any] struct {
	entries map[K]V
	frozen  bool
}

// New creates an empty, writable index.
func New[K comparable, V any]() *Index[K, V] {
	return &Index[K, V]{
		entries: make(map[K]V),
	}
}

// Add stores value under key unless key is already present.
// Returns false if key was already present.
//
// Panics if the index is frozen.
func (ix *Index[K, V]) Add(key K, value V) bool {
	if ix.frozen {
		panic("registry: add to frozen index")
	}
	if _, exists := ix.entries[key]; exists {
		return false
	}
	ix.entries[key] = value
	return true
}

// Freeze ends the construction phase. It is idempotent.
// Returns the index for chaining.
func (ix *Index[K, V]) Freeze() *Index[K, V] {
	ix.frozen = true
	return ix
}

// Get returns the value for key and whether it exists.
func (ix *Index[K, V]) Get(key K) (V, bool) {
	v, ok := ix.entries[key]
	return v, ok
}
