package compositor

import "time"

// Poller waits for readiness on a fixed set of descriptors.
type Poller interface {
	// Watch sets the descriptors to wait on. NewRunner calls it once.
	Watch(fds []int) error

	// Wait blocks until at least one watched descriptor is readable or
	// timeout elapses. It returns the indexes, into the slice passed to
	// Watch, of the ready descriptors in ascending order. A timeout
	// returns no indexes and a nil error.
	Wait(timeout time.Duration) ([]int, error)
}
