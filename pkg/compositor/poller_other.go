//go:build !unix

package compositor

import (
	"errors"
	"time"

	cerrors "github.com/randalmurphal/compositor/pkg/compositor/errors"
)

var errNoPoll = errors.New("readiness polling is not supported on this platform")

type unsupportedPoller struct{}

func newDefaultPoller() Poller {
	return unsupportedPoller{}
}

func (unsupportedPoller) Watch([]int) error { return nil }

func (unsupportedPoller) Wait(time.Duration) ([]int, error) {
	return nil, cerrors.Permanent(errNoPoll, "poll")
}
