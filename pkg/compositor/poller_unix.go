//go:build unix

package compositor

import (
	"time"

	"golang.org/x/sys/unix"
)

// readyMask covers readable data and the conditions a drain must observe
// to report them (hang-up, error, invalid descriptor).
const readyMask = unix.POLLIN | unix.POLLPRI | unix.POLLERR | unix.POLLHUP | unix.POLLNVAL

// pollPoller implements Poller with poll(2).
type pollPoller struct {
	fds []unix.PollFd
}

func newDefaultPoller() Poller {
	return &pollPoller{}
}

func (p *pollPoller) Watch(fds []int) error {
	p.fds = make([]unix.PollFd, len(fds))
	for i, fd := range fds {
		p.fds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN | unix.POLLPRI}
	}
	return nil
}

func (p *pollPoller) Wait(timeout time.Duration) ([]int, error) {
	ms := int(timeout / time.Millisecond)
	if ms == 0 && timeout > 0 {
		ms = 1
	}

	n, err := unix.Poll(p.fds, ms)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	ready := make([]int, 0, n)
	for i := range p.fds {
		if p.fds[i].Revents&readyMask != 0 {
			ready = append(ready, i)
		}
	}
	return ready, nil
}
