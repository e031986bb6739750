//go:build linux

package poller

import "golang.org/x/sys/unix"

// EpollPoller is an epoll-based I/O multiplexer.
type EpollPoller struct {
	epfd   int
	events []unix.EpollEvent
}

// NewPoller creates a new Poller (Linux).
func NewPoller() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	return &EpollPoller{
		epfd:   epfd,
		events: make([]unix.EpollEvent, 1024),
	}, nil
}

// Add registers a file descriptor for read readiness. Level-triggered, with
// EPOLLRDHUP so peer shutdown surfaces as readability.
func (p *EpollPoller) Add(fd int) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLRDHUP,
		Fd:     int32(fd),
	}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

// Remove deregisters a file descriptor.
func (p *EpollPoller) Remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Wait blocks for up to timeout milliseconds and returns the ready
// descriptors. An interrupted wait returns an empty set, not an error.
func (p *EpollPoller) Wait(timeout int) ([]int, error) {
	n, err := unix.EpollWait(p.epfd, p.events, timeout)
	if err != nil && err != unix.EINTR {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	fds := make([]int, 0, n)
	for i := 0; i < n; i++ {
		fds = append(fds, int(p.events[i].Fd))
	}
	return fds, nil
}

// Close releases the epoll descriptor.
func (p *EpollPoller) Close() error {
	return unix.Close(p.epfd)
}

// SetNonblock sets non-blocking mode on a descriptor.
func SetNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}
