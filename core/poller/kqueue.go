//go:build darwin || freebsd || netbsd || openbsd

package poller

import "golang.org/x/sys/unix"

// KqueuePoller is a kqueue-based I/O multiplexer.
type KqueuePoller struct {
	kqfd   int
	events []unix.Kevent_t
}

// NewPoller creates a new Poller (BSD/macOS).
func NewPoller() (Poller, error) {
	kqfd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}

	return &KqueuePoller{
		kqfd:   kqfd,
		events: make([]unix.Kevent_t, 1024),
	}, nil
}

// Add registers a file descriptor for read readiness.
func (p *KqueuePoller) Add(fd int) error {
	ev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_ENABLE,
	}
	_, err := unix.Kevent(p.kqfd, []unix.Kevent_t{ev}, nil, nil)
	return err
}

// Remove deregisters a file descriptor.
func (p *KqueuePoller) Remove(fd int) error {
	ev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_DELETE,
	}
	_, err := unix.Kevent(p.kqfd, []unix.Kevent_t{ev}, nil, nil)
	return err
}

// Wait blocks for up to timeout milliseconds and returns the ready
// descriptors.
func (p *KqueuePoller) Wait(timeout int) ([]int, error) {
	ts := unix.NsecToTimespec(int64(timeout) * 1e6)
	n, err := unix.Kevent(p.kqfd, nil, p.events, &ts)
	if err != nil && err != unix.EINTR {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	fds := make([]int, 0, n)
	for i := 0; i < n; i++ {
		fds = append(fds, int(p.events[i].Ident))
	}
	return fds, nil
}

// Close releases the kqueue descriptor.
func (p *KqueuePoller) Close() error {
	return unix.Close(p.kqfd)
}

// SetNonblock sets non-blocking mode on a descriptor.
func SetNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}
