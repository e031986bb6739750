// Package poller provides readiness multiplexing over raw file descriptors
// for the polling connection loop.
package poller

// Poller is the I/O multiplexing interface. Wait blocks for at most
// timeout milliseconds and returns the ready descriptors.
type Poller interface {
	Add(fd int) error
	Remove(fd int) error
	Wait(timeout int) ([]int, error)
	Close() error
}
