package server

import (
	"context"
	"log"
	"net"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/searchktools/wire-server/core/poller"
	"github.com/searchktools/wire-server/core/pools"
)

// pollTimeoutMS bounds each readiness wait so cancellation is observed
// promptly.
const pollTimeoutMS = 100

// PollSource is the synchronous loop variant: one readiness-multiplexed
// loop over the listening socket and every accepted client socket. A ready
// client contributes one chunk read and is then handed off, so no
// connection is ever read twice.
type PollSource struct {
	ln      net.Listener
	lfile   *os.File
	lfd     int
	p       poller.Poller
	bufPool *pools.BytePool
	bufSize int

	clients map[int]struct{}
	pending []Event
}

// NewPollSource binds the address with SO_REUSEADDR, switches the listener
// to non-blocking mode and registers it with the platform poller.
func NewPollSource(addr string, bufSize int) (*PollSource, error) {
	if bufSize <= 0 {
		bufSize = 4096
	}
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var optErr error
			err := c.Control(func(fd uintptr) {
				optErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return optErr
		},
	}

	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, err
	}

	lfile, err := ln.(*net.TCPListener).File()
	if err != nil {
		ln.Close()
		return nil, err
	}
	lfd := int(lfile.Fd())

	if err := poller.SetNonblock(lfd); err != nil {
		lfile.Close()
		ln.Close()
		return nil, err
	}

	p, err := poller.NewPoller()
	if err != nil {
		lfile.Close()
		ln.Close()
		return nil, err
	}
	if err := p.Add(lfd); err != nil {
		p.Close()
		lfile.Close()
		ln.Close()
		return nil, err
	}

	return &PollSource{
		ln:      ln,
		lfile:   lfile,
		lfd:     lfd,
		p:       p,
		bufPool: pools.NewBytePool(),
		bufSize: bufSize,
		clients: make(map[int]struct{}),
	}, nil
}

// Addr returns the bound listen address.
func (s *PollSource) Addr() net.Addr {
	return s.ln.Addr()
}

// Next blocks until a client has data or the context is cancelled.
func (s *PollSource) Next(ctx context.Context) (Event, bool) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, true
		}

		select {
		case <-ctx.Done():
			return Event{}, false
		default:
		}

		fds, err := s.p.Wait(pollTimeoutMS)
		if err != nil {
			log.Printf("poller wait: %v", err)
			continue
		}

		for _, fd := range fds {
			if fd == s.lfd {
				s.acceptReady()
			} else {
				s.readReady(fd)
			}
		}
	}
}

// acceptReady drains the accept queue and registers every new client.
func (s *PollSource) acceptReady() {
	for {
		nfd, _, err := unix.Accept(s.lfd)
		if err != nil {
			if err != unix.EAGAIN && err != unix.EWOULDBLOCK {
				log.Printf("accept: %v", err)
			}
			return
		}

		if err := poller.SetNonblock(nfd); err != nil {
			unix.Close(nfd)
			continue
		}
		if err := s.p.Add(nfd); err != nil {
			unix.Close(nfd)
			continue
		}
		s.clients[nfd] = struct{}{}
	}
}

// readReady reads one chunk from a ready client. A zero-length read closes
// the connection; data hands the connection off as a pending event and
// deregisters it from the poll set.
func (s *PollSource) readReady(fd int) {
	if _, ok := s.clients[fd]; !ok {
		return
	}

	buf := s.bufPool.Get(s.bufSize)
	n, err := unix.Read(fd, buf)
	if err == unix.EAGAIN || err == unix.EINTR {
		s.bufPool.Put(buf)
		return
	}
	if err != nil || n <= 0 {
		s.bufPool.Put(buf)
		s.dropClient(fd)
		unix.Close(fd)
		return
	}

	data := make([]byte, n)
	copy(data, buf[:n])
	s.bufPool.Put(buf)

	s.dropClient(fd)
	s.pending = append(s.pending, Event{Conn: &fdConn{fd: fd}, Data: data})
}

func (s *PollSource) dropClient(fd int) {
	s.p.Remove(fd)
	delete(s.clients, fd)
}

// Close releases the poller, every still-registered client and the
// listening socket.
func (s *PollSource) Close() error {
	for fd := range s.clients {
		s.p.Remove(fd)
		unix.Close(fd)
	}
	s.clients = map[int]struct{}{}
	s.p.Close()
	s.lfile.Close()
	return s.ln.Close()
}
