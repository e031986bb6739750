package server

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/searchktools/wire-server/core/pools"
)

// AsyncConfig tunes the asynchronous loop variant.
type AsyncConfig struct {
	// MaxBodySize drops any connection whose accumulated request exceeds
	// it, without responding.
	MaxBodySize int

	// BufferSize is the per-read chunk size.
	BufferSize int

	// IdleTimeout bounds each read; on expiry the bytes received so far
	// are treated as the complete request.
	IdleTimeout time.Duration

	// MaxConns caps concurrently accepted connections.
	MaxConns int
}

// AsyncSource is the asynchronous loop variant: one reader task per
// accepted connection, with reads bounded by a size ceiling and a per-read
// idle timeout.
type AsyncSource struct {
	ln      net.Listener
	cfg     AsyncConfig
	bufPool *pools.BytePool

	events    chan Event
	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewAsyncSource binds the address and starts accepting. The listener is
// capped with a connection limiter so a flood of clients cannot exhaust
// descriptors.
func NewAsyncSource(addr string, cfg AsyncConfig) (*AsyncSource, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConns)
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 4096
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 500 * time.Millisecond
	}

	s := &AsyncSource{
		ln:      ln,
		cfg:     cfg,
		bufPool: pools.NewBytePool(),
		events:  make(chan Event, 64),
		closing: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the bound listen address.
func (s *AsyncSource) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *AsyncSource) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.closing:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("accept: %v", err)
			continue
		}

		s.wg.Add(1)
		go s.readConn(conn)
	}
}

// readConn accumulates the request until EOF or an idle read timeout, then
// emits the buffer as one event. Oversized requests drop the connection
// silently; empty reads close it.
func (s *AsyncSource) readConn(conn net.Conn) {
	defer s.wg.Done()

	var data []byte
	chunk := s.bufPool.Get(s.cfg.BufferSize)
	defer s.bufPool.Put(chunk)

	for {
		conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		n, err := conn.Read(chunk)
		if n > 0 {
			if s.cfg.MaxBodySize > 0 && len(data)+n > s.cfg.MaxBodySize {
				conn.Close()
				return
			}
			data = append(data, chunk[:n]...)
		}
		if err != nil {
			// A timed-out read means the client is done sending; the
			// partial buffer is the request.
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			break
		}
	}

	if len(data) == 0 {
		conn.Close()
		return
	}

	select {
	case s.events <- Event{Conn: &netConn{conn: conn}, Data: data}:
	case <-s.closing:
		conn.Close()
	}
}

// Next blocks until a request buffer is ready or the context is cancelled.
func (s *AsyncSource) Next(ctx context.Context) (Event, bool) {
	select {
	case ev := <-s.events:
		return ev, true
	case <-ctx.Done():
		return Event{}, false
	case <-s.closing:
		return Event{}, false
	}
}

// Close stops accepting, closes the listener and waits for reader tasks.
func (s *AsyncSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closing)
		err = s.ln.Close()
		s.wg.Wait()
	})
	return err
}

// netConn adapts net.Conn to the source connection handle.
type netConn struct {
	conn net.Conn
}

func (c *netConn) Write(b []byte) (int, error) {
	return c.conn.Write(b)
}

func (c *netConn) Close() error {
	return c.conn.Close()
}

func (c *netConn) ID() string {
	return c.conn.RemoteAddr().String()
}
