// Package server implements the connection loop: three interchangeable
// strategies for accepting connections and producing complete request
// buffers, selected by configuration.
package server

import (
	"context"
	"io"
	"strconv"

	"golang.org/x/sys/unix"
)

// Conn is the handle used to answer and release an accepted connection.
type Conn interface {
	io.Writer
	Close() error
	ID() string
}

// Event pairs one accepted connection with its complete request buffer.
// A connection appears in at most one event; whoever consumes the event
// owns the connection and must close it.
type Event struct {
	Conn Conn
	Data []byte
}

// Source produces request events until cancelled. Next returns false once
// the context is done; cancellation is a clean exit, not an error. Close
// releases sockets and any worker processes the source still owns.
type Source interface {
	Next(ctx context.Context) (Event, bool)
	Close() error
}

// fdConn is a raw-descriptor connection handle used by the polling source.
type fdConn struct {
	fd int
}

func (c *fdConn) Write(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		n, err := unix.Write(c.fd, b[written:])
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return written, err
		}
		written += n
	}
	return written, nil
}

func (c *fdConn) Close() error {
	return unix.Close(c.fd)
}

func (c *fdConn) ID() string {
	return strconv.Itoa(c.fd)
}
