package server

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/searchktools/wire-server/core/workers"
)

// ReadConnEntry names the worker entry that drains one connection. The
// hosting binary must route it through workers.RunChild(Entries()) at
// startup for the offload source to function.
const ReadConnEntry = "readconn"

// connFD is the descriptor the connection lands on in the worker, the
// first slot after stdio.
const connFD = 3

// offloadTick paces the accept deadline and the channel poll round.
const offloadTick = 50 * time.Millisecond

// workerIdle bounds each read inside the worker before the bytes received
// so far count as the complete request.
const workerIdle = 500 * time.Millisecond

// Entries returns the worker entry table for this package.
func Entries() map[string]workers.EntryFunc {
	return map[string]workers.EntryFunc{
		ReadConnEntry: readConnWorker,
	}
}

// readConnWorker runs in the spawned process: it drains the inherited
// connection descriptor and ships the buffer back over its channel.
func readConnWorker(ch *workers.Channel) {
	if err := unix.SetNonblock(connFD, true); err != nil {
		log.Printf("worker: set nonblock: %v", err)
		return
	}
	conn := os.NewFile(connFD, "conn")
	if conn == nil {
		log.Printf("worker: no inherited connection")
		return
	}
	defer conn.Close()

	var data []byte
	chunk := make([]byte, 4096)
	for {
		conn.SetReadDeadline(time.Now().Add(workerIdle))
		n, err := conn.Read(chunk)
		if n > 0 {
			data = append(data, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}

	if len(data) > 0 {
		ch.SendRaw(data)
	}
}

// OffloadSource is the pool-offloaded loop variant: every accepted
// connection's blocking read runs in a dedicated worker process, so a slow
// client never stalls the accept loop. The main loop polls the worker pool
// each tick and yields a connection only once its worker has exited with a
// result ready.
type OffloadSource struct {
	ln     *net.TCPListener
	pool   *workers.Pool
	conns  map[string]*net.TCPConn
	nextID int
}

// NewOffloadSource binds the address. Workers are spawned per connection,
// keyed by a connection identity assigned by this source.
func NewOffloadSource(addr string) (*OffloadSource, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, err
	}

	return &OffloadSource{
		ln:    ln,
		pool:  workers.NewPool(),
		conns: make(map[string]*net.TCPConn),
	}, nil
}

// Addr returns the bound listen address.
func (s *OffloadSource) Addr() net.Addr {
	return s.ln.Addr()
}

// Next alternates between accepting new connections and polling the worker
// pool until a worker completes with a result.
func (s *OffloadSource) Next(ctx context.Context) (Event, bool) {
	for {
		select {
		case <-ctx.Done():
			return Event{}, false
		default:
		}

		s.accept()

		if ev, ok := s.collect(); ok {
			return ev, true
		}
	}
}

// accept takes one pending connection, if any, and hands its read to a
// fresh worker process.
func (s *OffloadSource) accept() {
	s.ln.SetDeadline(time.Now().Add(offloadTick))
	conn, err := s.ln.AcceptTCP()
	if err != nil {
		if !errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, net.ErrClosed) {
			log.Printf("accept: %v", err)
		}
		return
	}

	file, err := conn.File()
	if err != nil {
		log.Printf("offload: dup connection: %v", err)
		conn.Close()
		return
	}

	ch, err := workers.Spawn(ReadConnEntry, workers.WithFiles(file))
	// The worker holds its own copy of the descriptor after spawn.
	file.Close()
	if err != nil {
		log.Printf("offload: spawn worker: %v", err)
		conn.Close()
		return
	}

	s.nextID++
	id := strconv.Itoa(s.nextID)
	if err := s.pool.Add(id, ch); err != nil {
		log.Printf("offload: %v", err)
		ch.Quit()
		conn.Close()
		return
	}
	s.conns[id] = conn
}

// collect scans the pool for workers that have finished. A finished worker
// with a result yields its connection exactly once; a finished worker
// without one means the client sent nothing, so the connection is closed.
func (s *OffloadSource) collect() (Event, bool) {
	for _, id := range s.pool.IDs() {
		ch, ok := s.pool.Get(id)
		if !ok || ch.Alive() {
			continue
		}

		conn := s.conns[id]
		delete(s.conns, id)
		s.pool.Quit(id)

		data, ok := ch.TryRecvRaw()
		if !ok || len(data) == 0 {
			if conn != nil {
				conn.Close()
			}
			continue
		}
		return Event{Conn: &netConn{conn: conn}, Data: data}, true
	}
	return Event{}, false
}

// Close terminates every still-running worker, closes their connections
// and releases the listener. No worker process survives the source.
func (s *OffloadSource) Close() error {
	s.pool.QuitAll()
	for id, conn := range s.conns {
		conn.Close()
		delete(s.conns, id)
	}
	return s.ln.Close()
}
