package workers

import (
	"errors"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Environment markers used to route a spawned copy of the binary into its
// worker entry.
const (
	EntryEnv = "WIRE_WORKER_ENTRY"
	codecEnv = "WIRE_WORKER_CODEC"
)

// quitGrace is how long Quit waits after SIGTERM before force-killing.
const quitGrace = 2 * time.Second

var (
	// ErrChannelClosed reports a blocking receive on a channel whose peer
	// has exited and whose buffered messages are drained.
	ErrChannelClosed = errors.New("worker channel closed")

	// ErrUnknownEntry reports a child started with an unregistered entry.
	ErrUnknownEntry = errors.New("unknown worker entry")
)

// State tracks the channel lifecycle:
// created → running → finished → closed.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateFinished
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EntryFunc runs on the worker side of a channel. When it returns, the
// worker process exits.
type EntryFunc func(ch *Channel)

// Option configures a Channel before Start.
type Option func(*Channel)

// WithCodec selects the message codec (default gob).
func WithCodec(typ CodecType) Option {
	return func(c *Channel) { c.codecType = typ }
}

// WithCommand overrides the executable and arguments for the worker
// process. By default the channel re-executes the current binary.
func WithCommand(path string, args ...string) Option {
	return func(c *Channel) {
		c.path = path
		c.args = args
	}
}

// WithFiles passes additional open files to the worker. The first lands on
// descriptor 3.
func WithFiles(files ...*os.File) Option {
	return func(c *Channel) { c.files = append(c.files, files...) }
}

// Channel owns one spawned worker process and the framed pipe pair shared
// with it. The worker is only reachable through the channel; at most one
// consumer receives from a channel at a time.
type Channel struct {
	entry     string
	path      string
	args      []string
	files     []*os.File
	codecType CodecType
	codec     Codec

	cmd *exec.Cmd
	w   io.WriteCloser
	r   io.Reader

	recvq   chan []byte
	done    chan struct{}
	closing chan struct{}

	state atomic.Int32

	sendMu    sync.Mutex
	peekMu    sync.Mutex
	peeked    [][]byte
	quitMu    sync.Mutex
	closeOnce sync.Once
}

// New creates a channel in the created state. Start launches the process.
func New(entry string, opts ...Option) *Channel {
	c := &Channel{
		entry:     entry,
		codecType: CodecGob,
		recvq:     make(chan []byte, 64),
		done:      make(chan struct{}),
		closing:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.codec, _ = GetCodec(c.codecType)
	return c
}

// Spawn creates and starts a worker channel in one step.
func Spawn(entry string, opts ...Option) (*Channel, error) {
	c := New(entry, opts...)
	if err := c.Start(); err != nil {
		return nil, err
	}
	return c, nil
}

// Start launches the worker process. Starting an already-started channel is
// a no-op; a process is never started twice.
func (c *Channel) Start() error {
	if !c.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return nil
	}

	path := c.path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			c.state.Store(int32(StateClosed))
			return err
		}
		path = exe
	}

	cmd := exec.Command(path, c.args...)
	cmd.Env = append(os.Environ(),
		EntryEnv+"="+c.entry,
		codecEnv+"="+strconv.Itoa(int(c.codecType)),
	)
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = c.files

	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.state.Store(int32(StateClosed))
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.state.Store(int32(StateClosed))
		return err
	}

	if err := cmd.Start(); err != nil {
		c.state.Store(int32(StateClosed))
		return err
	}

	c.cmd = cmd
	c.w = stdin
	c.r = stdout

	go c.readLoop()
	go c.reap()
	return nil
}

// readLoop pumps incoming frames into the receive queue until the peer
// goes away or the channel is quit.
func (c *Channel) readLoop() {
	defer close(c.recvq)
	defer close(c.done)
	for {
		_, payload, err := readFrame(c.r)
		if err != nil {
			return
		}
		select {
		case c.recvq <- payload:
		case <-c.closing:
			return
		}
	}
}

// reap collects the process exit status once the read side is done.
func (c *Channel) reap() {
	<-c.done
	_ = c.cmd.Wait()
	c.state.CompareAndSwap(int32(StateRunning), int32(StateFinished))
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	s := State(c.state.Load())
	if s == StateRunning {
		select {
		case <-c.done:
			return StateFinished
		default:
		}
	}
	return s
}

// Alive reports whether the worker process is still running.
func (c *Channel) Alive() bool {
	return c.State() == StateRunning
}

// Send encodes and sends a message. Sending on a channel whose peer has
// exited is a no-op; a broken pipe never surfaces as an error.
func (c *Channel) Send(v any) error {
	if c.codec == nil {
		return ErrUnsupportedCodec
	}
	payload, err := c.codec.Encode(v)
	if err != nil {
		return err
	}
	return c.send(c.codecType, payload)
}

// SendRaw sends an uncodeced byte payload.
func (c *Channel) SendRaw(payload []byte) error {
	return c.send(CodecRaw, payload)
}

func (c *Channel) send(typ CodecType, payload []byte) error {
	if c.State() != StateRunning {
		return nil
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	// Write errors mean the peer is gone; the channel contract swallows
	// them rather than raising past the API.
	_ = writeFrame(c.w, typ, payload)
	return nil
}

// RecvRaw blocks until a payload is available. Returns ErrChannelClosed
// once the peer has exited and all buffered messages are drained.
func (c *Channel) RecvRaw() ([]byte, error) {
	if payload, ok := c.takePeeked(); ok {
		return payload, nil
	}
	payload, ok := <-c.recvq
	if !ok {
		return nil, ErrChannelClosed
	}
	return payload, nil
}

// Recv blocks for the next message and decodes it into v.
func (c *Channel) Recv(v any) error {
	if c.codec == nil {
		return ErrUnsupportedCodec
	}
	payload, err := c.RecvRaw()
	if err != nil {
		return err
	}
	return c.codec.Decode(payload, v)
}

// TryRecvRaw returns the next payload without blocking. ok is false when no
// data is available or the channel is broken; the caller keeps its default.
func (c *Channel) TryRecvRaw() ([]byte, bool) {
	if payload, ok := c.takePeeked(); ok {
		return payload, true
	}
	select {
	case payload, open := <-c.recvq:
		if !open {
			return nil, false
		}
		return payload, true
	default:
		return nil, false
	}
}

// TryRecv decodes the next message into v without blocking. ok is false
// when no data is available, the channel is broken, or decoding fails.
func (c *Channel) TryRecv(v any) bool {
	if c.codec == nil {
		return false
	}
	payload, ok := c.TryRecvRaw()
	if !ok {
		return false
	}
	if err := c.codec.Decode(payload, v); err != nil {
		log.Printf("worker channel decode: %v", err)
		return false
	}
	return true
}

// Poll reports whether a message is available, waiting up to timeout. The
// message stays queued for the next receive.
func (c *Channel) Poll(timeout time.Duration) bool {
	c.peekMu.Lock()
	queued := len(c.peeked) > 0
	c.peekMu.Unlock()
	if queued {
		return true
	}

	if timeout <= 0 {
		select {
		case payload, open := <-c.recvq:
			if !open {
				return false
			}
			c.pushPeeked(payload)
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case payload, open := <-c.recvq:
		if !open {
			return false
		}
		c.pushPeeked(payload)
		return true
	case <-timer.C:
		return false
	}
}

func (c *Channel) pushPeeked(payload []byte) {
	c.peekMu.Lock()
	c.peeked = append(c.peeked, payload)
	c.peekMu.Unlock()
}

func (c *Channel) takePeeked() ([]byte, bool) {
	c.peekMu.Lock()
	defer c.peekMu.Unlock()
	if len(c.peeked) == 0 {
		return nil, false
	}
	payload := c.peeked[0]
	c.peeked = c.peeked[1:]
	return payload, true
}

// Quit requests process termination, force-kills if unresponsive and
// releases the channel. Safe to call repeatedly and on an already-dead
// process.
func (c *Channel) Quit() error {
	c.quitMu.Lock()
	defer c.quitMu.Unlock()

	if State(c.state.Load()) == StateClosed {
		return nil
	}

	c.closeOnce.Do(func() { close(c.closing) })

	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-c.done:
		case <-time.After(quitGrace):
			_ = c.cmd.Process.Kill()
			<-c.done
		}
	}

	if c.w != nil {
		_ = c.w.Close()
	}
	c.state.Store(int32(StateClosed))
	return nil
}

// RunChild checks whether this process was spawned as a worker and, if so,
// runs the matching entry against the parent channel. It returns true when
// an entry ran; callers should then exit. Call it first thing in main.
func RunChild(entries map[string]EntryFunc) bool {
	name := os.Getenv(EntryEnv)
	if name == "" {
		return false
	}

	entry, ok := entries[name]
	if !ok {
		log.Fatalf("worker: %v: %q", ErrUnknownEntry, name)
	}

	codecType := CodecGob
	if s := os.Getenv(codecEnv); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			codecType = CodecType(n)
		}
	}

	entry(newPeer(os.Stdin, os.Stdout, codecType))
	return true
}

// newPeer builds the worker-side channel over the inherited pipes.
func newPeer(r io.Reader, w io.WriteCloser, codecType CodecType) *Channel {
	c := &Channel{
		codecType: codecType,
		recvq:     make(chan []byte, 64),
		done:      make(chan struct{}),
		closing:   make(chan struct{}),
		r:         r,
		w:         w,
	}
	c.codec, _ = GetCodec(codecType)
	c.state.Store(int32(StateRunning))
	go c.readLoop()
	return c
}
