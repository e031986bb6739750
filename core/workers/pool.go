package workers

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDuplicateWorker reports an identifier already present in the pool.
var ErrDuplicateWorker = errors.New("duplicate worker identifier")

// Pool manages a keyed collection of worker channels. Identifiers are
// assigned by the owner; at most one channel exists per identifier. Every
// operation comes in a target-one and a broadcast form. Owners should pair
// StartAll with a deferred QuitAll so no process outlives the pool.
type Pool struct {
	mu    sync.Mutex
	chans map[string]*Channel
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{chans: make(map[string]*Channel)}
}

// Add registers a channel under an identifier. Duplicate identifiers are
// rejected, never replaced.
func (p *Pool) Add(id string, ch *Channel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.chans[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateWorker, id)
	}
	p.chans[id] = ch
	return nil
}

// Get returns the channel for an identifier.
func (p *Pool) Get(id string) (*Channel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.chans[id]
	return ch, ok
}

// Contains reports whether an identifier is registered.
func (p *Pool) Contains(id string) bool {
	_, ok := p.Get(id)
	return ok
}

// Remove detaches a channel from the pool without quitting it.
func (p *Pool) Remove(id string) (*Channel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.chans[id]
	if ok {
		delete(p.chans, id)
	}
	return ch, ok
}

// Len returns the number of registered channels.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.chans)
}

// IDs returns the registered identifiers.
func (p *Pool) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.chans))
	for id := range p.chans {
		ids = append(ids, id)
	}
	return ids
}

// snapshot copies the mapping so per-channel calls run unlocked.
func (p *Pool) snapshot() map[string]*Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	chans := make(map[string]*Channel, len(p.chans))
	for id, ch := range p.chans {
		chans[id] = ch
	}
	return chans
}

// StartAll starts every channel that has not been started yet, returning
// the first error.
func (p *Pool) StartAll() error {
	for _, ch := range p.snapshot() {
		if err := ch.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Alive reports whether the identified worker is running.
func (p *Pool) Alive(id string) bool {
	ch, ok := p.Get(id)
	return ok && ch.Alive()
}

// AnyAlive reports whether any worker is still running.
func (p *Pool) AnyAlive() bool {
	for _, ch := range p.snapshot() {
		if ch.Alive() {
			return true
		}
	}
	return false
}

// Send sends a message to one worker.
func (p *Pool) Send(id string, v any) error {
	ch, ok := p.Get(id)
	if !ok {
		return fmt.Errorf("no worker %q", id)
	}
	return ch.Send(v)
}

// Broadcast sends a message to every worker. Dead peers are skipped by the
// channel's own send contract.
func (p *Pool) Broadcast(v any) error {
	for _, ch := range p.snapshot() {
		if err := ch.Send(v); err != nil {
			return err
		}
	}
	return nil
}

// Recv blocks for the next message from one worker.
func (p *Pool) Recv(id string, v any) error {
	ch, ok := p.Get(id)
	if !ok {
		return fmt.Errorf("no worker %q", id)
	}
	return ch.Recv(v)
}

// Poll reports whether the identified worker has a message ready.
func (p *Pool) Poll(id string, timeout time.Duration) bool {
	ch, ok := p.Get(id)
	return ok && ch.Poll(timeout)
}

// PollAny reports whether any worker has a message ready. Each channel is
// given the full timeout in turn.
func (p *Pool) PollAny(timeout time.Duration) bool {
	for _, ch := range p.snapshot() {
		if ch.Poll(timeout) {
			return true
		}
	}
	return false
}

// RecvAll drains every available raw payload from every worker and
// aggregates them per identifier. Workers with nothing ready are absent
// from the result.
func (p *Pool) RecvAll(timeout time.Duration) map[string][][]byte {
	result := make(map[string][][]byte)
	for id, ch := range p.snapshot() {
		for ch.Poll(timeout) {
			payload, err := ch.RecvRaw()
			if err != nil {
				break
			}
			result[id] = append(result[id], payload)
		}
	}
	return result
}

// Quit terminates one worker and removes it from the pool.
func (p *Pool) Quit(id string) error {
	ch, ok := p.Remove(id)
	if !ok {
		return nil
	}
	return ch.Quit()
}

// QuitAll terminates every worker. After it returns no pool process is
// left running.
func (p *Pool) QuitAll() {
	for id := range p.snapshot() {
		_ = p.Quit(id)
	}
}
