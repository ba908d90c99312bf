// Package pool owns the fixed set of decks and hands them out in FIFO order.
package pool

import (
	"errors"
	"fmt"

	"github.com/olivier-w/decks/internal/deck"
	"github.com/olivier-w/decks/internal/queue"
)

var (
	// ErrUnknownSlot is returned for ids outside the pool.
	ErrUnknownSlot = errors.New("unknown slot")
	// ErrNotAcquired is returned when releasing a slot that is already free.
	ErrNotAcquired = errors.New("slot not acquired")
)

// Factory builds the chain for slot id.
type Factory func(id int) *deck.Chain

// Pool is a fixed set of decks. All methods run on the UI goroutine.
type Pool struct {
	slots []*deck.Chain
	inUse []bool
	free  *queue.Queue
}

// New constructs all n chains up front with ids 0..n-1.
func New(n int, factory Factory) *Pool {
	n = max(n, 0)
	p := &Pool{
		slots: make([]*deck.Chain, n),
		inUse: make([]bool, n),
		free:  queue.New(n),
	}
	for id := range n {
		p.slots[id] = factory(id)
		p.free.Push(id)
	}
	return p
}

// Acquire takes the longest-free slot. It returns false when every slot is in use.
func (p *Pool) Acquire() (int, bool) {
	id, ok := p.free.Pop()
	if !ok {
		return -1, false
	}
	p.inUse[id] = true
	return id, true
}

// Release returns id to the back of the free queue.
func (p *Pool) Release(id int) error {
	if id < 0 || id >= len(p.slots) {
		return fmt.Errorf("release %d: %w", id, ErrUnknownSlot)
	}
	if !p.inUse[id] {
		return fmt.Errorf("release %d: %w", id, ErrNotAcquired)
	}
	p.inUse[id] = false
	p.free.Push(id)
	return nil
}

// Slot returns the chain for id, or nil when id is out of range.
func (p *Pool) Slot(id int) *deck.Chain {
	if id < 0 || id >= len(p.slots) {
		return nil
	}
	return p.slots[id]
}

// InUse reports whether id is currently acquired.
func (p *Pool) InUse(id int) bool {
	return id >= 0 && id < len(p.inUse) && p.inUse[id]
}

// Size returns the total number of slots.
func (p *Pool) Size() int { return len(p.slots) }

// Available returns the number of free slots.
func (p *Pool) Available() int { return p.free.Len() }

// Each calls fn for every slot in id order.
func (p *Pool) Each(fn func(*deck.Chain)) {
	for _, c := range p.slots {
		fn(c)
	}
}
