// Package bufpool manages a fixed set of equally sized buffers that are
// registered with the ring once at startup and checked out per connection.
package bufpool

import (
	"github.com/brickingsoft/errors"
	"github.com/eapache/queue"
	"strconv"
	"syscall"
)

const (
	// MaxCount is the kernel limit of registered buffers (IORING_MAX_REG_BUFFERS).
	MaxCount = 1 << 14
	// MaxSize is the kernel limit of one registered buffer.
	MaxSize = 1 << 30
)

var (
	ErrInvalidCount = errors.Define("bufpool: count must be in [1, 16384]")
	ErrInvalidSize  = errors.Define("bufpool: size must be in [1, 1GiB]")
	ErrNilSlot      = errors.Define("bufpool: slot is nil")
	ErrForeignSlot  = errors.Define("bufpool: slot belongs to another pool")
	ErrNotOwned     = errors.Define("bufpool: slot is not owned")
)

// Slot
// is one registered buffer. Its index is the registration index known to the kernel.
type Slot struct {
	pool  *Pool
	index int
	value []byte
	owned bool
}

func (slot *Slot) Index() int {
	return slot.index
}

// Bytes
// returns the whole registered region.
func (slot *Slot) Bytes() []byte {
	return slot.value
}

func (slot *Slot) Cap() int {
	return len(slot.value)
}

func (slot *Slot) Owned() bool {
	return slot.owned
}

// Pool
// is not safe for concurrent use, it is owned by the reactor.
type Pool struct {
	size  int
	slots []*Slot
	free  *queue.Queue
}

func New(count int, size int) (*Pool, error) {
	if count < 1 || count > MaxCount {
		return nil, errors.From(ErrInvalidCount)
	}
	if size < 1 || size > MaxSize {
		return nil, errors.From(ErrInvalidSize)
	}
	p := &Pool{
		size:  size,
		slots: make([]*Slot, count),
		free:  queue.New(),
	}
	for i := 0; i < count; i++ {
		slot := &Slot{
			pool:  p,
			index: i,
			value: make([]byte, size),
		}
		p.slots[i] = slot
		p.free.Add(slot)
	}
	return p, nil
}

// Iovecs
// describes every slot in index order, for ring buffer registration.
func (p *Pool) Iovecs() []syscall.Iovec {
	iovecs := make([]syscall.Iovec, len(p.slots))
	for i, slot := range p.slots {
		iovecs[i].Base = &slot.value[0]
		iovecs[i].SetLen(len(slot.value))
	}
	return iovecs
}

// Acquire
// removes a free slot, ok is false when the pool is exhausted.
func (p *Pool) Acquire() (slot *Slot, ok bool) {
	if p.free.Length() == 0 {
		return
	}
	slot = p.free.Remove().(*Slot)
	slot.owned = true
	ok = true
	return
}

// Release
// returns a slot taken by Acquire. Releasing twice is an error.
func (p *Pool) Release(slot *Slot) error {
	if slot == nil {
		return errors.From(ErrNilSlot)
	}
	if slot.pool != p {
		return errors.From(ErrForeignSlot)
	}
	if !slot.owned {
		return errors.From(ErrNotOwned, errors.WithMeta("index", strconv.Itoa(slot.index)))
	}
	slot.owned = false
	p.free.Add(slot)
	return nil
}

// Slot
// returns the slot registered at index, or nil.
func (p *Pool) Slot(index int) *Slot {
	if index < 0 || index >= len(p.slots) {
		return nil
	}
	return p.slots[index]
}

func (p *Pool) Free() int {
	return p.free.Length()
}

func (p *Pool) Owned() int {
	return len(p.slots) - p.free.Length()
}

func (p *Pool) Capacity() int {
	return len(p.slots)
}

func (p *Pool) BufferSize() int {
	return p.size
}
