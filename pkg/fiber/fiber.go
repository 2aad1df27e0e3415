// Package fiber runs a unit of work as a coroutine that suspends at I/O
// boundaries and is resumed with the completion result.
//
// Fibers run on the runtime coroutine behind iter.Pull: Start and Resume
// switch to the fiber and block the caller until the fiber suspends again or
// returns, so fibers never run concurrently with their driver or with each
// other.
package fiber

import (
	"fmt"
	"github.com/brickingsoft/errors"
	"iter"
)

var (
	ErrStopped    = errors.Define("fiber: stopped")
	ErrNotRunning = errors.Define("fiber: suspend called outside of the running fiber")
	ErrPanicked   = errors.Define("fiber: panicked")
)

type State int

const (
	Runnable State = iota
	Suspended
	Completed
)

func (s State) String() string {
	switch s {
	case Runnable:
		return "runnable"
	case Suspended:
		return "suspended"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

type Entry[L any] func(f *Fiber[L]) error

type Fiber[L any] struct {
	// Local is the per fiber context.
	Local L

	id      uint64
	entry   Entry[L]
	next    func() (struct{}, bool)
	stop    func()
	yield   func(struct{}) bool
	state   State
	started bool
	value   int32
	err     error
}

func New[L any](id uint64, local L, entry Entry[L]) *Fiber[L] {
	f := &Fiber[L]{
		Local: local,
		id:    id,
		entry: entry,
		state: Runnable,
	}
	f.next, f.stop = iter.Pull(f.run)
	return f
}

func (f *Fiber[L]) run(yield func(struct{}) bool) {
	f.yield = yield
	defer func() {
		f.yield = nil
		if r := recover(); r != nil {
			f.err = errors.From(ErrPanicked, errors.WithMeta("panic", fmt.Sprint(r)))
		}
	}()
	f.err = f.entry(f)
}

func (f *Fiber[L]) ID() uint64 {
	return f.id
}

func (f *Fiber[L]) State() State {
	return f.state
}

func (f *Fiber[L]) Alive() bool {
	return f.state != Completed
}

// Err
// is the error the entry returned, valid once the fiber completed.
func (f *Fiber[L]) Err() error {
	return f.err
}

// Current
// is the value most recently injected by Resume.
func (f *Fiber[L]) Current() int32 {
	return f.value
}

// Start
// runs the entry until its first suspension or its return, and reports
// whether the fiber is still alive.
func (f *Fiber[L]) Start() bool {
	if f.started {
		return f.Alive()
	}
	f.started = true
	return f.switchTo()
}

// Resume
// continues a suspended fiber with value as the result of the operation it
// awaits, and reports whether the fiber is still alive.
func (f *Fiber[L]) Resume(value int32) bool {
	if f.state != Suspended {
		return f.Alive()
	}
	f.value = value
	return f.switchTo()
}

func (f *Fiber[L]) switchTo() bool {
	f.state = Runnable
	if _, ok := f.next(); ok {
		f.state = Suspended
		return true
	}
	f.state = Completed
	return false
}

// Suspend
// parks the running fiber until Resume and returns the injected value.
// It must be called from inside the fiber's entry.
func (f *Fiber[L]) Suspend() (int32, error) {
	if f.yield == nil || f.state != Runnable {
		return 0, errors.From(ErrNotRunning)
	}
	if !f.yield(struct{}{}) {
		return 0, errors.From(ErrStopped)
	}
	return f.value, nil
}

// Stop
// aborts the fiber. A suspended fiber sees ErrStopped from Suspend and
// unwinds before Stop returns. A fiber that never started does not run.
func (f *Fiber[L]) Stop() {
	if f.state == Completed {
		return
	}
	if !f.started {
		f.started = true
		f.err = errors.From(ErrStopped)
	}
	f.state = Runnable
	f.stop()
	f.state = Completed
}
