package ring

import "syscall"

type Submitter interface {
	// Submit
	// hands op to the kernel. op.Userdata() is the tag its completion carries back.
	Submit(op *Operation) error
}

// Ring
// is touched by one goroutine only, so implementations carry no locks.
type Ring interface {
	Submitter
	// Peek
	// consumes one completion without blocking, ok is false when there is none.
	Peek() (cqe Completion, ok bool, err error)
	RegisterBuffers(iovecs []syscall.Iovec) error
	// Inflight
	// is the number of submitted operations whose completion was not peeked yet.
	Inflight() int
	Close() error
}
