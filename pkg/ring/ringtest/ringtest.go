//go:build linux

// Package ringtest provides an in-memory ring.Ring that performs every
// operation synchronously at submission with plain syscalls and queues its
// completion, so the reactor can be driven deterministically in tests.
package ringtest

import (
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/staticd/pkg/ring"
	"github.com/eapache/queue"
	"golang.org/x/sys/unix"
	"syscall"
	"unsafe"
)

// Record
// is one executed submission.
type Record struct {
	Kind     ring.OperationKind
	Fd       int
	Len      int
	Offset   uint64
	Userdata uint64
	Res      int32
	// first bytes transferred, capped at the operation length.
	Data []byte
}

// Fault
// may replace the result of an operation before it is executed.
type Fault func(op *ring.Operation) (res int32, replaced bool)

type Ring struct {
	buffers     [][]byte
	inflight    map[uint64]*ring.Operation
	completions *queue.Queue
	records     []Record
	fault       Fault
	closed      bool
}

func New() *Ring {
	return &Ring{
		inflight:    make(map[uint64]*ring.Operation),
		completions: queue.New(),
	}
}

// SetFault
// installs f for every following submission, nil removes it.
func (r *Ring) SetFault(f Fault) {
	r.fault = f
}

func (r *Ring) RegisterBuffers(iovecs []syscall.Iovec) error {
	if len(iovecs) == 0 {
		return errors.From(ring.ErrInvalidBuffers)
	}
	r.buffers = make([][]byte, len(iovecs))
	for i, iov := range iovecs {
		r.buffers[i] = unsafe.Slice(iov.Base, int(iov.Len))
	}
	return nil
}

func (r *Ring) Registered() int {
	return len(r.buffers)
}

func (r *Ring) Submit(op *ring.Operation) error {
	if r.closed {
		return errors.From(ring.ErrClosed)
	}
	tag := op.Userdata()
	if tag == 0 {
		return errors.From(ring.ErrInvalidTag)
	}
	if _, has := r.inflight[tag]; has {
		return errors.From(ring.ErrTagInFlight)
	}
	res, replaced := int32(0), false
	if r.fault != nil {
		res, replaced = r.fault(op)
	}
	if !replaced {
		res = r.execute(op)
	}
	r.inflight[tag] = op
	r.completions.Add(ring.Completion{Userdata: tag, Res: res})
	r.records = append(r.records, r.record(op, res))
	return nil
}

func (r *Ring) execute(op *ring.Operation) int32 {
	var (
		n   int
		err error
	)
	fd, offset := op.Fd(), int64(op.Offset())
	switch op.Kind() {
	case ring.NopOp:
		return 0
	case ring.ReadvOp:
		if n, err = unix.Preadv(fd, op.Vectors(), offset); err == unix.ESPIPE {
			n, err = unix.Readv(fd, op.Vectors())
		}
	case ring.WritevOp:
		if n, err = unix.Pwritev(fd, op.Vectors(), offset); err == unix.ESPIPE {
			n, err = unix.Writev(fd, op.Vectors())
		}
	case ring.ReadFixedOp:
		b, index := op.Fixed()
		if !r.registered(b, index) {
			return -int32(unix.EFAULT)
		}
		if n, err = unix.Pread(fd, b, offset); err == unix.ESPIPE {
			n, err = unix.Read(fd, b)
		}
	case ring.WriteFixedOp:
		b, index := op.Fixed()
		if !r.registered(b, index) {
			return -int32(unix.EFAULT)
		}
		if n, err = unix.Pwrite(fd, b, offset); err == unix.ESPIPE {
			n, err = unix.Write(fd, b)
		}
	default:
		return -int32(unix.EINVAL)
	}
	if err != nil {
		if errno, ok := err.(unix.Errno); ok {
			return -int32(errno)
		}
		return -int32(unix.EIO)
	}
	return int32(n)
}

// registered
// reports whether b lies inside the buffer registered at index.
func (r *Ring) registered(b []byte, index int) bool {
	if index < 0 || index >= len(r.buffers) || len(b) == 0 {
		return false
	}
	reg := r.buffers[index]
	start := uintptr(unsafe.Pointer(&reg[0]))
	p := uintptr(unsafe.Pointer(&b[0]))
	return p >= start && p+uintptr(len(b)) <= start+uintptr(len(reg))
}

func (r *Ring) record(op *ring.Operation, res int32) Record {
	rec := Record{
		Kind:     op.Kind(),
		Fd:       op.Fd(),
		Len:      op.Len(),
		Offset:   op.Offset(),
		Userdata: op.Userdata(),
		Res:      res,
	}
	if res > 0 {
		rec.Data = make([]byte, 0, res)
		remain := int(res)
		collect := func(b []byte) {
			if remain <= 0 {
				return
			}
			if len(b) > remain {
				b = b[:remain]
			}
			rec.Data = append(rec.Data, b...)
			remain -= len(b)
		}
		switch op.Kind() {
		case ring.ReadvOp, ring.WritevOp:
			for _, b := range op.Vectors() {
				collect(b)
			}
		case ring.ReadFixedOp, ring.WriteFixedOp:
			b, _ := op.Fixed()
			collect(b)
		}
	}
	return rec
}

func (r *Ring) Peek() (cqe ring.Completion, ok bool, err error) {
	if r.closed {
		err = errors.From(ring.ErrClosed)
		return
	}
	if r.completions.Length() == 0 {
		return
	}
	cqe = r.completions.Remove().(ring.Completion)
	delete(r.inflight, cqe.Userdata)
	ok = true
	return
}

// Pending
// is the number of queued completions not yet peeked.
func (r *Ring) Pending() int {
	return r.completions.Length()
}

func (r *Ring) Inflight() int {
	return len(r.inflight)
}

// Records
// returns every executed submission in submission order.
func (r *Ring) Records() []Record {
	return r.records
}

// RecordsOf
// returns the executed submissions carrying tag.
func (r *Ring) RecordsOf(tag uint64) (records []Record) {
	for _, rec := range r.records {
		if rec.Userdata == tag {
			records = append(records, rec)
		}
	}
	return
}

func (r *Ring) Close() error {
	r.closed = true
	return nil
}
