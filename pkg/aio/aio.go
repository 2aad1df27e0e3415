// Package aio turns one ring submission into a blocking call from the point
// of view of a fiber: the operation is tagged with the fiber id, submitted, and
// the fiber is suspended until the reactor resumes it with the completion result.
package aio

import (
	"github.com/brickingsoft/staticd/pkg/bufpool"
	"github.com/brickingsoft/staticd/pkg/ring"
)

// Fiber
// is the part of a fiber the adapter needs.
type Fiber interface {
	ID() uint64
	Suspend() (int32, error)
}

func Readv(r ring.Submitter, f Fiber, fd int, bufs [][]byte, offset uint64) (n int, err error) {
	op := ring.AcquireOperation()
	op.PrepareReadv(fd, bufs, offset)
	n, err = await(r, f, op, errMetaOpReadv)
	return
}

func Writev(r ring.Submitter, f Fiber, fd int, bufs [][]byte, offset uint64) (n int, err error) {
	op := ring.AcquireOperation()
	op.PrepareWritev(fd, bufs, offset)
	n, err = await(r, f, op, errMetaOpWritev)
	return
}

// ReadFixed
// reads at most n bytes into the front of slot.
func ReadFixed(r ring.Submitter, f Fiber, fd int, slot *bufpool.Slot, n int, offset uint64) (int, error) {
	if err := checkSlot(slot, n, errMetaOpReadFixed); err != nil {
		return 0, err
	}
	op := ring.AcquireOperation()
	op.PrepareReadFixed(fd, slot.Bytes()[:n], slot.Index(), offset)
	return await(r, f, op, errMetaOpReadFixed)
}

// WriteFixed
// writes at most n bytes from the front of slot.
func WriteFixed(r ring.Submitter, f Fiber, fd int, slot *bufpool.Slot, n int, offset uint64) (int, error) {
	if err := checkSlot(slot, n, errMetaOpWriteFixed); err != nil {
		return 0, err
	}
	return writeFixedAt(r, f, fd, slot, 0, n, offset)
}

// WriteFull
// keeps writing the unwritten tail of bufs until every byte was transferred.
func WriteFull(r ring.Submitter, f Fiber, fd int, bufs [][]byte) (written int, err error) {
	total := 0
	for _, b := range bufs {
		total += len(b)
	}
	for written < total {
		n, wErr := Writev(r, f, fd, tail(bufs, written), 0)
		if wErr != nil {
			err = wErr
			return
		}
		written += n
	}
	return
}

// WriteFixedFull
// keeps writing the first n bytes of slot until all of them were transferred.
func WriteFixedFull(r ring.Submitter, f Fiber, fd int, slot *bufpool.Slot, n int) (written int, err error) {
	if err = checkSlot(slot, n, errMetaOpWriteFixed); err != nil {
		return
	}
	for written < n {
		w, wErr := writeFixedAt(r, f, fd, slot, written, n, 0)
		if wErr != nil {
			err = wErr
			return
		}
		written += w
	}
	return
}

func writeFixedAt(r ring.Submitter, f Fiber, fd int, slot *bufpool.Slot, from int, to int, offset uint64) (int, error) {
	op := ring.AcquireOperation()
	op.PrepareWriteFixed(fd, slot.Bytes()[from:to], slot.Index(), offset)
	return await(r, f, op, errMetaOpWriteFixed)
}

func await(r ring.Submitter, f Fiber, op *ring.Operation, name string) (n int, err error) {
	op.SetUserdata(f.ID())
	if err = r.Submit(op); err != nil {
		ring.ReleaseOperation(op)
		return
	}
	res, suspendErr := f.Suspend()
	if suspendErr != nil {
		// the kernel may still reference op, it is left to the collector
		err = suspendErr
		return
	}
	ring.ReleaseOperation(op)
	if res <= 0 {
		err = resultErr(name, res)
		return
	}
	n = int(res)
	return
}

func checkSlot(slot *bufpool.Slot, n int, op string) error {
	if slot == nil {
		return argumentErr(op, "slot is nil")
	}
	if !slot.Owned() {
		return argumentErr(op, "slot is not owned")
	}
	if n < 1 || n > slot.Cap() {
		return argumentErr(op, "length exceeds slot capacity")
	}
	return nil
}

// tail
// skips the first skip bytes of bufs without copying.
func tail(bufs [][]byte, skip int) [][]byte {
	for len(bufs) > 0 && skip >= len(bufs[0]) {
		skip -= len(bufs[0])
		bufs = bufs[1:]
	}
	if skip == 0 || len(bufs) == 0 {
		return bufs
	}
	out := make([][]byte, len(bufs))
	copy(out, bufs)
	out[0] = out[0][skip:]
	return out
}
