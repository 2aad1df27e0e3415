//go:build linux

package ring

import (
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/staticd/pkg/kernel"
	"github.com/pawelgaczynski/giouring"
	"runtime"
	"syscall"
)

const (
	defaultEntries = 32
	maxEntries     = 32768
)

// New
// creates an io_uring with at least entries submission slots.
func New(entries int) (*URing, error) {
	if entries <= 0 {
		entries = defaultEntries
	}
	if entries > maxEntries {
		return nil, errors.New(
			"entries too big",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpSetup),
		)
	}
	supported, versionErr := kernel.Check(5, 1, 0)
	if versionErr != nil {
		return nil, errors.New(
			"get kernel version failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpSetup),
			errors.WithWrap(versionErr),
		)
	}
	if !supported {
		return nil, errors.From(ErrKernelTooOld)
	}
	// completions overflowing the cq are only kept from 5.5 on
	nodrop, _ := kernel.Check(5, 5, 0)
	r, ringErr := giouring.CreateRing(uint32(entries))
	if ringErr != nil {
		return nil, errors.New(
			"create ring failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpSetup),
			errors.WithWrap(ringErr),
		)
	}
	return &URing{
		ring:     r,
		submit:   r.Submit,
		inflight: make(map[uint64]*Operation, entries),
		nodrop:   nodrop,
	}, nil
}

type URing struct {
	ring     *giouring.Ring
	submit   func() (uint, error)
	inflight map[uint64]*Operation
	buffers  []syscall.Iovec
	nodrop   bool
	closed   bool
}

// NoDrop
// reports whether the kernel keeps completions that overflow the completion
// queue instead of dropping them.
func (r *URing) NoDrop() bool {
	return r.nodrop
}

func (r *URing) RegisterBuffers(iovecs []syscall.Iovec) error {
	if r.closed {
		return errors.From(ErrClosed)
	}
	if len(iovecs) == 0 {
		return errors.From(ErrInvalidBuffers)
	}
	if _, regErr := r.ring.RegisterBuffers(iovecs); regErr != nil {
		return errors.New(
			"register buffers failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpRegBuffers),
			errors.WithWrap(regErr),
		)
	}
	// keep the registered memory reachable for the ring's lifetime
	r.buffers = iovecs
	return nil
}

func (r *URing) Submit(op *Operation) (err error) {
	if r.closed {
		err = errors.From(ErrClosed)
		return
	}
	tag := op.Userdata()
	if tag == 0 {
		err = errors.From(ErrInvalidTag)
		return
	}
	if _, has := r.inflight[tag]; has {
		err = errors.From(ErrTagInFlight)
		return
	}
	sqe := r.ring.GetSQE()
	if sqe == nil {
		// sq is full of prepared entries, flush them and retry once
		if _, submitErr := r.submit(); submitErr != nil {
			err = r.submitErr(submitErr)
			return
		}
		if sqe = r.ring.GetSQE(); sqe == nil {
			err = errors.From(ErrSQBusy)
			return
		}
	}
	switch op.kind {
	case NopOp:
		sqe.PrepareNop()
		break
	case ReadvOp:
		iovecs, n := op.iovecsPtr()
		sqe.PrepareReadv(op.fd, iovecs, n, op.offset)
		break
	case WritevOp:
		iovecs, n := op.iovecsPtr()
		sqe.PrepareWritev(op.fd, iovecs, n, op.offset)
		break
	case ReadFixedOp:
		b, n := op.fixedPtr()
		sqe.PrepareReadFixed(op.fd, b, n, op.offset, op.bufIndex)
		break
	case WriteFixedOp:
		b, n := op.fixedPtr()
		sqe.PrepareWriteFixed(op.fd, b, n, op.offset, op.bufIndex)
		break
	default:
		sqe.PrepareNop()
		sqe.SetData64(0)
		err = errors.From(ErrUnsupportedOp, errors.WithMeta("kind", op.kind.String()))
		return
	}
	sqe.SetData64(tag)
	r.inflight[tag] = op
	for {
		_, submitErr := r.submit()
		if submitErr != nil {
			if errors.Is(submitErr, syscall.EAGAIN) || errors.Is(submitErr, syscall.EINTR) {
				continue
			}
			// the entry stays queued and goes out with the next submit, op
			// is released by the caller so it must not reference it anymore
			sqe.PrepareNop()
			sqe.SetData64(0)
			delete(r.inflight, tag)
			err = r.submitErr(submitErr)
			return
		}
		break
	}
	runtime.KeepAlive(op)
	return
}

func (r *URing) submitErr(cause error) error {
	return errors.New(
		"submit failed",
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, errMetaOpSubmit),
		errors.WithWrap(cause),
	)
}

func (r *URing) Peek() (cqe Completion, ok bool, err error) {
	if r.closed {
		err = errors.From(ErrClosed)
		return
	}
	event, peekErr := r.ring.PeekCQE()
	if peekErr != nil {
		if errors.Is(peekErr, syscall.EAGAIN) || errors.Is(peekErr, syscall.EINTR) || errors.Is(peekErr, syscall.ETIME) {
			return
		}
		err = errors.New(
			"peek completion failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpPeek),
			errors.WithWrap(peekErr),
		)
		return
	}
	if event == nil {
		return
	}
	cqe = Completion{
		Userdata: event.UserData,
		Res:      event.Res,
		Flags:    event.Flags,
	}
	r.ring.CQESeen(event)
	delete(r.inflight, cqe.Userdata)
	ok = true
	return
}

func (r *URing) Inflight() int {
	return len(r.inflight)
}

func (r *URing) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.ring.QueueExit()
	r.inflight = nil
	r.buffers = nil
	return nil
}
