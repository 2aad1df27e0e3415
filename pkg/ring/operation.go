package ring

import (
	"sync"
	"syscall"
	"unsafe"
)

type OperationKind int

const (
	NopOp OperationKind = iota
	ReadvOp
	WritevOp
	ReadFixedOp
	WriteFixedOp
)

func (kind OperationKind) String() string {
	switch kind {
	case NopOp:
		return "nop"
	case ReadvOp:
		return "readv"
	case WritevOp:
		return "writev"
	case ReadFixedOp:
		return "read_fixed"
	case WriteFixedOp:
		return "write_fixed"
	default:
		return "unknown"
	}
}

// Completion
// is a consumed completion queue entry.
type Completion struct {
	Userdata uint64
	Res      int32
	Flags    uint32
}

var operations = sync.Pool{
	New: func() interface{} {
		return &Operation{
			bufIndex: -1,
		}
	},
}

func AcquireOperation() *Operation {
	return operations.Get().(*Operation)
}

// ReleaseOperation
// must only be called once the completion of op was consumed.
func ReleaseOperation(op *Operation) {
	if op == nil {
		return
	}
	op.reset()
	operations.Put(op)
}

// Operation
// is one submission. The memory it references must stay reachable until its
// completion is peeked, which is why rings keep submitted operations in flight.
type Operation struct {
	kind     OperationKind
	fd       int
	vectors  [][]byte
	iovecs   []syscall.Iovec
	fixed    []byte
	bufIndex int
	offset   uint64
	userdata uint64
}

func (op *Operation) reset() {
	op.kind = NopOp
	op.fd = 0
	op.vectors = nil
	op.iovecs = op.iovecs[:0]
	op.fixed = nil
	op.bufIndex = -1
	op.offset = 0
	op.userdata = 0
}

func (op *Operation) PrepareNop() {
	op.kind = NopOp
	op.fd = -1
}

func (op *Operation) PrepareReadv(fd int, bufs [][]byte, offset uint64) {
	op.kind = ReadvOp
	op.fd = fd
	op.setVectors(bufs)
	op.offset = offset
}

func (op *Operation) PrepareWritev(fd int, bufs [][]byte, offset uint64) {
	op.kind = WritevOp
	op.fd = fd
	op.setVectors(bufs)
	op.offset = offset
}

// PrepareReadFixed
// b must be a sub slice of the buffer registered at index.
func (op *Operation) PrepareReadFixed(fd int, b []byte, index int, offset uint64) {
	op.kind = ReadFixedOp
	op.fd = fd
	op.fixed = b
	op.bufIndex = index
	op.offset = offset
}

// PrepareWriteFixed
// b must be a sub slice of the buffer registered at index.
func (op *Operation) PrepareWriteFixed(fd int, b []byte, index int, offset uint64) {
	op.kind = WriteFixedOp
	op.fd = fd
	op.fixed = b
	op.bufIndex = index
	op.offset = offset
}

func (op *Operation) setVectors(bufs [][]byte) {
	op.vectors = bufs
	op.iovecs = op.iovecs[:0]
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		iov := syscall.Iovec{Base: &b[0]}
		iov.SetLen(len(b))
		op.iovecs = append(op.iovecs, iov)
	}
}

func (op *Operation) SetUserdata(userdata uint64) {
	op.userdata = userdata
}

func (op *Operation) Userdata() uint64 {
	return op.userdata
}

func (op *Operation) Kind() OperationKind {
	return op.kind
}

func (op *Operation) Fd() int {
	return op.fd
}

func (op *Operation) Offset() uint64 {
	return op.offset
}

func (op *Operation) Vectors() [][]byte {
	return op.vectors
}

func (op *Operation) Fixed() (b []byte, index int) {
	return op.fixed, op.bufIndex
}

// Len
// is the total number of bytes the operation may transfer.
func (op *Operation) Len() (n int) {
	switch op.kind {
	case ReadvOp, WritevOp:
		for _, b := range op.vectors {
			n += len(b)
		}
	case ReadFixedOp, WriteFixedOp:
		n = len(op.fixed)
	}
	return
}

func (op *Operation) iovecsPtr() (uintptr, uint32) {
	if len(op.iovecs) == 0 {
		return 0, 0
	}
	return uintptr(unsafe.Pointer(&op.iovecs[0])), uint32(len(op.iovecs))
}

func (op *Operation) fixedPtr() (uintptr, uint32) {
	if len(op.fixed) == 0 {
		return 0, 0
	}
	return uintptr(unsafe.Pointer(&op.fixed[0])), uint32(len(op.fixed))
}
