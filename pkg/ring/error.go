package ring

import "github.com/brickingsoft/errors"

var (
	ErrSQBusy         = errors.Define("submission queue is busy")
	ErrInvalidTag     = errors.Define("invalid operation tag")
	ErrTagInFlight    = errors.Define("operation tag is already in flight")
	ErrUnsupportedOp  = errors.Define("unsupported operation")
	ErrClosed         = errors.Define("ring closed")
	ErrKernelTooOld   = errors.Define("kernel version must be greater than or equal to 5.1")
	ErrInvalidBuffers = errors.Define("invalid registered buffers")
)

func IsBusy(err error) bool {
	return errors.Is(err, ErrSQBusy)
}

func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "ring"
)

const (
	errMetaOpKey        = "op"
	errMetaOpSetup      = "setup"
	errMetaOpSubmit     = "submit"
	errMetaOpPeek       = "peek"
	errMetaOpRegBuffers = "register_buffers"
)
