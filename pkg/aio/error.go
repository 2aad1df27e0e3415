package aio

import (
	"github.com/brickingsoft/errors"
	"syscall"
)

var (
	ErrZeroCompletion  = errors.Define("operation completed with zero bytes")
	ErrInvalidArgument = errors.Define("invalid argument")
)

func IsZeroCompletion(err error) bool {
	return errors.Is(err, ErrZeroCompletion)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "aio"
)

const (
	errMetaOpKey        = "op"
	errMetaOpReadv      = "readv"
	errMetaOpWritev     = "writev"
	errMetaOpReadFixed  = "read_fixed"
	errMetaOpWriteFixed = "write_fixed"
)

func resultErr(op string, res int32) error {
	if res == 0 {
		return errors.From(
			ErrZeroCompletion,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, op),
		)
	}
	return errors.New(
		op+" failed",
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, op),
		errors.WithWrap(syscall.Errno(-res)),
	)
}

func argumentErr(op string, reason string) error {
	return errors.From(
		ErrInvalidArgument,
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, op),
		errors.WithMeta("reason", reason),
	)
}
