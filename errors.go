package staticd

import "github.com/brickingsoft/errors"

var (
	ErrClosed = errors.Define("server closed")
)

func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "staticd"
)

const (
	errMetaOpKey    = "op"
	errMetaOpListen = "listen"
	errMetaOpPoll   = "poll"
	errMetaOpClose  = "close"
)
