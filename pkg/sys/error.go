package sys

import "github.com/brickingsoft/errors"

var (
	ErrInvalidPort    = errors.Define("port must be in [0, 65535]")
	ErrInvalidBacklog = errors.Define("backlog must be positive")
	ErrClosed         = errors.Define("listener closed")
)

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "sys"
)

const (
	errMetaOpKey    = "op"
	errMetaOpListen = "listen"
	errMetaOpAccept = "accept"
	errMetaOpClose  = "close"
)
