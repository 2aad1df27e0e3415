//go:build linux

package sys

import (
	"github.com/brickingsoft/errors"
	"golang.org/x/sys/unix"
	"net"
	"os"
	"strconv"
)

// Listener
// is a non-blocking TCP listening socket bound to every IPv4 interface.
type Listener struct {
	fd     int
	addr   *net.TCPAddr
	closed bool
}

// ListenTCP
// binds 0.0.0.0:port. Port 0 picks an ephemeral port, see Addr.
func ListenTCP(port int, backlog int) (ln *Listener, err error) {
	if port < 0 || port > 65535 {
		err = errors.From(ErrInvalidPort, errors.WithMeta("port", strconv.Itoa(port)))
		return
	}
	if backlog < 1 {
		err = errors.From(ErrInvalidBacklog, errors.WithMeta("backlog", strconv.Itoa(backlog)))
		return
	}
	// sock
	sock, sockErr := newSocket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if sockErr != nil {
		err = listenErr(sockErr)
		return
	}
	// reuse addr
	if err = unix.SetsockoptInt(sock, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(sock)
		err = listenErr(os.NewSyscallError("setsockopt", err))
		return
	}
	// bind
	if err = unix.Bind(sock, &unix.SockaddrInet4{Port: port}); err != nil {
		_ = unix.Close(sock)
		err = listenErr(os.NewSyscallError("bind", err))
		return
	}
	// listen
	if err = unix.Listen(sock, Backlog(backlog)); err != nil {
		_ = unix.Close(sock)
		err = listenErr(os.NewSyscallError("listen", err))
		return
	}
	ln = &Listener{
		fd:   sock,
		addr: &net.TCPAddr{IP: net.IPv4zero, Port: port},
	}
	// set socket addr
	if sn, getSockNameErr := unix.Getsockname(sock); getSockNameErr == nil {
		if sa, ok := sn.(*unix.SockaddrInet4); ok {
			ln.addr = &net.TCPAddr{IP: net.IP(sa.Addr[:]).To16(), Port: sa.Port}
		}
	}
	return
}

func newSocket(family int, sotype int, protocol int) (sock int, err error) {
	sock, err = unix.Socket(family, sotype|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, protocol)
	if err != nil {
		err = os.NewSyscallError("socket", err)
		return
	}
	return
}

func (ln *Listener) Fd() int {
	return ln.fd
}

func (ln *Listener) Addr() net.Addr {
	return ln.addr
}

// Accept
// never blocks, ok is false when no connection is pending. Accepted sockets are
// in blocking mode, the ring does not care.
func (ln *Listener) Accept() (fd int, ok bool, err error) {
	if ln.closed {
		err = errors.From(ErrClosed)
		return
	}
	for {
		fd, _, err = unix.Accept4(ln.fd, unix.SOCK_CLOEXEC)
		if err == nil {
			ok = true
			return
		}
		switch err {
		case unix.EINTR:
			continue
		case unix.EAGAIN, unix.ECONNABORTED:
			fd, err = -1, nil
			return
		default:
			fd = -1
			err = errors.New(
				"accept failed",
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpAccept),
				errors.WithWrap(os.NewSyscallError("accept4", err)),
			)
			return
		}
	}
}

func (ln *Listener) Close() error {
	if ln.closed {
		return nil
	}
	ln.closed = true
	if err := unix.Close(ln.fd); err != nil {
		return errors.New(
			"close failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpClose),
			errors.WithWrap(os.NewSyscallError("close", err)),
		)
	}
	return nil
}

func listenErr(cause error) error {
	return errors.New(
		"listen failed",
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, errMetaOpListen),
		errors.WithWrap(cause),
	)
}
