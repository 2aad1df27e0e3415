// Package staticd is a single threaded static file server. Every socket and
// file transfer goes through an io_uring, every connection is a fiber that is
// suspended while its operation is in flight and resumed by the reactor with
// the completion result.
package staticd

import (
	"context"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/staticd/pkg/bufpool"
	"github.com/brickingsoft/staticd/pkg/fiber"
	"github.com/brickingsoft/staticd/pkg/metrics"
	"github.com/brickingsoft/staticd/pkg/process"
	"github.com/brickingsoft/staticd/pkg/ring"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"net"
	"runtime"
	"time"
)

// Acceptor
// hands out accepted socket descriptors without blocking.
type Acceptor interface {
	Accept() (fd int, ok bool, err error)
	Addr() net.Addr
	Close() error
}

const (
	idleSpinRounds  = 64
	idleYieldRounds = 256
	idleSleep       = 50 * time.Microsecond
)

// Server
// is the reactor. It is not safe for concurrent use, Poll, Serve and Close
// must be called from one goroutine. A fiber must be resumed and stopped with
// the thread lock state it was started with, so a server is driven either by
// Serve or by Poll, never both.
type Server struct {
	ln      Acceptor
	ring    ring.Ring
	pool    *bufpool.Pool
	options Options
	log     *logrus.Entry
	metrics *metrics.Metrics
	tag     uint64
	conns   map[uint64]*connFiber
	closed  bool
}

// NewServer
// pool must already be registered with r.
func NewServer(ln Acceptor, r ring.Ring, pool *bufpool.Pool, options ...Option) *Server {
	opts := newOptions(options)
	srv := &Server{
		ln:      ln,
		ring:    r,
		pool:    pool,
		options: opts,
		log:     opts.Logger,
		metrics: opts.Metrics,
		conns:   make(map[uint64]*connFiber),
	}
	srv.metrics.FreeSlots(pool.Free())
	return srv
}

func (srv *Server) Addr() net.Addr {
	return srv.ln.Addr()
}

// Live
// is the number of connections whose fiber did not complete yet.
func (srv *Server) Live() int {
	return len(srv.conns)
}

// Poll
// runs one round: a pending connection is accepted first, otherwise one
// completion is delivered to its fiber. worked is false when there was nothing
// to do.
func (srv *Server) Poll() (worked bool, err error) {
	if srv.closed {
		err = errors.From(ErrClosed)
		return
	}
	// accept
	fd, accepted, acceptErr := srv.ln.Accept()
	if acceptErr != nil {
		srv.log.WithError(acceptErr).Warn("accept failed")
	} else if accepted {
		srv.spawn(fd)
		worked = true
		return
	}
	// completion
	cqe, ok, peekErr := srv.ring.Peek()
	if peekErr != nil {
		err = errors.New(
			"poll failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpPoll),
			errors.WithWrap(peekErr),
		)
		return
	}
	if !ok {
		return
	}
	worked = true
	if cqe.Userdata == 0 {
		return
	}
	f, has := srv.conns[cqe.Userdata]
	if !has {
		srv.log.WithField("userdata", cqe.Userdata).Warnf("dropped completion of unknown fiber, res=%d", cqe.Res)
		return
	}
	if !f.Resume(cqe.Res) {
		srv.teardown(f)
	}
	return
}

// Serve
// polls until ctx is done or the ring fails, then closes the server. The
// calling goroutine is locked to its thread for the duration.
func (srv *Server) Serve(ctx context.Context) (err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	// fibers created here may only be switched to while the thread is still locked
	defer func() {
		if closeErr := srv.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if cpu := srv.options.CPUAffinity; cpu >= 0 {
		if err := process.SetCPUAffinity(cpu); err != nil {
			srv.log.WithError(err).Warn("reactor thread left unpinned")
		}
	}

	srv.log.Infof("listening on %s", srv.ln.Addr())
	idle := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		worked, pollErr := srv.Poll()
		if pollErr != nil {
			return pollErr
		}
		if worked {
			idle = 0
			continue
		}
		idle++
		switch {
		case idle < idleSpinRounds:
			break
		case idle < idleYieldRounds:
			runtime.Gosched()
			break
		default:
			time.Sleep(idleSleep)
			break
		}
	}
}

func (srv *Server) spawn(fd int) {
	srv.tag++
	tag := srv.tag
	c := &conn{
		tag:     tag,
		fd:      fd,
		ring:    srv.ring,
		pool:    srv.pool,
		root:    srv.options.Root,
		confine: srv.options.ConfinePaths,
		log:     srv.log.WithField("conn", tag),
		metrics: srv.metrics,
	}
	if slot, ok := srv.pool.Acquire(); ok {
		c.slot = slot
	} else {
		c.scratch = make([]byte, srv.pool.BufferSize())
		srv.metrics.Exhausted()
	}
	srv.metrics.Accepted()
	srv.metrics.FreeSlots(srv.pool.Free())
	c.log.WithField("pooled", c.slot != nil).Debug("accepted connection")

	f := fiber.New(tag, c, serve)
	srv.conns[tag] = f
	if !f.Start() {
		srv.teardown(f)
	}
}

// teardown
// reclaims everything a connection owns, whichever way its fiber ended.
func (srv *Server) teardown(f *connFiber) {
	if f.Alive() {
		f.Stop()
	}
	c := f.Local
	delete(srv.conns, c.tag)
	if err := unix.Close(c.fd); err != nil {
		c.log.WithError(err).Debug("close connection failed")
	}
	if c.slot != nil && c.slot.Owned() {
		if err := srv.pool.Release(c.slot); err != nil {
			c.log.WithError(err).Warn("release buffer failed")
		}
	}
	c.slot, c.scratch = nil, nil
	if err := f.Err(); err != nil && !errors.Is(err, fiber.ErrStopped) {
		c.log.WithError(err).Debug("connection failed")
		srv.metrics.Failed()
	}
	srv.metrics.Closed()
	srv.metrics.FreeSlots(srv.pool.Free())
}

// Close
// closes the listener and the ring, then tears down every live connection.
func (srv *Server) Close() (err error) {
	if srv.closed {
		return
	}
	srv.closed = true
	lnErr := srv.ln.Close()
	ringErr := srv.ring.Close()
	for _, f := range srv.conns {
		srv.teardown(f)
	}
	if lnErr != nil {
		err = closeErr(lnErr)
		return
	}
	if ringErr != nil {
		err = closeErr(ringErr)
		return
	}
	return
}

func closeErr(cause error) error {
	return errors.New(
		"close failed",
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, errMetaOpClose),
		errors.WithWrap(cause),
	)
}
