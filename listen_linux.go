//go:build linux

package staticd

import (
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/staticd/config"
	"github.com/brickingsoft/staticd/pkg/bufpool"
	"github.com/brickingsoft/staticd/pkg/ring"
	"github.com/brickingsoft/staticd/pkg/sys"
)

// Listen
// builds the production stack from cfg: ring, registered buffer pool and
// listening socket. Options given here override the ones derived from cfg.
func Listen(cfg config.Config, options ...Option) (srv *Server, err error) {
	if err = config.Validate(&cfg); err != nil {
		return
	}
	// ring
	r, ringErr := ring.New(cfg.RingEntries)
	if ringErr != nil {
		err = listenErr(ringErr)
		return
	}
	// buffers
	pool, poolErr := bufpool.New(cfg.BufferCount, cfg.BufferSize)
	if poolErr != nil {
		_ = r.Close()
		err = listenErr(poolErr)
		return
	}
	if regErr := r.RegisterBuffers(pool.Iovecs()); regErr != nil {
		_ = r.Close()
		err = listenErr(regErr)
		return
	}
	// socket
	ln, lnErr := sys.ListenTCP(cfg.Port, cfg.Backlog)
	if lnErr != nil {
		_ = r.Close()
		err = listenErr(lnErr)
		return
	}
	opts := make([]Option, 0, len(options)+3)
	opts = append(opts, WithRoot(cfg.Root), WithConfinePaths(cfg.ConfinePaths), WithCPUAffinity(cfg.CPUAffinity))
	opts = append(opts, options...)
	srv = NewServer(ln, r, pool, opts...)
	if !r.NoDrop() {
		srv.log.Warn("kernel older than 5.5 drops completions on cq overflow, size ring_entries above peak concurrency")
	}
	return
}

func listenErr(cause error) error {
	return errors.New(
		"listen failed",
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, errMetaOpListen),
		errors.WithWrap(cause),
	)
}
