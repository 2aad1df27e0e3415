package metrics

import (
	"context"
	"github.com/brickingsoft/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net"
	"net/http"
	"time"
)

// Serve
// exposes /metrics of g on addr until ctx is done. It blocks, callers run it on
// its own goroutine.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	ln, lnErr := net.Listen("tcp", addr)
	if lnErr != nil {
		return serveErr(lnErr)
	}
	return serve(ctx, ln, g)
}

func serve(ctx context.Context, ln net.Listener, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return serveErr(err)
		}
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return serveErr(err)
	}
}

func serveErr(cause error) error {
	return errors.New(
		"metrics server failed",
		errors.WithMeta("pkg", "metrics"),
		errors.WithMeta("op", "serve"),
		errors.WithWrap(cause),
	)
}
