//go:build linux

package staticd_test

import (
	"context"
	"github.com/brickingsoft/staticd"
	"github.com/brickingsoft/staticd/config"
	"github.com/brickingsoft/staticd/pkg/bufpool"
	"github.com/brickingsoft/staticd/pkg/ring"
	"github.com/stretchr/testify/require"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

// skipWithoutURing
// io_uring is commonly disabled in containers and sandboxes.
func skipWithoutURing(t *testing.T, count int, size int) {
	t.Helper()
	r, err := ring.New(4)
	if err != nil {
		t.Skip("io_uring unavailable:", err)
		return
	}
	defer r.Close()
	pool, poolErr := bufpool.New(count, size)
	require.NoError(t, poolErr)
	if regErr := r.RegisterBuffers(pool.Iovecs()); regErr != nil {
		t.Skip("io_uring buffer registration unavailable:", regErr)
	}
}

func fetch(addr string, request string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if err = conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return "", err
	}
	if _, err = conn.Write([]byte(request)); err != nil {
		return "", err
	}
	b, readErr := io.ReadAll(conn)
	return string(b), readErr
}

func get(t *testing.T, addr string, request string) string {
	t.Helper()
	response, err := fetch(addr, request)
	require.NoError(t, err)
	return response
}

func TestListen_EndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Port = 0
	cfg.BufferCount = 2
	cfg.BufferSize = 1024
	cfg.Root = t.TempDir()
	skipWithoutURing(t, cfg.BufferCount, cfg.BufferSize)

	content := payload(5000)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Root, "hello.txt"), content, 0o644))

	srv, err := staticd.Listen(cfg)
	require.NoError(t, err)
	port := srv.Addr().(*net.TCPAddr).Port
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	require.Equal(t, okHeader(5000)+string(content), get(t, addr, "GET /hello.txt HTTP/1.1\r\n\r\n"))
	require.Equal(t, notFound, get(t, addr, "GET /missing HTTP/1.1\r\n\r\n"))
	require.Equal(t, badRequest, get(t, addr, "POST /hello.txt HTTP/1.1\r\n\r\n"))
	// more connections than registered buffers at once
	results := make(chan string, 4)
	for i := 0; i < 4; i++ {
		go func() {
			response, _ := fetch(addr, "GET /hello.txt HTTP/1.1\r\n\r\n")
			results <- response
		}()
	}
	for i := 0; i < 4; i++ {
		require.Equal(t, okHeader(5000)+string(content), <-results)
	}

	cancel()
	require.NoError(t, <-done)
	require.Equal(t, 0, srv.Live())
	require.NoError(t, srv.Close())
}

func TestListen_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.BufferCount = 0
	_, err := staticd.Listen(cfg)
	require.Error(t, err)
}
