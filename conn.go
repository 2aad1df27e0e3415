package staticd

import (
	"github.com/brickingsoft/staticd/pkg/aio"
	"github.com/brickingsoft/staticd/pkg/bufpool"
	"github.com/brickingsoft/staticd/pkg/fiber"
	"github.com/brickingsoft/staticd/pkg/metrics"
	"github.com/brickingsoft/staticd/pkg/ring"
	"github.com/sirupsen/logrus"
)

// conn
// is the local context of one connection fiber. It owns fd and slot until
// the reactor tears it down.
type conn struct {
	tag     uint64
	fd      int
	ring    ring.Submitter
	pool    *bufpool.Pool
	slot    *bufpool.Slot
	scratch []byte
	root    string
	confine bool
	log     *logrus.Entry
	metrics *metrics.Metrics
}

type connFiber = fiber.Fiber[*conn]

func (c *conn) capacity() int {
	if c.slot != nil {
		return c.slot.Cap()
	}
	return len(c.scratch)
}

// buffer
// is the memory every read of the connection lands in.
func (c *conn) buffer() []byte {
	if c.slot != nil {
		return c.slot.Bytes()
	}
	return c.scratch
}

// readAt
// reads at most n bytes of fd at offset into the front of the buffer.
func (c *conn) readAt(f *connFiber, fd int, n int, offset uint64) (int, error) {
	if c.slot != nil {
		return aio.ReadFixed(c.ring, f, fd, c.slot, n, offset)
	}
	return aio.Readv(c.ring, f, fd, [][]byte{c.scratch[:n]}, offset)
}

// writeBuffer
// writes the first n bytes of the buffer to the socket.
func (c *conn) writeBuffer(f *connFiber, n int) (int, error) {
	if c.slot != nil {
		return aio.WriteFixedFull(c.ring, f, c.fd, c.slot, n)
	}
	return aio.WriteFull(c.ring, f, c.fd, [][]byte{c.scratch[:n]})
}

func (c *conn) write(f *connFiber, b []byte) (int, error) {
	return aio.WriteFull(c.ring, f, c.fd, [][]byte{b})
}
