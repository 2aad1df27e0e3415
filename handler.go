package staticd

import (
	"golang.org/x/sys/unix"
)

// serve
// is the entry of every connection fiber: one read, one response.
func serve(f *connFiber) (err error) {
	c := f.Local
	// receive
	n, readErr := c.readAt(f, c.fd, c.capacity(), 0)
	if readErr != nil {
		err = readErr
		return
	}
	// parse
	path, ok := parseRequest(c.buffer()[:n])
	if !ok {
		c.log.Debugf("unsupported request: %q", firstLine(c.buffer()[:n]))
		err = c.respond(f, statusBadRequest, badRequestResponse)
		return
	}
	c.log.WithField("path", path).Debug("received request")
	err = c.sendFile(f, path)
	return
}

func (c *conn) respond(f *connFiber, status int, b []byte) error {
	if _, err := c.write(f, b); err != nil {
		return err
	}
	c.metrics.Response(status)
	return nil
}

func (c *conn) sendFile(f *connFiber, path string) (err error) {
	name := resolvePath(c.root, path, c.confine)
	fd, openErr := unix.Open(name, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if openErr != nil {
		c.log.WithField("path", path).Debug("file not found")
		err = c.respond(f, statusNotFound, notFoundResponse)
		return
	}
	defer func() {
		_ = unix.Close(fd)
	}()
	var st unix.Stat_t
	if statErr := unix.Fstat(fd, &st); statErr != nil || st.Mode&unix.S_IFMT != unix.S_IFREG {
		c.log.WithField("path", path).Debug("file not found")
		err = c.respond(f, statusNotFound, notFoundResponse)
		return
	}
	// header
	size := st.Size
	if _, err = c.write(f, okHeader(size)); err != nil {
		return
	}
	// body
	capacity := int64(c.capacity())
	for offset := int64(0); offset < size; {
		chunk := min(capacity, size-offset)
		n, readErr := c.readAt(f, fd, int(chunk), uint64(offset))
		if readErr != nil {
			err = readErr
			return
		}
		if _, err = c.writeBuffer(f, n); err != nil {
			return
		}
		offset += int64(n)
		c.metrics.BodyBytes(n)
	}
	c.metrics.Response(statusOK)
	return
}

func firstLine(b []byte) []byte {
	for i, c := range b {
		if c == '\r' || c == '\n' {
			return b[:i]
		}
	}
	return b
}
