package staticd

import (
	"bytes"
	"path/filepath"
)

var methodGet = []byte("GET")

// parseRequest
// only looks at the request line. ok is false when the method is not GET. The
// path is whatever sits between the first space and the next one, or the end of
// b when there is no second space.
func parseRequest(b []byte) (path string, ok bool) {
	if !bytes.HasPrefix(b, methodGet) {
		return
	}
	ok = true
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return
	}
	rest := b[i+1:]
	if j := bytes.IndexByte(rest, ' '); j >= 0 {
		rest = rest[:j]
	}
	path = string(rest)
	return
}

// resolvePath
// joins path to root. When confine is set the path is cleaned as an absolute
// path first, so ".." can never climb above root.
func resolvePath(root string, path string, confine bool) string {
	if confine {
		path = filepath.Clean("/" + path)
	}
	return filepath.Join(root, path)
}
