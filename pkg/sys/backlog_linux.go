//go:build linux

package sys

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
)

var (
	somaxconn   = syscall.SOMAXCONN
	backlogOnce = sync.Once{}
)

// MaxListenerBacklog
// is net.core.somaxconn, or syscall.SOMAXCONN when it can not be read.
func MaxListenerBacklog() int {
	backlogOnce.Do(func() {
		content, err := os.ReadFile("/proc/sys/net/core/somaxconn")
		if err != nil {
			return
		}
		fields := strings.Fields(string(content))
		if len(fields) == 0 {
			return
		}
		n, parseErr := strconv.Atoi(fields[0])
		if parseErr != nil || n <= 0 {
			return
		}
		// the backlog field of the kernel is an uint16 before 4.1
		if n > 1<<16-1 {
			n = 1<<16 - 1
		}
		somaxconn = n
	})
	return somaxconn
}

// Backlog
// clamps a requested backlog to what the kernel accepts.
func Backlog(n int) int {
	if max := MaxListenerBacklog(); n > max {
		return max
	}
	return n
}
