//go:build linux

package kernel

import (
	"bytes"
	"fmt"
	"github.com/brickingsoft/errors"
	"golang.org/x/sys/unix"
	"os"
	"sync"
)

var (
	version     *Version
	versionErr  error
	versionOnce sync.Once
)

func Get() (*Version, error) {
	versionOnce.Do(func() {
		uts := unix.Utsname{}
		if err := unix.Uname(&uts); err != nil {
			versionErr = os.NewSyscallError("uname", err)
			return
		}
		release := uts.Release[:]
		if i := bytes.IndexByte(release, 0); i > -1 {
			release = release[:i]
		}
		v, parseErr := Parse(string(release))
		if parseErr != nil {
			versionErr = parseErr
			return
		}
		version = &v
	})
	return version, versionErr
}

// Parse
// accepts release strings such as "6.8.0-45-generic" or "5.15".
func Parse(release string) (v Version, err error) {
	var partial string
	parsed, _ := fmt.Sscanf(release, "%d.%d%s", &v.Kernel, &v.Major, &partial)
	if parsed < 2 {
		err = errors.New(
			"cannot parse kernel version",
			errors.WithMeta("pkg", "kernel"),
			errors.WithMeta("release", release),
		)
		return
	}
	if parsed, _ = fmt.Sscanf(partial, ".%d%s", &v.Minor, &v.Flavor); parsed < 1 {
		v.Flavor = partial
	}
	return
}
