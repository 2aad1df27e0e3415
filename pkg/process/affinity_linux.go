//go:build linux

// Package process pins the calling thread to one CPU.
package process

import (
	"github.com/brickingsoft/errors"
	"golang.org/x/sys/unix"
	"os"
	"runtime"
	"strconv"
)

var ErrInvalidCPU = errors.Define("invalid cpu index")

// SetCPUAffinity
// pins the current thread to cpu modulo the number of CPUs. The caller must
// hold runtime.LockOSThread.
func SetCPUAffinity(cpu int) error {
	if cpu < 0 {
		return errors.From(ErrInvalidCPU, errors.WithMeta("cpu", strconv.Itoa(cpu)))
	}
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpu % runtime.NumCPU())
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return errors.New(
			"set cpu affinity failed",
			errors.WithMeta("pkg", "process"),
			errors.WithMeta("cpu", strconv.Itoa(cpu)),
			errors.WithWrap(os.NewSyscallError("sched_setaffinity", err)),
		)
	}
	return nil
}

// CPUAffinity
// is the lowest CPU the current thread may run on.
func CPUAffinity() (int, error) {
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		return -1, os.NewSyscallError("sched_getaffinity", err)
	}
	for i := 0; i < runtime.NumCPU(); i++ {
		if mask.IsSet(i) {
			return i, nil
		}
	}
	return -1, nil
}
