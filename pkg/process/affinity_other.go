//go:build !linux

package process

import (
	"github.com/brickingsoft/errors"
	"syscall"
)

var ErrInvalidCPU = errors.Define("invalid cpu index")

func SetCPUAffinity(cpu int) error {
	return errors.From(syscall.ENOSYS)
}

func CPUAffinity() (int, error) {
	return -1, errors.From(syscall.ENOSYS)
}
