//go:build !windows

package fskit

import (
	"errors"
	"syscall"
)

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

func isNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}

func isIsDir(err error) bool {
	return errors.Is(err, syscall.EISDIR)
}

func isInvalidArgument(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENAMETOOLONG)
}
