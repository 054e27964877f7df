//go:build windows

package fskit

import (
	"errors"
	"syscall"
)

// Win32 codes without a named constant in package syscall.
const (
	errorNotSameDevice  syscall.Errno = 17
	errorInvalidName    syscall.Errno = 123
	errorDirectory      syscall.Errno = 267
	errorDirNotEmpty    syscall.Errno = 145
	errorFilenameExcedR syscall.Errno = 206
)

func isCrossDevice(err error) bool {
	return errors.Is(err, errorNotSameDevice) || errors.Is(err, syscall.EXDEV)
}

func isNotDir(err error) bool {
	return errors.Is(err, errorDirectory) || errors.Is(err, syscall.ENOTDIR)
}

func isIsDir(err error) bool {
	return errors.Is(err, syscall.EISDIR)
}

func isInvalidArgument(err error) bool {
	return errors.Is(err, errorInvalidName) ||
		errors.Is(err, errorFilenameExcedR) ||
		errors.Is(err, syscall.EINVAL)
}
