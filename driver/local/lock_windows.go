//go:build windows

package local

import (
	"os"

	"github.com/gobeaver/fskit"
	"golang.org/x/sys/windows"
)

type lockFile struct {
	path string
	h    windows.Handle
}

func openLockFile(path string) (*lockFile, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	h, err := windows.CreateFile(p,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_ALWAYS,
		windows.FILE_ATTRIBUTE_NORMAL,
		0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return &lockFile{path: path, h: h}, nil
}

func (l *lockFile) handle() fskit.SystemHandle {
	return fskit.SystemHandle{Raw: int(l.h)}
}

// The first byte of the file is the lock region.
func (l *lockFile) lockEx(flags uint32) error {
	var ol windows.Overlapped
	return windows.LockFileEx(l.h, flags, 0, 1, 0, &ol)
}

func (l *lockFile) lock() error {
	if err := l.lockEx(windows.LOCKFILE_EXCLUSIVE_LOCK); err != nil {
		return &os.PathError{Op: "LockFileEx", Path: l.path, Err: err}
	}
	return nil
}

func (l *lockFile) tryLock() (bool, error) {
	err := l.lockEx(windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY)
	switch err {
	case nil:
		return true, nil
	case windows.ERROR_LOCK_VIOLATION:
		return false, nil
	default:
		return false, &os.PathError{Op: "LockFileEx", Path: l.path, Err: err}
	}
}

func (l *lockFile) unlock() error {
	var ol windows.Overlapped
	err := windows.UnlockFileEx(l.h, 0, 1, 0, &ol)
	if cerr := windows.CloseHandle(l.h); err == nil {
		err = cerr
	}
	if err != nil {
		return &os.PathError{Op: "UnlockFileEx", Path: l.path, Err: err}
	}
	return nil
}

func (l *lockFile) close() {
	_ = windows.CloseHandle(l.h)
}
