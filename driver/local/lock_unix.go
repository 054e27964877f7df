//go:build unix

package local

import (
	"os"

	"github.com/gobeaver/fskit"
	"golang.org/x/sys/unix"
)

// lockFile holds a raw descriptor rather than an *os.File so that no
// finalizer can close it, and drop the lock, while it is still held.
type lockFile struct {
	path string
	fd   int
}

func openLockFile(path string) (*lockFile, error) {
	for {
		fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0o666)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, &os.PathError{Op: "open", Path: path, Err: err}
		}
		return &lockFile{path: path, fd: fd}, nil
	}
}

func (l *lockFile) handle() fskit.SystemHandle {
	return fskit.SystemHandle{Raw: l.fd}
}

func (l *lockFile) flock(how int) error {
	for {
		err := unix.Flock(l.fd, how)
		if err != unix.EINTR {
			return err
		}
	}
}

func (l *lockFile) lock() error {
	if err := l.flock(unix.LOCK_EX); err != nil {
		return &os.PathError{Op: "flock", Path: l.path, Err: err}
	}
	return nil
}

func (l *lockFile) tryLock() (bool, error) {
	err := l.flock(unix.LOCK_EX | unix.LOCK_NB)
	switch err {
	case nil:
		return true, nil
	case unix.EWOULDBLOCK:
		return false, nil
	default:
		return false, &os.PathError{Op: "flock", Path: l.path, Err: err}
	}
}

func (l *lockFile) unlock() error {
	err := l.flock(unix.LOCK_UN)
	if cerr := unix.Close(l.fd); err == nil {
		err = cerr
	}
	if err != nil {
		return &os.PathError{Op: "unlock", Path: l.path, Err: err}
	}
	return nil
}

func (l *lockFile) close() {
	_ = unix.Close(l.fd)
}
