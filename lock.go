package fskit

import (
	"sync"
	"time"
)

const (
	// DefaultLockTimeout is how long TryTakeExclusiveFileLock waits.
	DefaultLockTimeout = 1500 * time.Millisecond

	// DefaultLockPollInterval is the retry period while waiting.
	DefaultLockPollInterval = 10 * time.Millisecond
)

// FileLock is a held exclusive lock. Release it exactly once, normally with
// defer right after acquisition.
type FileLock struct {
	fsys   Locker
	path   Path
	mu     sync.Mutex
	handle SystemHandle
}

// AcquireFileLock blocks until the lock on path is held.
//
//	lk, err := fskit.AcquireFileLock(fsys, root.Join(".vcpkg-root"))
//	if err != nil {
//	    return err
//	}
//	defer lk.Release()
func AcquireFileLock(fsys Locker, path Path) (*FileLock, error) {
	h, err := fsys.TakeExclusiveFileLock(path)
	if err != nil {
		return nil, err
	}
	return &FileLock{fsys: fsys, path: path, handle: h}, nil
}

// TryAcquireFileLock waits a bounded time for the lock on path. It fails
// with ErrLockTimeout if the lock stays held by someone else.
func TryAcquireFileLock(fsys Locker, path Path) (*FileLock, error) {
	h, err := fsys.TryTakeExclusiveFileLock(path)
	if err != nil {
		return nil, err
	}
	return &FileLock{fsys: fsys, path: path, handle: h}, nil
}

// Path returns the locked path.
func (l *FileLock) Path() Path {
	return l.path
}

// Handle returns the underlying handle, or InvalidHandle once released.
func (l *FileLock) Handle() SystemHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle
}

// Release unlocks. A second call returns ErrInvalidHandle without touching
// the provider.
func (l *FileLock) Release() error {
	l.mu.Lock()
	h := l.handle
	l.handle = InvalidHandle
	l.mu.Unlock()

	if !h.IsValid() {
		return &PathError{Op: "unlock_file_lock", Path: string(l.path), Kind: KindInvalidArgument, Err: ErrInvalidHandle}
	}
	return l.fsys.UnlockFileLock(h)
}

// WithFileLock runs fn while holding the lock on path. The lock is released
// when fn returns or panics. A release error is returned only if fn
// succeeded.
func WithFileLock(fsys Locker, path Path, fn func() error) error {
	lk, err := AcquireFileLock(fsys, path)
	if err != nil {
		return err
	}
	return runLocked(lk, fn)
}

// TryWithFileLock is WithFileLock with the bounded wait of
// TryAcquireFileLock. fn does not run if the wait times out.
func TryWithFileLock(fsys Locker, path Path, fn func() error) error {
	lk, err := TryAcquireFileLock(fsys, path)
	if err != nil {
		return err
	}
	return runLocked(lk, fn)
}

func runLocked(lk *FileLock, fn func() error) (err error) {
	defer func() {
		if rerr := lk.Release(); err == nil {
			err = rerr
		}
	}()
	return fn()
}

// PollLock calls attempt until it acquires, fails, or timeout elapses. A
// zero timeout waits forever. attempt returns ok=false with a nil error
// when the lock is busy.
//
// Providers build TakeExclusiveFileLock and TryTakeExclusiveFileLock on it.
func PollLock(path Path, timeout, interval time.Duration, attempt func() (h SystemHandle, ok bool, err error)) (SystemHandle, error) {
	if interval <= 0 {
		interval = DefaultLockPollInterval
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		h, ok, err := attempt()
		if err != nil {
			return InvalidHandle, err
		}
		if ok {
			return h, nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return InvalidHandle, &PathError{Op: "try_take_exclusive_file_lock", Path: string(path), Kind: KindLockTimeout, Err: ErrLockTimeout}
		}
		time.Sleep(interval)
	}
}
