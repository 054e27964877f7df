package local

import (
	"github.com/gobeaver/fskit"
)

// TakeExclusiveFileLock implements fskit.Locker. The lock file is created if
// missing and left in place after unlock.
func (a *Adapter) TakeExclusiveFileLock(path fskit.Path) (fskit.SystemHandle, error) {
	lf, err := openLockFile(string(path))
	if err != nil {
		return fskit.InvalidHandle, fskit.NewPathError("take_exclusive_file_lock", path, err)
	}
	if err := lf.lock(); err != nil {
		lf.close()
		return fskit.InvalidHandle, fskit.NewPathError("take_exclusive_file_lock", path, err)
	}
	return a.track(lf), nil
}

// TryTakeExclusiveFileLock implements fskit.Locker
func (a *Adapter) TryTakeExclusiveFileLock(path fskit.Path) (fskit.SystemHandle, error) {
	lf, err := openLockFile(string(path))
	if err != nil {
		return fskit.InvalidHandle, fskit.NewPathError("try_take_exclusive_file_lock", path, err)
	}
	attempts := 0
	_, err = fskit.PollLock(path, a.opts.LockTimeout, a.opts.LockPollInterval, func() (fskit.SystemHandle, bool, error) {
		attempts++
		ok, err := lf.tryLock()
		return lf.handle(), ok, err
	})
	if err != nil {
		lf.close()
		a.log.Debug("lock not acquired", "path", path.Generic(), "attempts", attempts, "err", err)
		return fskit.InvalidHandle, fskit.NewPathError("try_take_exclusive_file_lock", path, err)
	}
	return a.track(lf), nil
}

// UnlockFileLock implements fskit.Locker
func (a *Adapter) UnlockFileLock(h fskit.SystemHandle) error {
	a.mu.Lock()
	lf, ok := a.locks[h.Raw]
	if ok {
		delete(a.locks, h.Raw)
	}
	a.mu.Unlock()

	if !h.IsValid() || !ok {
		return &fskit.PathError{Op: "unlock_file_lock", Path: h.String(), Kind: fskit.KindInvalidArgument, Err: fskit.ErrInvalidHandle}
	}
	if err := lf.unlock(); err != nil {
		return fskit.NewPathError("unlock_file_lock", fskit.Path(lf.path), err)
	}
	return nil
}

func (a *Adapter) track(lf *lockFile) fskit.SystemHandle {
	h := lf.handle()
	a.mu.Lock()
	a.locks[h.Raw] = lf
	a.mu.Unlock()
	return h
}
