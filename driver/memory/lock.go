package memory

import (
	"github.com/gobeaver/fskit"
)

// Locks are per resolved path and exclusive within one Adapter. Each path
// owns a one-slot channel; holding the lock means holding the slot.

// TakeExclusiveFileLock implements fskit.Locker. Like the local driver it
// creates the lock file if missing and leaves it in place after unlock.
func (a *Adapter) TakeExclusiveFileLock(path fskit.Path) (fskit.SystemHandle, error) {
	rpath, err := a.openLockFile("take_exclusive_file_lock", path)
	if err != nil {
		return fskit.InvalidHandle, err
	}
	a.slot(rpath) <- struct{}{}
	return a.track(rpath), nil
}

// TryTakeExclusiveFileLock implements fskit.Locker
func (a *Adapter) TryTakeExclusiveFileLock(path fskit.Path) (fskit.SystemHandle, error) {
	rpath, err := a.openLockFile("try_take_exclusive_file_lock", path)
	if err != nil {
		return fskit.InvalidHandle, err
	}
	slot := a.slot(rpath)
	_, err = fskit.PollLock(path, a.opts.LockTimeout, a.opts.LockPollInterval, func() (fskit.SystemHandle, bool, error) {
		select {
		case slot <- struct{}{}:
			return fskit.InvalidHandle, true, nil
		default:
			return fskit.InvalidHandle, false, nil
		}
	})
	if err != nil {
		a.log.Debug("lock not acquired", "path", path.Generic(), "err", err)
		return fskit.InvalidHandle, fskit.NewPathError("try_take_exclusive_file_lock", path, err)
	}
	return a.track(rpath), nil
}

// UnlockFileLock implements fskit.Locker
func (a *Adapter) UnlockFileLock(h fskit.SystemHandle) error {
	a.lockMu.Lock()
	rpath, ok := a.handles[h.Raw]
	if ok {
		delete(a.handles, h.Raw)
	}
	slot := a.slots[rpath]
	a.lockMu.Unlock()

	if !h.IsValid() || !ok {
		return &fskit.PathError{Op: "unlock_file_lock", Path: h.String(), Kind: fskit.KindInvalidArgument, Err: fskit.ErrInvalidHandle}
	}
	<-slot
	return nil
}

func (a *Adapter) openLockFile(op string, path fskit.Path) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rpath, err := a.target(path)
	if err != nil {
		return "", fskit.NewPathError(op, path, err)
	}
	fi, ok := a.exists(rpath)
	switch {
	case ok && fi.IsDir():
		return "", fskit.NewPathError(op, path, fskit.ErrIsDir)
	case !ok:
		f, err := a.fs.Create(rpath)
		if err != nil {
			return "", fskit.NewPathError(op, path, err)
		}
		f.Close()
		a.touch(rpath)
	}
	return rpath, nil
}

func (a *Adapter) slot(rpath string) chan struct{} {
	a.lockMu.Lock()
	defer a.lockMu.Unlock()
	s, ok := a.slots[rpath]
	if !ok {
		s = make(chan struct{}, 1)
		a.slots[rpath] = s
	}
	return s
}

func (a *Adapter) track(rpath string) fskit.SystemHandle {
	a.lockMu.Lock()
	defer a.lockMu.Unlock()
	a.nextLock++
	a.handles[a.nextLock] = rpath
	return fskit.SystemHandle{Raw: a.nextLock}
}
