package fskittest

import (
	"fmt"
	"sync"

	"github.com/gobeaver/fskit"
)

// Faulty wraps a Filesystem and lets a test fail or tamper with individual
// primitives. The composite operations (RemoveAll, RenameOrCopy, Copy) are
// re-run through the shared fskit implementations with the wrapper as the
// filesystem, so injected faults surface inside them.
type Faulty struct {
	fskit.Filesystem

	// Opts are passed to RenameOrCopy.
	Opts fskit.Options

	// BeforeRemove, when set, runs before each Remove. A non-nil error is
	// returned instead of removing.
	BeforeRemove func(path fskit.Path) error
	// BeforeRename works like BeforeRemove for Rename.
	BeforeRename func(oldpath, newpath fskit.Path) error
	// AfterCopyFile runs after each successful CopyFile. A non-nil error
	// is returned from CopyFile.
	AfterCopyFile func(oldpath, newpath fskit.Path) error

	mu    sync.Mutex
	calls []string
}

// NewFaulty wraps fsys with no faults configured.
func NewFaulty(fsys fskit.Filesystem) *Faulty {
	return &Faulty{Filesystem: fsys, Opts: fskit.DefaultOptions()}
}

// Calls returns the primitive mutations seen so far, in order, formatted as
// "op path" or "op old -> new".
func (f *Faulty) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Faulty) record(format string, args ...any) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

// Remove implements fskit.Writer
func (f *Faulty) Remove(path fskit.Path) (bool, error) {
	f.record("remove %s", path.Generic())
	if f.BeforeRemove != nil {
		if err := f.BeforeRemove(path); err != nil {
			return false, fskit.NewPathError("remove", path, err)
		}
	}
	return f.Filesystem.Remove(path)
}

// Rename implements fskit.Writer
func (f *Faulty) Rename(oldpath, newpath fskit.Path) error {
	f.record("rename %s -> %s", oldpath.Generic(), newpath.Generic())
	if f.BeforeRename != nil {
		if err := f.BeforeRename(oldpath, newpath); err != nil {
			return fskit.NewPathError2("rename", oldpath, newpath, err)
		}
	}
	return f.Filesystem.Rename(oldpath, newpath)
}

// CopyFile implements fskit.Writer
func (f *Faulty) CopyFile(oldpath, newpath fskit.Path, opts fskit.CopyOptions) (bool, error) {
	f.record("copy_file %s -> %s", oldpath.Generic(), newpath.Generic())
	ok, err := f.Filesystem.CopyFile(oldpath, newpath, opts)
	if err != nil || !ok || f.AfterCopyFile == nil {
		return ok, err
	}
	if err := f.AfterCopyFile(oldpath, newpath); err != nil {
		return false, fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	return true, nil
}

// RemoveAll implements fskit.Writer
func (f *Faulty) RemoveAll(path fskit.Path) (fskit.Path, error) {
	return fskit.RemoveAll(f, path)
}

// RemoveAllInside implements fskit.Writer
func (f *Faulty) RemoveAllInside(path fskit.Path) (fskit.Path, error) {
	return fskit.RemoveAllInside(f, path)
}

// RenameOrCopy implements fskit.Writer
func (f *Faulty) RenameOrCopy(oldpath, newpath fskit.Path, tempSuffix string) error {
	return fskit.RenameOrCopy(f, oldpath, newpath, tempSuffix, f.Opts)
}

// Copy implements fskit.Writer
func (f *Faulty) Copy(oldpath, newpath fskit.Path, opts fskit.CopyOptions) error {
	return fskit.CopyTree(f, oldpath, newpath, opts)
}

var _ fskit.Filesystem = (*Faulty)(nil)
