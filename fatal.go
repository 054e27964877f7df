package fskit

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
)

// LineInfo is the source position a fatal diagnostic points at.
type LineInfo struct {
	File string
	Line int
	Func string
}

// Here returns the LineInfo of its caller.
func Here() LineInfo {
	return callerInfo(2)
}

func callerInfo(skip int) LineInfo {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return LineInfo{File: "???"}
	}
	li := LineInfo{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		li.Func = fn.Name()
	}
	return li
}

// String formats li as file:line, followed by the function name when known.
func (li LineInfo) String() string {
	s := fmt.Sprintf("%s:%d", filepath.Base(li.File), li.Line)
	if li.Func != "" {
		s += " (" + li.Func + ")"
	}
	return s
}

// FatalOption configures a FatalFS.
type FatalOption func(*FatalFS)

// WithFatalLogger sets the logger the diagnostic is written to.
func WithFatalLogger(l *slog.Logger) FatalOption {
	return func(f *FatalFS) {
		f.log = l
	}
}

// WithExitFunc replaces os.Exit. If exit returns, the failing method
// returns its zero value.
func WithExitFunc(exit func(code int)) FatalOption {
	return func(f *FatalFS) {
		f.exit = exit
	}
}

// FatalFS is the calling convention for errors the caller will not handle.
// Each method forwards to the wrapped Filesystem; on failure it logs the
// operation, the path(s), the error and the caller's source position, then
// exits the process with status 1.
type FatalFS struct {
	fsys Filesystem
	log  *slog.Logger
	exit func(int)
}

// Fatal wraps fsys.
func Fatal(fsys Filesystem, opts ...FatalOption) *FatalFS {
	f := &FatalFS{fsys: fsys, exit: os.Exit}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return f
}

// Unwrap returns the wrapped Filesystem, for call sites that want to handle
// a particular error themselves.
func (f *FatalFS) Unwrap() Filesystem {
	return f.fsys
}

// check must be called directly from the exported method so the reported
// location is the method's caller.
func (f *FatalFS) check(err error) bool {
	if err == nil {
		return true
	}
	f.die(callerInfo(3), err)
	return false
}

func (f *FatalFS) die(li LineInfo, err error) {
	attrs := []any{"err", err.Error(), "location", li.String()}
	var pe *PathError
	if errors.As(err, &pe) {
		attrs = append(attrs, "op", pe.Op, "path", pe.Path, "kind", pe.Kind.String())
		if pe.Target != "" {
			attrs = append(attrs, "target", pe.Target)
		}
	}
	f.log.Error("filesystem operation failed", attrs...)
	f.exit(1)
}

// ReadContents calls Filesystem.ReadContents and exits on failure.
func (f *FatalFS) ReadContents(path Path) string {
	s, err := f.fsys.ReadContents(path)
	if !f.check(err) {
		return ""
	}
	return s
}

// ReadLines calls Filesystem.ReadLines and exits on failure.
func (f *FatalFS) ReadLines(path Path) []string {
	lines, err := f.fsys.ReadLines(path)
	if !f.check(err) {
		return nil
	}
	return lines
}

// WriteContents calls Filesystem.WriteContents and exits on failure.
func (f *FatalFS) WriteContents(path Path, data string) {
	f.check(f.fsys.WriteContents(path, data))
}

// WriteLines calls Filesystem.WriteLines and exits on failure.
func (f *FatalFS) WriteLines(path Path, lines []string) {
	f.check(f.fsys.WriteLines(path, lines))
}

// Rename calls Filesystem.Rename and exits on failure.
func (f *FatalFS) Rename(oldpath, newpath Path) {
	f.check(f.fsys.Rename(oldpath, newpath))
}

// RenameOrCopy calls Filesystem.RenameOrCopy and exits on failure.
func (f *FatalFS) RenameOrCopy(oldpath, newpath Path, tempSuffix string) {
	f.check(f.fsys.RenameOrCopy(oldpath, newpath, tempSuffix))
}

// Remove calls Filesystem.Remove and exits on failure.
func (f *FatalFS) Remove(path Path) bool {
	ok, err := f.fsys.Remove(path)
	if !f.check(err) {
		return false
	}
	return ok
}

// RemoveAll logs the failure point as the path of the diagnostic.
func (f *FatalFS) RemoveAll(path Path) {
	point, err := f.fsys.RemoveAll(path)
	f.check(atFailurePoint("remove_all", path, point, err))
}

// RemoveAllInside calls Filesystem.RemoveAllInside and exits on failure.
func (f *FatalFS) RemoveAllInside(path Path) {
	point, err := f.fsys.RemoveAllInside(path)
	f.check(atFailurePoint("remove_all_inside", path, point, err))
}

func atFailurePoint(op string, root, point Path, err error) error {
	if err == nil {
		return nil
	}
	return &PathError{Op: op, Path: string(point), Target: string(root), Kind: KindOf(err), Err: err}
}

// Exists calls Filesystem.Exists and exits on failure.
func (f *FatalFS) Exists(path Path) bool {
	ok, err := f.fsys.Exists(path)
	if !f.check(err) {
		return false
	}
	return ok
}

// IsDirectory calls Filesystem.IsDirectory and exits on failure.
func (f *FatalFS) IsDirectory(path Path) bool {
	ok, err := f.fsys.IsDirectory(path)
	if !f.check(err) {
		return false
	}
	return ok
}

// IsRegularFile calls Filesystem.IsRegularFile and exits on failure.
func (f *FatalFS) IsRegularFile(path Path) bool {
	ok, err := f.fsys.IsRegularFile(path)
	if !f.check(err) {
		return false
	}
	return ok
}

// IsEmpty calls Filesystem.IsEmpty and exits on failure.
func (f *FatalFS) IsEmpty(path Path) bool {
	ok, err := f.fsys.IsEmpty(path)
	if !f.check(err) {
		return false
	}
	return ok
}

// Status calls Filesystem.Status and exits on failure.
func (f *FatalFS) Status(path Path) FileStatus {
	st, err := f.fsys.Status(path)
	if !f.check(err) {
		return FileStatus{}
	}
	return st
}

// SymlinkStatus calls Filesystem.SymlinkStatus and exits on failure.
func (f *FatalFS) SymlinkStatus(path Path) FileStatus {
	st, err := f.fsys.SymlinkStatus(path)
	if !f.check(err) {
		return FileStatus{}
	}
	return st
}

// CreateDirectory calls Filesystem.CreateDirectory and exits on failure.
func (f *FatalFS) CreateDirectory(path Path) bool {
	ok, err := f.fsys.CreateDirectory(path)
	if !f.check(err) {
		return false
	}
	return ok
}

// CreateDirectories calls Filesystem.CreateDirectories and exits on failure.
func (f *FatalFS) CreateDirectories(path Path) bool {
	ok, err := f.fsys.CreateDirectories(path)
	if !f.check(err) {
		return false
	}
	return ok
}

// Copy calls Filesystem.Copy and exits on failure.
func (f *FatalFS) Copy(oldpath, newpath Path, opts CopyOptions) {
	f.check(f.fsys.Copy(oldpath, newpath, opts))
}

// CopyFile calls Filesystem.CopyFile and exits on failure.
func (f *FatalFS) CopyFile(oldpath, newpath Path, opts CopyOptions) bool {
	ok, err := f.fsys.CopyFile(oldpath, newpath, opts)
	if !f.check(err) {
		return false
	}
	return ok
}

// CopySymlink calls Filesystem.CopySymlink and exits on failure.
func (f *FatalFS) CopySymlink(oldpath, newpath Path) {
	f.check(f.fsys.CopySymlink(oldpath, newpath))
}

// GetFilesRecursive calls Filesystem.GetFilesRecursive and exits on failure.
func (f *FatalFS) GetFilesRecursive(dir Path) []Path {
	paths, err := f.fsys.GetFilesRecursive(dir)
	if !f.check(err) {
		return nil
	}
	return paths
}

// GetFilesNonRecursive calls Filesystem.GetFilesNonRecursive and exits on failure.
func (f *FatalFS) GetFilesNonRecursive(dir Path) []Path {
	paths, err := f.fsys.GetFilesNonRecursive(dir)
	if !f.check(err) {
		return nil
	}
	return paths
}

// FindFileRecursivelyUp calls Filesystem.FindFileRecursivelyUp and exits on failure.
func (f *FatalFS) FindFileRecursivelyUp(start Path, filename string) Path {
	p, err := f.fsys.FindFileRecursivelyUp(start, filename)
	if !f.check(err) {
		return ""
	}
	return p
}

// Absolute calls Filesystem.Absolute and exits on failure.
func (f *FatalFS) Absolute(path Path) Path {
	p, err := f.fsys.Absolute(path)
	if !f.check(err) {
		return ""
	}
	return p
}

// Canonical calls Filesystem.Canonical and exits on failure.
func (f *FatalFS) Canonical(path Path) Path {
	p, err := f.fsys.Canonical(path)
	if !f.check(err) {
		return ""
	}
	return p
}

// CurrentPath calls Filesystem.CurrentPath and exits on failure.
func (f *FatalFS) CurrentPath() Path {
	p, err := f.fsys.CurrentPath()
	if !f.check(err) {
		return ""
	}
	return p
}

// SetCurrentPath calls Filesystem.SetCurrentPath and exits on failure.
func (f *FatalFS) SetCurrentPath(path Path) {
	f.check(f.fsys.SetCurrentPath(path))
}

// TakeExclusiveFileLock calls Filesystem.TakeExclusiveFileLock and exits on failure.
func (f *FatalFS) TakeExclusiveFileLock(path Path) SystemHandle {
	h, err := f.fsys.TakeExclusiveFileLock(path)
	if !f.check(err) {
		return InvalidHandle
	}
	return h
}

// TryTakeExclusiveFileLock treats a timeout as an ordinary outcome: it
// returns InvalidHandle and false. Any other error is fatal.
func (f *FatalFS) TryTakeExclusiveFileLock(path Path) (SystemHandle, bool) {
	h, err := f.fsys.TryTakeExclusiveFileLock(path)
	if IsLockTimeout(err) {
		return InvalidHandle, false
	}
	if !f.check(err) {
		return InvalidHandle, false
	}
	return h, true
}

// UnlockFileLock aborts on an invalid or already released handle.
func (f *FatalFS) UnlockFileLock(h SystemHandle) {
	f.check(f.fsys.UnlockFileLock(h))
}

// FindFromPath calls Filesystem.FindFromPath and exits on failure.
func (f *FatalFS) FindFromPath(name string) []Path {
	return f.fsys.FindFromPath(name)
}
