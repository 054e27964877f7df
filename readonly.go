package fskit

import (
	"context"
	"errors"
	"io/fs"
)

// ============================================================================
// ReadOnlyFileSystem Decorator
// ============================================================================

// ReadOnlyFileSystem wraps a Filesystem to prevent all write operations.
// Queries, enumeration and path resolution pass through.
//
// Example:
//
//	fsys := fskit.NewReadOnlyFileSystem(local.New())
//
//	// Read operations work normally
//	text, _ := fsys.ReadContents("vcpkg.json")
//
//	// Write operations return ErrReadOnly
//	err := fsys.WriteContents("vcpkg.json", text)
//	// errors.Is(err, fskit.ErrReadOnly) == true
type ReadOnlyFileSystem struct {
	Filesystem
	opts ReadOnlyOptions
}

// ReadOnlyOptions configures the ReadOnlyFileSystem behavior.
type ReadOnlyOptions struct {
	// AllowCreateDir permits directory creation even in read-only mode.
	// Default: false
	AllowCreateDir bool

	// AllowLocks permits taking file locks. Acquiring a lock may create an
	// empty lock file, which is the only write it performs.
	// Default: false
	AllowLocks bool

	// OnWriteAttempt is called when a write operation is attempted. If it
	// returns nil the write is allowed.
	OnWriteAttempt func(op string, path Path) error
}

// ReadOnlyOption is a functional option for configuring ReadOnlyFileSystem.
type ReadOnlyOption func(*ReadOnlyOptions)

// WithAllowCreateDir allows directory creation in read-only mode.
func WithAllowCreateDir(allow bool) ReadOnlyOption {
	return func(o *ReadOnlyOptions) {
		o.AllowCreateDir = allow
	}
}

// WithAllowLocks allows lock acquisition in read-only mode.
func WithAllowLocks(allow bool) ReadOnlyOption {
	return func(o *ReadOnlyOptions) {
		o.AllowLocks = allow
	}
}

// WithWriteAttemptHandler sets a custom handler for write attempts.
func WithWriteAttemptHandler(handler func(op string, path Path) error) ReadOnlyOption {
	return func(o *ReadOnlyOptions) {
		o.OnWriteAttempt = handler
	}
}

// NewReadOnlyFileSystem creates a read-only wrapper around fsys.
func NewReadOnlyFileSystem(fsys Filesystem, opts ...ReadOnlyOption) *ReadOnlyFileSystem {
	options := ReadOnlyOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return &ReadOnlyFileSystem{Filesystem: fsys, opts: options}
}

// Unwrap returns the underlying Filesystem.
func (r *ReadOnlyFileSystem) Unwrap() Filesystem {
	return r.Filesystem
}

// IsReadOnly returns true, indicating this is a read-only filesystem.
func (r *ReadOnlyFileSystem) IsReadOnly() bool {
	return true
}

func (r *ReadOnlyFileSystem) deny(op string, path Path) error {
	if r.opts.OnWriteAttempt != nil {
		if err := r.opts.OnWriteAttempt(op, path); err != nil {
			return &PathError{Op: op, Path: string(path), Kind: KindPermissionDenied, Err: err}
		}
		return nil
	}
	return &PathError{Op: op, Path: string(path), Kind: KindPermissionDenied, Err: ErrReadOnly}
}

// ============================================================================
// Write Operations (Blocked)
// ============================================================================

// WriteContents implements Writer. It is denied unless OnWriteAttempt allows it.
func (r *ReadOnlyFileSystem) WriteContents(path Path, data string) error {
	if err := r.deny("write_contents", path); err != nil {
		return err
	}
	return r.Filesystem.WriteContents(path, data)
}

// WriteLines implements Writer. It is denied unless OnWriteAttempt allows it.
func (r *ReadOnlyFileSystem) WriteLines(path Path, lines []string) error {
	if err := r.deny("write_lines", path); err != nil {
		return err
	}
	return r.Filesystem.WriteLines(path, lines)
}

// Rename implements Writer. It is denied unless OnWriteAttempt allows it.
func (r *ReadOnlyFileSystem) Rename(oldpath, newpath Path) error {
	if err := r.deny("rename", oldpath); err != nil {
		return err
	}
	return r.Filesystem.Rename(oldpath, newpath)
}

// RenameOrCopy implements Writer. It is denied unless OnWriteAttempt allows it.
func (r *ReadOnlyFileSystem) RenameOrCopy(oldpath, newpath Path, tempSuffix string) error {
	if err := r.deny("rename_or_copy", oldpath); err != nil {
		return err
	}
	return r.Filesystem.RenameOrCopy(oldpath, newpath, tempSuffix)
}

// Remove implements Writer. It is denied unless OnWriteAttempt allows it.
func (r *ReadOnlyFileSystem) Remove(path Path) (bool, error) {
	if err := r.deny("remove", path); err != nil {
		return false, err
	}
	return r.Filesystem.Remove(path)
}

// RemoveAll implements Writer. It is denied unless OnWriteAttempt allows it.
func (r *ReadOnlyFileSystem) RemoveAll(path Path) (Path, error) {
	if err := r.deny("remove_all", path); err != nil {
		return path, err
	}
	return r.Filesystem.RemoveAll(path)
}

// RemoveAllInside implements Writer. It is denied unless OnWriteAttempt allows it.
func (r *ReadOnlyFileSystem) RemoveAllInside(path Path) (Path, error) {
	if err := r.deny("remove_all_inside", path); err != nil {
		return path, err
	}
	return r.Filesystem.RemoveAllInside(path)
}

// CreateDirectory returns ErrReadOnly unless AllowCreateDir is enabled.
func (r *ReadOnlyFileSystem) CreateDirectory(path Path) (bool, error) {
	if !r.opts.AllowCreateDir {
		if err := r.deny("create_directory", path); err != nil {
			return false, err
		}
	}
	return r.Filesystem.CreateDirectory(path)
}

// CreateDirectories returns ErrReadOnly unless AllowCreateDir is enabled.
func (r *ReadOnlyFileSystem) CreateDirectories(path Path) (bool, error) {
	if !r.opts.AllowCreateDir {
		if err := r.deny("create_directories", path); err != nil {
			return false, err
		}
	}
	return r.Filesystem.CreateDirectories(path)
}

// Copy implements Writer. It is denied unless OnWriteAttempt allows it.
func (r *ReadOnlyFileSystem) Copy(oldpath, newpath Path, opts CopyOptions) error {
	if err := r.deny("copy", newpath); err != nil {
		return err
	}
	return r.Filesystem.Copy(oldpath, newpath, opts)
}

// CopyFile implements Writer. It is denied unless OnWriteAttempt allows it.
func (r *ReadOnlyFileSystem) CopyFile(oldpath, newpath Path, opts CopyOptions) (bool, error) {
	if err := r.deny("copy_file", newpath); err != nil {
		return false, err
	}
	return r.Filesystem.CopyFile(oldpath, newpath, opts)
}

// CopySymlink implements Writer. It is denied unless OnWriteAttempt allows it.
func (r *ReadOnlyFileSystem) CopySymlink(oldpath, newpath Path) error {
	if err := r.deny("copy_symlink", newpath); err != nil {
		return err
	}
	return r.Filesystem.CopySymlink(oldpath, newpath)
}

// TakeExclusiveFileLock returns ErrReadOnly unless AllowLocks is enabled.
func (r *ReadOnlyFileSystem) TakeExclusiveFileLock(path Path) (SystemHandle, error) {
	if !r.opts.AllowLocks {
		if err := r.deny("take_exclusive_file_lock", path); err != nil {
			return InvalidHandle, err
		}
	}
	return r.Filesystem.TakeExclusiveFileLock(path)
}

// TryTakeExclusiveFileLock returns ErrReadOnly unless AllowLocks is enabled.
func (r *ReadOnlyFileSystem) TryTakeExclusiveFileLock(path Path) (SystemHandle, error) {
	if !r.opts.AllowLocks {
		if err := r.deny("try_take_exclusive_file_lock", path); err != nil {
			return InvalidHandle, err
		}
	}
	return r.Filesystem.TryTakeExclusiveFileLock(path)
}

// ============================================================================
// Optional Interface Delegation
// ============================================================================

// Checksum delegates to the underlying filesystem.
func (r *ReadOnlyFileSystem) Checksum(path Path, algorithm ChecksumAlgorithm) (string, error) {
	return Checksum(r.Filesystem, path, algorithm)
}

// Watch delegates to the underlying filesystem. Without change notification
// it returns a token that never fires.
func (r *ReadOnlyFileSystem) Watch(ctx context.Context, dir Path, pattern string) (ChangeToken, error) {
	if w, ok := r.Filesystem.(Watcher); ok {
		return w.Watch(ctx, dir, pattern)
	}
	return NeverChangeToken{}, nil
}

// Stat implements FileInfoer for providers that do.
func (r *ReadOnlyFileSystem) Stat(path Path) (fs.FileInfo, error) {
	fi, ok := r.Filesystem.(FileInfoer)
	if !ok {
		return nil, &PathError{Op: "stat", Path: string(path), Kind: KindIO, Err: ErrNotSupported}
	}
	return fi.Stat(path)
}

// Lstat implements FileInfoer for providers that do.
func (r *ReadOnlyFileSystem) Lstat(path Path) (fs.FileInfo, error) {
	fi, ok := r.Filesystem.(FileInfoer)
	if !ok {
		return nil, &PathError{Op: "lstat", Path: string(path), Kind: KindIO, Err: ErrNotSupported}
	}
	return fi.Lstat(path)
}

// ============================================================================
// Interface Assertions
// ============================================================================

var (
	_ Filesystem  = (*ReadOnlyFileSystem)(nil)
	_ Checksummer = (*ReadOnlyFileSystem)(nil)
	_ Watcher     = (*ReadOnlyFileSystem)(nil)
	_ FileInfoer  = (*ReadOnlyFileSystem)(nil)
)

// IsReadOnlyError checks if an error is due to read-only restrictions.
func IsReadOnlyError(err error) bool {
	return errors.Is(err, ErrReadOnly)
}
