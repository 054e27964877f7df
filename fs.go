package fskit

import (
	"context"
	"io/fs"
)

// ============================================================================
// Core Interfaces (Interface Segregation)
// ============================================================================

// StatusReader resolves paths to the unified FileStatus model.
//
// These are the only status queries exported by this package. There are no
// package-level functions taking a raw path, so every status lookup goes
// through a provider and sees its symlink handling.
type StatusReader interface {
	// Status returns the status of path, following symlinks. A missing
	// path yields NotFoundStatus and a nil error.
	Status(path Path) (FileStatus, error)

	// SymlinkStatus is Status without following a final symlink.
	SymlinkStatus(path Path) (FileStatus, error)
}

// Reader provides read-only filesystem access.
// Use this type in function signatures to enforce read-only at compile time.
type Reader interface {
	StatusReader

	// ReadContents returns the whole file as a string.
	ReadContents(path Path) (string, error)

	// ReadLines returns the file split into lines. A single trailing '\r'
	// is stripped from each line; a final line without terminator is kept.
	ReadLines(path Path) ([]string, error)

	Exists(path Path) (bool, error)
	IsDirectory(path Path) (bool, error)
	IsRegularFile(path Path) (bool, error)

	// IsEmpty reports whether path is an empty directory or a zero-length file.
	IsEmpty(path Path) (bool, error)

	// GetFilesRecursive lists every entry below dir, depth first, sorted by
	// name within each directory. Symlinked directories are not descended.
	GetFilesRecursive(dir Path) ([]Path, error)

	// GetFilesNonRecursive lists the direct entries of dir sorted by name.
	GetFilesNonRecursive(dir Path) ([]Path, error)

	// FindFileRecursivelyUp walks from start toward the root and returns the
	// first start/../filename that exists. It returns the empty Path when
	// the root is reached without a match.
	FindFileRecursivelyUp(start Path, filename string) (Path, error)

	Absolute(path Path) (Path, error)

	// Canonical resolves symlinks and cleans path. Every component must exist.
	Canonical(path Path) (Path, error)

	CurrentPath() (Path, error)

	// FindFromPath returns every match of name on the executable search
	// path, in search order.
	FindFromPath(name string) []Path
}

// Writer provides mutating filesystem operations.
type Writer interface {
	// WriteContents replaces the contents of path with data.
	WriteContents(path Path, data string) error

	// WriteLines replaces the contents of path with lines, each followed by '\n'.
	WriteLines(path Path, lines []string) error

	// Rename moves oldpath to newpath using the OS rename primitive only.
	// Cross-device moves fail with ErrCrossDevice.
	Rename(oldpath, newpath Path) error

	// RenameOrCopy is Rename with a copy fallback for cross-device moves.
	// The copy is written to newpath+tempSuffix and renamed into place, so
	// newpath never holds a partial file. The source is removed last.
	RenameOrCopy(oldpath, newpath Path, tempSuffix string) error

	// Remove deletes a file or an empty directory. It reports whether
	// anything was removed; a missing path is (false, nil).
	Remove(path Path) (bool, error)

	// RemoveAll deletes path and everything below it. On failure it returns
	// the first sub-path that could not be deleted. A missing path is success.
	RemoveAll(path Path) (failurePoint Path, err error)

	// RemoveAllInside is RemoveAll that keeps path itself.
	RemoveAllInside(path Path) (failurePoint Path, err error)

	// CreateDirectory creates one directory level. It reports whether the
	// directory was created; an existing directory is (false, nil).
	CreateDirectory(path Path) (bool, error)

	// CreateDirectories creates path and any missing parents.
	CreateDirectories(path Path) (bool, error)

	// Copy copies a file, symlink or directory tree according to opts.
	Copy(oldpath, newpath Path, opts CopyOptions) error

	// CopyFile copies a regular file. It reports whether a copy was made;
	// OverwriteSkip and OverwriteUpdate may decline with (false, nil).
	CopyFile(oldpath, newpath Path, opts CopyOptions) (bool, error)

	// CopySymlink recreates the link at oldpath at newpath.
	CopySymlink(oldpath, newpath Path) error

	SetCurrentPath(path Path) error
}

// Locker provides advisory, per-path exclusive locks.
type Locker interface {
	// TakeExclusiveFileLock blocks until the lock on path is held.
	TakeExclusiveFileLock(path Path) (SystemHandle, error)

	// TryTakeExclusiveFileLock waits a bounded time (1.5s by default) and
	// returns InvalidHandle with ErrLockTimeout if the lock stays held.
	TryTakeExclusiveFileLock(path Path) (SystemHandle, error)

	// UnlockFileLock releases h. Releasing an unknown or already released
	// handle fails with ErrInvalidHandle.
	UnlockFileLock(h SystemHandle) error
}

// Filesystem is the full capability surface a provider implements.
type Filesystem interface {
	Reader
	Writer
	Locker
}

// ============================================================================
// Optional Capability Interfaces
// ============================================================================
// Drivers expose optional capabilities through these interfaces.
// Use a type assertion to check for support:
//
//	if cs, ok := fsys.(fskit.Checksummer); ok {
//	    sum, err := cs.Checksum(path, fskit.ChecksumXXHash)
//	}

// ChecksumAlgorithm names a supported checksum algorithm.
type ChecksumAlgorithm string

const (
	// ChecksumXXHash is the 64-bit xxHash (fast, used for copy verification).
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
	// ChecksumSHA256 is SHA-256.
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	// ChecksumCRC32 is the IEEE CRC32 checksum.
	ChecksumCRC32 ChecksumAlgorithm = "crc32"
)

// Checksummer computes content checksums without handing the bytes to the
// caller. RenameOrCopy uses it to verify a fallback copy before committing.
type Checksummer interface {
	// Checksum returns the hex-encoded checksum of the file at path.
	Checksum(path Path, algorithm ChecksumAlgorithm) (string, error)
}

// Watcher reports changes below a directory.
type Watcher interface {
	// Watch returns a token that fires once when an entry in dir whose base
	// name matches pattern is created, written, removed or renamed. An
	// empty pattern matches everything. The watch ends when ctx is done or
	// the token fires.
	Watch(ctx context.Context, dir Path, pattern string) (ChangeToken, error)
}

// FileInfoer exposes the raw fs.FileInfo behind a status query. Providers
// implement it so tools can print sizes and times, and so OverwriteUpdate
// can compare modification times.
type FileInfoer interface {
	Stat(path Path) (fs.FileInfo, error)
	Lstat(path Path) (fs.FileInfo, error)
}
