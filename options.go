package fskit

import (
	"log/slog"
	"time"
)

// OverwritePolicy selects what Copy and CopyFile do when the destination
// already exists.
type OverwritePolicy int

const (
	// OverwriteNone fails with ErrExist.
	OverwriteNone OverwritePolicy = iota
	// OverwriteSkip keeps the existing destination and reports no copy.
	OverwriteSkip
	// OverwriteExisting replaces the destination.
	OverwriteExisting
	// OverwriteUpdate replaces the destination only if the source is newer.
	OverwriteUpdate
)

func (o OverwritePolicy) String() string {
	switch o {
	case OverwriteSkip:
		return "skip"
	case OverwriteExisting:
		return "overwrite"
	case OverwriteUpdate:
		return "update"
	default:
		return "none"
	}
}

// CopyOptions controls Copy and CopyFile.
type CopyOptions struct {
	// Overwrite is the policy for existing destination files.
	Overwrite OverwritePolicy

	// Recursive copies the whole tree. Without it Copy of a directory copies
	// the files directly inside it and creates its immediate subdirectories
	// empty.
	Recursive bool

	// CopySymlinks copies symlinks as links instead of following them.
	CopySymlinks bool

	// SkipSymlinks ignores symlinks entirely.
	SkipSymlinks bool

	// DirectoriesOnly recreates the directory structure without files.
	DirectoriesOnly bool
}

// Option configures a provider.
type Option func(*Options)

// Options holds provider settings shared by every driver.
type Options struct {
	// Logger receives debug output on fallback paths. Nil means discard.
	Logger *slog.Logger

	// LockTimeout bounds TryTakeExclusiveFileLock.
	LockTimeout time.Duration

	// LockPollInterval is the retry period while waiting for a lock.
	LockPollInterval time.Duration

	// VerifyCopies checksums RenameOrCopy fallback copies before commit.
	VerifyCopies bool
}

// DefaultOptions returns the settings used when no Option is given.
func DefaultOptions() Options {
	return Options{
		LockTimeout:      DefaultLockTimeout,
		LockPollInterval: DefaultLockPollInterval,
		VerifyCopies:     true,
	}
}

// ApplyOptions returns DefaultOptions with opts applied.
func ApplyOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	return o
}

// WithLogger sets the provider logger
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithLockTimeout sets how long TryTakeExclusiveFileLock waits
func WithLockTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.LockTimeout = d
		}
	}
}

// WithLockPollInterval sets the lock retry period
func WithLockPollInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.LockPollInterval = d
		}
	}
}

// WithVerifyCopies enables or disables checksum verification of fallback copies
func WithVerifyCopies(verify bool) Option {
	return func(o *Options) {
		o.VerifyCopies = verify
	}
}
