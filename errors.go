package fskit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Common filesystem errors. Each one is the sentinel for a Kind, so
// errors.Is(err, ErrCrossDevice) works on any *PathError of that kind.
var (
	ErrNotExist        = fs.ErrNotExist
	ErrExist           = fs.ErrExist
	ErrPermission      = fs.ErrPermission
	ErrNotDir          = errors.New("not a directory")
	ErrIsDir           = errors.New("is a directory")
	ErrCrossDevice     = errors.New("cross-device link")
	ErrLockTimeout     = errors.New("timed out waiting for file lock")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIO              = errors.New("i/o error")
	ErrInvalidHandle   = errors.New("invalid or released lock handle")
	ErrReadOnly        = errors.New("filesystem is read-only")
	ErrNotSupported    = errors.New("operation not supported")
)

var (
	errInvalidUTF8 = errors.New("path is not valid UTF-8")
	errEmbeddedNUL = errors.New("path contains a NUL byte")
)

// Kind classifies a failure independently of how the OS reported it.
type Kind int

const (
	KindIO Kind = iota
	KindNotFound
	KindPermissionDenied
	KindAlreadyExists
	KindNotADirectory
	KindIsADirectory
	KindCrossDeviceLink
	KindLockTimeout
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindPermissionDenied:
		return "permission denied"
	case KindAlreadyExists:
		return "already exists"
	case KindNotADirectory:
		return "not a directory"
	case KindIsADirectory:
		return "is a directory"
	case KindCrossDeviceLink:
		return "cross-device link"
	case KindLockTimeout:
		return "lock timeout"
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return "i/o error"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotExist
	case KindPermissionDenied:
		return ErrPermission
	case KindAlreadyExists:
		return ErrExist
	case KindNotADirectory:
		return ErrNotDir
	case KindIsADirectory:
		return ErrIsDir
	case KindCrossDeviceLink:
		return ErrCrossDevice
	case KindLockTimeout:
		return ErrLockTimeout
	case KindInvalidArgument:
		return ErrInvalidArgument
	default:
		return ErrIO
	}
}

// PathError records an error and the operation and path(s) that caused it.
// Target is set for two-path operations (rename, copy).
type PathError struct {
	Op     string
	Path   string
	Target string
	Kind   Kind
	Err    error
}

// Error implements the error interface
func (e *PathError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.Path, e.Target, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind.
func (e *PathError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// NewPathError wraps err for op on path, classifying it. A nil err yields nil.
// If err is already a *PathError it is returned unchanged.
func NewPathError(op string, path Path, err error) error {
	if err == nil {
		return nil
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	return &PathError{Op: op, Path: string(path), Kind: KindOf(err), Err: unwrapOS(err)}
}

// NewPathError2 is NewPathError for operations on two paths.
func NewPathError2(op string, path, target Path, err error) error {
	if err == nil {
		return nil
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	return &PathError{Op: op, Path: string(path), Target: string(target), Kind: KindOf(err), Err: unwrapOS(err)}
}

// KindOf classifies err. Errors it does not recognize are KindIO.
func KindOf(err error) Kind {
	var pe *PathError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	switch {
	case err == nil:
		return KindIO
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, fs.ErrExist):
		return KindAlreadyExists
	case errors.Is(err, ErrNotDir), isNotDir(err):
		return KindNotADirectory
	case errors.Is(err, ErrIsDir), isIsDir(err):
		return KindIsADirectory
	case errors.Is(err, ErrCrossDevice), isCrossDevice(err):
		return KindCrossDeviceLink
	case errors.Is(err, ErrLockTimeout):
		return KindLockTimeout
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrInvalidHandle), isInvalidArgument(err):
		return KindInvalidArgument
	default:
		return KindIO
	}
}

// unwrapOS strips the *fs.PathError / *os.LinkError shell so the message is
// not repeated by PathError.Error.
func unwrapOS(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err
	}
	var le *os.LinkError
	if errors.As(err, &le) && le.Err != nil {
		return le.Err
	}
	return err
}

// IsNotExist reports whether an error indicates that a file or directory
// does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsExist reports whether an error indicates that a file or directory
// already exists
func IsExist(err error) bool {
	return errors.Is(err, ErrExist)
}

// IsPermission reports whether an error indicates that permission is denied
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}

// IsCrossDevice reports whether a rename failed because source and
// destination live on different devices.
func IsCrossDevice(err error) bool {
	return KindOf(err) == KindCrossDeviceLink
}

// IsLockTimeout reports whether a bounded lock wait expired.
func IsLockTimeout(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
