package fskit

import "strconv"

// SystemHandle is an OS resource handle (a file descriptor, or a HANDLE on
// Windows) held on behalf of an acquired file lock. Raw is -1 when no handle
// is held.
//
// A handle must be released exactly once through Filesystem.UnlockFileLock.
// Prefer AcquireFileLock or WithFileLock, which release on every exit path.
type SystemHandle struct {
	Raw int
}

// InvalidHandle is the handle returned when no lock was acquired.
var InvalidHandle = SystemHandle{Raw: -1}

// IsValid reports whether h refers to a held resource.
func (h SystemHandle) IsValid() bool {
	return h.Raw != -1
}

func (h SystemHandle) String() string {
	if !h.IsValid() {
		return "handle(invalid)"
	}
	return "handle(" + strconv.Itoa(h.Raw) + ")"
}
