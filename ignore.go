package fskit

// IgnoringFS is the calling convention for best-effort cleanup. Errors are
// discarded and a default result returned. Only operations whose failure a
// caller can reasonably shrug off are offered.
type IgnoringFS struct {
	fsys Filesystem
}

// IgnoreErrors wraps fsys.
func IgnoreErrors(fsys Filesystem) IgnoringFS {
	return IgnoringFS{fsys: fsys}
}

// Remove reports whether path was removed.
func (i IgnoringFS) Remove(path Path) bool {
	ok, err := i.fsys.Remove(path)
	return err == nil && ok
}

// RemoveAll removes as much of the tree as it can.
func (i IgnoringFS) RemoveAll(path Path) {
	_, _ = i.fsys.RemoveAll(path)
}

// RemoveAllInside empties path as far as it can.
func (i IgnoringFS) RemoveAllInside(path Path) {
	_, _ = i.fsys.RemoveAllInside(path)
}

// Exists is false when the status could not be determined.
func (i IgnoringFS) Exists(path Path) bool {
	ok, err := i.fsys.Exists(path)
	return err == nil && ok
}

// CreateDirectory reports whether path was created. It is false on error.
func (i IgnoringFS) CreateDirectory(path Path) bool {
	ok, err := i.fsys.CreateDirectory(path)
	return err == nil && ok
}

// CreateDirectories reports whether any directory was created.
func (i IgnoringFS) CreateDirectories(path Path) bool {
	ok, err := i.fsys.CreateDirectories(path)
	return err == nil && ok
}

// Status returns the zero FileStatus (type None) on error.
func (i IgnoringFS) Status(path Path) FileStatus {
	st, err := i.fsys.Status(path)
	if err != nil {
		return FileStatus{}
	}
	return st
}

// SymlinkStatus returns the zero FileStatus (type None) on error.
func (i IgnoringFS) SymlinkStatus(path Path) FileStatus {
	st, err := i.fsys.SymlinkStatus(path)
	if err != nil {
		return FileStatus{}
	}
	return st
}

// Canonical returns the empty Path on error.
func (i IgnoringFS) Canonical(path Path) Path {
	p, err := i.fsys.Canonical(path)
	if err != nil {
		return ""
	}
	return p
}
