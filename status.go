package fskit

import (
	"io/fs"
	"strconv"
)

// FileType is the kind of a filesystem entry, unified across platforms.
type FileType int

const (
	// None means the status has not been determined.
	None FileType = 0
	// NotFound means the path was queried and does not exist.
	NotFound FileType = -1
	// Regular is a regular file.
	Regular FileType = 1
	// Directory is a directory.
	Directory FileType = 2
	// Symlink is a symbolic link.
	Symlink FileType = 3
	// Block is a block device.
	Block FileType = 4
	// Character is a character device.
	Character FileType = 5
	// Fifo is a named pipe.
	Fifo FileType = 6
	// Socket is a Unix domain socket.
	Socket FileType = 7
	// Unknown exists but could not be classified.
	Unknown FileType = 8
)

// String returns a lower-case name for t.
func (t FileType) String() string {
	if t == DirectorySymlink && DirectorySymlink != Symlink {
		return "directory_symlink"
	}
	switch t {
	case None:
		return "none"
	case NotFound:
		return "not_found"
	case Regular:
		return "regular"
	case Directory:
		return "directory"
	case Symlink:
		return "symlink"
	case Block:
		return "block"
	case Character:
		return "character"
	case Fifo:
		return "fifo"
	case Socket:
		return "socket"
	case Unknown:
		return "unknown"
	default:
		return "file_type(" + strconv.Itoa(int(t)) + ")"
	}
}

// PermsUnknown marks permissions that have not been determined.
const PermsUnknown fs.FileMode = 0xFFFF

// FileStatus is the resolved type and permission bits of a path.
//
// The zero value is {None, PermsUnknown}: a status that has not been
// determined yet, distinct from NotFoundStatus.
type FileStatus struct {
	typ       FileType
	perm      fs.FileMode
	permKnown bool
}

// NewFileStatus returns a status with the given type and permissions.
func NewFileStatus(t FileType, perm fs.FileMode) FileStatus {
	if perm == PermsUnknown {
		return FileStatus{typ: t}
	}
	return FileStatus{typ: t, perm: perm.Perm(), permKnown: true}
}

// NotFoundStatus is the status of a path that was queried and is absent.
func NotFoundStatus() FileStatus {
	return FileStatus{typ: NotFound}
}

// Type returns the entry kind.
func (s FileStatus) Type() FileType {
	return s.typ
}

// Permissions returns the permission bits, or PermsUnknown.
func (s FileStatus) Permissions() fs.FileMode {
	if !s.permKnown {
		return PermsUnknown
	}
	return s.perm
}

// IsSymlink reports whether s describes a symbolic link (or, on Windows, a
// junction).
func (s FileStatus) IsSymlink() bool {
	return s.typ == Symlink || s.typ == DirectorySymlink
}

// IsRegularFile reports whether s describes a regular file.
func (s FileStatus) IsRegularFile() bool {
	return s.typ == Regular
}

// IsDirectory reports whether s describes a directory.
func (s FileStatus) IsDirectory() bool {
	return s.typ == Directory
}

// Exists reports whether s describes an entry that is present.
func (s FileStatus) Exists() bool {
	return s.typ != NotFound && s.typ != None
}

// String returns "type perm".
func (s FileStatus) String() string {
	if !s.permKnown {
		return s.typ.String() + " ?"
	}
	return s.typ.String() + " " + s.perm.String()
}

// TypeFromMode maps an io/fs mode onto the unified FileType. It cannot
// produce DirectorySymlink; providers that can detect junctions refine the
// result themselves.
func TypeFromMode(m fs.FileMode) FileType {
	switch {
	case m&fs.ModeSymlink != 0:
		return Symlink
	case m.IsDir():
		return Directory
	case m&fs.ModeNamedPipe != 0:
		return Fifo
	case m&fs.ModeSocket != 0:
		return Socket
	case m&fs.ModeCharDevice != 0:
		return Character
	case m&fs.ModeDevice != 0:
		return Block
	case m&fs.ModeIrregular != 0:
		return Unknown
	case m.IsRegular():
		return Regular
	default:
		return Unknown
	}
}

// StatusFromFileInfo converts fi into a FileStatus.
func StatusFromFileInfo(fi fs.FileInfo) FileStatus {
	return NewFileStatus(TypeFromMode(fi.Mode()), fi.Mode().Perm())
}
