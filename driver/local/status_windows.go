//go:build windows

package local

import (
	"io/fs"
	"syscall"

	"github.com/gobeaver/fskit"
	"golang.org/x/sys/windows"
)

// statusOf refines the io/fs mapping with the raw attributes: a reparse
// point on a directory (junction or directory symlink) is reported as
// DirectorySymlink when the link itself is inspected.
func statusOf(fi fs.FileInfo, followed bool) fskit.FileStatus {
	st := fskit.StatusFromFileInfo(fi)
	if followed {
		return st
	}
	data, ok := fi.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return st
	}
	const dirLink = windows.FILE_ATTRIBUTE_REPARSE_POINT | windows.FILE_ATTRIBUTE_DIRECTORY
	if data.FileAttributes&dirLink == dirLink && fi.Mode()&(fs.ModeSymlink|fs.ModeIrregular) != 0 {
		return fskit.NewFileStatus(fskit.DirectorySymlink, fi.Mode().Perm())
	}
	return st
}
