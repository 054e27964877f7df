//go:build !windows

package fskit

// DirectorySymlink is a directory symbolic link or a junction. Outside
// Windows there is no distinct kind and it is the same value as Symlink.
const DirectorySymlink = Symlink

const separatorChars = `/`
