//go:build windows

package fskit

// DirectorySymlink is a directory symbolic link or a junction (a directory
// reparse point). It only differs from Symlink on Windows.
const DirectorySymlink FileType = 42

const separatorChars = `\/`
