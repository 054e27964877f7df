package fskit

import (
	"errors"
	"strings"
)

// Multi-step operations shared by every provider. Each one is written
// against the capability interfaces only, so a provider delegates to them
// and any wrapper that overrides a primitive (Rename, Remove) sees its
// override honored.

// DefaultTempSuffix is appended to the destination name while a
// RenameOrCopy fallback copy is in flight.
const DefaultTempSuffix = ".tmp"

var errCopyMismatch = errors.New("copy does not match source")

// ReadWriter is the subset of Filesystem the shared operations need.
type ReadWriter interface {
	Reader
	Writer
}

// RemoveAll deletes path and everything below it through fsys.Remove.
//
// Symlinks (and junctions) are removed, never followed. When an entry
// cannot be deleted the walk continues with its siblings and the first
// failing path is returned with its error, so a caller can tell how much of
// the tree is gone. A missing path is success.
func RemoveAll(fsys ReadWriter, path Path) (Path, error) {
	st, err := fsys.SymlinkStatus(path)
	if err != nil {
		return path, err
	}
	if !st.Exists() {
		return "", nil
	}
	var f failure
	removeTree(fsys, path, st, &f)
	return f.point, f.err
}

// RemoveAllInside is RemoveAll for every entry of dir, leaving dir itself.
func RemoveAllInside(fsys ReadWriter, dir Path) (Path, error) {
	entries, err := fsys.GetFilesNonRecursive(dir)
	if err != nil {
		return dir, err
	}
	var f failure
	for _, e := range entries {
		st, err := fsys.SymlinkStatus(e)
		if err != nil {
			f.record(e, err)
			continue
		}
		if st.Exists() {
			removeTree(fsys, e, st, &f)
		}
	}
	return f.point, f.err
}

type failure struct {
	point Path
	err   error
}

func (f *failure) record(p Path, err error) {
	if f.err == nil {
		f.point, f.err = p, err
	}
}

func removeTree(fsys ReadWriter, path Path, st FileStatus, f *failure) {
	if st.IsDirectory() {
		entries, err := fsys.GetFilesNonRecursive(path)
		if err != nil {
			f.record(path, err)
			return
		}
		for _, e := range entries {
			est, err := fsys.SymlinkStatus(e)
			if err != nil {
				f.record(e, err)
				continue
			}
			if est.Exists() {
				removeTree(fsys, e, est, f)
			}
		}
	}
	if _, err := fsys.Remove(path); err != nil {
		f.record(path, err)
	}
}

// RenameOrCopy renames oldpath to newpath, falling back to a copy when the
// rename fails with a cross-device error.
//
// The fallback copies into newpath+tempSuffix, verifies regular files by
// checksum when o.VerifyCopies is set, renames the temporary into place and
// only then removes the source. On failure the temporary is removed and
// newpath is left as it was.
func RenameOrCopy(fsys ReadWriter, oldpath, newpath Path, tempSuffix string, o Options) error {
	err := fsys.Rename(oldpath, newpath)
	if err == nil || !IsCrossDevice(err) {
		return err
	}
	if tempSuffix == "" {
		tempSuffix = DefaultTempSuffix
	}
	tmp := Path(string(newpath) + tempSuffix)
	log := o.Logger
	if log == nil {
		log = discardLogger()
	}
	log.Debug("rename crossed devices, copying", "from", oldpath.Generic(), "to", newpath.Generic(), "temp", tmp.Generic())

	st, err := fsys.SymlinkStatus(oldpath)
	if err != nil {
		return err
	}
	if !st.Exists() {
		return &PathError{Op: "rename_or_copy", Path: string(oldpath), Target: string(newpath), Kind: KindNotFound, Err: ErrNotExist}
	}

	if _, err := RemoveAll(fsys, tmp); err != nil {
		return err
	}

	switch {
	case st.IsSymlink():
		err = fsys.CopySymlink(oldpath, tmp)
	case st.IsDirectory():
		err = fsys.Copy(oldpath, tmp, CopyOptions{Recursive: true, CopySymlinks: true})
	default:
		_, err = fsys.CopyFile(oldpath, tmp, CopyOptions{Overwrite: OverwriteExisting})
	}
	if err != nil {
		discardTemp(fsys, tmp)
		return err
	}

	if o.VerifyCopies && st.IsRegularFile() {
		same, err := sameContents(fsys, oldpath, tmp)
		if err == nil && !same {
			err = &PathError{Op: "rename_or_copy", Path: string(oldpath), Target: string(tmp), Kind: KindIO, Err: errCopyMismatch}
		}
		if err != nil {
			discardTemp(fsys, tmp)
			return err
		}
	}

	if err := fsys.Rename(tmp, newpath); err != nil {
		discardTemp(fsys, tmp)
		return err
	}

	if st.IsDirectory() {
		_, err = RemoveAll(fsys, oldpath)
	} else {
		_, err = fsys.Remove(oldpath)
	}
	return err
}

func discardTemp(fsys ReadWriter, tmp Path) {
	_, _ = RemoveAll(fsys, tmp)
}

// FindFileRecursivelyUp checks start/filename, then each ancestor of start in
// turn, and returns the first candidate that exists. Unreadable ancestors
// are treated as not containing the file. It returns the empty Path when
// the root has been checked without a match.
func FindFileRecursivelyUp(fsys StatusReader, start Path, filename string) (Path, error) {
	if start == "" || filename == "" {
		return "", &PathError{Op: "find_file_recursively_up", Path: string(start), Kind: KindInvalidArgument, Err: ErrInvalidArgument}
	}
	for dir := start; dir != ""; dir = dir.Parent() {
		candidate := Combine(dir, Path(filename))
		if st, err := fsys.Status(candidate); err == nil && st.Exists() {
			return candidate, nil
		}
	}
	return "", nil
}

// CheckOverwrite decides whether CopyFile may write newpath. It returns
// false with a nil error when the policy declines the copy.
func CheckOverwrite(fsys Reader, oldpath, newpath Path, opts CopyOptions) (bool, error) {
	dst, err := fsys.Status(newpath)
	if err != nil {
		return false, err
	}
	if !dst.Exists() {
		return true, nil
	}
	if dst.IsDirectory() {
		return false, &PathError{Op: "copy_file", Path: string(oldpath), Target: string(newpath), Kind: KindIsADirectory, Err: ErrIsDir}
	}
	switch opts.Overwrite {
	case OverwriteSkip:
		return false, nil
	case OverwriteExisting:
		return true, nil
	case OverwriteUpdate:
		fi, ok := fsys.(FileInfoer)
		if !ok {
			return true, nil
		}
		src, err := fi.Stat(oldpath)
		if err != nil {
			return false, NewPathError2("copy_file", oldpath, newpath, err)
		}
		cur, err := fi.Stat(newpath)
		if err != nil {
			return false, NewPathError2("copy_file", oldpath, newpath, err)
		}
		return src.ModTime().After(cur.ModTime()), nil
	default:
		return false, &PathError{Op: "copy_file", Path: string(oldpath), Target: string(newpath), Kind: KindAlreadyExists, Err: ErrExist}
	}
}

// CopyTree implements Copy on top of the file-granularity primitives.
func CopyTree(fsys ReadWriter, oldpath, newpath Path, opts CopyOptions) error {
	st, err := fsys.SymlinkStatus(oldpath)
	if err != nil {
		return err
	}
	if !st.Exists() {
		return &PathError{Op: "copy", Path: string(oldpath), Target: string(newpath), Kind: KindNotFound, Err: ErrNotExist}
	}
	return copyEntry(fsys, oldpath, newpath, st, opts, true)
}

func copyEntry(fsys ReadWriter, oldpath, newpath Path, st FileStatus, opts CopyOptions, top bool) error {
	if st.IsSymlink() {
		switch {
		case opts.SkipSymlinks:
			return nil
		case opts.CopySymlinks:
			return fsys.CopySymlink(oldpath, newpath)
		}
		var err error
		if st, err = fsys.Status(oldpath); err != nil {
			return err
		}
		if !st.Exists() {
			return &PathError{Op: "copy", Path: string(oldpath), Target: string(newpath), Kind: KindNotFound, Err: ErrNotExist}
		}
	}

	switch {
	case st.IsDirectory():
		if _, err := fsys.CreateDirectory(newpath); err != nil {
			return err
		}
		if !top && !opts.Recursive {
			return nil
		}
		entries, err := fsys.GetFilesNonRecursive(oldpath)
		if err != nil {
			return err
		}
		for _, e := range entries {
			est, err := fsys.SymlinkStatus(e)
			if err != nil {
				return err
			}
			if err := copyEntry(fsys, e, Combine(newpath, e.Base()), est, opts, false); err != nil {
				return err
			}
		}
		return nil
	case st.IsRegularFile():
		if opts.DirectoriesOnly {
			return nil
		}
		_, err := fsys.CopyFile(oldpath, newpath, opts)
		return err
	default:
		return &PathError{Op: "copy", Path: string(oldpath), Target: string(newpath), Kind: KindIO, Err: ErrNotSupported}
	}
}

// SearchPath looks for each name in each directory, in order, and returns
// every candidate accept approves. Duplicate results are dropped.
func SearchPath(fsys StatusReader, dirs []Path, names []string, accept func(FileStatus) bool) []Path {
	if accept == nil {
		accept = FileStatus.IsRegularFile
	}
	var out []Path
	seen := make(map[Path]struct{})
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range names {
			candidate := Combine(dir, Path(name))
			if _, dup := seen[candidate]; dup {
				continue
			}
			st, err := fsys.Status(candidate)
			if err != nil || !accept(st) {
				continue
			}
			seen[candidate] = struct{}{}
			out = append(out, candidate)
		}
	}
	return out
}

// SplitLines splits file contents the way ReadLines reports them: one
// trailing '\r' is dropped from each line and a final unterminated line is
// kept.
func SplitLines(s string) []string {
	lines := []string{}
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		var line string
		if i < 0 {
			line, s = s, ""
		} else {
			line, s = s[:i], s[i+1:]
		}
		lines = append(lines, strings.TrimSuffix(line, "\r"))
	}
	return lines
}

// JoinLines is the inverse of SplitLines for WriteLines: every line is
// terminated by '\n'.
func JoinLines(lines []string) string {
	n := 0
	for _, l := range lines {
		n += len(l) + 1
	}
	var sb strings.Builder
	sb.Grow(n)
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}
