package local

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/gobeaver/fskit"
)

// Adapter provides the operating system's filesystem as a fskit.Filesystem.
// Paths are passed to the OS unchanged; relative paths resolve against the
// process working directory.
//
// An Adapter holds no cached state besides the set of lock handles it has
// handed out, so one instance can be shared by every goroutine.
type Adapter struct {
	opts fskit.Options
	log  *slog.Logger

	mu    sync.Mutex
	locks map[int]*lockFile
}

// New creates a new local filesystem adapter
func New(opts ...fskit.Option) *Adapter {
	o := fskit.ApplyOptions(opts...)
	return &Adapter{
		opts:  o,
		log:   o.Logger.With("driver", "local"),
		locks: make(map[int]*lockFile),
	}
}

// ============================================================================
// Read / Write
// ============================================================================

// ReadContents implements fskit.Reader
func (a *Adapter) ReadContents(path fskit.Path) (string, error) {
	b, err := os.ReadFile(string(path))
	if err != nil {
		return "", fskit.NewPathError("read_contents", path, err)
	}
	return string(b), nil
}

// ReadLines implements fskit.Reader
func (a *Adapter) ReadLines(path fskit.Path) ([]string, error) {
	s, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fskit.NewPathError("read_lines", path, err)
	}
	return fskit.SplitLines(string(s)), nil
}

// WriteContents implements fskit.Writer
func (a *Adapter) WriteContents(path fskit.Path, data string) error {
	if err := os.WriteFile(string(path), []byte(data), 0o666); err != nil {
		return fskit.NewPathError("write_contents", path, err)
	}
	return nil
}

// WriteLines implements fskit.Writer
func (a *Adapter) WriteLines(path fskit.Path, lines []string) error {
	if err := os.WriteFile(string(path), []byte(fskit.JoinLines(lines)), 0o666); err != nil {
		return fskit.NewPathError("write_lines", path, err)
	}
	return nil
}

// ============================================================================
// Rename / Remove
// ============================================================================

// Rename implements fskit.Writer
func (a *Adapter) Rename(oldpath, newpath fskit.Path) error {
	if err := os.Rename(string(oldpath), string(newpath)); err != nil {
		return fskit.NewPathError2("rename", oldpath, newpath, err)
	}
	return nil
}

// RenameOrCopy implements fskit.Writer
func (a *Adapter) RenameOrCopy(oldpath, newpath fskit.Path, tempSuffix string) error {
	return fskit.RenameOrCopy(a, oldpath, newpath, tempSuffix, a.opts)
}

// Remove implements fskit.Writer
func (a *Adapter) Remove(path fskit.Path) (bool, error) {
	if err := os.Remove(string(path)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fskit.NewPathError("remove", path, err)
	}
	return true, nil
}

// RemoveAll implements fskit.Writer
func (a *Adapter) RemoveAll(path fskit.Path) (fskit.Path, error) {
	return fskit.RemoveAll(a, path)
}

// RemoveAllInside implements fskit.Writer
func (a *Adapter) RemoveAllInside(path fskit.Path) (fskit.Path, error) {
	return fskit.RemoveAllInside(a, path)
}

// ============================================================================
// Queries
// ============================================================================

// Status implements fskit.StatusReader
func (a *Adapter) Status(path fskit.Path) (fskit.FileStatus, error) {
	fi, err := os.Stat(string(path))
	if err != nil {
		return statusError("status", path, err)
	}
	return statusOf(fi, true), nil
}

// SymlinkStatus implements fskit.StatusReader
func (a *Adapter) SymlinkStatus(path fskit.Path) (fskit.FileStatus, error) {
	fi, err := os.Lstat(string(path))
	if err != nil {
		return statusError("symlink_status", path, err)
	}
	return statusOf(fi, false), nil
}

// statusError maps "no such entry" (including a file used as a directory
// component) to NotFound. Anything else is a real failure.
func statusError(op string, path fskit.Path, err error) (fskit.FileStatus, error) {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return fskit.NotFoundStatus(), nil
	}
	return fskit.FileStatus{}, fskit.NewPathError(op, path, err)
}

// Stat implements fskit.FileInfoer
func (a *Adapter) Stat(path fskit.Path) (fs.FileInfo, error) {
	fi, err := os.Stat(string(path))
	if err != nil {
		return nil, fskit.NewPathError("stat", path, err)
	}
	return fi, nil
}

// Lstat implements fskit.FileInfoer
func (a *Adapter) Lstat(path fskit.Path) (fs.FileInfo, error) {
	fi, err := os.Lstat(string(path))
	if err != nil {
		return nil, fskit.NewPathError("lstat", path, err)
	}
	return fi, nil
}

// Exists implements fskit.Reader
func (a *Adapter) Exists(path fskit.Path) (bool, error) {
	st, err := a.Status(path)
	return st.Exists(), err
}

// IsDirectory implements fskit.Reader
func (a *Adapter) IsDirectory(path fskit.Path) (bool, error) {
	st, err := a.Status(path)
	return st.IsDirectory(), err
}

// IsRegularFile implements fskit.Reader
func (a *Adapter) IsRegularFile(path fskit.Path) (bool, error) {
	st, err := a.Status(path)
	return st.IsRegularFile(), err
}

// IsEmpty implements fskit.Reader
func (a *Adapter) IsEmpty(path fskit.Path) (bool, error) {
	fi, err := os.Stat(string(path))
	if err != nil {
		return false, fskit.NewPathError("is_empty", path, err)
	}
	if !fi.IsDir() {
		return fi.Size() == 0, nil
	}
	f, err := os.Open(string(path))
	if err != nil {
		return false, fskit.NewPathError("is_empty", path, err)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil {
		if err == io.EOF {
			return true, nil
		}
		return false, fskit.NewPathError("is_empty", path, err)
	}
	return false, nil
}

// ============================================================================
// Create / Copy
// ============================================================================

// CreateDirectory implements fskit.Writer
func (a *Adapter) CreateDirectory(path fskit.Path) (bool, error) {
	err := os.Mkdir(string(path), 0o777)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrExist) {
		if fi, serr := os.Stat(string(path)); serr == nil && fi.IsDir() {
			return false, nil
		}
	}
	return false, fskit.NewPathError("create_directory", path, err)
}

// CreateDirectories implements fskit.Writer
func (a *Adapter) CreateDirectories(path fskit.Path) (bool, error) {
	if fi, err := os.Stat(string(path)); err == nil && fi.IsDir() {
		return false, nil
	}
	if err := os.MkdirAll(string(path), 0o777); err != nil {
		return false, fskit.NewPathError("create_directories", path, err)
	}
	return true, nil
}

// Copy implements fskit.Writer
func (a *Adapter) Copy(oldpath, newpath fskit.Path, opts fskit.CopyOptions) error {
	return fskit.CopyTree(a, oldpath, newpath, opts)
}

// CopyFile implements fskit.Writer. The destination takes the source's
// permission bits.
func (a *Adapter) CopyFile(oldpath, newpath fskit.Path, opts fskit.CopyOptions) (bool, error) {
	ok, err := fskit.CheckOverwrite(a, oldpath, newpath, opts)
	if err != nil || !ok {
		return false, err
	}

	src, err := os.Open(string(oldpath))
	if err != nil {
		return false, fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return false, fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	if fi.IsDir() {
		return false, &fskit.PathError{Op: "copy_file", Path: string(oldpath), Target: string(newpath), Kind: fskit.KindIsADirectory, Err: fskit.ErrIsDir}
	}

	dst, err := os.OpenFile(string(newpath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return false, fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return false, fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	if err := dst.Close(); err != nil {
		return false, fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	if err := os.Chmod(string(newpath), fi.Mode().Perm()); err != nil {
		return false, fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	return true, nil
}

// CopySymlink implements fskit.Writer
func (a *Adapter) CopySymlink(oldpath, newpath fskit.Path) error {
	target, err := os.Readlink(string(oldpath))
	if err != nil {
		return fskit.NewPathError2("copy_symlink", oldpath, newpath, err)
	}
	if err := os.Symlink(target, string(newpath)); err != nil {
		return fskit.NewPathError2("copy_symlink", oldpath, newpath, err)
	}
	return nil
}

// Symlink creates link pointing at target. On Windows this needs developer
// mode or the symlink privilege.
func (a *Adapter) Symlink(target, link fskit.Path) error {
	if err := os.Symlink(string(target), string(link)); err != nil {
		return fskit.NewPathError2("symlink", target, link, err)
	}
	return nil
}

// ============================================================================
// Enumeration
// ============================================================================

// GetFilesNonRecursive implements fskit.Reader
func (a *Adapter) GetFilesNonRecursive(dir fskit.Path) ([]fskit.Path, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, fskit.NewPathError("get_files_non_recursive", dir, err)
	}
	out := make([]fskit.Path, 0, len(entries))
	for _, e := range entries {
		out = append(out, fskit.Combine(dir, fskit.Path(e.Name())))
	}
	return out, nil
}

// GetFilesRecursive implements fskit.Reader
func (a *Adapter) GetFilesRecursive(dir fskit.Path) ([]fskit.Path, error) {
	var out []fskit.Path
	if err := a.walk(dir, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) walk(dir fskit.Path, out *[]fskit.Path) error {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return fskit.NewPathError("get_files_recursive", dir, err)
	}
	for _, e := range entries {
		p := fskit.Combine(dir, fskit.Path(e.Name()))
		*out = append(*out, p)
		// DirEntry.Type comes from lstat, so symlinked directories are not
		// descended
		if e.IsDir() {
			if err := a.walk(p, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// FindFileRecursivelyUp implements fskit.Reader
func (a *Adapter) FindFileRecursivelyUp(start fskit.Path, filename string) (fskit.Path, error) {
	return fskit.FindFileRecursivelyUp(a, start, filename)
}

// FindFromPath implements fskit.Reader
func (a *Adapter) FindFromPath(name string) []fskit.Path {
	var dirs []fskit.Path
	for _, d := range filepath.SplitList(os.Getenv("PATH")) {
		dirs = append(dirs, fskit.Path(d))
	}
	return fskit.SearchPath(a, dirs, searchNames(name), isExecutable)
}

// ============================================================================
// Path resolution
// ============================================================================

// Absolute implements fskit.Reader
func (a *Adapter) Absolute(path fskit.Path) (fskit.Path, error) {
	abs, err := filepath.Abs(string(path))
	if err != nil {
		return "", fskit.NewPathError("absolute", path, err)
	}
	return fskit.Path(abs), nil
}

// Canonical implements fskit.Reader
func (a *Adapter) Canonical(path fskit.Path) (fskit.Path, error) {
	abs, err := filepath.Abs(string(path))
	if err != nil {
		return "", fskit.NewPathError("canonical", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fskit.NewPathError("canonical", path, err)
	}
	return fskit.Path(resolved), nil
}

// CurrentPath implements fskit.Reader
func (a *Adapter) CurrentPath() (fskit.Path, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fskit.NewPathError("current_path", "", err)
	}
	return fskit.Path(wd), nil
}

// SetCurrentPath implements fskit.Writer. The working directory is process
// wide; callers changing it concurrently race with each other.
func (a *Adapter) SetCurrentPath(path fskit.Path) error {
	if err := os.Chdir(string(path)); err != nil {
		return fskit.NewPathError("current_path", path, err)
	}
	return nil
}

// ============================================================================
// Optional Capability Interfaces
// ============================================================================

// Checksum implements fskit.Checksummer for local files.
func (a *Adapter) Checksum(path fskit.Path, algorithm fskit.ChecksumAlgorithm) (string, error) {
	file, err := os.Open(string(path))
	if err != nil {
		return "", fskit.NewPathError("checksum", path, err)
	}
	defer file.Close()

	sum, err := fskit.CalculateChecksum(file, algorithm)
	if err != nil {
		return "", fskit.NewPathError("checksum", path, err)
	}
	return sum, nil
}

// Ensure Adapter implements interfaces
var (
	_ fskit.Filesystem  = (*Adapter)(nil)
	_ fskit.Checksummer = (*Adapter)(nil)
	_ fskit.Watcher     = (*Adapter)(nil)
	_ fskit.FileInfoer  = (*Adapter)(nil)
)
