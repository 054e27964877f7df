package memory

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/gobeaver/fskit"
)

const sep = string(filepath.Separator)

// maxSymlinks bounds link expansion while resolving a path, like the kernel's
// MAXSYMLINKS.
const maxSymlinks = 40

// Adapter provides an in-memory fskit.Filesystem backed by a go-billy memfs
// tree. It is meant for tests and dry runs: nothing touches the disk.
//
// The tree has a single root. Volume names are stripped and relative paths
// resolve against the adapter's own working directory, which starts at the
// root. Symlinks are resolved by the adapter in every path component.
type Adapter struct {
	opts fskit.Options
	log  *slog.Logger

	mu      sync.Mutex
	fs      billy.Filesystem
	cwd     string
	mtimes  map[string]time.Time
	last    time.Time
	volumes []string
	search  []fskit.Path

	lockMu   sync.Mutex
	slots    map[string]chan struct{}
	handles  map[int]string
	nextLock int

	watchMu sync.Mutex
	watches []*watchEntry
}

// New creates a new, empty in-memory filesystem
func New(opts ...fskit.Option) *Adapter {
	o := fskit.ApplyOptions(opts...)
	return &Adapter{
		opts:    o,
		log:     o.Logger.With("driver", "memory"),
		fs:      memfs.New(),
		cwd:     sep,
		mtimes:  make(map[string]time.Time),
		slots:   make(map[string]chan struct{}),
		handles: make(map[int]string),
	}
}

// AddVolume declares root as the mount point of a separate device. Renames
// between different volumes fail with a cross-device error, which lets tests
// drive the RenameOrCopy fallback.
func (a *Adapter) AddVolume(root fskit.Path) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.volumes = append(a.volumes, a.abs(root))
}

// SetSearchPath sets the directories FindFromPath searches, in order.
func (a *Adapter) SetSearchPath(dirs ...fskit.Path) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.search = append([]fskit.Path(nil), dirs...)
}

// ============================================================================
// Path resolution (a.mu held)
// ============================================================================

func isRooted(s string) bool {
	return s != "" && os.IsPathSeparator(s[0])
}

func split(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r < 0x80 && os.IsPathSeparator(byte(r))
	})
}

// abs makes p absolute against the working directory and cleans it.
func (a *Adapter) abs(p fskit.Path) string {
	s := string(p)
	s = s[len(filepath.VolumeName(s)):]
	if !isRooted(s) {
		return filepath.Join(a.cwd, s)
	}
	return filepath.Clean(s)
}

// resolve expands symlinks in every component of p. The last component is
// only expanded when followLast is set; otherwise it must merely have an
// existing directory as its parent.
func (a *Adapter) resolve(p fskit.Path, followLast bool) (string, error) {
	rest := split(a.abs(p))
	cur := sep
	links := 0
	for len(rest) > 0 {
		name := rest[0]
		rest = rest[1:]
		next := filepath.Join(cur, name)
		if len(rest) == 0 && !followLast {
			return next, nil
		}
		fi, err := a.fs.Lstat(next)
		if err != nil {
			return "", err
		}
		if fi.Mode()&fs.ModeSymlink == 0 {
			if len(rest) > 0 && !fi.IsDir() {
				return "", syscall.ENOTDIR
			}
			cur = next
			continue
		}
		if links++; links > maxSymlinks {
			return "", syscall.ELOOP
		}
		target, err := a.fs.Readlink(next)
		if err != nil {
			return "", err
		}
		if !isRooted(target) {
			target = filepath.Join(cur, target)
		}
		rest = append(split(target), rest...)
		cur = sep
	}
	return cur, nil
}

// target resolves a path about to be written: an existing link is followed
// to the file it names, a missing entry resolves to itself.
func (a *Adapter) target(p fskit.Path) (string, error) {
	rpath, err := a.resolve(p, true)
	if errors.Is(err, fs.ErrNotExist) {
		return a.resolve(p, false)
	}
	return rpath, err
}

func (a *Adapter) exists(rpath string) (fs.FileInfo, bool) {
	fi, err := a.fs.Lstat(rpath)
	return fi, err == nil
}

func (a *Adapter) volumeOf(rpath string) string {
	best := ""
	for _, v := range a.volumes {
		if (rpath == v || strings.HasPrefix(rpath, v+sep)) && len(v) > len(best) {
			best = v
		}
	}
	return best
}

// touch records a modification. memfs reports the current time as every
// entry's mod time, so the adapter keeps its own, strictly increasing.
func (a *Adapter) touch(rpath string) {
	now := time.Now()
	if !now.After(a.last) {
		now = a.last.Add(time.Nanosecond)
	}
	a.last = now
	a.mtimes[rpath] = now
}

func (a *Adapter) info(rpath string, fi fs.FileInfo) fs.FileInfo {
	return &fileInfo{FileInfo: fi, modTime: a.mtimes[rpath]}
}

type fileInfo struct {
	fs.FileInfo
	modTime time.Time
}

func (fi *fileInfo) ModTime() time.Time { return fi.modTime }

// ============================================================================
// Read / Write
// ============================================================================

func (a *Adapter) readFile(op string, path fskit.Path) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rpath, err := a.resolve(path, true)
	if err != nil {
		return nil, fskit.NewPathError(op, path, err)
	}
	if fi, ok := a.exists(rpath); ok && fi.IsDir() {
		return nil, fskit.NewPathError(op, path, syscall.EISDIR)
	}
	b, err := util.ReadFile(a.fs, rpath)
	if err != nil {
		return nil, fskit.NewPathError(op, path, err)
	}
	return b, nil
}

// ReadContents implements fskit.Reader
func (a *Adapter) ReadContents(path fskit.Path) (string, error) {
	b, err := a.readFile("read_contents", path)
	return string(b), err
}

// ReadLines implements fskit.Reader
func (a *Adapter) ReadLines(path fskit.Path) ([]string, error) {
	b, err := a.readFile("read_lines", path)
	if err != nil {
		return nil, err
	}
	return fskit.SplitLines(string(b)), nil
}

// writeFile creates or truncates path. Missing parents are an error, unlike
// memfs itself which creates them.
func (a *Adapter) writeFile(op string, path fskit.Path, data []byte, perm fs.FileMode) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rpath, err := a.target(path)
	if err != nil {
		return "", fskit.NewPathError(op, path, err)
	}
	if fi, ok := a.exists(rpath); ok && fi.IsDir() {
		return "", fskit.NewPathError(op, path, syscall.EISDIR)
	}
	if err := util.WriteFile(a.fs, rpath, data, perm); err != nil {
		return "", fskit.NewPathError(op, path, err)
	}
	a.touch(rpath)
	return rpath, nil
}

// WriteContents implements fskit.Writer
func (a *Adapter) WriteContents(path fskit.Path, data string) error {
	rpath, err := a.writeFile("write_contents", path, []byte(data), 0o666)
	if err != nil {
		return err
	}
	a.notify(rpath)
	return nil
}

// WriteLines implements fskit.Writer
func (a *Adapter) WriteLines(path fskit.Path, lines []string) error {
	rpath, err := a.writeFile("write_lines", path, []byte(fskit.JoinLines(lines)), 0o666)
	if err != nil {
		return err
	}
	a.notify(rpath)
	return nil
}

// ============================================================================
// Rename / Remove
// ============================================================================

// Rename implements fskit.Writer with POSIX rename(2) semantics: a file
// replaces a file, a directory may replace an empty directory.
func (a *Adapter) Rename(oldpath, newpath fskit.Path) error {
	from, to, err := a.rename(oldpath, newpath)
	if err != nil {
		return fskit.NewPathError2("rename", oldpath, newpath, err)
	}
	a.notify(from, to)
	return nil
}

func (a *Adapter) rename(oldpath, newpath fskit.Path) (string, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	from, err := a.resolve(oldpath, false)
	if err != nil {
		return "", "", err
	}
	to, err := a.resolve(newpath, false)
	if err != nil {
		return "", "", err
	}
	src, ok := a.exists(from)
	if !ok {
		return "", "", fs.ErrNotExist
	}
	if from == to {
		return from, to, nil
	}
	if a.volumeOf(from) != a.volumeOf(to) {
		return "", "", syscall.EXDEV
	}
	if src.IsDir() && strings.HasPrefix(to, from+sep) {
		return "", "", syscall.EINVAL
	}
	if dst, ok := a.exists(to); ok {
		switch {
		case src.IsDir() && !dst.IsDir():
			return "", "", syscall.ENOTDIR
		case !src.IsDir() && dst.IsDir():
			return "", "", syscall.EISDIR
		}
		if dst.IsDir() {
			children, err := a.fs.ReadDir(to)
			if err != nil {
				return "", "", err
			}
			if len(children) > 0 {
				return "", "", syscall.ENOTEMPTY
			}
		}
		if err := a.fs.Remove(to); err != nil {
			return "", "", err
		}
	}

	if err := a.move(from, to, src); err != nil {
		return "", "", err
	}
	for k, t := range a.mtimes {
		if k == from || strings.HasPrefix(k, from+sep) {
			delete(a.mtimes, k)
			a.mtimes[to+k[len(from):]] = t
		}
	}
	return from, to, nil
}

// move relocates one entry. memfs renames by string prefix, which also drags
// along siblings sharing the name as a prefix and loses nested directory
// listings, so only clash-free non-directories go through it.
func (a *Adapter) move(from, to string, fi fs.FileInfo) error {
	if !fi.IsDir() && !a.prefixClash(from) {
		return a.fs.Rename(from, to)
	}
	switch {
	case fi.Mode()&fs.ModeSymlink != 0:
		target, err := a.fs.Readlink(from)
		if err != nil {
			return err
		}
		if err := a.fs.Symlink(target, to); err != nil {
			return err
		}
	case fi.IsDir():
		if err := a.fs.MkdirAll(to, fi.Mode().Perm()); err != nil {
			return err
		}
		children, err := a.fs.ReadDir(from)
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := a.move(filepath.Join(from, c.Name()), filepath.Join(to, c.Name()), c); err != nil {
				return err
			}
		}
	default:
		b, err := util.ReadFile(a.fs, from)
		if err != nil {
			return err
		}
		if err := util.WriteFile(a.fs, to, b, fi.Mode().Perm()); err != nil {
			return err
		}
	}
	return a.fs.Remove(from)
}

func (a *Adapter) prefixClash(rpath string) bool {
	siblings, err := a.fs.ReadDir(filepath.Dir(rpath))
	if err != nil {
		return true
	}
	base := filepath.Base(rpath)
	for _, s := range siblings {
		if s.Name() != base && strings.HasPrefix(s.Name(), base) {
			return true
		}
	}
	return false
}

// RenameOrCopy implements fskit.Writer
func (a *Adapter) RenameOrCopy(oldpath, newpath fskit.Path, tempSuffix string) error {
	return fskit.RenameOrCopy(a, oldpath, newpath, tempSuffix, a.opts)
}

// Remove implements fskit.Writer
func (a *Adapter) Remove(path fskit.Path) (bool, error) {
	rpath, ok, err := a.remove(path)
	if err != nil {
		return false, fskit.NewPathError("remove", path, err)
	}
	if ok {
		a.notify(rpath)
	}
	return ok, nil
}

func (a *Adapter) remove(path fskit.Path) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rpath, err := a.resolve(path, false)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	fi, ok := a.exists(rpath)
	if !ok {
		return "", false, nil
	}
	if rpath == sep {
		return "", false, syscall.EBUSY
	}
	if fi.IsDir() {
		children, err := a.fs.ReadDir(rpath)
		if err != nil {
			return "", false, err
		}
		if len(children) > 0 {
			return "", false, syscall.ENOTEMPTY
		}
	}
	if err := a.fs.Remove(rpath); err != nil {
		return "", false, err
	}
	delete(a.mtimes, rpath)
	return rpath, true, nil
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

func (a *Adapter) lstat(path fskit.Path, followLast bool) (string, fs.FileInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rpath, err := a.resolve(path, followLast)
	if err != nil {
		return "", nil, err
	}
	fi, err := a.fs.Lstat(rpath)
	if err != nil {
		return "", nil, err
	}
	return rpath, a.info(rpath, fi), nil
}

// Status implements fskit.StatusReader
func (a *Adapter) Status(path fskit.Path) (fskit.FileStatus, error) {
	_, fi, err := a.lstat(path, true)
	if err != nil {
		return statusError("status", path, err)
	}
	return fskit.StatusFromFileInfo(fi), nil
}

// SymlinkStatus implements fskit.StatusReader
func (a *Adapter) SymlinkStatus(path fskit.Path) (fskit.FileStatus, error) {
	_, fi, err := a.lstat(path, false)
	if err != nil {
		return statusError("symlink_status", path, err)
	}
	return fskit.StatusFromFileInfo(fi), nil
}

func statusError(op string, path fskit.Path, err error) (fskit.FileStatus, error) {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return fskit.NotFoundStatus(), nil
	}
	return fskit.FileStatus{}, fskit.NewPathError(op, path, err)
}

// Stat implements fskit.FileInfoer
func (a *Adapter) Stat(path fskit.Path) (fs.FileInfo, error) {
	_, fi, err := a.lstat(path, true)
	if err != nil {
		return nil, fskit.NewPathError("stat", path, err)
	}
	return fi, nil
}

// Lstat implements fskit.FileInfoer
func (a *Adapter) Lstat(path fskit.Path) (fs.FileInfo, error) {
	_, fi, err := a.lstat(path, false)
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
	a.mu.Lock()
	defer a.mu.Unlock()

	rpath, err := a.resolve(path, true)
	if err != nil {
		return false, fskit.NewPathError("is_empty", path, err)
	}
	fi, err := a.fs.Lstat(rpath)
	if err != nil {
		return false, fskit.NewPathError("is_empty", path, err)
	}
	if !fi.IsDir() {
		return fi.Size() == 0, nil
	}
	children, err := a.fs.ReadDir(rpath)
	if err != nil {
		return false, fskit.NewPathError("is_empty", path, err)
	}
	return len(children) == 0, nil
}

// ============================================================================
// Create / Copy
// ============================================================================

// CreateDirectory implements fskit.Writer
func (a *Adapter) CreateDirectory(path fskit.Path) (bool, error) {
	a.mu.Lock()
	rpath, created, err := a.mkdir(path)
	a.mu.Unlock()
	if err != nil {
		return false, fskit.NewPathError("create_directory", path, err)
	}
	if created {
		a.notify(rpath)
	}
	return created, nil
}

// mkdir creates one directory whose parent must exist (a.mu held).
func (a *Adapter) mkdir(path fskit.Path) (string, bool, error) {
	rpath, err := a.resolve(path, false)
	if err != nil {
		return "", false, err
	}
	if _, ok := a.exists(rpath); ok {
		if dir, err := a.resolve(path, true); err == nil {
			if fi, ok := a.exists(dir); ok && fi.IsDir() {
				return rpath, false, nil
			}
		}
		return "", false, fs.ErrExist
	}
	if err := a.fs.MkdirAll(rpath, 0o777); err != nil {
		return "", false, err
	}
	a.touch(rpath)
	return rpath, true, nil
}

// CreateDirectories implements fskit.Writer
func (a *Adapter) CreateDirectories(path fskit.Path) (bool, error) {
	a.mu.Lock()
	parts := split(a.abs(path))
	var made []string
	var err error
	cur := fskit.Path(sep)
	for _, part := range parts {
		cur = fskit.Combine(cur, fskit.Path(part))
		var rpath string
		var created bool
		if rpath, created, err = a.mkdir(cur); err != nil {
			break
		}
		if created {
			made = append(made, rpath)
		}
	}
	a.mu.Unlock()

	if err != nil {
		return false, fskit.NewPathError("create_directories", path, err)
	}
	a.notify(made...)
	return len(made) > 0, nil
}

// Copy implements fskit.Writer
func (a *Adapter) Copy(oldpath, newpath fskit.Path, opts fskit.CopyOptions) error {
	return fskit.CopyTree(a, oldpath, newpath, opts)
}

// CopyFile implements fskit.Writer. The destination takes the source's
// permission bits, replacing any existing entry.
func (a *Adapter) CopyFile(oldpath, newpath fskit.Path, opts fskit.CopyOptions) (bool, error) {
	ok, err := fskit.CheckOverwrite(a, oldpath, newpath, opts)
	if err != nil || !ok {
		return false, err
	}
	rpath, err := a.copyFile(oldpath, newpath)
	if err != nil {
		return false, err
	}
	a.notify(rpath)
	return true, nil
}

func (a *Adapter) copyFile(oldpath, newpath fskit.Path) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	src, err := a.resolve(oldpath, true)
	if err != nil {
		return "", fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	fi, err := a.fs.Lstat(src)
	if err != nil {
		return "", fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	if fi.IsDir() {
		return "", &fskit.PathError{Op: "copy_file", Path: string(oldpath), Target: string(newpath), Kind: fskit.KindIsADirectory, Err: fskit.ErrIsDir}
	}
	b, err := util.ReadFile(a.fs, src)
	if err != nil {
		return "", fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	dst, err := a.target(newpath)
	if err != nil {
		return "", fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	if cur, ok := a.exists(dst); ok {
		if cur.IsDir() {
			return "", &fskit.PathError{Op: "copy_file", Path: string(oldpath), Target: string(newpath), Kind: fskit.KindIsADirectory, Err: fskit.ErrIsDir}
		}
		if err := a.fs.Remove(dst); err != nil {
			return "", fskit.NewPathError2("copy_file", oldpath, newpath, err)
		}
	}
	if err := util.WriteFile(a.fs, dst, b, fi.Mode().Perm()); err != nil {
		return "", fskit.NewPathError2("copy_file", oldpath, newpath, err)
	}
	a.touch(dst)
	return dst, nil
}

// CopySymlink implements fskit.Writer
func (a *Adapter) CopySymlink(oldpath, newpath fskit.Path) error {
	rpath, err := a.copySymlink(oldpath, newpath)
	if err != nil {
		return fskit.NewPathError2("copy_symlink", oldpath, newpath, err)
	}
	a.notify(rpath)
	return nil
}

func (a *Adapter) copySymlink(oldpath, newpath fskit.Path) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	src, err := a.resolve(oldpath, false)
	if err != nil {
		return "", err
	}
	target, err := a.fs.Readlink(src)
	if err != nil {
		return "", err
	}
	dst, err := a.resolve(newpath, false)
	if err != nil {
		return "", err
	}
	if err := a.fs.Symlink(target, dst); err != nil {
		return "", err
	}
	a.touch(dst)
	return dst, nil
}

// Symlink creates link pointing at target. target is stored as given; a
// relative target resolves against the link's directory.
func (a *Adapter) Symlink(target, link fskit.Path) error {
	a.mu.Lock()
	rpath, err := a.resolve(link, false)
	if err == nil {
		err = a.fs.Symlink(string(target), rpath)
	}
	if err == nil {
		a.touch(rpath)
	}
	a.mu.Unlock()

	if err != nil {
		return fskit.NewPathError2("symlink", target, link, err)
	}
	a.notify(rpath)
	return nil
}

// ============================================================================
// Enumeration
// ============================================================================

func (a *Adapter) readDir(op string, dir fskit.Path) ([]fs.FileInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rpath, err := a.resolve(dir, true)
	if err != nil {
		return nil, fskit.NewPathError(op, dir, err)
	}
	if fi, ok := a.exists(rpath); !ok || !fi.IsDir() {
		return nil, fskit.NewPathError(op, dir, syscall.ENOTDIR)
	}
	entries, err := a.fs.ReadDir(rpath)
	if err != nil {
		return nil, fskit.NewPathError(op, dir, err)
	}
	return entries, nil
}

// GetFilesNonRecursive implements fskit.Reader
func (a *Adapter) GetFilesNonRecursive(dir fskit.Path) ([]fskit.Path, error) {
	entries, err := a.readDir("get_files_non_recursive", dir)
	if err != nil {
		return nil, err
	}
	out := make([]fskit.Path, 0, len(entries))
	for _, e := range entries {
		out = append(out, fskit.Combine(dir, fskit.Path(e.Name())))
	}
	return out, nil
}

// GetFilesRecursive implements fskit.Reader. Symlinked directories are
// listed but not descended.
func (a *Adapter) GetFilesRecursive(dir fskit.Path) ([]fskit.Path, error) {
	var out []fskit.Path
	if err := a.walk(dir, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) walk(dir fskit.Path, out *[]fskit.Path) error {
	entries, err := a.readDir("get_files_recursive", dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := fskit.Combine(dir, fskit.Path(e.Name()))
		*out = append(*out, p)
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

// FindFromPath implements fskit.Reader over the directories given to
// SetSearchPath. Any regular file counts as executable.
func (a *Adapter) FindFromPath(name string) []fskit.Path {
	a.mu.Lock()
	dirs := a.search
	a.mu.Unlock()
	return fskit.SearchPath(a, dirs, []string{name}, nil)
}

// ============================================================================
// Path resolution
// ============================================================================

// Absolute implements fskit.Reader
func (a *Adapter) Absolute(path fskit.Path) (fskit.Path, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fskit.Path(a.abs(path)), nil
}

// Canonical implements fskit.Reader
func (a *Adapter) Canonical(path fskit.Path) (fskit.Path, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rpath, err := a.resolve(path, true)
	if err != nil {
		return "", fskit.NewPathError("canonical", path, err)
	}
	return fskit.Path(rpath), nil
}

// CurrentPath implements fskit.Reader
func (a *Adapter) CurrentPath() (fskit.Path, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fskit.Path(a.cwd), nil
}

// SetCurrentPath implements fskit.Writer. The working directory belongs to
// the adapter, not the process.
func (a *Adapter) SetCurrentPath(path fskit.Path) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	rpath, err := a.resolve(path, true)
	if err != nil {
		return fskit.NewPathError("current_path", path, err)
	}
	if fi, ok := a.exists(rpath); !ok || !fi.IsDir() {
		return fskit.NewPathError("current_path", path, syscall.ENOTDIR)
	}
	a.cwd = rpath
	return nil
}

// ============================================================================
// Optional Capability Interfaces
// ============================================================================

// Checksum implements fskit.Checksummer
func (a *Adapter) Checksum(path fskit.Path, algorithm fskit.ChecksumAlgorithm) (string, error) {
	b, err := a.readFile("checksum", path)
	if err != nil {
		return "", err
	}
	sum, err := fskit.CalculateChecksum(bytes.NewReader(b), algorithm)
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
