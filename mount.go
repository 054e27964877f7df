package fskit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrMountNotFound is returned when no mount point covers a path
	ErrMountNotFound = errors.New("no mount point found for path")
	// ErrMountExists is returned when trying to mount at an existing path
	ErrMountExists = errors.New("mount point already exists")
	// ErrEmptyMountPath is returned when the mount path is empty
	ErrEmptyMountPath = errors.New("mount path cannot be empty")
	// ErrNilDriver is returned when trying to mount a nil filesystem
	ErrNilDriver = errors.New("filesystem cannot be nil")
	// ErrMountPoint is returned when an operation would remove or move a
	// mount point itself
	ErrMountPoint = errors.New("path is a mount point")
)

// MountFS presents several providers under one slash-separated virtual
// namespace. Each mount maps a virtual directory onto a directory of its
// provider; the longest matching mount path wins, so mounts can nest.
// Directories above a mount point exist virtually and list the mounts below
// them.
//
// Every mount behaves as its own device: Rename between mounts fails with
// ErrCrossDevice and RenameOrCopy falls back to copying.
//
//	mounts := fskit.NewMountFS()
//	mounts.Mount("/downloads", local.New(), "/var/cache/vcpkg/downloads")
//	mounts.Mount("/buildtrees", memory.New(), "/")
//	err := mounts.RenameOrCopy("/buildtrees/zlib.zip", "/downloads/zlib.zip", ".tmp")
type MountFS struct {
	opts Options

	mu     sync.RWMutex
	mounts map[string]mount
	// sorted mount paths for longest-prefix matching
	sortedPaths []string
	cwd         string
	searchPath  []Path

	lockMu   sync.Mutex
	locks    map[int]mountLock
	nextLock int
}

type mount struct {
	fsys Filesystem
	root Path
}

// mountLock is a lock held on behalf of a MountFS caller. Handles from
// different providers can collide, so callers see MountFS's own numbering.
type mountLock struct {
	fsys Filesystem
	h    SystemHandle
}

// resolved is a virtual path routed to the provider serving it.
type resolved struct {
	mount
	mountPath string
	virt      string
	real      Path
}

var (
	_ Filesystem  = (*MountFS)(nil)
	_ Checksummer = (*MountFS)(nil)
	_ Watcher     = (*MountFS)(nil)
	_ FileInfoer  = (*MountFS)(nil)
)

// NewMountFS creates an empty mount table. The current directory starts at
// "/".
func NewMountFS(opts ...Option) *MountFS {
	return &MountFS{
		opts:     ApplyOptions(opts...),
		mounts:   make(map[string]mount),
		cwd:      "/",
		locks:    make(map[int]mountLock),
		nextLock: 1,
	}
}

// Mount attaches root of fsys at the virtual mountPath.
//
//	mounts.Mount("/installed", local.New(), "/opt/vcpkg/installed")
//	mounts.Mount("/installed/x64-linux", memory.New(), "/") // nested mounts supported
func (m *MountFS) Mount(mountPath string, fsys Filesystem, root Path) error {
	if fsys == nil {
		return ErrNilDriver
	}
	mountPath = normalizeMountPath(mountPath)
	if mountPath == "" {
		return ErrEmptyMountPath
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.mounts[mountPath]; exists {
		return fmt.Errorf("%w: %s", ErrMountExists, mountPath)
	}
	m.mounts[mountPath] = mount{fsys: fsys, root: root}
	m.updateSortedPaths()
	return nil
}

// Unmount detaches the filesystem at mountPath. Locks taken through the
// mount stay valid until released.
func (m *MountFS) Unmount(mountPath string) error {
	mountPath = normalizeMountPath(mountPath)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.mounts[mountPath]; !exists {
		return fmt.Errorf("%w: %s", ErrMountNotFound, mountPath)
	}
	delete(m.mounts, mountPath)
	m.updateSortedPaths()
	return nil
}

// MountPaths returns all mount paths, longest first.
func (m *MountFS) MountPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, len(m.sortedPaths))
	copy(result, m.sortedPaths)
	return result
}

// SetSearchPath sets the virtual directories FindFromPath searches, in order.
func (m *MountFS) SetSearchPath(dirs ...Path) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchPath = append([]Path(nil), dirs...)
}

// updateSortedPaths must be called with the lock held.
func (m *MountFS) updateSortedPaths() {
	paths := make([]string, 0, len(m.mounts))
	for p := range m.mounts {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) > len(paths[j])
		}
		return paths[i] < paths[j]
	})
	m.sortedPaths = paths
}

// normalizeMountPath ensures the path starts with "/" and has no trailing slash.
func normalizeMountPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// ============================================================================
// Resolution
// ============================================================================

// virtual makes p an absolute, clean virtual path.
func (m *MountFS) virtual(op string, p Path) (string, error) {
	s := strings.ReplaceAll(string(p), `\`, "/")
	if s == "" {
		return "", &PathError{Op: op, Path: string(p), Kind: KindInvalidArgument, Err: ErrInvalidArgument}
	}
	if !strings.HasPrefix(s, "/") {
		m.mu.RLock()
		s = path.Join(m.cwd, s)
		m.mu.RUnlock()
	}
	return path.Clean(s), nil
}

// lookup finds the mount serving virt by longest prefix.
func (m *MountFS) lookup(virt string) (resolved, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, mp := range m.sortedPaths {
		if mp != "/" && virt != mp && !strings.HasPrefix(virt, mp+"/") {
			continue
		}
		mt := m.mounts[mp]
		r := resolved{mount: mt, mountPath: mp, virt: virt, real: mt.root}
		if rel := strings.TrimPrefix(strings.TrimPrefix(virt, mp), "/"); rel != "" {
			r.real = mt.root.Join(strings.Split(rel, "/")...)
		}
		return r, true
	}
	return resolved{virt: virt}, false
}

// route resolves p and fails with a not-found error when no mount covers it.
func (m *MountFS) route(op string, p Path) (resolved, error) {
	virt, err := m.virtual(op, p)
	if err != nil {
		return resolved{}, err
	}
	r, ok := m.lookup(virt)
	if !ok {
		return r, &PathError{Op: op, Path: virt, Kind: KindNotFound, Err: ErrMountNotFound}
	}
	return r, nil
}

// childMounts returns the names of the entries below virt that exist only
// because a mount point lies beneath them.
func (m *MountFS) childMounts(virt string) []string {
	prefix := strings.TrimSuffix(virt, "/") + "/"

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, mp := range m.sortedPaths {
		if mp == "/" || !strings.HasPrefix(mp, prefix) {
			continue
		}
		name, _, _ := strings.Cut(mp[len(prefix):], "/")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// isVirtualDir reports whether virt is a mount point or lies above one.
func (m *MountFS) isVirtualDir(virt string) bool {
	if len(m.childMounts(virt)) > 0 {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.mounts[virt]
	return ok
}

// toVirtual maps a provider path under r's mount root back into the
// virtual namespace.
func (r resolved) toVirtual(real Path) (Path, bool) {
	root := strings.TrimSuffix(r.root.Generic(), "/")
	p := real.Generic()
	if p == root || p == root+"/" {
		return Path(r.mountPath), true
	}
	if !strings.HasPrefix(p, root+"/") {
		return "", false
	}
	return Path(path.Join(r.mountPath, p[len(root)+1:])), true
}

func (r resolved) toVirtualAll(real []Path) []Path {
	out := make([]Path, 0, len(real))
	for _, p := range real {
		if v, ok := r.toVirtual(p); ok {
			out = append(out, v)
		}
	}
	return out
}

func (m *MountFS) mountPointError(op, virt string) error {
	return &PathError{Op: op, Path: virt, Kind: KindInvalidArgument, Err: ErrMountPoint}
}

// ============================================================================
// Reader
// ============================================================================

var virtualDirStatus = NewFileStatus(Directory, 0o555)

func (m *MountFS) status(op string, p Path, follow bool) (FileStatus, error) {
	virt, err := m.virtual(op, p)
	if err != nil {
		return FileStatus{}, err
	}
	if r, ok := m.lookup(virt); ok {
		var st FileStatus
		if follow {
			st, err = r.fsys.Status(r.real)
		} else {
			st, err = r.fsys.SymlinkStatus(r.real)
		}
		if err != nil || st.Exists() || !m.isVirtualDir(virt) {
			return st, err
		}
	} else if !m.isVirtualDir(virt) {
		return NotFoundStatus(), nil
	}
	return virtualDirStatus, nil
}

// Status implements Reader
func (m *MountFS) Status(p Path) (FileStatus, error) {
	return m.status("status", p, true)
}

// SymlinkStatus implements Reader
func (m *MountFS) SymlinkStatus(p Path) (FileStatus, error) {
	return m.status("symlink_status", p, false)
}

// Stat implements FileInfoer for providers that do.
func (m *MountFS) Stat(p Path) (fs.FileInfo, error) {
	return m.fileInfo("stat", p, FileInfoer.Stat)
}

// Lstat implements FileInfoer for providers that do.
func (m *MountFS) Lstat(p Path) (fs.FileInfo, error) {
	return m.fileInfo("lstat", p, FileInfoer.Lstat)
}

func (m *MountFS) fileInfo(op string, p Path, stat func(FileInfoer, Path) (fs.FileInfo, error)) (fs.FileInfo, error) {
	r, err := m.route(op, p)
	if err != nil {
		return nil, err
	}
	fi, ok := r.fsys.(FileInfoer)
	if !ok {
		return nil, &PathError{Op: op, Path: r.virt, Kind: KindIO, Err: ErrNotSupported}
	}
	return stat(fi, r.real)
}

// ReadContents implements Reader
func (m *MountFS) ReadContents(p Path) (string, error) {
	r, err := m.route("read_contents", p)
	if err != nil {
		return "", err
	}
	return r.fsys.ReadContents(r.real)
}

// ReadLines implements Reader
func (m *MountFS) ReadLines(p Path) ([]string, error) {
	r, err := m.route("read_lines", p)
	if err != nil {
		return nil, err
	}
	return r.fsys.ReadLines(r.real)
}

// Exists implements Reader
func (m *MountFS) Exists(p Path) (bool, error) {
	st, err := m.Status(p)
	return st.Exists(), err
}

// IsDirectory implements Reader
func (m *MountFS) IsDirectory(p Path) (bool, error) {
	st, err := m.Status(p)
	return st.IsDirectory(), err
}

// IsRegularFile implements Reader
func (m *MountFS) IsRegularFile(p Path) (bool, error) {
	st, err := m.Status(p)
	return st.IsRegularFile(), err
}

// IsEmpty implements Reader. A directory holding a mount point is not empty.
func (m *MountFS) IsEmpty(p Path) (bool, error) {
	virt, err := m.virtual("is_empty", p)
	if err != nil {
		return false, err
	}
	if len(m.childMounts(virt)) > 0 {
		return false, nil
	}
	r, err := m.route("is_empty", Path(virt))
	if err != nil {
		return false, err
	}
	return r.fsys.IsEmpty(r.real)
}

// GetFilesNonRecursive implements Reader. Mount points below dir are listed
// alongside the provider's own entries.
func (m *MountFS) GetFilesNonRecursive(dir Path) ([]Path, error) {
	virt, err := m.virtual("get_files_non_recursive", dir)
	if err != nil {
		return nil, err
	}
	children := m.childMounts(virt)

	var out []Path
	r, ok := m.lookup(virt)
	switch {
	case ok:
		entries, err := r.fsys.GetFilesNonRecursive(r.real)
		if err != nil && !(IsNotExist(err) && len(children) > 0) {
			return nil, err
		}
		out = r.toVirtualAll(entries)
	case len(children) == 0:
		return nil, &PathError{Op: "get_files_non_recursive", Path: virt, Kind: KindNotFound, Err: ErrMountNotFound}
	}

	for _, name := range children {
		p := Path(path.Join(virt, name))
		if !containsPath(out, p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// GetFilesRecursive implements Reader. The walk crosses into nested mounts
// but, like every provider, does not descend symlinked directories.
func (m *MountFS) GetFilesRecursive(dir Path) ([]Path, error) {
	var out []Path
	var walk func(Path) error
	walk = func(d Path) error {
		entries, err := m.GetFilesNonRecursive(d)
		if err != nil {
			return err
		}
		for _, e := range entries {
			out = append(out, e)
			st, err := m.SymlinkStatus(e)
			if err != nil {
				return err
			}
			if st.IsDirectory() {
				if err := walk(e); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(dir); err != nil {
		return nil, err
	}
	return out, nil
}

func containsPath(paths []Path, p Path) bool {
	for _, q := range paths {
		if q == p {
			return true
		}
	}
	return false
}

// FindFileRecursivelyUp implements Reader. The walk continues past mount
// boundaries up to the virtual root.
func (m *MountFS) FindFileRecursivelyUp(start Path, filename string) (Path, error) {
	virt, err := m.virtual("find_file_recursively_up", start)
	if err != nil {
		return "", err
	}
	return FindFileRecursivelyUp(m, Path(virt), filename)
}

// Absolute implements Reader
func (m *MountFS) Absolute(p Path) (Path, error) {
	virt, err := m.virtual("absolute", p)
	return Path(virt), err
}

// Canonical implements Reader. Symlinks are resolved by the provider
// serving p; a result outside that mount's root cannot be expressed as a
// virtual path.
func (m *MountFS) Canonical(p Path) (Path, error) {
	virt, err := m.virtual("canonical", p)
	if err != nil {
		return "", err
	}
	r, ok := m.lookup(virt)
	if !ok {
		if m.isVirtualDir(virt) {
			return Path(virt), nil
		}
		return "", &PathError{Op: "canonical", Path: virt, Kind: KindNotFound, Err: ErrMountNotFound}
	}
	c, err := r.fsys.Canonical(r.real)
	if err != nil {
		if IsNotExist(err) && m.isVirtualDir(virt) {
			return Path(virt), nil
		}
		return "", err
	}
	v, ok := r.toVirtual(c)
	if !ok {
		return "", &PathError{Op: "canonical", Path: virt, Target: c.Generic(), Kind: KindCrossDeviceLink, Err: ErrCrossDevice}
	}
	return v, nil
}

// CurrentPath implements Reader
func (m *MountFS) CurrentPath() (Path, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Path(m.cwd), nil
}

// FindFromPath implements Reader
func (m *MountFS) FindFromPath(name string) []Path {
	m.mu.RLock()
	dirs := m.searchPath
	m.mu.RUnlock()
	return SearchPath(m, dirs, []string{name}, nil)
}

// ============================================================================
// Writer
// ============================================================================

// WriteContents implements Writer
func (m *MountFS) WriteContents(p Path, data string) error {
	r, err := m.route("write_contents", p)
	if err != nil {
		return err
	}
	return r.fsys.WriteContents(r.real, data)
}

// WriteLines implements Writer
func (m *MountFS) WriteLines(p Path, lines []string) error {
	r, err := m.route("write_lines", p)
	if err != nil {
		return err
	}
	return r.fsys.WriteLines(r.real, lines)
}

// Rename implements Writer. Mount points cannot be renamed, and renames
// between mounts fail with ErrCrossDevice.
func (m *MountFS) Rename(oldpath, newpath Path) error {
	from, err := m.route("rename", oldpath)
	if err != nil {
		return err
	}
	to, err := m.route("rename", newpath)
	if err != nil {
		return err
	}
	for _, virt := range []string{from.virt, to.virt} {
		if m.isVirtualDir(virt) {
			return m.mountPointError("rename", virt)
		}
	}
	if from.mountPath != to.mountPath {
		return &PathError{Op: "rename", Path: from.virt, Target: to.virt, Kind: KindCrossDeviceLink, Err: ErrCrossDevice}
	}
	return from.fsys.Rename(from.real, to.real)
}

// RenameOrCopy implements Writer
func (m *MountFS) RenameOrCopy(oldpath, newpath Path, tempSuffix string) error {
	return RenameOrCopy(m, oldpath, newpath, tempSuffix, m.opts)
}

// Remove implements Writer. Mount points and the directories above them
// cannot be removed.
func (m *MountFS) Remove(p Path) (bool, error) {
	r, err := m.route("remove", p)
	if err != nil {
		if !IsNotExist(err) {
			return false, err
		}
		if m.isVirtualDir(r.virt) {
			return false, m.mountPointError("remove", r.virt)
		}
		return false, nil
	}
	if m.isVirtualDir(r.virt) {
		return false, m.mountPointError("remove", r.virt)
	}
	return r.fsys.Remove(r.real)
}

// RemoveAll implements Writer
func (m *MountFS) RemoveAll(p Path) (Path, error) {
	return RemoveAll(m, p)
}

// RemoveAllInside implements Writer
func (m *MountFS) RemoveAllInside(p Path) (Path, error) {
	return RemoveAllInside(m, p)
}

// CreateDirectory implements Writer
func (m *MountFS) CreateDirectory(p Path) (bool, error) {
	return m.createDirectory("create_directory", p, Filesystem.CreateDirectory)
}

// CreateDirectories implements Writer
func (m *MountFS) CreateDirectories(p Path) (bool, error) {
	return m.createDirectory("create_directories", p, Filesystem.CreateDirectories)
}

func (m *MountFS) createDirectory(op string, p Path, create func(Filesystem, Path) (bool, error)) (bool, error) {
	virt, err := m.virtual(op, p)
	if err != nil {
		return false, err
	}
	r, ok := m.lookup(virt)
	if !ok {
		if m.isVirtualDir(virt) {
			return false, nil
		}
		return false, &PathError{Op: op, Path: virt, Kind: KindNotFound, Err: ErrMountNotFound}
	}
	return create(r.fsys, r.real)
}

// Copy implements Writer
func (m *MountFS) Copy(oldpath, newpath Path, opts CopyOptions) error {
	return CopyTree(m, oldpath, newpath, opts)
}

// CopyFile implements Writer. Within one mount the provider copies; across
// mounts the contents are read from one and written to the other.
func (m *MountFS) CopyFile(oldpath, newpath Path, opts CopyOptions) (bool, error) {
	from, err := m.route("copy_file", oldpath)
	if err != nil {
		return false, err
	}
	to, err := m.route("copy_file", newpath)
	if err != nil {
		return false, err
	}
	if from.mountPath == to.mountPath {
		return from.fsys.CopyFile(from.real, to.real, opts)
	}

	ok, err := CheckOverwrite(m, oldpath, newpath, opts)
	if err != nil || !ok {
		return false, err
	}
	data, err := from.fsys.ReadContents(from.real)
	if err != nil {
		return false, err
	}
	if err := to.fsys.WriteContents(to.real, data); err != nil {
		return false, err
	}
	return true, nil
}

// CopySymlink implements Writer. Links cannot be copied between mounts.
func (m *MountFS) CopySymlink(oldpath, newpath Path) error {
	from, err := m.route("copy_symlink", oldpath)
	if err != nil {
		return err
	}
	to, err := m.route("copy_symlink", newpath)
	if err != nil {
		return err
	}
	if from.mountPath != to.mountPath {
		return &PathError{Op: "copy_symlink", Path: from.virt, Target: to.virt, Kind: KindCrossDeviceLink, Err: ErrCrossDevice}
	}
	return from.fsys.CopySymlink(from.real, to.real)
}

// Symlink creates link pointing at target for providers that support it.
// An absolute target is a virtual path and must lie in link's mount;
// a relative target is stored as given.
func (m *MountFS) Symlink(target, link Path) error {
	r, err := m.route("symlink", link)
	if err != nil {
		return err
	}
	s, ok := r.fsys.(interface{ Symlink(target, link Path) error })
	if !ok {
		return &PathError{Op: "symlink", Path: r.virt, Kind: KindIO, Err: ErrNotSupported}
	}
	if strings.HasPrefix(strings.ReplaceAll(string(target), `\`, "/"), "/") {
		t, err := m.route("symlink", target)
		if err != nil {
			return err
		}
		if t.mountPath != r.mountPath {
			return &PathError{Op: "symlink", Path: r.virt, Target: t.virt, Kind: KindCrossDeviceLink, Err: ErrCrossDevice}
		}
		target = t.real
	}
	return s.Symlink(target, r.real)
}

// SetCurrentPath implements Writer. The current directory is virtual and
// never changes the process working directory.
func (m *MountFS) SetCurrentPath(p Path) error {
	virt, err := m.virtual("set_current_path", p)
	if err != nil {
		return err
	}
	st, err := m.Status(Path(virt))
	switch {
	case err != nil:
		return err
	case !st.Exists():
		return &PathError{Op: "set_current_path", Path: virt, Kind: KindNotFound, Err: ErrNotExist}
	case !st.IsDirectory():
		return &PathError{Op: "set_current_path", Path: virt, Kind: KindNotADirectory, Err: ErrNotDir}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cwd = virt
	return nil
}

// ============================================================================
// Locker
// ============================================================================

// TakeExclusiveFileLock implements Locker
func (m *MountFS) TakeExclusiveFileLock(p Path) (SystemHandle, error) {
	return m.takeLock("take_exclusive_file_lock", p, Filesystem.TakeExclusiveFileLock)
}

// TryTakeExclusiveFileLock implements Locker
func (m *MountFS) TryTakeExclusiveFileLock(p Path) (SystemHandle, error) {
	return m.takeLock("try_take_exclusive_file_lock", p, Filesystem.TryTakeExclusiveFileLock)
}

func (m *MountFS) takeLock(op string, p Path, take func(Filesystem, Path) (SystemHandle, error)) (SystemHandle, error) {
	r, err := m.route(op, p)
	if err != nil {
		return InvalidHandle, err
	}
	h, err := take(r.fsys, r.real)
	if err != nil {
		return InvalidHandle, err
	}

	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	id := m.nextLock
	m.nextLock++
	m.locks[id] = mountLock{fsys: r.fsys, h: h}
	return SystemHandle{Raw: id}, nil
}

// UnlockFileLock implements Locker
func (m *MountFS) UnlockFileLock(h SystemHandle) error {
	m.lockMu.Lock()
	lk, ok := m.locks[h.Raw]
	delete(m.locks, h.Raw)
	m.lockMu.Unlock()

	if !ok {
		return &PathError{Op: "unlock_file_lock", Path: h.String(), Kind: KindInvalidArgument, Err: ErrInvalidHandle}
	}
	return lk.fsys.UnlockFileLock(lk.h)
}

// ============================================================================
// Optional capabilities
// ============================================================================

// Checksum implements Checksummer
func (m *MountFS) Checksum(p Path, algorithm ChecksumAlgorithm) (string, error) {
	r, err := m.route("checksum", p)
	if err != nil {
		return "", err
	}
	return Checksum(r.fsys, r.real, algorithm)
}

// Watch implements Watcher for mounts whose provider can watch.
func (m *MountFS) Watch(ctx context.Context, dir Path, pattern string) (ChangeToken, error) {
	r, err := m.route("watch", dir)
	if err != nil {
		return nil, err
	}
	w, ok := r.fsys.(Watcher)
	if !ok {
		return nil, &PathError{Op: "watch", Path: r.virt, Kind: KindIO, Err: ErrNotSupported}
	}
	return w.Watch(ctx, r.real, pattern)
}
