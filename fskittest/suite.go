// Package fskittest provides a conformance test suite for fskit.Filesystem
// providers, plus a fault-injecting wrapper for testing code that must
// survive partial failures.
//
// A provider package runs the suite against fresh instances:
//
//	func TestConformance(t *testing.T) {
//	    fskittest.Run(t, func(t *testing.T) (fskit.Filesystem, fskit.Path) {
//	        return local.New(), fskit.Path(t.TempDir())
//	    })
//	}
//
// The factory returns the filesystem and an existing, empty directory the
// tests may use freely.
package fskittest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/fskit"
)

// Factory returns a filesystem and an empty scratch directory on it.
type Factory func(t *testing.T) (fskit.Filesystem, fskit.Path)

// Symlinker is implemented by providers that can create symbolic links.
// Symlink tests are skipped for providers without it.
type Symlinker interface {
	Symlink(target, link fskit.Path) error
}

// Config adjusts the suite to a provider.
type Config struct {
	// SkipTests lists subtests to skip, e.g. "Locks/Contention".
	SkipTests []string
}

// Run runs every conformance test.
func Run(t *testing.T, newFS Factory) {
	RunWithConfig(t, newFS, Config{})
}

// RunWithConfig runs every conformance test not listed in cfg.SkipTests.
func RunWithConfig(t *testing.T, newFS Factory, cfg Config) {
	groups := []struct {
		name  string
		tests map[string]func(*testing.T, fskit.Filesystem, fskit.Path)
	}{
		{"ReadWrite", readWriteTests},
		{"Status", statusTests},
		{"Remove", removeTests},
		{"Rename", renameTests},
		{"Create", createTests},
		{"Copy", copyTests},
		{"Enumerate", enumerateTests},
		{"Paths", pathTests},
		{"Locks", lockTests},
		{"Symlinks", symlinkTests},
		{"Capabilities", capabilityTests},
	}
	for _, g := range groups {
		t.Run(g.name, func(t *testing.T) {
			names := make([]string, 0, len(g.tests))
			for name := range g.tests {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				t.Run(name, func(t *testing.T) {
					if slices.Contains(cfg.SkipTests, g.name+"/"+name) {
						t.Skip("skipped by config")
					}
					fsys, root := newFS(t)
					g.tests[name](t, fsys, root)
				})
			}
		})
	}
}

// ============================================================================
// Helpers
// ============================================================================

func write(t *testing.T, fsys fskit.Filesystem, p fskit.Path, data string) {
	t.Helper()
	require.NoError(t, fsys.WriteContents(p, data), "WriteContents(%s)", p)
}

func mkdirs(t *testing.T, fsys fskit.Filesystem, p fskit.Path) {
	t.Helper()
	_, err := fsys.CreateDirectories(p)
	require.NoError(t, err, "CreateDirectories(%s)", p)
}

func status(t *testing.T, fsys fskit.Filesystem, p fskit.Path) fskit.FileStatus {
	t.Helper()
	st, err := fsys.Status(p)
	require.NoError(t, err, "Status(%s)", p)
	return st
}

func requireKind(t *testing.T, err error, kind fskit.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, fskit.KindOf(err), "error %v", err)
}

// symlink creates link or skips the test when the provider or the platform
// cannot.
func symlink(t *testing.T, fsys fskit.Filesystem, target, link fskit.Path) {
	t.Helper()
	s, ok := fsys.(Symlinker)
	if !ok {
		t.Skip("provider cannot create symlinks")
	}
	err := s.Symlink(target, link)
	if fskit.IsPermission(err) {
		t.Skipf("symlinks not permitted: %v", err)
	}
	require.NoError(t, err)
}

// ============================================================================
// Read / Write
// ============================================================================

var readWriteTests = map[string]func(*testing.T, fskit.Filesystem, fskit.Path){
	"RoundTrip": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("a.txt")
		write(t, fsys, p, "hello\nworld")

		got, err := fsys.ReadContents(p)
		require.NoError(t, err)
		assert.Equal(t, "hello\nworld", got)

		lines, err := fsys.ReadLines(p)
		require.NoError(t, err)
		assert.Equal(t, []string{"hello", "world"}, lines)
	},
	"WriteLines": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("lines.txt")
		require.NoError(t, fsys.WriteLines(p, []string{"a", "b"}))

		got, err := fsys.ReadContents(p)
		require.NoError(t, err)
		assert.Equal(t, "a\nb\n", got)

		lines, err := fsys.ReadLines(p)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, lines)
	},
	"CRLF": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("crlf.txt")
		write(t, fsys, p, "a\r\nb\r\n")
		lines, err := fsys.ReadLines(p)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, lines)
	},
	"Empty": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("empty")
		write(t, fsys, p, "")
		lines, err := fsys.ReadLines(p)
		require.NoError(t, err)
		assert.Empty(t, lines)
	},
	"Overwrite": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("a.txt")
		write(t, fsys, p, "first, and longer")
		write(t, fsys, p, "second")
		got, err := fsys.ReadContents(p)
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	},
	"MissingFile": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		_, err := fsys.ReadContents(root.Join("missing"))
		requireKind(t, err, fskit.KindNotFound)
		assert.True(t, fskit.IsNotExist(err))

		var pe *fskit.PathError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "read_contents", pe.Op)
	},
	"MissingParent": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		err := fsys.WriteContents(root.Join("nope", "a.txt"), "x")
		assert.True(t, fskit.IsNotExist(err), "got %v", err)
	},
	"ReadDirectory": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		_, err := fsys.ReadContents(root)
		require.Error(t, err)
	},
}

// ============================================================================
// Status
// ============================================================================

var statusTests = map[string]func(*testing.T, fskit.Filesystem, fskit.Path){
	"Regular": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("f")
		write(t, fsys, p, "x")

		st := status(t, fsys, p)
		assert.Equal(t, fskit.Regular, st.Type())
		assert.True(t, st.Exists())
		assert.True(t, st.IsRegularFile())
		assert.False(t, st.IsDirectory())
		assert.False(t, st.IsSymlink())

		ok, err := fsys.IsRegularFile(p)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = fsys.IsDirectory(p)
		require.NoError(t, err)
		assert.False(t, ok)
	},
	"Directory": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		st := status(t, fsys, root)
		assert.Equal(t, fskit.Directory, st.Type())
		assert.True(t, st.IsDirectory())
		assert.NotEqual(t, fskit.PermsUnknown, st.Permissions())
	},
	"NotFound": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("missing")
		st := status(t, fsys, p)
		assert.Equal(t, fskit.NotFound, st.Type())
		assert.False(t, st.Exists())

		st, err := fsys.SymlinkStatus(p)
		require.NoError(t, err)
		assert.Equal(t, fskit.NotFound, st.Type())

		ok, err := fsys.Exists(p)
		require.NoError(t, err)
		assert.False(t, ok)
	},
	"ThroughFile": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("f")
		write(t, fsys, p, "x")
		st := status(t, fsys, p.Join("child"))
		assert.Equal(t, fskit.NotFound, st.Type())
	},
	"IsEmpty": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		empty, full, dir := root.Join("empty"), root.Join("full"), root.Join("dir")
		write(t, fsys, empty, "")
		write(t, fsys, full, "x")
		mkdirs(t, fsys, dir)

		for p, want := range map[fskit.Path]bool{empty: true, full: false, dir: true} {
			got, err := fsys.IsEmpty(p)
			require.NoError(t, err)
			assert.Equal(t, want, got, "IsEmpty(%s)", p)
		}

		write(t, fsys, dir.Join("child"), "")
		got, err := fsys.IsEmpty(dir)
		require.NoError(t, err)
		assert.False(t, got)

		_, err = fsys.IsEmpty(root.Join("missing"))
		assert.True(t, fskit.IsNotExist(err))
	},
}

// ============================================================================
// Remove
// ============================================================================

func buildTree(t *testing.T, fsys fskit.Filesystem, top fskit.Path) {
	t.Helper()
	mkdirs(t, fsys, top.Join("b", "d"))
	write(t, fsys, top.Join("b", "c.txt"), "c")
	write(t, fsys, top.Join("b", "d", "e.txt"), "e")
	write(t, fsys, top.Join("f.txt"), "f")
}

var removeTests = map[string]func(*testing.T, fskit.Filesystem, fskit.Path){
	"File": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("f")
		write(t, fsys, p, "x")

		ok, err := fsys.Remove(p)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = fsys.Remove(p)
		require.NoError(t, err)
		assert.False(t, ok, "second remove reports nothing removed")
	},
	"EmptyDirectory": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("d")
		mkdirs(t, fsys, p)
		ok, err := fsys.Remove(p)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, status(t, fsys, p).Exists())
	},
	"NonEmptyDirectory": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("d")
		mkdirs(t, fsys, p)
		write(t, fsys, p.Join("child"), "x")

		_, err := fsys.Remove(p)
		require.Error(t, err)
		assert.True(t, status(t, fsys, p.Join("child")).Exists())
	},
	"RemoveAll": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		top := root.Join("a")
		buildTree(t, fsys, top)

		failed, err := fsys.RemoveAll(top)
		require.NoError(t, err)
		assert.Empty(t, failed)
		assert.False(t, status(t, fsys, top).Exists())
		assert.True(t, status(t, fsys, root).Exists())
	},
	"RemoveAllMissing": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		failed, err := fsys.RemoveAll(root.Join("missing"))
		require.NoError(t, err)
		assert.Empty(t, failed)
	},
	"RemoveAllFile": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("f")
		write(t, fsys, p, "x")
		_, err := fsys.RemoveAll(p)
		require.NoError(t, err)
		assert.False(t, status(t, fsys, p).Exists())
	},
	"RemoveAllInside": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		top := root.Join("a")
		buildTree(t, fsys, top)

		failed, err := fsys.RemoveAllInside(top)
		require.NoError(t, err)
		assert.Empty(t, failed)
		assert.True(t, status(t, fsys, top).IsDirectory())
		empty, err := fsys.IsEmpty(top)
		require.NoError(t, err)
		assert.True(t, empty)
	},
}

// ============================================================================
// Rename
// ============================================================================

var renameTests = map[string]func(*testing.T, fskit.Filesystem, fskit.Path){
	"File": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		from, to := root.Join("from"), root.Join("to")
		write(t, fsys, from, "x")

		require.NoError(t, fsys.Rename(from, to))
		assert.False(t, status(t, fsys, from).Exists())
		got, err := fsys.ReadContents(to)
		require.NoError(t, err)
		assert.Equal(t, "x", got)
	},
	"ReplacesFile": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		from, to := root.Join("from"), root.Join("to")
		write(t, fsys, from, "new")
		write(t, fsys, to, "old")

		require.NoError(t, fsys.Rename(from, to))
		got, err := fsys.ReadContents(to)
		require.NoError(t, err)
		assert.Equal(t, "new", got)
	},
	"Directory": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		from, to := root.Join("a"), root.Join("moved")
		buildTree(t, fsys, from)

		require.NoError(t, fsys.Rename(from, to))
		assert.False(t, status(t, fsys, from).Exists())
		got, err := fsys.ReadContents(to.Join("b", "d", "e.txt"))
		require.NoError(t, err)
		assert.Equal(t, "e", got)

		names, err := fsys.GetFilesNonRecursive(to.Join("b"))
		require.NoError(t, err)
		assert.ElementsMatch(t, []fskit.Path{to.Join("b", "c.txt"), to.Join("b", "d")}, names)
	},
	"SiblingWithSharedPrefix": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		write(t, fsys, root.Join("pkg"), "pkg")
		mkdirs(t, fsys, root.Join("pkg-extra"))
		write(t, fsys, root.Join("pkg-extra", "keep"), "keep")

		require.NoError(t, fsys.Rename(root.Join("pkg"), root.Join("moved")))
		got, err := fsys.ReadContents(root.Join("pkg-extra", "keep"))
		require.NoError(t, err)
		assert.Equal(t, "keep", got)
	},
	"Missing": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		err := fsys.Rename(root.Join("missing"), root.Join("to"))
		requireKind(t, err, fskit.KindNotFound)

		var pe *fskit.PathError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, string(root.Join("to")), pe.Target)
	},
	"RenameOrCopySameDevice": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		from, to := root.Join("from"), root.Join("to")
		write(t, fsys, from, "x")

		require.NoError(t, fsys.RenameOrCopy(from, to, fskit.DefaultTempSuffix))
		assert.False(t, status(t, fsys, from).Exists())
		assert.False(t, status(t, fsys, to+fskit.DefaultTempSuffix).Exists())
		got, err := fsys.ReadContents(to)
		require.NoError(t, err)
		assert.Equal(t, "x", got)
	},
}

// ============================================================================
// Create
// ============================================================================

var createTests = map[string]func(*testing.T, fskit.Filesystem, fskit.Path){
	"Directory": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("d")
		created, err := fsys.CreateDirectory(p)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = fsys.CreateDirectory(p)
		require.NoError(t, err)
		assert.False(t, created, "existing directory is not an error")
	},
	"DirectoryMissingParent": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		_, err := fsys.CreateDirectory(root.Join("x", "y"))
		assert.True(t, fskit.IsNotExist(err), "got %v", err)
		assert.False(t, status(t, fsys, root.Join("x")).Exists())
	},
	"DirectoryOverFile": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("f")
		write(t, fsys, p, "x")
		_, err := fsys.CreateDirectory(p)
		requireKind(t, err, fskit.KindAlreadyExists)
	},
	"Directories": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("a", "b", "c")
		created, err := fsys.CreateDirectories(p)
		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, status(t, fsys, p).IsDirectory())

		created, err = fsys.CreateDirectories(p)
		require.NoError(t, err)
		assert.False(t, created)
	},
	"DirectoriesThroughFile": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		write(t, fsys, root.Join("f"), "x")
		_, err := fsys.CreateDirectories(root.Join("f", "sub"))
		require.Error(t, err)
	},
}

// ============================================================================
// Copy
// ============================================================================

var copyTests = map[string]func(*testing.T, fskit.Filesystem, fskit.Path){
	"File": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		from, to := root.Join("from"), root.Join("to")
		write(t, fsys, from, "x")

		copied, err := fsys.CopyFile(from, to, fskit.CopyOptions{})
		require.NoError(t, err)
		assert.True(t, copied)
		got, err := fsys.ReadContents(to)
		require.NoError(t, err)
		assert.Equal(t, "x", got)
		assert.True(t, status(t, fsys, from).Exists())
	},
	"OverwritePolicies": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		from, to := root.Join("from"), root.Join("to")
		write(t, fsys, from, "new")
		write(t, fsys, to, "old")

		_, err := fsys.CopyFile(from, to, fskit.CopyOptions{Overwrite: fskit.OverwriteNone})
		requireKind(t, err, fskit.KindAlreadyExists)

		copied, err := fsys.CopyFile(from, to, fskit.CopyOptions{Overwrite: fskit.OverwriteSkip})
		require.NoError(t, err)
		assert.False(t, copied)
		got, _ := fsys.ReadContents(to)
		assert.Equal(t, "old", got)

		copied, err = fsys.CopyFile(from, to, fskit.CopyOptions{Overwrite: fskit.OverwriteExisting})
		require.NoError(t, err)
		assert.True(t, copied)
		got, _ = fsys.ReadContents(to)
		assert.Equal(t, "new", got)
	},
	"UpdateSkipsOlderSource": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		from, to := root.Join("from"), root.Join("to")
		write(t, fsys, from, "older")
		write(t, fsys, to, "newer")

		copied, err := fsys.CopyFile(from, to, fskit.CopyOptions{Overwrite: fskit.OverwriteUpdate})
		require.NoError(t, err)
		assert.False(t, copied)
		got, _ := fsys.ReadContents(to)
		assert.Equal(t, "newer", got)
	},
	"OntoDirectory": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		write(t, fsys, root.Join("f"), "x")
		mkdirs(t, fsys, root.Join("d"))
		_, err := fsys.CopyFile(root.Join("f"), root.Join("d"), fskit.CopyOptions{Overwrite: fskit.OverwriteExisting})
		requireKind(t, err, fskit.KindIsADirectory)
	},
	"TreeRecursive": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		from, to := root.Join("a"), root.Join("copy")
		buildTree(t, fsys, from)

		require.NoError(t, fsys.Copy(from, to, fskit.CopyOptions{Recursive: true}))
		got, err := fsys.ReadContents(to.Join("b", "d", "e.txt"))
		require.NoError(t, err)
		assert.Equal(t, "e", got)
		assert.True(t, status(t, fsys, from.Join("b", "d", "e.txt")).Exists())
	},
	"TreeShallow": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		from, to := root.Join("a"), root.Join("copy")
		buildTree(t, fsys, from)

		require.NoError(t, fsys.Copy(from, to, fskit.CopyOptions{}))
		assert.True(t, status(t, fsys, to.Join("f.txt")).IsRegularFile())
		assert.True(t, status(t, fsys, to.Join("b")).IsDirectory())
		assert.False(t, status(t, fsys, to.Join("b", "c.txt")).Exists())
		empty, err := fsys.IsEmpty(to.Join("b"))
		require.NoError(t, err)
		assert.True(t, empty, "subdirectories are created empty")
	},
	"DirectoriesOnly": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		from, to := root.Join("a"), root.Join("copy")
		buildTree(t, fsys, from)

		require.NoError(t, fsys.Copy(from, to, fskit.CopyOptions{Recursive: true, DirectoriesOnly: true}))
		assert.True(t, status(t, fsys, to.Join("b", "d")).IsDirectory())
		assert.False(t, status(t, fsys, to.Join("f.txt")).Exists())
	},
}

// ============================================================================
// Enumerate
// ============================================================================

var enumerateTests = map[string]func(*testing.T, fskit.Filesystem, fskit.Path){
	"NonRecursive": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		top := root.Join("a")
		buildTree(t, fsys, top)

		got, err := fsys.GetFilesNonRecursive(top)
		require.NoError(t, err)
		assert.ElementsMatch(t, []fskit.Path{top.Join("b"), top.Join("f.txt")}, got)
	},
	"Recursive": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		top := root.Join("a")
		buildTree(t, fsys, top)

		got, err := fsys.GetFilesRecursive(top)
		require.NoError(t, err)
		assert.ElementsMatch(t, []fskit.Path{
			top.Join("b"),
			top.Join("b", "c.txt"),
			top.Join("b", "d"),
			top.Join("b", "d", "e.txt"),
			top.Join("f.txt"),
		}, got)
	},
	"NotADirectory": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("f")
		write(t, fsys, p, "x")
		_, err := fsys.GetFilesNonRecursive(p)
		require.Error(t, err)
	},
	"Missing": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		_, err := fsys.GetFilesRecursive(root.Join("missing"))
		assert.True(t, fskit.IsNotExist(err), "got %v", err)
	},
	"FindFileRecursivelyUp": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		const marker = "fskit-conformance-manifest.json"
		mkdirs(t, fsys, root.Join("a", "b", "c"))
		write(t, fsys, root.Join("a", marker), "{}")

		got, err := fsys.FindFileRecursivelyUp(root.Join("a", "b", "c"), marker)
		require.NoError(t, err)
		assert.Equal(t, root.Join("a", marker), got)

		got, err = fsys.FindFileRecursivelyUp(root.Join("a", "b", "c"), "fskit-conformance-absent")
		require.NoError(t, err)
		assert.Empty(t, got)
	},
}

// ============================================================================
// Paths
// ============================================================================

var pathTests = map[string]func(*testing.T, fskit.Filesystem, fskit.Path){
	"CurrentPath": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		prev, err := fsys.CurrentPath()
		require.NoError(t, err)
		t.Cleanup(func() { _ = fsys.SetCurrentPath(prev) })

		require.NoError(t, fsys.SetCurrentPath(root))
		cur, err := fsys.CurrentPath()
		require.NoError(t, err)
		want, err := fsys.Canonical(root)
		require.NoError(t, err)
		got, err := fsys.Canonical(cur)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		write(t, fsys, "rel.txt", "x")
		abs, err := fsys.Absolute("rel.txt")
		require.NoError(t, err)
		assert.True(t, abs.IsAbs())
		assert.True(t, status(t, fsys, abs).IsRegularFile())
	},
	"SetCurrentPathMissing": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		err := fsys.SetCurrentPath(root.Join("missing"))
		assert.True(t, fskit.IsNotExist(err), "got %v", err)
	},
	"CanonicalMissing": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		_, err := fsys.Canonical(root.Join("missing"))
		assert.True(t, fskit.IsNotExist(err), "got %v", err)
	},
	"CanonicalDots": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		mkdirs(t, fsys, root.Join("a", "b"))
		want, err := fsys.Canonical(root.Join("a"))
		require.NoError(t, err)
		got, err := fsys.Canonical(root.Join("a", "b", ".."))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	},
}

// ============================================================================
// Locks
// ============================================================================

var lockTests = map[string]func(*testing.T, fskit.Filesystem, fskit.Path){
	"TakeAndRelease": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join(".lock")
		h, err := fsys.TakeExclusiveFileLock(p)
		require.NoError(t, err)
		assert.True(t, h.IsValid())
		assert.True(t, status(t, fsys, p).Exists(), "lock file is created")

		require.NoError(t, fsys.UnlockFileLock(h))
		err = fsys.UnlockFileLock(h)
		assert.ErrorIs(t, err, fskit.ErrInvalidHandle)
	},
	"InvalidHandle": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		err := fsys.UnlockFileLock(fskit.InvalidHandle)
		assert.ErrorIs(t, err, fskit.ErrInvalidHandle)
	},
	"Contention": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join(".lock")
		h, err := fsys.TakeExclusiveFileLock(p)
		require.NoError(t, err)

		start := time.Now()
		h2, err := fsys.TryTakeExclusiveFileLock(p)
		assert.True(t, fskit.IsLockTimeout(err), "got %v", err)
		assert.False(t, h2.IsValid())
		assert.Less(t, time.Since(start), 10*time.Second)

		require.NoError(t, fsys.UnlockFileLock(h))
		h2, err = fsys.TryTakeExclusiveFileLock(p)
		require.NoError(t, err)
		require.NoError(t, fsys.UnlockFileLock(h2))
	},
	"Scoped": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join(".lock")
		boom := errors.New("boom")
		err := fskit.WithFileLock(fsys, p, func() error { return boom })
		assert.ErrorIs(t, err, boom)

		h, err := fsys.TryTakeExclusiveFileLock(p)
		require.NoError(t, err, "scoped lock was released")
		require.NoError(t, fsys.UnlockFileLock(h))
	},
}

// ============================================================================
// Symlinks
// ============================================================================

var symlinkTests = map[string]func(*testing.T, fskit.Filesystem, fskit.Path){
	"Status": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		target, link := root.Join("target"), root.Join("link")
		write(t, fsys, target, "x")
		symlink(t, fsys, target, link)

		assert.True(t, status(t, fsys, link).IsRegularFile())
		st, err := fsys.SymlinkStatus(link)
		require.NoError(t, err)
		assert.True(t, st.IsSymlink())

		got, err := fsys.ReadContents(link)
		require.NoError(t, err)
		assert.Equal(t, "x", got)
	},
	"Dangling": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		link := root.Join("link")
		symlink(t, fsys, root.Join("missing"), link)

		assert.False(t, status(t, fsys, link).Exists())
		st, err := fsys.SymlinkStatus(link)
		require.NoError(t, err)
		assert.True(t, st.IsSymlink())

		ok, err := fsys.Remove(link)
		require.NoError(t, err)
		assert.True(t, ok)
	},
	"RemoveAllDoesNotFollow": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		outside := root.Join("outside")
		mkdirs(t, fsys, outside)
		write(t, fsys, outside.Join("keep"), "keep")
		mkdirs(t, fsys, root.Join("tree"))
		symlink(t, fsys, outside, root.Join("tree", "link"))

		_, err := fsys.RemoveAll(root.Join("tree"))
		require.NoError(t, err)
		assert.False(t, status(t, fsys, root.Join("tree")).Exists())
		assert.True(t, status(t, fsys, outside.Join("keep")).Exists())
	},
	"CopySymlink": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		target, link, dup := root.Join("target"), root.Join("link"), root.Join("dup")
		write(t, fsys, target, "x")
		symlink(t, fsys, target, link)

		require.NoError(t, fsys.CopySymlink(link, dup))
		st, err := fsys.SymlinkStatus(dup)
		require.NoError(t, err)
		assert.True(t, st.IsSymlink())
		got, err := fsys.ReadContents(dup)
		require.NoError(t, err)
		assert.Equal(t, "x", got)
	},
	"CopyTreeSymlinkPolicies": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		src := root.Join("src")
		mkdirs(t, fsys, src)
		write(t, fsys, root.Join("target"), "x")
		symlink(t, fsys, root.Join("target"), src.Join("link"))

		require.NoError(t, fsys.Copy(src, root.Join("kept"), fskit.CopyOptions{Recursive: true, CopySymlinks: true}))
		st, err := fsys.SymlinkStatus(root.Join("kept", "link"))
		require.NoError(t, err)
		assert.True(t, st.IsSymlink())

		require.NoError(t, fsys.Copy(src, root.Join("followed"), fskit.CopyOptions{Recursive: true}))
		st, err = fsys.SymlinkStatus(root.Join("followed", "link"))
		require.NoError(t, err)
		assert.True(t, st.IsRegularFile())

		require.NoError(t, fsys.Copy(src, root.Join("skipped"), fskit.CopyOptions{Recursive: true, SkipSymlinks: true}))
		assert.False(t, status(t, fsys, root.Join("skipped", "link")).Exists())
	},
	"Canonical": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		mkdirs(t, fsys, root.Join("real"))
		write(t, fsys, root.Join("real", "f"), "x")
		symlink(t, fsys, root.Join("real"), root.Join("alias"))

		want, err := fsys.Canonical(root.Join("real", "f"))
		require.NoError(t, err)
		got, err := fsys.Canonical(root.Join("alias", "f"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	},
}

// ============================================================================
// Optional capabilities
// ============================================================================

var capabilityTests = map[string]func(*testing.T, fskit.Filesystem, fskit.Path){
	"Checksum": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		p := root.Join("f")
		write(t, fsys, p, "hello")

		sum, err := fskit.Checksum(fsys, p, fskit.ChecksumSHA256)
		require.NoError(t, err)
		assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum)

		ok, err := fskit.VerifyChecksum(fsys, p, sum, fskit.ChecksumSHA256)
		require.NoError(t, err)
		assert.True(t, ok)
	},
	"Watch": func(t *testing.T, fsys fskit.Filesystem, root fskit.Path) {
		w, ok := fsys.(fskit.Watcher)
		if !ok {
			t.Skip("provider cannot watch")
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		token, err := w.Watch(ctx, root, "*.json")
		require.NoError(t, err)
		assert.False(t, token.HasChanged())

		write(t, fsys, root.Join("ignored.txt"), "x")
		write(t, fsys, root.Join("vcpkg.json"), "{}")
		assert.Eventually(t, token.HasChanged, 5*time.Second, 10*time.Millisecond)
	},
}
