package fskit_test

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/fskit"
	"github.com/gobeaver/fskit/driver/memory"
	"github.com/gobeaver/fskit/fskittest"
)

func newMemFS(t *testing.T) (*memory.Adapter, fskit.Path) {
	t.Helper()
	a := memory.New()
	root := fskit.Path("/installed")
	_, err := a.CreateDirectories(root)
	require.NoError(t, err)
	return a, root
}

func mustWrite(t *testing.T, fsys fskit.Filesystem, p fskit.Path, data string) {
	t.Helper()
	require.NoError(t, fsys.WriteContents(p, data))
}

func mustExist(t *testing.T, fsys fskit.Filesystem, p fskit.Path) bool {
	t.Helper()
	ok, err := fsys.Exists(p)
	require.NoError(t, err)
	return ok
}

func TestRemoveAllReportsFailurePoint(t *testing.T) {
	mem, root := newMemFS(t)
	a := root.Join("a")
	_, err := mem.CreateDirectories(a.Join("c", "d"))
	require.NoError(t, err)
	mustWrite(t, mem, a.Join("b"), "b")
	mustWrite(t, mem, a.Join("c", "d", "x"), "x")

	fsys := fskittest.NewFaulty(mem)
	denied := errors.New("access denied")
	fsys.BeforeRemove = func(p fskit.Path) error {
		if p == a.Join("c", "d") {
			return denied
		}
		return nil
	}

	point, err := fsys.RemoveAll(a)
	require.Error(t, err)
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, a.Join("c", "d"), point)

	assert.False(t, mustExist(t, mem, a.Join("b")), "siblings of the failure are still removed")
	assert.False(t, mustExist(t, mem, a.Join("c", "d", "x")), "children of the failure are removed first")
	assert.True(t, mustExist(t, mem, a.Join("c", "d")))
	assert.True(t, mustExist(t, mem, a), "ancestors of the failure remain")
}

func TestRemoveAllInsideKeepsRoot(t *testing.T) {
	mem, root := newMemFS(t)
	mustWrite(t, mem, root.Join("one"), "1")
	_, err := mem.CreateDirectories(root.Join("two", "three"))
	require.NoError(t, err)

	fsys := fskittest.NewFaulty(mem)
	point, err := fsys.RemoveAllInside(root)
	require.NoError(t, err)
	assert.Empty(t, point)
	assert.True(t, mustExist(t, mem, root))

	entries, err := mem.GetFilesNonRecursive(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotContains(t, fsys.Calls(), "remove "+root.Generic())
}

func crossDevice(first fskit.Path) func(oldpath, newpath fskit.Path) error {
	return func(oldpath, _ fskit.Path) error {
		if oldpath == first {
			return syscall.EXDEV
		}
		return nil
	}
}

func TestRenameOrCopyFallback(t *testing.T) {
	mem, root := newMemFS(t)
	src, dst := root.Join("buildtrees.zip"), root.Join("archives", "buildtrees.zip")
	tmp := dst + ".tmp"
	_, err := mem.CreateDirectory(root.Join("archives"))
	require.NoError(t, err)
	mustWrite(t, mem, src, "payload")
	mustWrite(t, mem, tmp, "stale leftover")

	fsys := fskittest.NewFaulty(mem)
	fsys.BeforeRename = crossDevice(src)

	require.NoError(t, fsys.RenameOrCopy(src, dst, ".tmp"))

	got, err := mem.ReadContents(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", got)
	assert.False(t, mustExist(t, mem, src))
	assert.False(t, mustExist(t, mem, tmp))

	calls := fsys.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "remove "+src.Generic(), calls[len(calls)-1], "source is removed last")
	assert.Contains(t, calls, "rename "+tmp.Generic()+" -> "+dst.Generic())
}

func TestRenameOrCopyCopyFailure(t *testing.T) {
	mem, root := newMemFS(t)
	src, dst := root.Join("src"), root.Join("dst")
	mustWrite(t, mem, src, "payload")
	mustWrite(t, mem, dst, "previous")

	fsys := fskittest.NewFaulty(mem)
	fsys.BeforeRename = crossDevice(src)
	full := errors.New("no space left")
	fsys.AfterCopyFile = func(_, _ fskit.Path) error { return full }

	err := fsys.RenameOrCopy(src, dst, "")
	assert.ErrorIs(t, err, full)

	got, err := mem.ReadContents(dst)
	require.NoError(t, err)
	assert.Equal(t, "previous", got, "destination is untouched")
	assert.True(t, mustExist(t, mem, src), "source survives a failed copy")
	assert.False(t, mustExist(t, mem, dst+fskit.DefaultTempSuffix), "temporary is discarded")
}

func TestRenameOrCopyDetectsCorruptCopy(t *testing.T) {
	mem, root := newMemFS(t)
	src, dst := root.Join("src"), root.Join("dst")
	mustWrite(t, mem, src, "payload")

	fsys := fskittest.NewFaulty(mem)
	fsys.BeforeRename = crossDevice(src)
	fsys.AfterCopyFile = func(_, newpath fskit.Path) error {
		return mem.WriteContents(newpath, "payloaD")
	}

	err := fsys.RenameOrCopy(src, dst, "")
	require.Error(t, err)
	assert.Equal(t, fskit.KindIO, fskit.KindOf(err))
	assert.False(t, mustExist(t, mem, dst))
	assert.False(t, mustExist(t, mem, dst+fskit.DefaultTempSuffix))
	assert.True(t, mustExist(t, mem, src))

	fsys.Opts.VerifyCopies = false
	require.NoError(t, fsys.RenameOrCopy(src, dst, ""))
}

func TestRenameOrCopyOtherErrorsDoNotFallBack(t *testing.T) {
	mem, root := newMemFS(t)
	fsys := fskittest.NewFaulty(mem)
	mustWrite(t, mem, root.Join("a"), "a")
	fsys.BeforeRename = func(_, _ fskit.Path) error { return syscall.EACCES }

	err := fsys.RenameOrCopy(root.Join("a"), root.Join("b"), "")
	assert.True(t, fskit.IsPermission(err), "got %v", err)
	assert.Equal(t, []string{"rename " + root.Join("a").Generic() + " -> " + root.Join("b").Generic()}, fsys.Calls())
}

func TestRenameOrCopyMissingSource(t *testing.T) {
	mem, root := newMemFS(t)
	mem.AddVolume(root.Join("other"))
	_, err := mem.CreateDirectory(root.Join("other"))
	require.NoError(t, err)

	err = mem.RenameOrCopy(root.Join("missing"), root.Join("other", "x"), "")
	assert.True(t, fskit.IsNotExist(err), "got %v", err)
}

func TestFindFileRecursivelyUp(t *testing.T) {
	mem, _ := newMemFS(t)
	_, err := mem.CreateDirectories("/a/b/c")
	require.NoError(t, err)
	mustWrite(t, mem, "/a/manifest", "{}")

	got, err := fskit.FindFileRecursivelyUp(mem, "/a/b/c", "manifest")
	require.NoError(t, err)
	assert.Equal(t, fskit.Path("/a/manifest"), got)

	mustWrite(t, mem, "/a/b/c/manifest", "{}")
	got, err = fskit.FindFileRecursivelyUp(mem, "/a/b/c", "manifest")
	require.NoError(t, err)
	assert.Equal(t, fskit.Path("/a/b/c/manifest"), got, "start itself is checked first")

	got, err = fskit.FindFileRecursivelyUp(mem, "/a/b/c", "absent")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = fskit.FindFileRecursivelyUp(mem, "", "manifest")
	assert.ErrorIs(t, err, fskit.ErrInvalidArgument)
}

func TestCheckOverwrite(t *testing.T) {
	mem, root := newMemFS(t)
	src, dst := root.Join("src"), root.Join("dst")
	mustWrite(t, mem, src, "x")

	ok, err := fskit.CheckOverwrite(mem, src, dst, fskit.CopyOptions{})
	require.NoError(t, err)
	assert.True(t, ok, "missing destination is always written")

	mustWrite(t, mem, dst, "y")
	for policy, want := range map[fskit.OverwritePolicy]bool{
		fskit.OverwriteSkip:     false,
		fskit.OverwriteExisting: true,
		fskit.OverwriteUpdate:   false,
	} {
		ok, err := fskit.CheckOverwrite(mem, src, dst, fskit.CopyOptions{Overwrite: policy})
		require.NoError(t, err, policy.String())
		assert.Equal(t, want, ok, policy.String())
	}

	_, err = fskit.CheckOverwrite(mem, src, dst, fskit.CopyOptions{Overwrite: fskit.OverwriteNone})
	assert.True(t, fskit.IsExist(err))
}

func TestSearchPath(t *testing.T) {
	mem, root := newMemFS(t)
	for _, d := range []string{"bin", "usr"} {
		_, err := mem.CreateDirectory(root.Join(d))
		require.NoError(t, err)
	}
	mustWrite(t, mem, root.Join("bin", "ninja"), "")
	mustWrite(t, mem, root.Join("usr", "ninja"), "")
	mustWrite(t, mem, root.Join("usr", "ninja.exe"), "")

	dirs := []fskit.Path{root.Join("bin"), "", root.Join("usr"), root.Join("bin")}
	got := fskit.SearchPath(mem, dirs, []string{"ninja", "ninja.exe"}, nil)
	assert.Equal(t, []fskit.Path{
		root.Join("bin", "ninja"),
		root.Join("usr", "ninja"),
		root.Join("usr", "ninja.exe"),
	}, got)

	none := fskit.SearchPath(mem, dirs, []string{"ninja"}, func(fskit.FileStatus) bool { return false })
	assert.Empty(t, none)
}

func TestSplitAndJoinLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"a", []string{"a"}},
		{"a\n", []string{"a"}},
		{"a\r\nb", []string{"a", "b"}},
		{"a\n\nb\n", []string{"a", "", "b"}},
		{"a\r\r\n", []string{"a\r"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fskit.SplitLines(tt.in), "SplitLines(%q)", tt.in)
	}
	assert.Equal(t, "a\n\nb\n", fskit.JoinLines([]string{"a", "", "b"}))
	assert.Equal(t, "", fskit.JoinLines(nil))
}
