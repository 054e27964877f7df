package fskit_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/fskit"
	"github.com/gobeaver/fskit/driver/memory"
)

func newReadOnly(t *testing.T, opts ...fskit.ReadOnlyOption) (*fskit.ReadOnlyFileSystem, *memory.Adapter) {
	t.Helper()
	mem := memory.New()
	_, err := mem.CreateDirectories("/installed/zlib")
	require.NoError(t, err)
	require.NoError(t, mem.WriteContents("/installed/zlib/CONTROL", "Package: zlib"))
	return fskit.NewReadOnlyFileSystem(mem, opts...), mem
}

func TestReadOnlyFileSystem(t *testing.T) {
	ro, mem := newReadOnly(t)
	assert.True(t, ro.IsReadOnly())
	assert.Same(t, mem, ro.Unwrap())

	got, err := ro.ReadContents("/installed/zlib/CONTROL")
	require.NoError(t, err)
	assert.Equal(t, "Package: zlib", got)

	entries, err := ro.GetFilesRecursive("/installed")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	sum, err := ro.Checksum("/installed/zlib/CONTROL", fskit.ChecksumXXHash)
	require.NoError(t, err)
	assert.NotEmpty(t, sum)

	denied := map[string]func() error{
		"write_contents": func() error { return ro.WriteContents("/x", "") },
		"write_lines":    func() error { return ro.WriteLines("/x", nil) },
		"rename":         func() error { return ro.Rename("/installed/zlib", "/zlib") },
		"rename_or_copy": func() error { return ro.RenameOrCopy("/installed/zlib", "/zlib", "") },
		"remove": func() error {
			_, err := ro.Remove("/installed/zlib/CONTROL")
			return err
		},
		"remove_all": func() error {
			_, err := ro.RemoveAll("/installed")
			return err
		},
		"remove_all_inside": func() error {
			_, err := ro.RemoveAllInside("/installed")
			return err
		},
		"create_directory": func() error {
			_, err := ro.CreateDirectory("/new")
			return err
		},
		"create_directories": func() error {
			_, err := ro.CreateDirectories("/new/a")
			return err
		},
		"copy": func() error { return ro.Copy("/installed", "/copy", fskit.CopyOptions{Recursive: true}) },
		"copy_file": func() error {
			_, err := ro.CopyFile("/installed/zlib/CONTROL", "/CONTROL", fskit.CopyOptions{})
			return err
		},
		"copy_symlink": func() error { return ro.CopySymlink("/installed/zlib/CONTROL", "/link") },
		"take_exclusive_file_lock": func() error {
			_, err := ro.TakeExclusiveFileLock("/.lock")
			return err
		},
		"try_take_exclusive_file_lock": func() error {
			_, err := ro.TryTakeExclusiveFileLock("/.lock")
			return err
		},
	}
	for op, fn := range denied {
		err := fn()
		assert.True(t, fskit.IsReadOnlyError(err), "%s: got %v", op, err)
		assert.Equal(t, fskit.KindPermissionDenied, fskit.KindOf(err), op)

		var pe *fskit.PathError
		if assert.ErrorAs(t, err, &pe, op) {
			assert.Equal(t, op, pe.Op)
		}
	}

	entries, err = mem.GetFilesRecursive("/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []fskit.Path{"/installed", "/installed/zlib", "/installed/zlib/CONTROL"}, entries)
}

func TestReadOnlyAllowances(t *testing.T) {
	ro, mem := newReadOnly(t, fskit.WithAllowCreateDir(true), fskit.WithAllowLocks(true))

	created, err := ro.CreateDirectories("/buildtrees/zlib")
	require.NoError(t, err)
	assert.True(t, created)

	h, err := ro.TakeExclusiveFileLock("/.lock")
	require.NoError(t, err)
	require.NoError(t, ro.UnlockFileLock(h))

	assert.True(t, fskit.IsReadOnlyError(ro.WriteContents("/buildtrees/zlib/x", "")))

	ok, err := mem.IsDirectory("/buildtrees/zlib")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReadOnlyWriteAttemptHandler(t *testing.T) {
	var seen []string
	quota := errors.New("quota exceeded")
	ro, mem := newReadOnly(t, fskit.WithWriteAttemptHandler(func(op string, path fskit.Path) error {
		seen = append(seen, op+" "+string(path))
		if path == "/big" {
			return quota
		}
		return nil
	}))

	require.NoError(t, ro.WriteContents("/small", "ok"))
	err := ro.WriteContents("/big", "no")
	assert.ErrorIs(t, err, quota)
	assert.False(t, fskit.IsReadOnlyError(err))
	assert.True(t, fskit.IsPermission(err))

	assert.Equal(t, []string{"write_contents /small", "write_contents /big"}, seen)

	got, err := mem.ReadContents("/small")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestReadOnlyForwardsCapabilities(t *testing.T) {
	ro, mem := newReadOnly(t)

	fi, err := ro.Stat("/installed/zlib/CONTROL")
	require.NoError(t, err)
	assert.EqualValues(t, len("Package: zlib"), fi.Size())
	fi, err = ro.Lstat("/installed/zlib")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	token, err := ro.Watch(t.Context(), "/installed", "**/CONTROL")
	require.NoError(t, err)
	assert.False(t, token.HasChanged())
	require.NoError(t, mem.WriteContents("/installed/zlib/CONTROL", "Package: zlib\nVersion: 1.3"))
	assert.True(t, token.HasChanged())
}

func TestReadOnlyWithoutCapabilities(t *testing.T) {
	_, mem := newReadOnly(t)
	// Hide the optional interfaces the memory provider implements.
	ro := fskit.NewReadOnlyFileSystem(struct{ fskit.Filesystem }{mem})

	token, err := ro.Watch(t.Context(), "/installed", "")
	require.NoError(t, err)
	assert.Equal(t, fskit.NeverChangeToken{}, token)
	require.NoError(t, mem.WriteContents("/installed/zlib/CONTROL", "changed"))
	assert.False(t, token.HasChanged())

	_, err = ro.Stat("/installed/zlib/CONTROL")
	assert.ErrorIs(t, err, fskit.ErrNotSupported)
	_, err = ro.Lstat("/installed/zlib/CONTROL")
	assert.ErrorIs(t, err, fskit.ErrNotSupported)
}
