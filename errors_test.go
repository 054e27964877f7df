package fskit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not exist", fs.ErrNotExist, KindNotFound},
		{"wrapped not exist", &fs.PathError{Op: "open", Path: "x", Err: syscall.ENOENT}, KindNotFound},
		{"permission", fs.ErrPermission, KindPermissionDenied},
		{"exist", &fs.PathError{Op: "mkdir", Path: "x", Err: syscall.EEXIST}, KindAlreadyExists},
		{"not a directory", syscall.ENOTDIR, KindNotADirectory},
		{"is a directory", syscall.EISDIR, KindIsADirectory},
		{"cross device", &os.LinkError{Op: "rename", Old: "a", New: "b", Err: syscall.EXDEV}, KindCrossDeviceLink},
		{"lock timeout", ErrLockTimeout, KindLockTimeout},
		{"invalid handle", ErrInvalidHandle, KindInvalidArgument},
		{"unknown", errors.New("disk on fire"), KindIO},
		{"path error keeps its kind", &PathError{Kind: KindLockTimeout, Err: errors.New("x")}, KindLockTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestNewPathError(t *testing.T) {
	assert.NoError(t, NewPathError("remove", "x", nil))

	err := NewPathError("read_contents", "ports/zlib/vcpkg.json", &fs.PathError{Op: "open", Path: "ports/zlib/vcpkg.json", Err: syscall.ENOENT})
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "read_contents", pe.Op)
	assert.Equal(t, KindNotFound, pe.Kind)
	assert.Equal(t, syscall.ENOENT, pe.Err, "the os shell is stripped")
	assert.True(t, IsNotExist(err))
	assert.True(t, errors.Is(err, syscall.ENOENT))
	assert.Equal(t, "read_contents ports/zlib/vcpkg.json: "+syscall.ENOENT.Error(), err.Error())

	again := NewPathError("outer", "other", err)
	assert.Same(t, pe, again.(*PathError), "an existing PathError passes through")
}

func TestNewPathError2(t *testing.T) {
	err := NewPathError2("rename", "a", "b", &os.LinkError{Op: "rename", Old: "a", New: "b", Err: syscall.EXDEV})
	assert.True(t, IsCrossDevice(err))
	assert.ErrorIs(t, err, ErrCrossDevice)
	assert.Equal(t, "rename a -> b: "+syscall.EXDEV.Error(), err.Error())
}

func TestPathErrorIs(t *testing.T) {
	err := &PathError{Op: "copy", Path: "a", Kind: KindAlreadyExists, Err: errors.New("occupied")}
	assert.True(t, IsExist(err))
	assert.False(t, IsNotExist(err))
	assert.ErrorIs(t, fmt.Errorf("install: %w", err), ErrExist)

	timeout := &PathError{Op: "try_take_exclusive_file_lock", Kind: KindLockTimeout, Err: ErrLockTimeout}
	assert.True(t, IsLockTimeout(timeout))
	assert.Equal(t, "lock timeout", KindLockTimeout.String())
}
