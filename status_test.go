package fskit

import (
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileStatusZeroValue(t *testing.T) {
	var st FileStatus
	assert.Equal(t, None, st.Type())
	assert.Equal(t, PermsUnknown, st.Permissions())
	assert.False(t, st.Exists())
}

func TestFileStatusPredicates(t *testing.T) {
	types := []FileType{None, NotFound, Regular, Directory, Symlink, DirectorySymlink, Block, Character, Fifo, Socket, Unknown}
	for _, typ := range types {
		st := NewFileStatus(typ, 0o644)
		t.Run(typ.String(), func(t *testing.T) {
			assert.Equal(t, typ, st.Type())
			assert.Equal(t, typ != None && typ != NotFound, st.Exists())
			assert.Equal(t, typ == Regular, st.IsRegularFile())
			assert.Equal(t, typ == Directory, st.IsDirectory())
			assert.Equal(t, typ == Symlink || typ == DirectorySymlink, st.IsSymlink())

			// at most one of the kind predicates holds
			n := 0
			for _, b := range []bool{st.IsRegularFile(), st.IsDirectory(), st.IsSymlink()} {
				if b {
					n++
				}
			}
			assert.LessOrEqual(t, n, 1)
		})
	}
}

func TestNotFoundStatus(t *testing.T) {
	st := NotFoundStatus()
	assert.Equal(t, NotFound, st.Type())
	assert.False(t, st.Exists())
	assert.NotEqual(t, FileStatus{}, st, "not found differs from undetermined")
}

func TestPermissions(t *testing.T) {
	assert.Equal(t, fs.FileMode(0o755), NewFileStatus(Directory, fs.ModeDir|0o755).Permissions())
	assert.Equal(t, PermsUnknown, NewFileStatus(Regular, PermsUnknown).Permissions())
	assert.Equal(t, "regular -rw-r--r--", NewFileStatus(Regular, 0o644).String())
}

func TestTypeFromMode(t *testing.T) {
	tests := map[fs.FileMode]FileType{
		0o644:                            Regular,
		fs.ModeDir | 0o755:               Directory,
		fs.ModeSymlink | 0o777:           Symlink,
		fs.ModeNamedPipe:                  Fifo,
		fs.ModeSocket:                     Socket,
		fs.ModeDevice:                     Block,
		fs.ModeDevice | fs.ModeCharDevice: Character,
		fs.ModeIrregular:                  Unknown,
	}
	for mode, want := range tests {
		assert.Equal(t, want, TypeFromMode(mode), "mode %v", mode)
	}
}

func TestStatusFromFileInfo(t *testing.T) {
	fsys := fstest.MapFS{
		"portfile.cmake": {Data: []byte("x"), Mode: 0o640, ModTime: time.Now()},
		"ports":          {Mode: fs.ModeDir | 0o750},
	}
	fi, err := fs.Stat(fsys, "portfile.cmake")
	assert.NoError(t, err)
	assert.Equal(t, NewFileStatus(Regular, 0o640), StatusFromFileInfo(fi))

	fi, err = fs.Stat(fsys, "ports")
	assert.NoError(t, err)
	assert.Equal(t, NewFileStatus(Directory, 0o750), StatusFromFileInfo(fi))
}
