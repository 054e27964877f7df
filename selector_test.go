package fskit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/fskit"
	"github.com/gobeaver/fskit/driver/memory"
)

func TestGlobMatchString(t *testing.T) {
	tests := []struct {
		pattern string
		rel     string
		want    bool
	}{
		{"*.json", "vcpkg.json", true},
		{"*.json", "ports/zlib/vcpkg.json", true},
		{"*.json", "vcpkg.json.bak", false},
		{"ports/*/portfile.*", "ports/zlib/portfile.cmake", true},
		{"ports/*/portfile.*", "ports/zlib/sub/portfile.cmake", false},
		{"ports/**/*.patch", "ports/zlib/fixes/a.patch", true},
		{"**/CMakeLists.txt", "src/lib/CMakeLists.txt", true},
		{"{README,LICENSE}*", "LICENSE.txt", true},
		{"[a-c]?.h", "b1.h", true},
		{"[a-c]?.h", "d1.h", false},
	}
	for _, tt := range tests {
		p, err := fskit.Glob(tt.pattern)
		require.NoError(t, err, tt.pattern)
		assert.Equal(t, tt.want, p.MatchString(tt.rel), "%s ~ %s", tt.pattern, tt.rel)
		assert.Equal(t, tt.pattern, p.String())
	}
}

func TestGlobInvalid(t *testing.T) {
	_, err := fskit.Glob("[unterminated")
	require.Error(t, err)
	assert.Equal(t, fskit.KindInvalidArgument, fskit.KindOf(err))
	assert.Panics(t, func() { fskit.MustGlob("[unterminated") })
}

func TestSelectorComposition(t *testing.T) {
	file := fskit.NewFileStatus(fskit.Regular, 0o644)
	dir := fskit.NewFileStatus(fskit.Directory, 0o755)
	cmake := fskit.MustGlob("*.cmake")
	vcpkg := fskit.MustGlob("vcpkg-*")

	sel := fskit.And(cmake, fskit.Not(vcpkg), fskit.FilesOnly())
	assert.True(t, sel.Match("share/zlib/zlib-config.cmake", file))
	assert.False(t, sel.Match("share/zlib/vcpkg-cmake-wrapper.cmake", file))
	assert.False(t, sel.Match("cmake.cmake", dir))

	either := fskit.Or(vcpkg, fskit.DirectoriesOnly())
	assert.True(t, either.Match("anything", dir))
	assert.True(t, either.Match("vcpkg-port-config.cmake", file))
	assert.False(t, either.Match("zlib.h", file))

	assert.True(t, fskit.All().Match("", fskit.FileStatus{}))
}

func newSelectorTree(t *testing.T) (*memory.Adapter, fskit.Path) {
	t.Helper()
	mem := memory.New()
	root := fskit.Path("/vcpkg")
	_, err := mem.CreateDirectories(root.Join("ports", "zlib"))
	require.NoError(t, err)
	for _, f := range []fskit.Path{
		root.Join("vcpkg.json"),
		root.Join("README.md"),
		root.Join("ports", "zlib", "vcpkg.json"),
		root.Join("ports", "zlib", "portfile.cmake"),
	} {
		require.NoError(t, mem.WriteContents(f, ""))
	}
	require.NoError(t, mem.Symlink(root.Join("ports"), root.Join("overlay")))
	return mem, root
}

func TestMatchFiles(t *testing.T) {
	mem, root := newSelectorTree(t)

	got, err := fskit.MatchFiles(mem, root, "*.json", true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []fskit.Path{root.Join("vcpkg.json"), root.Join("ports", "zlib", "vcpkg.json")}, got)

	got, err = fskit.MatchFiles(mem, root, "*.json", false)
	require.NoError(t, err)
	assert.Equal(t, []fskit.Path{root.Join("vcpkg.json")}, got)

	got, err = fskit.MatchFiles(mem, root, "ports/*/portfile.*", true)
	require.NoError(t, err)
	assert.Equal(t, []fskit.Path{root.Join("ports", "zlib", "portfile.cmake")}, got)

	_, err = fskit.MatchFiles(mem, root, "[", true)
	assert.Error(t, err)
}

func TestListWithSelector(t *testing.T) {
	mem, root := newSelectorTree(t)

	dirs, err := fskit.ListWithSelector(mem, root, fskit.DirectoriesOnly(), true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []fskit.Path{root.Join("ports"), root.Join("ports", "zlib")}, dirs,
		"symlinked directories are neither reported as directories nor descended")

	all, err := fskit.ListWithSelector(mem, root, nil, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []fskit.Path{
		root.Join("vcpkg.json"),
		root.Join("README.md"),
		root.Join("ports"),
		root.Join("overlay"),
	}, all)

	links, err := fskit.ListWithSelector(mem, root, fskit.SelectorFunc(func(_ string, st fskit.FileStatus) bool {
		return st.IsSymlink()
	}), true)
	require.NoError(t, err)
	assert.Equal(t, []fskit.Path{root.Join("overlay")}, links)

	_, err = fskit.ListWithSelector(mem, root.Join("missing"), nil, true)
	assert.True(t, fskit.IsNotExist(err), "got %v", err)
}
