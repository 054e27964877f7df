package fskit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/fskit"
	_ "github.com/gobeaver/fskit/driver/local"
	"github.com/gobeaver/fskit/driver/memory"
)

func TestNewFromEnv(t *testing.T) {
	t.Setenv("BEAVER_FSKIT_DRIVER", "memory")
	t.Setenv("BEAVER_FSKIT_LOCK_TIMEOUT_MS", "50")

	fsys, err := fskit.NewFromEnv()
	require.NoError(t, err)
	require.IsType(t, &memory.Adapter{}, fsys)

	require.NoError(t, fsys.WriteContents("/f", "x"))
	h, err := fsys.TakeExclusiveFileLock("/lock")
	require.NoError(t, err)
	_, err = fsys.TryTakeExclusiveFileLock("/lock")
	assert.True(t, fskit.IsLockTimeout(err), "50ms timeout from the environment: %v", err)
	require.NoError(t, fsys.UnlockFileLock(h))
}

func TestNewFromEnvReadOnly(t *testing.T) {
	t.Setenv("BEAVER_FSKIT_DRIVER", "memory")
	t.Setenv("BEAVER_FSKIT_READ_ONLY", "true")

	fsys, err := fskit.NewFromEnv()
	require.NoError(t, err)
	err = fsys.WriteContents("/f", "x")
	assert.True(t, fskit.IsReadOnlyError(err), "got %v", err)
}

func TestBuilder(t *testing.T) {
	t.Setenv("BEAVER_FSKIT_DRIVER", "memory")
	t.Setenv("BEAVER_FSKIT_TEMP_SUFFIX", ".partial")

	b := fskit.WithPrefix("BEAVER_").WithOptions(fskit.WithVerifyCopies(false))
	cfg, err := b.Config()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Driver)
	assert.Equal(t, ".partial", cfg.TempSuffix)

	fsys, err := b.New()
	require.NoError(t, err)
	assert.IsType(t, &memory.Adapter{}, fsys)
}

func TestNewLocal(t *testing.T) {
	fsys, err := fskit.New(&fskit.Config{Driver: "local", LockTimeoutMS: 100, TempSuffix: ".tmp"})
	require.NoError(t, err)

	dir := fskit.Path(t.TempDir())
	p := dir.Join("vcpkg.json")
	require.NoError(t, fsys.WriteContents(p, "{}"))
	st, err := fsys.Status(p)
	require.NoError(t, err)
	assert.True(t, st.IsRegularFile())
}
