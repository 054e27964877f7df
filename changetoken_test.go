package fskit_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/fskit"
	"github.com/gobeaver/fskit/driver/memory"
)

func TestCallbackChangeToken(t *testing.T) {
	token := fskit.NewCallbackChangeToken()
	var first, removed int
	token.RegisterChangeCallback(func() { first++ })
	unregister := token.RegisterChangeCallback(func() { removed++ })
	unregister()

	assert.False(t, token.HasChanged())
	token.SignalChange()
	token.SignalChange()
	assert.True(t, token.HasChanged())
	assert.Equal(t, 1, first)
	assert.Zero(t, removed)

	late := false
	token.RegisterChangeCallback(func() { late = true })
	assert.True(t, late, "callbacks registered after the change run immediately")
}

func TestNeverChangeToken(t *testing.T) {
	var token fskit.ChangeToken = fskit.NeverChangeToken{}
	token.RegisterChangeCallback(func() { t.Error("never token fired") })()
	assert.False(t, token.HasChanged())
}

func TestOnChangeRearms(t *testing.T) {
	mem := memory.New()
	root := fskit.Path("/ports")
	_, err := mem.CreateDirectory(root)
	require.NoError(t, err)

	ctx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()

	var changes atomic.Int32
	cancel := fskit.OnChange(func() (fskit.ChangeToken, error) {
		return mem.Watch(ctx, root, "*.json")
	}, func() { changes.Add(1) })
	defer cancel()

	write := func(name string, want int32) func() bool {
		return func() bool {
			_ = mem.WriteContents(root.Join(name), "{}")
			return changes.Load() >= want
		}
	}
	assert.Eventually(t, write("a.json", 1), 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, write("b.json", 2), 2*time.Second, 10*time.Millisecond, "watch is re-armed after firing")

	time.Sleep(20 * time.Millisecond)
	n := changes.Load()
	require.NoError(t, mem.WriteContents(root.Join("notes.txt"), ""))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, changes.Load(), "unmatched files do not fire")
}

func TestOnChangeStopsWhenProducerFails(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	cancel := fskit.OnChange(func() (fskit.ChangeToken, error) {
		if calls.Add(1) > 1 {
			close(done)
			return nil, errors.New("watch failed")
		}
		token := fskit.NewCallbackChangeToken()
		token.SignalChange()
		return token, nil
	}, func() {})
	defer cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer was not called again after the first change")
	}
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}
