package fskit

import (
	"context"
	"sync"
	"sync/atomic"
)

// ChangeToken propagates a one-shot notification that something below a
// watched directory changed.
type ChangeToken interface {
	// HasChanged reports whether the change has happened.
	HasChanged() bool

	// RegisterChangeCallback arranges for callback to run once when the
	// change happens. If it already happened, callback runs immediately.
	RegisterChangeCallback(callback func()) (unregister func())
}

// ============================================================================
// ChangeToken Implementations
// ============================================================================

// CallbackChangeToken is a ChangeToken fired by a driver with native
// change events.
type CallbackChangeToken struct {
	mu        sync.Mutex
	changed   atomic.Bool
	callbacks map[int]func()
	next      int
}

// NewCallbackChangeToken creates a new ChangeToken that supports active callbacks.
func NewCallbackChangeToken() *CallbackChangeToken {
	return &CallbackChangeToken{callbacks: make(map[int]func())}
}

func (t *CallbackChangeToken) HasChanged() bool {
	return t.changed.Load()
}

func (t *CallbackChangeToken) RegisterChangeCallback(callback func()) (unregister func()) {
	t.mu.Lock()
	if t.changed.Load() {
		t.mu.Unlock()
		callback()
		return func() {}
	}
	id := t.next
	t.next++
	t.callbacks[id] = callback
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.callbacks, id)
		t.mu.Unlock()
	}
}

// SignalChange marks the token as changed and invokes all callbacks.
// Only the first call has any effect.
func (t *CallbackChangeToken) SignalChange() {
	t.mu.Lock()
	if t.changed.Swap(true) {
		t.mu.Unlock()
		return
	}
	callbacks := make([]func(), 0, len(t.callbacks))
	for _, cb := range t.callbacks {
		callbacks = append(callbacks, cb)
	}
	t.callbacks = nil
	t.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

// NeverChangeToken never fires. Wrappers return it from Watch when the
// filesystem underneath has no change notification.
type NeverChangeToken struct{}

// HasChanged implements ChangeToken.
func (NeverChangeToken) HasChanged() bool {
	return false
}

// RegisterChangeCallback implements ChangeToken. The callback is never called.
func (NeverChangeToken) RegisterChangeCallback(func()) func() {
	return func() {}
}

// OnChange re-arms a watch every time it fires and calls changeAction after
// each change. It stops when the returned cancel is called or when
// tokenProducer fails.
//
// Example:
//
//	cancel := fskit.OnChange(
//	    func() (fskit.ChangeToken, error) {
//	        return w.Watch(ctx, dir, "*.json")
//	    },
//	    reload,
//	)
//	defer cancel()
func OnChange(tokenProducer func() (ChangeToken, error), changeAction func()) (cancel func()) {
	ctx, cancelFunc := context.WithCancel(context.Background())

	go func() {
		for {
			token, err := tokenProducer()
			if err != nil {
				return
			}

			done := make(chan struct{})
			var once sync.Once
			unregister := token.RegisterChangeCallback(func() {
				once.Do(func() { close(done) })
			})

			select {
			case <-ctx.Done():
				unregister()
				return
			case <-done:
				unregister()
				changeAction()
			}
		}
	}()

	return cancelFunc
}
