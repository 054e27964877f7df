package memory

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gobeaver/fskit"
)

// watchEntry is a single watch subscription
type watchEntry struct {
	dir     string
	pattern *fskit.Pattern
	token   *fskit.CallbackChangeToken
}

// Watch implements fskit.Watcher. Every mutation made through the adapter
// under dir whose path relative to dir matches pattern fires the token.
func (a *Adapter) Watch(ctx context.Context, dir fskit.Path, pattern string) (fskit.ChangeToken, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if pattern == "" {
		pattern = "**"
	}
	match, err := fskit.Glob(pattern)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	rpath, err := a.resolve(dir, true)
	a.mu.Unlock()
	if err != nil {
		return nil, fskit.NewPathError("watch", dir, err)
	}

	entry := &watchEntry{dir: rpath, pattern: match, token: fskit.NewCallbackChangeToken()}
	a.watchMu.Lock()
	a.watches = append(a.watches, entry)
	a.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		a.removeWatch(entry)
	}()

	return entry.token, nil
}

// notify signals every watcher matching one of the changed paths. It must
// be called without a.mu held: callbacks may use the adapter.
func (a *Adapter) notify(paths ...string) {
	if len(paths) == 0 {
		return
	}
	var fired []*watchEntry
	a.watchMu.Lock()
	kept := a.watches[:0]
	for _, w := range a.watches {
		if w.matches(paths) {
			fired = append(fired, w)
			continue
		}
		kept = append(kept, w)
	}
	a.watches = kept
	a.watchMu.Unlock()

	for _, w := range fired {
		a.log.Debug("change detected", "dir", filepath.ToSlash(w.dir), "pattern", w.pattern.String())
		w.token.SignalChange()
	}
}

func (w *watchEntry) matches(paths []string) bool {
	for _, p := range paths {
		rel, err := filepath.Rel(w.dir, p)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+sep) {
			continue
		}
		if w.pattern.MatchString(filepath.ToSlash(rel)) {
			return true
		}
	}
	return false
}

func (a *Adapter) removeWatch(entry *watchEntry) {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()

	for i, w := range a.watches {
		if w == entry {
			a.watches = append(a.watches[:i], a.watches[i+1:]...)
			return
		}
	}
}
