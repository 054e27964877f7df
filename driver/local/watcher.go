package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/gobeaver/fskit"
)

// Watch implements fskit.Watcher using fsnotify for native file system events.
// A pattern containing "**" also watches every directory below dir that
// exists when Watch is called.
func (a *Adapter) Watch(ctx context.Context, dir fskit.Path, pattern string) (fskit.ChangeToken, error) {
	if pattern == "" {
		pattern = "**"
	}
	match, err := fskit.Glob(pattern)
	if err != nil {
		return nil, err
	}

	watcher, err := newFSWatcher()
	if err != nil {
		return nil, fskit.NewPathError("watch", dir, err)
	}
	if err := watcher.Add(string(dir)); err != nil {
		watcher.Close()
		return nil, fskit.NewPathError("watch", dir, err)
	}
	if strings.Contains(pattern, "**") {
		sub, err := a.GetFilesRecursive(dir)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		for _, p := range sub {
			if fi, err := os.Lstat(string(p)); err == nil && fi.IsDir() {
				_ = watcher.Add(string(p))
			}
		}
	}

	token := fskit.NewCallbackChangeToken()
	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events():
				if !ok {
					return
				}
				rel, err := filepath.Rel(string(dir), event.Name)
				if err != nil {
					continue
				}
				if match.MatchString(filepath.ToSlash(rel)) {
					a.log.Debug("change detected", "path", event.Name, "op", event.Op.String())
					token.SignalChange()
					return // Token is spent after first change
				}
			case err, ok := <-watcher.Errors():
				if !ok {
					return
				}
				a.log.Debug("watch error", "dir", dir.Generic(), "err", err)
			}
		}
	}()

	return token, nil
}

// fsWatcher wraps fsnotify.Watcher with a simpler interface
type fsWatcher interface {
	Add(path string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type fsnotifyWatcher struct {
	watcher *fsnotify.Watcher
}

// newFSWatcher creates a new file system watcher using fsnotify
func newFSWatcher() (fsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &fsnotifyWatcher{watcher: w}, nil
}

func (w *fsnotifyWatcher) Add(path string) error {
	return w.watcher.Add(path)
}

func (w *fsnotifyWatcher) Close() error {
	return w.watcher.Close()
}

func (w *fsnotifyWatcher) Events() <-chan fsnotify.Event {
	return w.watcher.Events
}

func (w *fsnotifyWatcher) Errors() <-chan error {
	return w.watcher.Errors
}
