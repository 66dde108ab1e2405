package vault

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 2 * time.Second

// Watcher invalidates the caches when notes change on disk outside the
// gateway, so external edits become visible before the TTLs expire.
type Watcher struct {
	fsw  *fsnotify.Watcher
	log  *slog.Logger
	done chan struct{}

	mu      sync.Mutex
	pending *time.Timer
}

// NewWatcher watches every directory under root and calls invalidate after
// a quiet period once markdown files change. Events for the same burst of
// edits collapse into one invalidation.
func NewWatcher(root string, invalidate func(), log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{fsw: fsw, log: log, done: make(chan struct{})}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return fsw.Add(p)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	go w.loop(invalidate)
	return w, nil
}

func (w *Watcher) loop(invalidate func()) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") {
				continue
			}
			// New directories need to be watched too.
			if event.Op.Has(fsnotify.Create) && !strings.Contains(name, ".") {
				_ = w.fsw.Add(event.Name)
			}
			if !strings.HasSuffix(name, ".md") && strings.Contains(name, ".") {
				continue
			}
			w.schedule(invalidate)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("vault watcher error", "error", err)
		}
	}
}

// schedule arms (or re-arms) the debounce timer.
func (w *Watcher) schedule(invalidate func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(watchDebounce, func() {
		w.log.Debug("vault changed on disk, caches invalidated")
		invalidate()
	})
}

// Close stops watching. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
