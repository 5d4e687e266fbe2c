// Package watcher provides source-directory watching with fsnotify and
// per-file debouncing, so files still being written are not sorted half
// finished.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches one source directory (non-recursive, matching the
// sorter's scan) and invokes a callback for every settled file.
type Watcher struct {
	root        string
	extensions  []string
	onFile      func(path string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the settle delay before a file is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher over root. onFile is called once per file after
// its events settle; extensions filter which files (empty = all).
func New(root string, extensions []string, onFile func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		root:        root,
		extensions:  extensions,
		onFile:      onFile,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is
// called. A missing root is created first.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if _, err := os.Stat(w.root); os.IsNotExist(err) {
		if err := os.MkdirAll(w.root, 0o755); err != nil {
			w.mu.Unlock()
			return err
		}
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(w.root); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting",
			zap.String("root", w.root), zap.Strings("extensions", w.extensions))
	}
	w.mu.Unlock()
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return
		}
		if w.matchExtension(path) {
			w.debounceFile(path)
		}
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		w.cancelDebounce(path)
	}
}

func (w *Watcher) matchExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) debounceFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		logger := w.logger
		w.mu.Unlock()
		if logger != nil {
			logger.Debug("watcher file settled", zap.String("path", path))
		}
		if w.onFile != nil {
			w.onFile(path)
		}
	})
	w.debounceMap[path] = t
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
