// Package watcher reports debounced changes to dataset files.
package watcher

import (
	"edgegraph/internal/shared/observability"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Watcher follows the parent directory of every file target so that editors
// and tools that replace a file by rename are still noticed. A directory
// target matches every file inside it except ignored names.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	ignore     []glob.Glob
	files      map[string]bool
	dirs       map[string]bool
	onChange   func([]string)
	callbackMu sync.Mutex

	pending   map[string]struct{}
	states    map[string]fileState
	pendingMu sync.Mutex
	timer     *time.Timer

	done      chan struct{}
	closeOnce sync.Once
}

type fileState struct {
	size    int64
	modTime time.Time
	exists  bool
}

func NewWatcher(debounce time.Duration, ignore []string, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("watcher callback is required")
	}

	compiled := make([]glob.Glob, 0, len(ignore))
	for _, pattern := range ignore {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		ignore:    compiled,
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
		onChange:  onChange,
		pending:   make(map[string]struct{}),
		states:    make(map[string]fileState),
		done:      make(chan struct{}),
	}, nil
}

// Watch starts following targets. It must be called once, before any event
// can arrive. Paths are made absolute; each target's directory must exist.
func (w *Watcher) Watch(targets []string) error {
	watchDirs := make(map[string]bool)
	for _, target := range targets {
		abs, err := filepath.Abs(target)
		if err != nil {
			return err
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			w.dirs[abs] = true
			watchDirs[abs] = true
			continue
		}
		w.files[abs] = true
		w.states[abs] = stat(abs)
		watchDirs[filepath.Dir(abs)] = true
	}

	for dir := range watchDirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !w.matches(path) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	observability.WatcherEventsTotal.Inc()
	w.scheduleChange(path)
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

// flushChanges drops targets that vanished or whose size and mtime did not
// move since the last flush.
func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		now := stat(path)
		prev := w.states[path]
		w.states[path] = now
		if !now.exists {
			slog.Warn("watched dataset disappeared", "path", path)
			continue
		}
		if prev.exists && prev.size == now.size && prev.modTime.Equal(now.modTime) {
			continue
		}
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()
	sort.Strings(paths)

	if len(paths) > 0 {
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(paths)
	}
}

func (w *Watcher) matches(path string) bool {
	if w.files[path] {
		return true
	}
	return w.dirs[filepath.Dir(path)] && !w.shouldIgnore(path)
}

func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.ignore {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.pendingMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.pendingMu.Unlock()
		err = w.fsWatcher.Close()
	})
	return err
}

func stat(path string) fileState {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fileState{}
	}
	return fileState{size: info.Size(), modTime: info.ModTime(), exists: true}
}
