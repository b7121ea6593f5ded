// Package watch rebuilds the slides whenever the content tree changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
)

// DefaultDebounce is how long the tree must stay quiet before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc performs one build. Its error is logged; watching continues.
type RebuildFunc func(ctx context.Context) error

// Watcher triggers debounced rebuilds from filesystem events under Root.
type Watcher struct {
	Root     string
	Debounce time.Duration
	// Exclude lists directories whose events never trigger a rebuild (output, workspace).
	Exclude []string
	// Extra lists further files to watch, such as the configuration file.
	Extra []string

	rebuild  RebuildFunc
	requests chan struct{}
	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
}

// New returns a Watcher for root that calls rebuild.
func New(root string, rebuild RebuildFunc) *Watcher {
	return &Watcher{Root: root, Debounce: DefaultDebounce, rebuild: rebuild}
}

// Run watches until ctx is canceled. Rebuilds run one at a time on a single worker; changes
// seen during a rebuild queue at most one follow-up rebuild.
func (w *Watcher) Run(ctx context.Context) error {
	root, err := filepath.Abs(w.Root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	w.Exclude = absAll(w.Exclude)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() {
		_ = fw.Close()
	}()
	if err := w.addDirsRecursive(fw, root); err != nil {
		return err
	}
	for _, extra := range w.Extra {
		if extra == "" {
			continue
		}
		if _, err := os.Stat(extra); err != nil {
			continue
		}
		if err := fw.Add(extra); err != nil {
			slog.Warn("watch add failed", logfields.Path(extra), logfields.Error(err))
		}
	}

	w.requests = make(chan struct{}, 1)
	w.mu.Lock()
	w.stopped = false
	w.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()
	defer wg.Wait()
	defer w.stopTimer()

	slog.Info("Watching for changes", logfields.Path(root))
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopped watching", logfields.Path(root))
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.requests:
			slog.Info("Change detected; rebuilding slides")
			if err := w.rebuild(ctx); err != nil {
				slog.Warn("rebuild failed", logfields.Error(err))
			}
		}
	}
}

// trigger (re)arms the debounce timer. When it fires, a rebuild request is queued unless
// one is already waiting.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w.timer = time.AfterFunc(debounce, func() {
		select {
		case w.requests <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if ShouldIgnore(ev.Name) || w.excluded(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Chmod == ev.Op {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(fw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (ShouldIgnore(path) || d.Name() == "node_modules" || w.excluded(path)) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

func (w *Watcher) excluded(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, ex := range w.Exclude {
		if abs == ex || strings.HasPrefix(abs, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func absAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			out = append(out, abs)
		}
	}
	return out
}

// ShouldIgnore returns true for hidden, editor temp and OS metadata files.
func ShouldIgnore(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".tmp") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	if base == "Thumbs.db" || base == "4913" { // 4913: vim's write-permission check file
		return true
	}
	return false
}
