package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"fedindex/internal/core/classify"
)

type Options struct {
	// Debounce is the per-path quiescence window; events for the same path
	// within the window collapse to one OnChange call.
	Debounce time.Duration
	OnChange func(rel string)
	Logger   *zap.Logger
}

// Watcher subscribes to recursive filesystem notifications under the
// federation root and drives debounced change callbacks.
type Watcher struct {
	rootAbs    string
	classifier *classify.Classifier
	debouncer  *Debouncer
	logger     *zap.Logger

	watcher   *fsnotify.Watcher
	closeOnce sync.Once
	closed    chan struct{}
}

func NewWatcher(root string, cls *classify.Classifier, opts Options) (*Watcher, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	rootAbs = filepath.Clean(rootAbs)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filesystem notifications unavailable: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Watcher{
		rootAbs:    rootAbs,
		classifier: cls,
		debouncer:  NewDebouncer(opts.Debounce),
		logger:     logger,
		watcher:    fsw,
		closed:     make(chan struct{}),
	}
	if opts.OnChange != nil {
		w.debouncer.OnFire(opts.OnChange)
	}

	if err := w.addDirRecursive(rootAbs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}

	w.closeOnce.Do(func() { close(w.closed) })
	w.debouncer.CancelAll()

	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}

func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.watcher == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.closed:
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	rel, ok := w.toRel(ev.Name)
	if !ok {
		return
	}

	if ev.Op&(fsnotify.Create|fsnotify.Rename) != 0 {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			if w.classifier.Excluded(rel, true) {
				return
			}
			if err := w.addDirRecursive(ev.Name); err != nil {
				w.logger.Warn("watch add failed", zap.String("path", rel), zap.Error(err))
			}
			w.debouncer.Push(rel)
			return
		}
	}

	if w.classifier.Excluded(rel, false) {
		return
	}

	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.debouncer.Push(rel)
	}
}

func (w *Watcher) toRel(abs string) (string, bool) {
	if strings.TrimSpace(abs) == "" {
		return "", false
	}

	abs = filepath.Clean(abs)
	rel, err := filepath.Rel(w.rootAbs, abs)
	if err != nil {
		return "", false
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) addDirRecursive(absDir string) error {
	absDir = filepath.Clean(absDir)

	return filepath.WalkDir(absDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Race-deleted during walk; nothing to watch.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.rootAbs {
			rel, ok := w.toRel(p)
			if !ok {
				return filepath.SkipDir
			}
			if w.classifier.Excluded(rel, true) {
				return filepath.SkipDir
			}
		}
		return w.watcher.Add(p)
	})
}
