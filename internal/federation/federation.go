package federation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"fedindex/internal/core/classify"
	"fedindex/internal/core/index"
	"fedindex/internal/core/query"
	"fedindex/internal/core/refresh"
	"fedindex/internal/core/scan"
	"fedindex/internal/core/store"
	"fedindex/internal/core/watch"
	"fedindex/internal/model"
)

type Config struct {
	Root             string
	MaxDepth         int           // default 15
	MaxEntries       int           // default 50000
	ExcludePatterns  []string      // default classify.DefaultExcludes
	SymlinkPolicy    scan.Policy   // default follow
	RespectGitignore bool
	RefreshInterval  time.Duration // default 5m
	WatchEnabled     bool
	WatchDebounce    time.Duration // default 1s
	HashWorkers      int
	EventBuffer      int
	Logger           *zap.Logger
}

func (c *Config) withDefaults() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must be >= 0, got %d", c.MaxDepth)
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = 15
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("max entries must be >= 0, got %d", c.MaxEntries)
	}
	if c.MaxEntries == 0 {
		c.MaxEntries = 50000
	}
	if c.SymlinkPolicy == "" {
		c.SymlinkPolicy = scan.PolicyFollow
	} else if _, err := scan.ParsePolicy(string(c.SymlinkPolicy)); err != nil {
		return err
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 5 * time.Minute
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return nil
}

// Index owns one federation root: the entry store, the five derived
// indexes, the change watcher and the periodic refresher. All mutation
// paths (full scans, debounced rescans, refresh passes) are serialized by
// a single scan mutex; queries read under shared locks.
type Index struct {
	cfg     Config
	rootAbs string
	logger  *zap.Logger

	cls    *classify.Classifier
	st     *store.Store
	ix     *index.Indexes
	engine *query.Engine
	bus    *bus

	scanMu sync.Mutex // single writer: one scan/rescan/refresh at a time

	statsMu  sync.RWMutex
	stats    model.Stats
	lastScan time.Time

	watcher *watch.Watcher

	runMu   sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func New(cfg Config) (*Index, error) {
	if err := cfg.withDefaults(); err != nil {
		return nil, err
	}

	rootAbs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	rootAbs = filepath.Clean(rootAbs)
	fi, err := os.Stat(rootAbs)
	if err != nil {
		return nil, fmt.Errorf("federation root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("federation root %s is not a directory", rootAbs)
	}

	cls, err := classify.New(rootAbs, classify.Options{
		ExcludePatterns:  cfg.ExcludePatterns,
		RespectGitignore: cfg.RespectGitignore,
	})
	if err != nil {
		return nil, err
	}

	st := store.New()
	ix := index.New()

	f := &Index{
		cfg:     cfg,
		rootAbs: rootAbs,
		logger:  cfg.Logger,
		cls:     cls,
		st:      st,
		ix:      ix,
		engine:  query.NewEngine(rootAbs, st, ix),
		bus:     newBus(cfg.EventBuffer, cfg.Logger),
	}
	return f, nil
}

func (f *Index) Root() string {
	if f == nil {
		return ""
	}
	return f.rootAbs
}

// Start runs the initial full scan and index build, emits federation:ready
// and scan:complete, then starts the change watcher (falling back to
// periodic-refresh-only mode when notifications are unavailable) and the
// periodic refresher.
func (f *Index) Start(ctx context.Context) error {
	if f == nil {
		return fmt.Errorf("federation index is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f.runMu.Lock()
	if f.started {
		f.runMu.Unlock()
		return fmt.Errorf("federation already started")
	}
	f.started = true
	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.runMu.Unlock()

	stats, err := f.FullScan(runCtx)
	if err != nil {
		return err
	}
	f.bus.publish(model.Event{Type: model.EventReady, Stats: &stats})

	if f.cfg.WatchEnabled {
		w, err := watch.NewWatcher(f.rootAbs, f.cls, watch.Options{
			Debounce: f.cfg.WatchDebounce,
			OnChange: f.handleChange,
			Logger:   f.logger,
		})
		if err != nil {
			f.logger.Warn("change watching unavailable, running periodic-refresh only", zap.Error(err))
		} else {
			f.watcher = w
			f.wg.Add(1)
			go func() {
				defer f.wg.Done()
				if err := w.Run(runCtx); err != nil {
					f.logger.Warn("watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	r, err := refresh.New(f.refreshPass, refresh.Options{
		Interval: f.cfg.RefreshInterval,
		Logger:   f.logger,
	})
	if err != nil {
		return err
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		_ = r.Run(runCtx)
	}()

	return nil
}

// Close stops the watcher, cancels pending debounce timers and background
// loops, and waits for them. In-flight scan units finish or are abandoned;
// indexes only ever see fully resolved entries.
func (f *Index) Close() error {
	if f == nil {
		return nil
	}

	f.runMu.Lock()
	cancel := f.cancel
	f.cancel = nil
	f.runMu.Unlock()
	if cancel != nil {
		cancel()
	}
	if f.watcher != nil {
		_ = f.watcher.Close()
	}
	f.wg.Wait()
	f.bus.closeAll()
	return nil
}

// FullScan clears the store, re-walks the tree and rebuilds every index,
// then emits scan:complete.
func (f *Index) FullScan(ctx context.Context) (model.Stats, error) {
	if f == nil {
		return model.Stats{}, fmt.Errorf("federation index is nil")
	}

	f.scanMu.Lock()
	defer f.scanMu.Unlock()

	f.st.Reset()
	stats, err := scan.Run(ctx, f.rootAbs, f.st, f.scanOptions())
	if err != nil {
		return stats, err
	}
	f.ix.RebuildAll(f.st)
	f.engine.Invalidate()

	f.statsMu.Lock()
	f.stats = stats
	f.lastScan = time.Now()
	f.statsMu.Unlock()

	f.logger.Info("scan complete",
		zap.Int("directories", stats.TotalDirectories),
		zap.Int("files", stats.TotalFiles),
		zap.Int("symlinks", stats.TotalSymlinks),
		zap.Int64("duration_ms", stats.ScanDurationMS))
	f.bus.publish(model.Event{Type: model.EventScanComplete, Stats: &stats})
	return stats, nil
}

func (f *Index) scanOptions() scan.Options {
	return scan.Options{
		MaxDepth:    f.cfg.MaxDepth,
		MaxEntries:  f.cfg.MaxEntries,
		Policy:      f.cfg.SymlinkPolicy,
		Classifier:  f.cls,
		HashWorkers: f.cfg.HashWorkers,
		Logger:      f.logger,
	}
}

// handleChange fires after a path's debounce window elapses: the path is
// re-stated and either rescanned in place or removed, with the indexes
// updated incrementally and file:updated / file:deleted emitted.
func (f *Index) handleChange(rel string) {
	f.scanMu.Lock()
	removed, updated, err := scan.Rescan(context.Background(), f.rootAbs, rel, f.st, f.scanOptions())
	if err != nil {
		f.scanMu.Unlock()
		f.logger.Warn("rescan failed", zap.String("path", rel), zap.Error(err))
		return
	}
	for _, p := range removed {
		f.ix.Reindex(p, nil)
	}
	for _, p := range updated {
		e, ok := f.st.Get(p)
		if !ok {
			continue
		}
		f.ix.Reindex(p, e)
	}
	f.engine.Invalidate()
	f.scanMu.Unlock()

	for _, p := range removed {
		f.bus.publish(model.Event{Type: model.EventFileDeleted, Path: p})
	}
	for _, p := range updated {
		f.bus.publish(model.Event{Type: model.EventFileUpdated, Path: p})
	}
}

// refreshPass re-scans directories whose on-disk mtime moved past the last
// scan, drops directories that vanished, and rebuilds all indexes so age
// buckets stay accurate even without filesystem changes.
func (f *Index) refreshPass(ctx context.Context) {
	f.statsMu.RLock()
	since := f.lastScan
	f.statsMu.RUnlock()

	stale, gone := refresh.FindStale(f.st, f.rootAbs, since)
	if len(stale) == 0 && len(gone) == 0 {
		// Still rebuild: age buckets drift with the clock.
		f.scanMu.Lock()
		f.ix.RebuildAll(f.st)
		f.engine.Invalidate()
		f.scanMu.Unlock()
		return
	}

	f.logger.Info("refreshing stale directories",
		zap.Int("stale", len(stale)), zap.Int("gone", len(gone)))

	var deleted []string
	f.scanMu.Lock()
	for _, rel := range gone {
		deleted = append(deleted, f.st.DeletePrefix(rel)...)
	}
	for _, rel := range stale {
		if ctx.Err() != nil {
			break
		}
		if _, _, err := scan.Rescan(ctx, f.rootAbs, rel, f.st, f.scanOptions()); err != nil {
			f.logger.Warn("refresh rescan failed", zap.String("path", rel), zap.Error(err))
		}
	}
	f.ix.RebuildAll(f.st)
	f.engine.Invalidate()
	f.scanMu.Unlock()

	f.statsMu.Lock()
	f.lastScan = time.Now()
	f.statsMu.Unlock()

	for _, p := range deleted {
		f.bus.publish(model.Event{Type: model.EventFileDeleted, Path: p})
	}
}

func (f *Index) Search(q string, opts query.Options) (*model.SearchResponse, error) {
	if f == nil {
		return nil, fmt.Errorf("federation index is nil")
	}
	return f.engine.Search(q, opts)
}

func (f *Index) Tree(rootPath string, maxDepth int) (*model.TreeNode, error) {
	if f == nil {
		return nil, fmt.Errorf("federation index is nil")
	}
	return f.engine.Tree(rootPath, maxDepth)
}

func (f *Index) Resolve(paths []string) []model.Resolution {
	if f == nil {
		return nil
	}
	return f.engine.Resolve(paths)
}

// Entry exposes a single stored entry, mainly for front-ends.
func (f *Index) Entry(rel string) (*model.Entry, bool) {
	if f == nil {
		return nil, false
	}
	return f.st.Get(rel)
}

func (f *Index) Meta(rel string) (*model.FileMeta, bool) {
	if f == nil {
		return nil, false
	}
	return f.st.Meta(rel)
}

// Subscribe registers an event channel; the id unsubscribes it.
func (f *Index) Subscribe() (string, <-chan model.Event) {
	if f == nil {
		return "", nil
	}
	return f.bus.subscribe()
}

func (f *Index) Unsubscribe(id string) {
	if f == nil {
		return
	}
	f.bus.unsubscribe(id)
}

// StatsSnapshot is the federation stats surface: last scan aggregates plus
// live store and index sizes.
type StatsSnapshot struct {
	model.Stats
	Root      string         `json:"root"`
	Entries   int            `json:"entries"`
	IndexKeys map[string]int `json:"index_keys"`
	LastScan  time.Time      `json:"last_scan,omitzero"`
}

func (f *Index) Stats() StatsSnapshot {
	if f == nil {
		return StatsSnapshot{}
	}
	f.statsMu.RLock()
	stats := f.stats
	last := f.lastScan
	f.statsMu.RUnlock()

	return StatsSnapshot{
		Stats:     stats,
		Root:      f.rootAbs,
		Entries:   f.st.Len(),
		IndexKeys: f.ix.KeyCounts(),
		LastScan:  last,
	}
}
