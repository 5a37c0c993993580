package refresh

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"fedindex/internal/core/store"
	"fedindex/internal/model"
)

type Options struct {
	Interval time.Duration
	Logger   *zap.Logger
}

// Refresher periodically invokes a refresh pass so directories modified
// since the last full scan get re-scanned and age buckets stay honest.
type Refresher struct {
	interval time.Duration
	logger   *zap.Logger
	fn       func(ctx context.Context)
}

func New(fn func(ctx context.Context), opts Options) (*Refresher, error) {
	if fn == nil {
		return nil, fmt.Errorf("refresh func is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{interval: interval, logger: logger, fn: fn}, nil
}

func (r *Refresher) Run(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("refresher is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.fn(ctx)
		}
	}
}

// FindStale returns the stored directories whose on-disk modification time
// is newer than since, plus the directories whose stat now fails (gone).
// Both lists are sorted.
func FindStale(st *store.Store, rootAbs string, since time.Time) (stale, gone []string) {
	if st == nil {
		return nil, nil
	}

	st.Range(func(rel string, e *model.Entry) bool {
		if e.Kind != model.KindDirectory {
			return true
		}
		info, err := os.Stat(filepath.Join(rootAbs, filepath.FromSlash(rel)))
		if err != nil {
			gone = append(gone, rel)
			return true
		}
		if info.ModTime().After(since) {
			stale = append(stale, rel)
		}
		return true
	})

	sort.Strings(stale)
	sort.Strings(gone)
	return stale, gone
}
