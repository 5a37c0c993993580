package query

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hbollon/go-edlib"

	"fedindex/internal/core/cache"
	"fedindex/internal/core/index"
	"fedindex/internal/core/store"
	"fedindex/internal/model"
)

const fuzzyThreshold = 0.5

type Filters struct {
	ContentType string
	Extension   string
	MaxDepth    int
	MinSize     uint64
	MaxSize     uint64 // 0 means unbounded
}

type Options struct {
	Limit   int
	Filters Filters
}

// Engine answers component searches, symlink resolutions and tree views
// against the entry store and indexes. Responses are cached per index
// generation; Invalidate bumps the generation after any index mutation.
type Engine struct {
	rootAbs string
	st      *store.Store
	ix      *index.Indexes
	cache   *cache.LRU
	gen     atomic.Uint64
}

func NewEngine(rootAbs string, st *store.Store, ix *index.Indexes) *Engine {
	return &Engine{
		rootAbs: filepath.Clean(rootAbs),
		st:      st,
		ix:      ix,
		cache:   cache.NewLRU(128),
	}
}

func (e *Engine) Invalidate() {
	if e == nil {
		return
	}
	e.gen.Add(1)
}

// Search looks up the query as an exact lower-cased path component
// (confidence 1.0), then scans all component keys for substring containment
// in either direction, scoring those by normalized Levenshtein similarity
// and keeping matches above 0.5. Filters apply after ranking; results sort
// by confidence descending and truncate to the limit.
func (e *Engine) Search(q string, opts Options) (*model.SearchResponse, error) {
	if e == nil {
		return nil, fmt.Errorf("engine is nil")
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil, fmt.Errorf("query is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	key := cacheKey(q, opts)
	gen := e.gen.Load()
	if v, ok := e.cache.Get(key, gen); ok {
		return v.(*model.SearchResponse), nil
	}

	start := time.Now()

	confidence := map[string]float64{}
	for _, p := range e.ix.ByComponent(q) {
		confidence[p] = 1.0
	}
	for _, comp := range e.ix.Components() {
		if comp == q {
			continue
		}
		if !strings.Contains(comp, q) && !strings.Contains(q, comp) {
			continue
		}
		sim := similarity(q, comp)
		if sim <= fuzzyThreshold {
			continue
		}
		for _, p := range e.ix.ByComponent(comp) {
			if sim > confidence[p] {
				confidence[p] = sim
			}
		}
	}

	results := make([]model.SearchResult, 0, len(confidence))
	for p, conf := range confidence {
		entry, ok := e.st.Get(p)
		if !ok {
			continue
		}
		if !matchesFilters(entry, opts.Filters) {
			continue
		}
		results = append(results, model.SearchResult{Path: p, Confidence: conf, Entry: entry})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Path < results[j].Path
	})

	total := len(results)
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	resp := &model.SearchResponse{
		Query:        q,
		TotalResults: total,
		Results:      results,
		SearchTimeMS: float64(time.Since(start).Microseconds()) / 1000.0,
	}
	e.cache.Put(key, gen, resp)
	return resp, nil
}

// similarity is 1 - levenshtein(a,b)/len(longer), in [0,1].
func similarity(a, b string) float64 {
	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return float64(sim)
}

func matchesFilters(e *model.Entry, f Filters) bool {
	if f.ContentType != "" {
		if e.Kind != model.KindFile || string(e.ContentType) != strings.ToLower(strings.TrimSpace(f.ContentType)) {
			return false
		}
	}
	if f.Extension != "" {
		ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(f.Extension)), ".")
		if e.Kind != model.KindFile || e.Extension != ext {
			return false
		}
	}
	if f.MaxDepth > 0 && e.Depth > f.MaxDepth {
		return false
	}
	if f.MinSize > 0 || f.MaxSize > 0 {
		if e.Kind != model.KindFile {
			return false
		}
		if e.Size < f.MinSize {
			return false
		}
		if f.MaxSize > 0 && e.Size > f.MaxSize {
			return false
		}
	}
	return true
}

func cacheKey(q string, opts Options) string {
	return fmt.Sprintf("%s|%d|%s|%s|%d|%d|%d",
		q, opts.Limit,
		opts.Filters.ContentType, opts.Filters.Extension,
		opts.Filters.MaxDepth, opts.Filters.MinSize, opts.Filters.MaxSize)
}

// Resolve reports each path's entry and, for symlinks, the target entry.
// Targets outside the federation root keep their absolute path and carry
// no entry.
func (e *Engine) Resolve(paths []string) []model.Resolution {
	if e == nil {
		return nil
	}

	out := make([]model.Resolution, 0, len(paths))
	for _, p := range paths {
		rel := strings.Trim(filepath.ToSlash(p), "/")
		res := model.Resolution{Path: rel}

		entry, ok := e.st.Get(rel)
		if !ok {
			res.Error = "path not indexed"
			out = append(out, res)
			continue
		}
		res.Entry = entry

		if entry.Kind != model.KindSymlink {
			// Registry keys are fully resolved targets.
			abs := filepath.Join(e.rootAbs, filepath.FromSlash(rel))
			if r, err := filepath.EvalSymlinks(abs); err == nil {
				abs = r
			}
			res.LinkedBy = e.st.LinksTo(abs)
		}

		if entry.Kind == model.KindSymlink {
			if !entry.TargetExists {
				res.Broken = true
			}
			res.TargetPath = entry.ResolvedTarget
			if tr, ok := e.toRel(entry.ResolvedTarget); ok {
				res.TargetPath = tr
				if te, ok := e.st.Get(tr); ok {
					res.Target = te
				}
			}
		}
		out = append(out, res)
	}
	return out
}

func (e *Engine) toRel(abs string) (string, bool) {
	rel, err := filepath.Rel(e.rootAbs, abs)
	if err != nil {
		return "", false
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
