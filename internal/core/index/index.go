package index

import (
	"sort"
	"strings"
	"sync"
	"time"

	"fedindex/internal/core/store"
	"fedindex/internal/model"
)

// entryKeys is the reverse table: the derived keys a path was inserted
// under, so incremental removal is exact instead of a full sweep.
type entryKeys struct {
	components  []string
	extension   string
	sizeBucket  string
	ageBucket   string
	contentType string
}

// Indexes holds the five derived multimaps over the entry store. Writers
// are serialized by the owning federation; the internal RWMutex lets query
// reads proceed concurrently with each other.
type Indexes struct {
	mu sync.RWMutex

	pathComponents  map[string][]string
	extensions      map[string][]string
	sizeBuckets     map[string][]string
	modifiedBuckets map[string][]string
	contentTypes    map[string][]string

	byPath map[string]entryKeys

	now func() time.Time
}

func New() *Indexes {
	ix := &Indexes{now: time.Now}
	ix.clearLocked()
	return ix
}

// SetClock overrides the age-bucket clock. Test hook.
func (ix *Indexes) SetClock(now func() time.Time) {
	if ix == nil || now == nil {
		return
	}
	ix.mu.Lock()
	ix.now = now
	ix.mu.Unlock()
}

func (ix *Indexes) clearLocked() {
	ix.pathComponents = map[string][]string{}
	ix.extensions = map[string][]string{}
	ix.sizeBuckets = map[string][]string{}
	ix.modifiedBuckets = map[string][]string{}
	ix.contentTypes = map[string][]string{}
	ix.byPath = map[string]entryKeys{}
}

// RebuildAll clears every index and re-derives it from the store. Age
// buckets are computed against "now" at rebuild time and drift afterwards;
// the periodic refresher re-runs this to keep them honest.
func (ix *Indexes) RebuildAll(st *store.Store) {
	if ix == nil || st == nil {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.clearLocked()
	st.Range(func(rel string, e *model.Entry) bool {
		ix.insertLocked(rel, e)
		return true
	})
}

// Reindex removes path from every index and, when e is non-nil, reinserts
// it under freshly derived keys. Deletion is Reindex(path, nil).
func (ix *Indexes) Reindex(path string, e *model.Entry) {
	if ix == nil {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(path)
	if e != nil {
		ix.insertLocked(path, e)
	}
}

func (ix *Indexes) insertLocked(rel string, e *model.Entry) {
	var keys entryKeys

	for _, seg := range strings.Split(rel, "/") {
		seg = strings.ToLower(seg)
		if seg == "" {
			continue
		}
		keys.components = append(keys.components, seg)
		ix.pathComponents[seg] = append(ix.pathComponents[seg], rel)
	}

	if e.Kind == model.KindFile {
		if e.Extension != "" {
			keys.extension = strings.ToLower(e.Extension)
			ix.extensions[keys.extension] = append(ix.extensions[keys.extension], rel)
		}
		keys.sizeBucket = SizeBucket(e.Size)
		ix.sizeBuckets[keys.sizeBucket] = append(ix.sizeBuckets[keys.sizeBucket], rel)

		keys.ageBucket = AgeBucket(e.Modified, ix.now())
		ix.modifiedBuckets[keys.ageBucket] = append(ix.modifiedBuckets[keys.ageBucket], rel)

		ct := e.ContentType
		if ct == "" {
			ct = model.ContentUnknown
		}
		keys.contentType = string(ct)
		ix.contentTypes[keys.contentType] = append(ix.contentTypes[keys.contentType], rel)
	}

	ix.byPath[rel] = keys
}

func (ix *Indexes) removeLocked(rel string) {
	keys, ok := ix.byPath[rel]
	if !ok {
		return
	}
	delete(ix.byPath, rel)

	for _, c := range keys.components {
		removeFrom(ix.pathComponents, c, rel)
	}
	if keys.extension != "" {
		removeFrom(ix.extensions, keys.extension, rel)
	}
	if keys.sizeBucket != "" {
		removeFrom(ix.sizeBuckets, keys.sizeBucket, rel)
	}
	if keys.ageBucket != "" {
		removeFrom(ix.modifiedBuckets, keys.ageBucket, rel)
	}
	if keys.contentType != "" {
		removeFrom(ix.contentTypes, keys.contentType, rel)
	}
}

func removeFrom(m map[string][]string, key, rel string) {
	paths := m[key]
	for i, p := range paths {
		if p == rel {
			paths = append(paths[:i], paths[i+1:]...)
			break
		}
	}
	if len(paths) == 0 {
		delete(m, key)
	} else {
		m[key] = paths
	}
}

// ByComponent returns the paths containing the lower-cased path segment.
func (ix *Indexes) ByComponent(seg string) []string {
	return ix.lookup(func() []string { return ix.pathComponents[strings.ToLower(seg)] })
}

func (ix *Indexes) ByExtension(ext string) []string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	return ix.lookup(func() []string { return ix.extensions[ext] })
}

func (ix *Indexes) BySizeBucket(bucket string) []string {
	return ix.lookup(func() []string { return ix.sizeBuckets[bucket] })
}

func (ix *Indexes) ByAgeBucket(bucket string) []string {
	return ix.lookup(func() []string { return ix.modifiedBuckets[bucket] })
}

func (ix *Indexes) ByContentType(ct string) []string {
	return ix.lookup(func() []string { return ix.contentTypes[ct] })
}

func (ix *Indexes) lookup(get func() []string) []string {
	if ix == nil {
		return nil
	}
	ix.mu.RLock()
	out := append([]string(nil), get()...)
	ix.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Components returns every path-component key, sorted. The fuzzy search
// scans this list for near matches.
func (ix *Indexes) Components() []string {
	if ix == nil {
		return nil
	}
	ix.mu.RLock()
	out := make([]string, 0, len(ix.pathComponents))
	for k := range ix.pathComponents {
		out = append(out, k)
	}
	ix.mu.RUnlock()

	sort.Strings(out)
	return out
}

// KeyCounts reports the number of distinct keys per index, for stats.
func (ix *Indexes) KeyCounts() map[string]int {
	if ix == nil {
		return nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return map[string]int{
		"path_components":  len(ix.pathComponents),
		"extensions":       len(ix.extensions),
		"size_buckets":     len(ix.sizeBuckets),
		"modified_buckets": len(ix.modifiedBuckets),
		"content_types":    len(ix.contentTypes),
	}
}

// Contains reports whether the path is present in any index.
func (ix *Indexes) Contains(rel string) bool {
	if ix == nil {
		return false
	}
	ix.mu.RLock()
	_, ok := ix.byPath[rel]
	ix.mu.RUnlock()
	return ok
}
