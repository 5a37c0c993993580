package store

import (
	"path"
	"sort"
	"strings"
	"sync"

	"fedindex/internal/model"
)

// Store is the in-memory entry store: root-relative path -> entry, plus the
// file metadata side table and the bidirectional symlink registry. The root
// itself is never stored; a path appears at most once.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*model.Entry
	meta    map[string]*model.FileMeta

	linkTarget  map[string]string   // symlink rel path -> resolved absolute target
	targetLinks map[string][]string // resolved absolute target -> symlink rel paths
}

func New() *Store {
	return &Store{
		entries:     map[string]*model.Entry{},
		meta:        map[string]*model.FileMeta{},
		linkTarget:  map[string]string{},
		targetLinks: map[string][]string{},
	}
}

func (s *Store) Put(rel string, e *model.Entry) {
	if s == nil || e == nil {
		return
	}
	rel = normalize(rel)
	if rel == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[rel]; ok && old.Kind == model.KindSymlink {
		s.unregisterLinkLocked(rel)
	}
	s.entries[rel] = e
	if e.Kind != model.KindFile {
		delete(s.meta, rel)
	}
	if e.Kind == model.KindSymlink && e.ResolvedTarget != "" {
		s.registerLinkLocked(rel, e.ResolvedTarget)
	}
}

func (s *Store) PutMeta(rel string, m *model.FileMeta) {
	if s == nil || m == nil {
		return
	}
	rel = normalize(rel)

	s.mu.Lock()
	s.meta[rel] = m
	s.mu.Unlock()
}

// Get returns a snapshot of the entry at rel. Stored entries are mutated
// in place by AddChild and the delete paths, so callers never see the live
// pointer.
func (s *Store) Get(rel string) (*model.Entry, bool) {
	if s == nil {
		return nil, false
	}
	rel = normalize(rel)

	s.mu.RLock()
	e, ok := s.entries[rel]
	e = e.Clone()
	s.mu.RUnlock()
	return e, ok
}

func (s *Store) Meta(rel string) (*model.FileMeta, bool) {
	if s == nil {
		return nil, false
	}
	rel = normalize(rel)

	s.mu.RLock()
	m, ok := s.meta[rel]
	s.mu.RUnlock()
	return m, ok
}

// Delete removes rel, its metadata and any symlink registration, and drops
// the name from the parent directory's child list.
func (s *Store) Delete(rel string) {
	if s == nil {
		return
	}
	rel = normalize(rel)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[rel]; !ok {
		return
	}
	s.unregisterLinkLocked(rel)
	delete(s.entries, rel)
	delete(s.meta, rel)

	parent := path.Dir(rel)
	if parent == "." {
		return
	}
	pe, ok := s.entries[parent]
	if !ok || pe.Kind != model.KindDirectory {
		return
	}
	name := path.Base(rel)
	for i, c := range pe.Children {
		if c == name {
			pe.Children = append(pe.Children[:i], pe.Children[i+1:]...)
			break
		}
	}
}

// DeletePrefix removes rel and everything below it, returning the removed
// paths. Used when a watched directory disappears or is rescanned.
func (s *Store) DeletePrefix(rel string) []string {
	if s == nil {
		return nil
	}
	rel = normalize(rel)
	if rel == "" {
		return nil
	}

	s.mu.Lock()
	prefix := rel + "/"
	var doomed []string
	for p := range s.entries {
		if p == rel || strings.HasPrefix(p, prefix) {
			doomed = append(doomed, p)
		}
	}
	for _, p := range doomed {
		s.unregisterLinkLocked(p)
		delete(s.entries, p)
		delete(s.meta, p)
	}
	s.mu.Unlock()

	if len(doomed) > 0 {
		// Fix up the parent child list through the regular path.
		s.mu.Lock()
		parent := path.Dir(rel)
		if parent != "." {
			if pe, ok := s.entries[parent]; ok && pe.Kind == model.KindDirectory {
				name := path.Base(rel)
				for i, c := range pe.Children {
					if c == name {
						pe.Children = append(pe.Children[:i], pe.Children[i+1:]...)
						break
					}
				}
			}
		}
		s.mu.Unlock()
	}

	sort.Strings(doomed)
	return doomed
}

// Reset drops every entry, metadata record and symlink registration while
// keeping the store instance (and references to it) valid.
func (s *Store) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.entries = map[string]*model.Entry{}
	s.meta = map[string]*model.FileMeta{}
	s.linkTarget = map[string]string{}
	s.targetLinks = map[string][]string{}
	s.mu.Unlock()
}

// AddChild appends name to the parent directory's child list if the parent
// is stored and the name is not already present. The root ("" or ".") has
// no stored entry, so adds under it are a no-op.
func (s *Store) AddChild(parent, name string) {
	if s == nil || name == "" {
		return
	}
	parent = normalize(parent)
	if parent == "" || parent == "." {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pe, ok := s.entries[parent]
	if !ok || pe.Kind != model.KindDirectory {
		return
	}
	for _, c := range pe.Children {
		if c == name {
			return
		}
	}
	pe.Children = append(pe.Children, name)
	sort.Strings(pe.Children)
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	n := len(s.entries)
	s.mu.RUnlock()
	return n
}

// Range calls fn for every stored entry until fn returns false. The store
// lock is held for the duration; fn must not call back into the store, and
// must not retain or mutate the live entries it is handed.
func (s *Store) Range(fn func(rel string, e *model.Entry) bool) {
	if s == nil || fn == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for rel, e := range s.entries {
		if !fn(rel, e) {
			return
		}
	}
}

// Paths returns all stored paths, sorted.
func (s *Store) Paths() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	out := make([]string, 0, len(s.entries))
	for p := range s.entries {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Strings(out)
	return out
}

// ResolvedTarget returns the registered absolute target for a symlink path.
func (s *Store) ResolvedTarget(rel string) (string, bool) {
	if s == nil {
		return "", false
	}
	rel = normalize(rel)

	s.mu.RLock()
	t, ok := s.linkTarget[rel]
	s.mu.RUnlock()
	return t, ok
}

// LinksTo returns the symlink paths whose resolved target is abs.
func (s *Store) LinksTo(abs string) []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	links := append([]string(nil), s.targetLinks[abs]...)
	s.mu.RUnlock()

	sort.Strings(links)
	return links
}

func (s *Store) registerLinkLocked(rel, target string) {
	s.linkTarget[rel] = target
	s.targetLinks[target] = append(s.targetLinks[target], rel)
}

func (s *Store) unregisterLinkLocked(rel string) {
	target, ok := s.linkTarget[rel]
	if !ok {
		return
	}
	delete(s.linkTarget, rel)

	links := s.targetLinks[target]
	for i, l := range links {
		if l == rel {
			links = append(links[:i], links[i+1:]...)
			break
		}
	}
	if len(links) == 0 {
		delete(s.targetLinks, target)
	} else {
		s.targetLinks[target] = links
	}
}

func normalize(rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	return strings.Trim(rel, "/")
}
