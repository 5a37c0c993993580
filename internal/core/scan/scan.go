package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fedindex/internal/core/classify"
	"fedindex/internal/core/store"
	"fedindex/internal/model"
)

type Policy string

const (
	PolicyFollow Policy = "follow"
	PolicyIgnore Policy = "ignore"
	PolicyReport Policy = "report"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.TrimSpace(strings.ToLower(s))) {
	case PolicyFollow:
		return PolicyFollow, nil
	case PolicyIgnore:
		return PolicyIgnore, nil
	case PolicyReport:
		return PolicyReport, nil
	default:
		return "", fmt.Errorf("invalid symlink policy %q (expected: follow|ignore|report)", s)
	}
}

type Options struct {
	MaxDepth    int
	MaxEntries  int
	Policy      Policy
	Classifier  *classify.Classifier
	HashWorkers int
	Logger      *zap.Logger
}

func (o *Options) withDefaults() {
	if o.MaxDepth <= 0 {
		o.MaxDepth = 15
	}
	if o.MaxEntries <= 0 {
		o.MaxEntries = 50000
	}
	if o.Policy == "" {
		o.Policy = PolicyFollow
	}
	if o.HashWorkers <= 0 {
		o.HashWorkers = 4
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

type scanner struct {
	rootAbs string
	st      *store.Store
	opts    Options
	logger  *zap.Logger

	count   int // accepted directories + files, the soft global cap
	stats   model.Stats
	touched []string

	hashers *errgroup.Group
}

// Run performs a full traversal from root into st and returns aggregate
// statistics. The root itself is never stored; its direct children are
// depth 1. Per-directory I/O errors are logged and skipped, never fatal.
func Run(ctx context.Context, root string, st *store.Store, opts Options) (model.Stats, error) {
	opts.withDefaults()

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return model.Stats{}, err
	}
	fi, err := os.Stat(rootAbs)
	if err != nil {
		return model.Stats{}, fmt.Errorf("federation root: %w", err)
	}
	if !fi.IsDir() {
		return model.Stats{}, fmt.Errorf("federation root %s is not a directory", rootAbs)
	}
	if st == nil {
		return model.Stats{}, fmt.Errorf("entry store is required")
	}

	s := &scanner{
		rootAbs: rootAbs,
		st:      st,
		opts:    opts,
		logger:  opts.Logger,
		count:   st.Len(),
		hashers: &errgroup.Group{},
	}
	s.hashers.SetLimit(opts.HashWorkers)

	start := time.Now()
	stack := map[string]bool{realPath(rootAbs): true}
	s.walkDir(ctx, rootAbs, "", 1, stack)
	_ = s.hashers.Wait()

	s.stats.ScanDurationMS = time.Since(start).Milliseconds()
	return s.stats, ctx.Err()
}

// Rescan refreshes a single root-relative path: a missing path is removed
// with its subtree, a directory is cleared and re-walked, and a path that
// is now a file or symlink replaces whatever subtree was stored under it
// before. It returns the removed and re-stored paths.
func Rescan(ctx context.Context, root, rel string, st *store.Store, opts Options) (removed, updated []string, err error) {
	opts.withDefaults()

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || strings.HasPrefix(rel, "..") {
		return nil, nil, fmt.Errorf("invalid rescan path %q", rel)
	}
	if st == nil {
		return nil, nil, fmt.Errorf("entry store is required")
	}

	abs := filepath.Join(rootAbs, filepath.FromSlash(rel))
	depth := strings.Count(rel, "/") + 1

	info, statErr := os.Lstat(abs)
	if statErr != nil {
		return st.DeletePrefix(rel), nil, nil
	}
	if depth > opts.MaxDepth {
		return nil, nil, nil
	}

	s := &scanner{
		rootAbs: rootAbs,
		st:      st,
		opts:    opts,
		logger:  opts.Logger,
		count:   st.Len(),
		hashers: &errgroup.Group{},
	}
	s.hashers.SetLimit(opts.HashWorkers)

	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		if opts.Policy == PolicyIgnore {
			return st.DeletePrefix(rel), nil, nil
		}
		// The path may have been a directory before; drop its descendants.
		removed = st.DeletePrefix(rel)
		s.storeSymlink(abs, rel, depth, info)
	case info.IsDir():
		removed = st.DeletePrefix(rel)
		stack := s.ancestorStack(rel)
		children := s.walkDir(ctx, abs, rel, depth+1, stack)
		s.put(rel, &model.Entry{
			Kind:     model.KindDirectory,
			Name:     path.Base(rel),
			Depth:    depth,
			Children: children,
		})
		s.stats.TotalDirectories++
	default:
		removed = st.DeletePrefix(rel)
		s.storeFile(abs, rel, depth, info, true)
	}
	_ = s.hashers.Wait()

	st.AddChild(path.Dir(rel), path.Base(rel))

	// Paths present both before and after are updates, not removals.
	updated = s.touched
	if len(removed) > 0 && len(updated) > 0 {
		kept := removed[:0]
		still := map[string]bool{}
		for _, u := range updated {
			still[u] = true
		}
		for _, r := range removed {
			if !still[r] {
				kept = append(kept, r)
			}
		}
		removed = kept
	}
	return removed, updated, ctx.Err()
}

// walkDir lists absDir and stores accepted entries at the given depth,
// returning the accepted child names for the parent's directory entry.
func (s *scanner) walkDir(ctx context.Context, absDir, relDir string, depth int, stack map[string]bool) []string {
	if ctx.Err() != nil {
		return nil
	}
	if depth > s.opts.MaxDepth {
		return nil
	}
	if s.count >= s.opts.MaxEntries {
		return nil
	}

	real := realPath(absDir)
	stack[real] = true
	defer delete(stack, real)

	listing, err := os.ReadDir(absDir)
	if err != nil {
		s.logger.Warn("skipping unreadable directory", zap.String("path", absDir), zap.Error(err))
		return nil
	}

	var children []string
	for _, de := range listing {
		if ctx.Err() != nil {
			break
		}

		name := de.Name()
		rel := name
		if relDir != "" {
			rel = relDir + "/" + name
		}

		isDir := de.IsDir()
		if s.opts.Classifier.Excluded(rel, isDir) {
			s.stats.ExcludedItems++
			continue
		}

		info, err := de.Info()
		if err != nil {
			s.logger.Warn("skipping unstatable entry", zap.String("path", rel), zap.Error(err))
			continue
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			if s.opts.Policy == PolicyIgnore {
				continue
			}
			link := s.storeSymlink(filepath.Join(absDir, name), rel, depth, info)
			children = append(children, name)
			if s.opts.Policy == PolicyFollow && link.TargetExists && link.TargetKind == model.KindDirectory {
				target := link.ResolvedTarget
				if stack[realPath(target)] {
					// Already on the descent stack: following would loop.
					s.logger.Debug("skipping symlink cycle", zap.String("link", rel), zap.String("target", target))
					continue
				}
				s.walkDir(ctx, target, rel, depth+1, stack)
			}
		case isDir:
			sub := s.walkDir(ctx, filepath.Join(absDir, name), rel, depth+1, stack)
			s.put(rel, &model.Entry{
				Kind:     model.KindDirectory,
				Name:     name,
				Depth:    depth,
				Children: sub,
			})
			s.count++
			s.stats.TotalDirectories++
			s.bumpDepth(depth)
			children = append(children, name)
		default:
			s.storeFile(filepath.Join(absDir, name), rel, depth, info, false)
			children = append(children, name)
		}
	}

	sort.Strings(children)
	return children
}

func (s *scanner) storeFile(abs, rel string, depth int, info fs.FileInfo, syncHash bool) {
	created, modified, accessed := fileTimes(info)
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(info.Name())), ".")

	s.put(rel, &model.Entry{
		Kind:        model.KindFile,
		Name:        info.Name(),
		Depth:       depth,
		Extension:   ext,
		Size:        uint64(info.Size()),
		Created:     created,
		Modified:    modified,
		Accessed:    accessed,
		ContentType: classify.ContentTypeFor(ext),
	})
	s.count++
	s.stats.TotalFiles++
	s.bumpDepth(depth)

	meta := fileMeta(info)
	size := info.Size()
	job := func() error {
		digest, err := FileDigest(abs, size)
		if err != nil {
			// A failed hash leaves the metadata hash empty.
			s.logger.Debug("hash failed", zap.String("path", rel), zap.Error(err))
		} else {
			meta.Hash = digest
		}
		s.st.PutMeta(rel, meta)
		return nil
	}
	if syncHash {
		_ = job()
		return
	}
	s.hashers.Go(job)
}

func (s *scanner) storeSymlink(abs, rel string, depth int, info fs.FileInfo) *model.Entry {
	target, err := os.Readlink(abs)
	if err != nil {
		s.logger.Warn("unreadable symlink", zap.String("path", rel), zap.Error(err))
		target = ""
	}

	absTarget := target
	if !filepath.IsAbs(absTarget) {
		absTarget = filepath.Join(filepath.Dir(abs), target)
	}
	absTarget = filepath.Clean(absTarget)

	resolved := absTarget
	targetExists := false
	targetKind := model.KindUnknown
	if r, err := filepath.EvalSymlinks(absTarget); err == nil {
		resolved = r
		if ti, err := os.Stat(r); err == nil {
			targetExists = true
			if ti.IsDir() {
				targetKind = model.KindDirectory
			} else {
				targetKind = model.KindFile
			}
		}
	}
	if !targetExists {
		s.stats.BrokenSymlinks++
	}

	e := &model.Entry{
		Kind:           model.KindSymlink,
		Name:           info.Name(),
		Depth:          depth,
		Target:         target,
		ResolvedTarget: resolved,
		TargetExists:   targetExists,
		TargetKind:     targetKind,
	}
	s.put(rel, e)
	s.stats.TotalSymlinks++
	s.bumpDepth(depth)
	return e
}

func (s *scanner) put(rel string, e *model.Entry) {
	s.st.Put(rel, e)
	s.touched = append(s.touched, rel)
}

func (s *scanner) bumpDepth(depth int) {
	if depth > s.stats.MaxDepthReached {
		s.stats.MaxDepthReached = depth
	}
}

// ancestorStack seeds a cycle-guard stack with the real paths of every
// directory from the root down to rel's parent.
func (s *scanner) ancestorStack(rel string) map[string]bool {
	stack := map[string]bool{realPath(s.rootAbs): true}
	parts := strings.Split(rel, "/")
	cur := s.rootAbs
	for _, p := range parts[:len(parts)-1] {
		cur = filepath.Join(cur, p)
		stack[realPath(cur)] = true
	}
	return stack
}

func realPath(abs string) string {
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		return r
	}
	return filepath.Clean(abs)
}
