package query

import (
	"testing"
	"time"

	"fedindex/internal/core/index"
	"fedindex/internal/core/store"
	"fedindex/internal/model"
)

func testEngine(t *testing.T) (*Engine, *store.Store, *index.Indexes) {
	t.Helper()
	st := store.New()
	st.Put("a", &model.Entry{Kind: model.KindDirectory, Name: "a", Depth: 1, Children: []string{"b.txt", "link"}})
	st.Put("a/b.txt", &model.Entry{
		Kind: model.KindFile, Name: "b.txt", Depth: 2, Extension: "txt",
		Size: 10, Modified: time.Now(), ContentType: model.ContentDocument,
	})
	st.Put("a/link", &model.Entry{
		Kind: model.KindSymlink, Name: "link", Depth: 2,
		Target: "../a", ResolvedTarget: "/fed/a", TargetExists: true, TargetKind: model.KindDirectory,
	})
	st.Put("src", &model.Entry{Kind: model.KindDirectory, Name: "src", Depth: 1, Children: []string{"builder.go"}})
	st.Put("src/builder.go", &model.Entry{
		Kind: model.KindFile, Name: "builder.go", Depth: 2, Extension: "go",
		Size: 2048, Modified: time.Now(), ContentType: model.ContentCode,
	})

	ix := index.New()
	ix.RebuildAll(st)
	return NewEngine("/fed", st, ix), st, ix
}

func TestSearch_ExactMatch(t *testing.T) {
	e, _, _ := testEngine(t)

	resp, err := e.Search("b.txt", Options{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.TotalResults != 1 || len(resp.Results) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	r := resp.Results[0]
	if r.Path != "a/b.txt" || r.Confidence != 1.0 {
		t.Fatalf("result = %+v", r)
	}
	if r.Entry.Kind != model.KindFile {
		t.Fatalf("entry kind = %q", r.Entry.Kind)
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	e, _, _ := testEngine(t)

	resp, err := e.Search("B.TXT", Options{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Confidence != 1.0 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSearch_FuzzySubstring(t *testing.T) {
	e, _, _ := testEngine(t)

	resp, err := e.Search("builder", Options{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %+v", resp.Results)
	}
	r := resp.Results[0]
	if r.Path != "src/builder.go" {
		t.Fatalf("path = %q", r.Path)
	}
	if r.Confidence <= fuzzyThreshold || r.Confidence >= 1.0 {
		t.Fatalf("confidence = %v, want in (0.5, 1.0)", r.Confidence)
	}
}

func TestSearch_FuzzyBelowThresholdDropped(t *testing.T) {
	e, _, _ := testEngine(t)

	// "b" is contained in "b.txt" and "builder.go" but similarity to both
	// is far below 0.5; only the exact component "b" would match, and none
	// exists.
	resp, err := e.Search("b", Options{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("results = %+v", resp.Results)
	}
}

func TestSearch_Filters(t *testing.T) {
	e, _, _ := testEngine(t)

	resp, err := e.Search("a", Options{Filters: Filters{ContentType: "document"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// The directory "a" and the symlink both carry the component, but the
	// content type filter keeps files only.
	for _, r := range resp.Results {
		if r.Entry.Kind != model.KindFile {
			t.Fatalf("non-file passed content type filter: %+v", r)
		}
	}

	resp, err = e.Search("b.txt", Options{Filters: Filters{MinSize: 100}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("min size filter failed: %+v", resp.Results)
	}

	resp, err = e.Search("b.txt", Options{Filters: Filters{MaxDepth: 1}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("max depth filter failed: %+v", resp.Results)
	}
}

func TestSearch_LimitAndOrdering(t *testing.T) {
	st := store.New()
	for _, p := range []string{"x/report.txt", "y/report.txt", "z/report.txt.bak"} {
		st.Put(p, &model.Entry{Kind: model.KindFile, Name: p[2:], Depth: 2, Extension: "txt", Size: 1, Modified: time.Now(), ContentType: model.ContentDocument})
	}
	ix := index.New()
	ix.RebuildAll(st)
	e := NewEngine("/fed", st, ix)

	resp, err := e.Search("report.txt", Options{Limit: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.TotalResults != 3 || len(resp.Results) != 2 {
		t.Fatalf("total=%d len=%d", resp.TotalResults, len(resp.Results))
	}
	// Exact hits first, path order within equal confidence.
	if resp.Results[0].Path != "x/report.txt" || resp.Results[0].Confidence != 1.0 {
		t.Fatalf("first = %+v", resp.Results[0])
	}
	if resp.Results[1].Path != "y/report.txt" {
		t.Fatalf("second = %+v", resp.Results[1])
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	e, _, _ := testEngine(t)
	if _, err := e.Search("   ", Options{}); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestSearch_CacheInvalidation(t *testing.T) {
	e, st, ix := testEngine(t)

	resp1, err := e.Search("b.txt", Options{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp1.Results) != 1 {
		t.Fatalf("resp1 = %+v", resp1)
	}

	st.Delete("a/b.txt")
	ix.Reindex("a/b.txt", nil)

	// Without invalidation the cached response is served.
	resp2, _ := e.Search("b.txt", Options{})
	if len(resp2.Results) != 1 {
		t.Fatalf("expected cached response, got %+v", resp2)
	}

	e.Invalidate()
	resp3, err := e.Search("b.txt", Options{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp3.Results) != 0 {
		t.Fatalf("stale results after invalidation: %+v", resp3)
	}
}

func TestResolve(t *testing.T) {
	e, _, _ := testEngine(t)

	res := e.Resolve([]string{"a/link", "a/b.txt", "ghost", "a"})
	if len(res) != 4 {
		t.Fatalf("res = %+v", res)
	}

	link := res[0]
	if link.Entry == nil || link.Entry.Kind != model.KindSymlink || link.Broken {
		t.Fatalf("link = %+v", link)
	}
	if link.TargetPath != "a" {
		t.Fatalf("target path = %q, want a", link.TargetPath)
	}
	if link.Target == nil || link.Target.Kind != model.KindDirectory {
		t.Fatalf("target = %+v", link.Target)
	}

	file := res[1]
	if file.Entry == nil || file.Target != nil || file.TargetPath != "" {
		t.Fatalf("file = %+v", file)
	}

	ghost := res[2]
	if ghost.Error == "" || ghost.Entry != nil {
		t.Fatalf("ghost = %+v", ghost)
	}

	dir := res[3]
	if len(dir.LinkedBy) != 1 || dir.LinkedBy[0] != "a/link" {
		t.Fatalf("linked by = %+v", dir.LinkedBy)
	}
}

func TestResolve_Broken(t *testing.T) {
	st := store.New()
	st.Put("dead", &model.Entry{
		Kind: model.KindSymlink, Name: "dead", Depth: 1,
		Target: "gone", ResolvedTarget: "/fed/gone", TargetExists: false, TargetKind: model.KindUnknown,
	})
	ix := index.New()
	ix.RebuildAll(st)
	e := NewEngine("/fed", st, ix)

	res := e.Resolve([]string{"dead"})
	if !res[0].Broken {
		t.Fatalf("expected broken marker: %+v", res[0])
	}
}
