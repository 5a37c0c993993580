package classify

import (
	"os"
	"path/filepath"
	"testing"

	"fedindex/internal/model"
)

func TestExcluded_Defaults(t *testing.T) {
	c, err := New(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	cases := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{"node_modules", true, true},
		{"src/node_modules", true, true},
		{".git", true, true},
		{"a/b/.DS_Store", false, true},
		{"build/out.tmp", false, true},
		{"var/app.log", false, true},
		{"temp", true, true},
		{"cache", true, true},
		{"src/main.go", false, false},
		{"logs", true, false},
	}
	for _, tc := range cases {
		if got := c.Excluded(tc.rel, tc.isDir); got != tc.want {
			t.Fatalf("Excluded(%q) = %v, want %v", tc.rel, got, tc.want)
		}
	}
}

func TestExcluded_PathPatterns(t *testing.T) {
	c, err := New(t.TempDir(), Options{ExcludePatterns: []string{"vendor/**", "*.bak"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if !c.Excluded("vendor/lib/x.go", false) {
		t.Fatalf("expected vendor/lib/x.go excluded")
	}
	if !c.Excluded("notes.bak", false) {
		t.Fatalf("expected notes.bak excluded")
	}
	if c.Excluded("node_modules", true) {
		t.Fatalf("custom patterns must replace defaults")
	}
}

func TestExcluded_Gitignore(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("secret/\n*.key\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := New(root, Options{ExcludePatterns: []string{}, RespectGitignore: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !c.Excluded("secret", true) {
		t.Fatalf("expected secret/ ignored")
	}
	if !c.Excluded("conf/api.key", false) {
		t.Fatalf("expected api.key ignored")
	}
	if c.Excluded("conf/api.pub", false) {
		t.Fatalf("api.pub should not be ignored")
	}
}

func TestContentTypeFor(t *testing.T) {
	cases := map[string]model.ContentType{
		".go":   model.ContentCode,
		"md":    model.ContentDocument,
		".PNG":  model.ContentImage,
		".json": model.ContentConfig,
		".zip":  model.ContentArchive,
		".xyz":  model.ContentUnknown,
		"":      model.ContentUnknown,
	}
	for ext, want := range cases {
		if got := ContentTypeFor(ext); got != want {
			t.Fatalf("ContentTypeFor(%q) = %q, want %q", ext, got, want)
		}
	}
}
