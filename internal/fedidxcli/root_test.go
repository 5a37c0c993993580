package fedidxcli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func fixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", "b.txt"), []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return root
}

func TestHelpContainsSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	s := out.String()
	for _, want := range []string{"fedidx", "scan", "search", "tree", "resolve", "stats", "watch"} {
		if !strings.Contains(s, want) {
			t.Fatalf("help missing %q: %s", want, s)
		}
	}
}

func TestScanCommand(t *testing.T) {
	out := runCommand(t, "scan", fixtureTree(t))
	if !strings.Contains(out, "files:             1") {
		t.Fatalf("unexpected scan output:\n%s", out)
	}
	if !strings.Contains(out, "directories:       1") {
		t.Fatalf("unexpected scan output:\n%s", out)
	}
}

func TestSearchCommandJSONL(t *testing.T) {
	out := runCommand(t, "search", "b.txt", "-r", fixtureTree(t), "--json")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %v", lines)
	}
	var res struct {
		Path       string  `json:"path"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Path != "a/b.txt" || res.Confidence != 1.0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestSearchCommandFilters(t *testing.T) {
	out := runCommand(t, "search", "b.txt", "-r", fixtureTree(t), "--min-size", "1KB")
	if !strings.Contains(out, "0 result(s)") {
		t.Fatalf("size filter should exclude the 10-byte file:\n%s", out)
	}
}

func TestTreeCommand(t *testing.T) {
	out := runCommand(t, "tree", "-r", fixtureTree(t))
	if !strings.Contains(out, "a/") || !strings.Contains(out, "b.txt") {
		t.Fatalf("unexpected tree output:\n%s", out)
	}
	if !strings.Contains(out, "└── ") {
		t.Fatalf("missing tree connector:\n%s", out)
	}
}

func TestResolveCommand(t *testing.T) {
	root := fixtureTree(t)
	if err := os.Symlink(filepath.Join(root, "a", "b.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	out := runCommand(t, "resolve", "link.txt", "missing", "-r", root)
	if !strings.Contains(out, "link.txt -> a/b.txt (file)") {
		t.Fatalf("unexpected resolve output:\n%s", out)
	}
	if !strings.Contains(out, "missing: path not indexed") {
		t.Fatalf("unexpected resolve output:\n%s", out)
	}
}

func TestStatsCommandJSONL(t *testing.T) {
	out := runCommand(t, "stats", "-r", fixtureTree(t), "--json")

	var snap struct {
		Entries    int            `json:"entries"`
		TotalFiles int            `json:"total_files"`
		IndexKeys  map[string]int `json:"index_keys"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &snap); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if snap.Entries != 2 || snap.TotalFiles != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.IndexKeys["path_components"] == 0 {
		t.Fatalf("index keys missing: %+v", snap.IndexKeys)
	}
}
