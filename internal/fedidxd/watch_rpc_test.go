package fedidxd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fedindex/internal/model"
)

func TestWatchDeleteVisibleOverRPC(t *testing.T) {
	root := fixtureTree(t)
	target := filepath.Join(root, "a", "b.txt")

	c := startServer(t)
	id, err := c.FederationAdd(FederationAddParams{Root: root, Watch: true, DebounceMS: 100})
	if err != nil {
		t.Fatalf("federation.add: %v", err)
	}

	if err := os.Remove(target); err != nil {
		t.Fatalf("remove: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		events, err := c.EventsPoll(EventsPollParams{FederationID: id})
		if err != nil {
			t.Fatalf("events.poll: %v", err)
		}
		var deleted bool
		for _, ev := range events {
			if ev.Type == model.EventFileDeleted && ev.Path == "a/b.txt" {
				deleted = true
			}
		}
		if deleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("file:deleted not observed over RPC")
		}
		time.Sleep(50 * time.Millisecond)
	}

	resp, err := c.Search(SearchParams{FederationID: id, Q: "b.txt"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected no results after delete, got %+v", resp.Results)
	}
}
