package fedidxcli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"fedindex/internal/federation"
	"fedindex/internal/model"
)

func renderJSONL(vs ...any) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	for _, v := range vs {
		_ = enc.Encode(v)
	}
	return b.String()
}

func RenderSearch(resp *model.SearchResponse, jsonl bool) string {
	if resp == nil {
		return ""
	}
	if jsonl {
		vs := make([]any, len(resp.Results))
		for i := range resp.Results {
			vs[i] = resp.Results[i]
		}
		return renderJSONL(vs...)
	}

	var b strings.Builder
	for _, r := range resp.Results {
		detail := string(r.Entry.Kind)
		if r.Entry.Kind == model.KindFile {
			detail = humanize.Bytes(r.Entry.Size)
		}
		_, _ = fmt.Fprintf(&b, "%.2f  %s  (%s)\n", r.Confidence, r.Path, detail)
	}
	_, _ = fmt.Fprintf(&b, "%d result(s) in %.1fms\n", resp.TotalResults, resp.SearchTimeMS)
	return b.String()
}

func RenderTree(node *model.TreeNode, jsonl bool) string {
	if node == nil {
		return ""
	}
	if jsonl {
		return renderJSONL(node)
	}

	var b strings.Builder
	name := node.Name
	if name == "" {
		name = "."
	}
	_, _ = fmt.Fprintln(&b, name)
	renderTreeChildren(&b, node.Children, "")
	return b.String()
}

func renderTreeChildren(b *strings.Builder, children []*model.TreeNode, prefix string) {
	for i, c := range children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(children)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}

		label := c.Name
		switch c.Kind {
		case model.KindDirectory:
			label += "/"
		case model.KindFile:
			label += " (" + humanize.Bytes(c.Size) + ")"
		case model.KindSymlink:
			label += "@"
		}
		_, _ = fmt.Fprintf(b, "%s%s%s\n", prefix, connector, label)
		renderTreeChildren(b, c.Children, childPrefix)
	}
}

func RenderResolutions(res []model.Resolution, jsonl bool) string {
	if jsonl {
		vs := make([]any, len(res))
		for i := range res {
			vs[i] = res[i]
		}
		return renderJSONL(vs...)
	}

	var b strings.Builder
	for _, r := range res {
		switch {
		case r.Error != "":
			_, _ = fmt.Fprintf(&b, "%s: %s\n", r.Path, r.Error)
		case r.Entry.Kind != model.KindSymlink:
			_, _ = fmt.Fprintf(&b, "%s: not a symlink (%s)\n", r.Path, r.Entry.Kind)
		case r.Broken:
			_, _ = fmt.Fprintf(&b, "%s -> %s (broken)\n", r.Path, r.TargetPath)
		default:
			_, _ = fmt.Fprintf(&b, "%s -> %s (%s)\n", r.Path, r.TargetPath, r.Target.Kind)
		}
	}
	return b.String()
}

func RenderStats(snap federation.StatsSnapshot, jsonl bool) string {
	if jsonl {
		return renderJSONL(snap)
	}

	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "root:              %s\n", snap.Root)
	_, _ = fmt.Fprintf(&b, "entries:           %d\n", snap.Entries)
	_, _ = fmt.Fprintf(&b, "directories:       %d\n", snap.TotalDirectories)
	_, _ = fmt.Fprintf(&b, "files:             %d\n", snap.TotalFiles)
	_, _ = fmt.Fprintf(&b, "symlinks:          %d (%d broken)\n", snap.TotalSymlinks, snap.BrokenSymlinks)
	_, _ = fmt.Fprintf(&b, "max depth reached: %d\n", snap.MaxDepthReached)
	_, _ = fmt.Fprintf(&b, "excluded:          %d\n", snap.ExcludedItems)
	_, _ = fmt.Fprintf(&b, "scan duration:     %dms\n", snap.ScanDurationMS)
	for _, name := range []string{"path_components", "extensions", "size_buckets", "modified_buckets", "content_types"} {
		if n, ok := snap.IndexKeys[name]; ok {
			_, _ = fmt.Fprintf(&b, "index %-13s %d key(s)\n", name+":", n)
		}
	}
	return b.String()
}

func RenderEvent(ev model.Event, jsonl bool) string {
	if jsonl {
		return renderJSONL(ev)
	}
	if ev.Path != "" {
		return fmt.Sprintf("%s %s %s\n", ev.Time.Format("15:04:05"), ev.Type, ev.Path)
	}
	return fmt.Sprintf("%s %s\n", ev.Time.Format("15:04:05"), ev.Type)
}
