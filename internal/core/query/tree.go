package query

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"fedindex/internal/model"
)

// Tree builds a bounded-depth view rooted at rootPath ("" for the
// federation root), expanding only directory entries' recorded children.
// Directories sort before files; both groups sort lexically by name.
func (e *Engine) Tree(rootPath string, maxDepth int) (*model.TreeNode, error) {
	if e == nil {
		return nil, fmt.Errorf("engine is nil")
	}
	if maxDepth <= 0 {
		maxDepth = 3
	}

	rootPath = strings.Trim(path.Clean("/"+strings.TrimSpace(rootPath)), "/")
	if rootPath == "" || rootPath == "." {
		node := &model.TreeNode{Path: "", Name: "/", Kind: model.KindDirectory}
		node.Children = e.childNodes(e.topLevel(), "", maxDepth, 1)
		return node, nil
	}

	entry, ok := e.st.Get(rootPath)
	if !ok {
		return nil, fmt.Errorf("path %q is not indexed", rootPath)
	}
	node := nodeFor(rootPath, entry)
	if entry.Kind == model.KindDirectory {
		node.Children = e.childNodes(entry.Children, rootPath, maxDepth, 1)
	}
	return node, nil
}

func (e *Engine) childNodes(names []string, parent string, maxDepth, depth int) []*model.TreeNode {
	if depth > maxDepth {
		return nil
	}

	var nodes []*model.TreeNode
	for _, name := range names {
		rel := name
		if parent != "" {
			rel = parent + "/" + name
		}
		entry, ok := e.st.Get(rel)
		if !ok {
			continue
		}
		n := nodeFor(rel, entry)
		if entry.Kind == model.KindDirectory {
			n.Children = e.childNodes(entry.Children, rel, maxDepth, depth+1)
		}
		nodes = append(nodes, n)
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		di := nodes[i].Kind == model.KindDirectory
		dj := nodes[j].Kind == model.KindDirectory
		if di != dj {
			return di
		}
		return nodes[i].Name < nodes[j].Name
	})
	return nodes
}

// topLevel lists the federation root's direct children, which have no
// stored parent entry.
func (e *Engine) topLevel() []string {
	var names []string
	e.st.Range(func(rel string, _ *model.Entry) bool {
		if !strings.Contains(rel, "/") {
			names = append(names, rel)
		}
		return true
	})
	sort.Strings(names)
	return names
}

func nodeFor(rel string, entry *model.Entry) *model.TreeNode {
	return &model.TreeNode{
		Path:     rel,
		Name:     entry.Name,
		Kind:     entry.Kind,
		Size:     entry.Size,
		Modified: entry.Modified,
	}
}
