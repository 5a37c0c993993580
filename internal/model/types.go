package model

import "time"

type EntryKind string

const (
	KindDirectory EntryKind = "directory"
	KindFile      EntryKind = "file"
	KindSymlink   EntryKind = "symlink"
	KindUnknown   EntryKind = "unknown"
)

type ContentType string

const (
	ContentCode     ContentType = "code"
	ContentDocument ContentType = "document"
	ContentImage    ContentType = "image"
	ContentVideo    ContentType = "video"
	ContentAudio    ContentType = "audio"
	ContentArchive  ContentType = "archive"
	ContentData     ContentType = "data"
	ContentConfig   ContentType = "config"
	ContentWeb      ContentType = "web"
	ContentUnknown  ContentType = "unknown"
)

// Entry is one indexed path, keyed by its root-relative slash path.
// Kind decides which of the optional field groups is meaningful.
type Entry struct {
	Kind  EntryKind `json:"kind"`
	Name  string    `json:"name"`
	Depth int       `json:"depth"`

	// directory
	Children []string `json:"children,omitempty"`

	// file
	Extension   string      `json:"extension,omitempty"`
	Size        uint64      `json:"size,omitempty"`
	Created     time.Time   `json:"created,omitzero"`
	Modified    time.Time   `json:"modified,omitzero"`
	Accessed    time.Time   `json:"accessed,omitzero"`
	ContentType ContentType `json:"content_type,omitempty"`

	// symlink
	Target         string    `json:"target,omitempty"`
	ResolvedTarget string    `json:"resolved_target,omitempty"`
	TargetExists   bool      `json:"target_exists,omitempty"`
	TargetKind     EntryKind `json:"target_kind,omitempty"`
}

func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	cp := *e
	if e.Children != nil {
		cp.Children = append([]string(nil), e.Children...)
	}
	return &cp
}

// FileMeta is the extended metadata side table, 1:1 with file entries.
// Hash is empty when hashing failed or was skipped.
type FileMeta struct {
	Mode   uint32 `json:"mode"`
	UID    uint32 `json:"uid"`
	GID    uint32 `json:"gid"`
	Blocks int64  `json:"blocks"`
	Hash   string `json:"hash,omitempty"`
}

type Stats struct {
	TotalDirectories int   `json:"total_directories"`
	TotalFiles       int   `json:"total_files"`
	TotalSymlinks    int   `json:"total_symlinks"`
	BrokenSymlinks   int   `json:"broken_symlinks"`
	MaxDepthReached  int   `json:"max_depth_reached"`
	ExcludedItems    int   `json:"excluded_items"`
	ScanDurationMS   int64 `json:"scan_duration_ms"`
}

type SearchResult struct {
	Path       string  `json:"path"`
	Confidence float64 `json:"confidence"`
	Entry      *Entry  `json:"entry"`
}

type SearchResponse struct {
	Query        string         `json:"query"`
	TotalResults int            `json:"total_results"`
	Results      []SearchResult `json:"results"`
	SearchTimeMS float64        `json:"search_time_ms"`
}

// Resolution reports a path's entry and, for symlinks, the target entry.
// Broken is set when the link target does not exist or is outside the root.
// LinkedBy lists the indexed symlinks whose resolved target is this path.
type Resolution struct {
	Path       string   `json:"path"`
	Entry      *Entry   `json:"entry,omitempty"`
	TargetPath string   `json:"target_path,omitempty"`
	Target     *Entry   `json:"target,omitempty"`
	LinkedBy   []string `json:"linked_by,omitempty"`
	Broken     bool     `json:"broken,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type TreeNode struct {
	Path     string      `json:"path"`
	Name     string      `json:"name"`
	Kind     EntryKind   `json:"kind"`
	Size     uint64      `json:"size,omitempty"`
	Modified time.Time   `json:"modified,omitzero"`
	Children []*TreeNode `json:"children,omitempty"`
}

type EventType string

const (
	EventReady        EventType = "federation:ready"
	EventScanComplete EventType = "scan:complete"
	EventFileUpdated  EventType = "file:updated"
	EventFileDeleted  EventType = "file:deleted"
)

type Event struct {
	Type  EventType `json:"type"`
	Path  string    `json:"path,omitempty"`
	Stats *Stats    `json:"stats,omitempty"`
	Time  time.Time `json:"time"`
}
