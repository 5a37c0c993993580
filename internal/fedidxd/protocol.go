package fedidxd

import "encoding/json"

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type FederationAddParams struct {
	Root            string   `json:"root"`
	MaxDepth        int      `json:"max_depth,omitempty"`
	MaxEntries      int      `json:"max_entries,omitempty"`
	ExcludePatterns []string `json:"exclude_patterns,omitempty"`
	SymlinkPolicy   string   `json:"symlink_policy,omitempty"`
	Gitignore       bool     `json:"gitignore,omitempty"`
	Watch           bool     `json:"watch,omitempty"`
	DebounceMS      int      `json:"debounce_ms,omitempty"`
	RefreshSeconds  int      `json:"refresh_seconds,omitempty"`
}

type FederationRemoveParams struct {
	FederationID string `json:"federation_id"`
}

type ScanParams struct {
	FederationID string `json:"federation_id"`
}

type SearchParams struct {
	FederationID string `json:"federation_id"`
	Q            string `json:"q"`
	Limit        int    `json:"limit,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	Extension    string `json:"extension,omitempty"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	MinSize      uint64 `json:"min_size,omitempty"`
	MaxSize      uint64 `json:"max_size,omitempty"`
}

type TreeParams struct {
	FederationID string `json:"federation_id"`
	Path         string `json:"path,omitempty"`
	Depth        int    `json:"depth,omitempty"`
}

type ResolveParams struct {
	FederationID string   `json:"federation_id"`
	Paths        []string `json:"paths"`
}

type StatsParams struct {
	FederationID string `json:"federation_id"`
}

type EventsPollParams struct {
	FederationID string `json:"federation_id"`
	Max          int    `json:"max,omitempty"`
}
