package fedidxd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fedindex/internal/core/query"
	"fedindex/internal/core/scan"
	"fedindex/internal/federation"
	"fedindex/internal/model"
)

type federationState struct {
	idx    *federation.Index
	subID  string
	events <-chan model.Event
}

type Handlers struct {
	mu          sync.RWMutex
	federations map[string]*federationState
}

func NewHandlers() *Handlers {
	return &Handlers{federations: map[string]*federationState{}}
}

// FederationAdd registers a root, runs the initial scan and starts the
// background loops. The returned id addresses the federation in every
// other method.
func (h *Handlers) FederationAdd(p FederationAddParams) (string, error) {
	if h == nil {
		return "", fmt.Errorf("handlers is nil")
	}
	if strings.TrimSpace(p.Root) == "" {
		return "", fmt.Errorf("root is required")
	}

	cfg := federation.Config{
		Root:             p.Root,
		MaxDepth:         p.MaxDepth,
		MaxEntries:       p.MaxEntries,
		ExcludePatterns:  p.ExcludePatterns,
		SymlinkPolicy:    scan.Policy(p.SymlinkPolicy),
		RespectGitignore: p.Gitignore,
		WatchEnabled:     p.Watch,
	}
	if p.DebounceMS > 0 {
		cfg.WatchDebounce = time.Duration(p.DebounceMS) * time.Millisecond
	}
	if p.RefreshSeconds > 0 {
		cfg.RefreshInterval = time.Duration(p.RefreshSeconds) * time.Second
	}

	idx, err := federation.New(cfg)
	if err != nil {
		return "", err
	}

	subID, events := idx.Subscribe()
	if err := idx.Start(context.Background()); err != nil {
		idx.Close()
		return "", err
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.federations[id] = &federationState{idx: idx, subID: subID, events: events}
	h.mu.Unlock()
	return id, nil
}

func (h *Handlers) FederationRemove(p FederationRemoveParams) (bool, error) {
	if h == nil {
		return false, fmt.Errorf("handlers is nil")
	}

	h.mu.Lock()
	st, ok := h.federations[strings.TrimSpace(p.FederationID)]
	if ok {
		delete(h.federations, strings.TrimSpace(p.FederationID))
	}
	h.mu.Unlock()

	if !ok {
		return false, fmt.Errorf("federation not found")
	}
	_ = st.idx.Close()
	return true, nil
}

func (h *Handlers) Scan(p ScanParams) (model.Stats, error) {
	st, err := h.get(p.FederationID)
	if err != nil {
		return model.Stats{}, err
	}
	return st.idx.FullScan(context.Background())
}

func (h *Handlers) Search(p SearchParams) (*model.SearchResponse, error) {
	st, err := h.get(p.FederationID)
	if err != nil {
		return nil, err
	}
	return st.idx.Search(p.Q, query.Options{
		Limit: p.Limit,
		Filters: query.Filters{
			ContentType: p.ContentType,
			Extension:   p.Extension,
			MaxDepth:    p.MaxDepth,
			MinSize:     p.MinSize,
			MaxSize:     p.MaxSize,
		},
	})
}

func (h *Handlers) Tree(p TreeParams) (*model.TreeNode, error) {
	st, err := h.get(p.FederationID)
	if err != nil {
		return nil, err
	}
	return st.idx.Tree(p.Path, p.Depth)
}

func (h *Handlers) Resolve(p ResolveParams) ([]model.Resolution, error) {
	st, err := h.get(p.FederationID)
	if err != nil {
		return nil, err
	}
	return st.idx.Resolve(p.Paths), nil
}

func (h *Handlers) Stats(p StatsParams) (federation.StatsSnapshot, error) {
	st, err := h.get(p.FederationID)
	if err != nil {
		return federation.StatsSnapshot{}, err
	}
	return st.idx.Stats(), nil
}

// EventsPoll drains up to max buffered events without blocking. Clients
// poll; the daemon never pushes.
func (h *Handlers) EventsPoll(p EventsPollParams) ([]model.Event, error) {
	st, err := h.get(p.FederationID)
	if err != nil {
		return nil, err
	}

	max := p.Max
	if max <= 0 {
		max = 64
	}
	events := make([]model.Event, 0, max)
	for len(events) < max {
		select {
		case ev, ok := <-st.events:
			if !ok {
				return events, nil
			}
			events = append(events, ev)
		default:
			return events, nil
		}
	}
	return events, nil
}

func (h *Handlers) get(federationID string) (*federationState, error) {
	if h == nil {
		return nil, fmt.Errorf("handlers is nil")
	}
	h.mu.RLock()
	st, ok := h.federations[strings.TrimSpace(federationID)]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("federation not found")
	}
	return st, nil
}

func (h *Handlers) CloseAll() {
	if h == nil {
		return
	}
	h.mu.Lock()
	states := make([]*federationState, 0, len(h.federations))
	for id, st := range h.federations {
		states = append(states, st)
		delete(h.federations, id)
	}
	h.mu.Unlock()

	for _, st := range states {
		_ = st.idx.Close()
	}
}
