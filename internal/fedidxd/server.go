package fedidxd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"fedindex/internal/version"
)

type Options struct {
	Listen string
}

type Server struct {
	opts Options
	h    *Handlers

	mu        sync.Mutex
	listener  net.Listener
	closeOnce sync.Once
	closed    chan struct{}
}

func NewServer(opts Options) *Server {
	if opts.Listen == "" {
		opts.Listen = "127.0.0.1:7347"
	}
	return &Server{
		opts:   opts,
		h:      NewHandlers(),
		closed: make(chan struct{}),
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Run() error {
	if s == nil {
		return fmt.Errorf("server is nil")
	}

	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	if s == nil {
		return nil
	}

	s.closeOnce.Do(func() { close(s.closed) })

	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	s.h.CloseAll()

	if ln == nil {
		return nil
	}
	return ln.Close()
}

func (s *Server) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	defer func() { _ = w.Flush() }()

	for {
		var req Request
		line, err := readFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			return
		}

		if err := json.Unmarshal(line, &req); err != nil {
			_ = writeFrame(w, Response{
				JSONRPC: "2.0",
				ID:      json.RawMessage("null"),
				Error:   &ErrorObject{Code: -32700, Message: "parse error"},
			})
			_ = w.Flush()
			continue
		}

		if len(req.ID) == 0 {
			// Notification: no response.
			_ = s.dispatch(req)
			continue
		}

		resp := s.dispatch(req)
		_ = writeFrame(w, resp)
		_ = w.Flush()
	}
}

func (s *Server) dispatch(req Request) Response {
	resp := Response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		resp.Error = &ErrorObject{Code: -32600, Message: "invalid jsonrpc version"}
		return resp
	}

	switch req.Method {
	case "ping":
		resp.Result = "pong"
	case "version":
		resp.Result = version.String()
	case "federation.add":
		var p FederationAddParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		id, err := s.h.FederationAdd(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = id
	case "federation.remove":
		var p FederationRemoveParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.FederationID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "federation_id is required"}
			return resp
		}
		ok, err := s.h.FederationRemove(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = ok
	case "scan":
		var p ScanParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.FederationID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "federation_id is required"}
			return resp
		}
		stats, err := s.h.Scan(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = stats
	case "search":
		var p SearchParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.FederationID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "federation_id is required"}
			return resp
		}
		if strings.TrimSpace(p.Q) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "q is required"}
			return resp
		}
		sr, err := s.h.Search(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = sr
	case "tree":
		var p TreeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.FederationID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "federation_id is required"}
			return resp
		}
		node, err := s.h.Tree(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = node
	case "resolve":
		var p ResolveParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.FederationID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "federation_id is required"}
			return resp
		}
		if len(p.Paths) == 0 {
			resp.Error = &ErrorObject{Code: -32602, Message: "paths is required"}
			return resp
		}
		res, err := s.h.Resolve(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = res
	case "stats":
		var p StatsParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.FederationID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "federation_id is required"}
			return resp
		}
		snap, err := s.h.Stats(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = snap
	case "events.poll":
		var p EventsPollParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.FederationID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "federation_id is required"}
			return resp
		}
		events, err := s.h.EventsPoll(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = events
	default:
		resp.Error = &ErrorObject{Code: -32601, Message: "method not found"}
	}

	return resp
}
