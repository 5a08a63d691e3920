package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matzehuels/stackflow/pkg/buildinfo"
	"github.com/matzehuels/stackflow/pkg/diagram"
	pkgerrors "github.com/matzehuels/stackflow/pkg/errors"
	"github.com/matzehuels/stackflow/pkg/graph"
	"github.com/matzehuels/stackflow/pkg/layout"
	"github.com/matzehuels/stackflow/pkg/parser"
	"github.com/matzehuels/stackflow/pkg/pipeline"
)

// =============================================================================
// Wire types
// =============================================================================

// SourceRequest is the body of /v1/parse and /v1/compile.
type SourceRequest struct {
	Source  string           `json:"source"`
	Options pipeline.Options `json:"options"`
}

// GraphRequest is the body of /v1/layout.
type GraphRequest struct {
	Graph   json.RawMessage  `json:"graph"`
	Options pipeline.Options `json:"options"`
}

// ParseResponse is returned by /v1/parse.
type ParseResponse struct {
	Graph          diagram.Graph `json:"graph"`
	Path           parser.Path   `json:"path"`
	FallbackReason string        `json:"fallback_reason,omitempty"`
	DroppedEdges   int           `json:"dropped_edges"`
	InvalidRecords int           `json:"invalid_records"`
	Cached         bool          `json:"cached"`
}

// LayoutResponse is returned by /v1/layout.
type LayoutResponse struct {
	Layout   graph.Layout   `json:"layout"`
	Grouped  bool           `json:"grouped"`
	Overlap  *layout.Report `json:"overlap,omitempty"`
	Unplaced int            `json:"unplaced"`
	Cached   bool           `json:"cached"`
}

// CompileResponse is returned by /v1/compile.
type CompileResponse struct {
	Graph          diagram.Graph      `json:"graph"`
	Layout         graph.Layout       `json:"layout"`
	Path           parser.Path        `json:"path"`
	FallbackReason string             `json:"fallback_reason,omitempty"`
	Overlap        *layout.Report     `json:"overlap,omitempty"`
	Stats          pipeline.Stats     `json:"stats"`
	Cache          pipeline.CacheInfo `json:"cache"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    pkgerrors.Code `json:"code"`
	Message string         `json:"message"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req SourceRequest
	if err := s.decodeSource(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, hit, err := s.runner.CompileWithCacheInfo(r.Context(), req.Source, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ParseResponse{
		Graph:          res.Graph,
		Path:           res.Path,
		FallbackReason: res.FallbackReason,
		DroppedEdges:   res.DroppedEdges,
		InvalidRecords: res.InvalidRecords,
		Cached:         hit,
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req GraphRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Graph) == 0 || bytes.Equal(bytes.TrimSpace(req.Graph), []byte("null")) {
		s.writeError(w, r, pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "missing graph"))
		return
	}
	g, err := graph.UnmarshalGraph(req.Graph)
	if err != nil {
		s.writeError(w, r, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "invalid graph"))
		return
	}
	res, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), g, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LayoutResponse{
		Layout:   graph.FromLayout(res.Layout, req.Options.SourcePath),
		Grouped:  res.Grouped,
		Overlap:  res.Overlap,
		Unplaced: res.Unplaced,
		Cached:   hit,
	})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req SourceRequest
	if err := s.decodeSource(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), req.Source, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CompileResponse{
		Graph:          res.Graph,
		Layout:         graph.FromLayout(res.Layout, req.Options.SourcePath),
		Path:           res.Path,
		FallbackReason: res.FallbackReason,
		Overlap:        res.Overlap,
		Stats:          res.Stats,
		Cache:          res.CacheInfo,
	})
}

// =============================================================================
// Helpers
// =============================================================================

// bodyLimit leaves room for options and JSON escaping around the source.
func (s *Server) bodyLimit() int64 {
	return int64(s.cfg.MaxSourceBytes)*4 + 64<<10
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.bodyLimit())
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.New(pkgerrors.ErrCodeInputTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidFormat, err, "malformed request body")
	}
	return nil
}

func (s *Server) decodeSource(w http.ResponseWriter, r *http.Request, req *SourceRequest) error {
	if err := s.decode(w, r, req); err != nil {
		return err
	}
	return pkgerrors.ValidateSource(req.Source, s.cfg.MaxSourceBytes)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := pkgerrors.GetCode(err)
	msg := pkgerrors.UserMessage(err)
	switch {
	case code != "":
	case errors.Is(err, context.DeadlineExceeded):
		code, msg = pkgerrors.ErrCodeTimeout, "request timed out"
	default:
		code, msg = pkgerrors.ErrCodeInternal, "internal error"
	}

	status := pkgerrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "error", err,
			"request_id", RequestIDFromContext(r.Context()))
	}
	writeJSON(w, status, ErrorResponse{
		Error:     ErrorBody{Code: code, Message: msg},
		RequestID: RequestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
