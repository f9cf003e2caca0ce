package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"filebridge/internal/agent"
	"filebridge/internal/tools"
)

// HealthResponse is the JSON response for GET /healthz.
type HealthResponse struct {
	Status string   `json:"status"`
	Tools  []string `json:"tools"`
}

// BatchRequest is the body of POST /v1/batch.
type BatchRequest struct {
	Calls []agent.Call `json:"calls"`
}

// BatchResponse is returned by POST /v1/batch.
type BatchResponse struct {
	Results []agent.ToolCallRecord `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Tools: s.dispatcher.Tools().Names()})
	}
}

func (s *Server) handleListTools() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.dispatcher.Tools().Definitions())
	}
}

// handleCallTool treats the request body as the tool arguments.
func (s *Server) handleCallTool() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		record := s.dispatcher.Run(r.Context(), agent.Call{
			ID:        r.Header.Get("X-Call-ID"),
			Name:      chi.URLParam(r, "name"),
			Arguments: body,
		})
		writeJSON(w, statusFor(record.Result), record)
	}
}

func (s *Server) handleBatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BatchRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid batch request: %v", err)})
			return
		}
		if len(req.Calls) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "batch must contain at least one call"})
			return
		}
		if len(req.Calls) > s.opts.MaxBatch {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("batch exceeds %d calls", s.opts.MaxBatch)})
			return
		}
		writeJSON(w, http.StatusOK, BatchResponse{Results: s.dispatcher.RunBatch(r.Context(), req.Calls)})
	}
}

// statusFor maps a result's error kind to an HTTP status. The body always
// carries the full result.
func statusFor(res tools.Result) int {
	if res.Error == nil {
		return http.StatusOK
	}
	switch res.Error.Type {
	case tools.ErrorToolNotFound:
		return http.StatusNotFound
	case tools.ErrorInvalidParams:
		return http.StatusBadRequest
	case tools.ErrorToolUnavailable:
		return http.StatusForbidden
	case tools.ErrorInvocationConsumed:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
