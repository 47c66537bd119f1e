package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/studyloop/mentor-go/internal/knowledge"
	"github.com/studyloop/mentor-go/internal/logging"
	"github.com/studyloop/mentor-go/internal/rag"
)

// writeJSON encodes v as the response body with the given status. Encode
// failures are logged through the request-scoped logger so they carry the
// request id like every other line in the middleware chain.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("server: response encode error", slog.Any("error", err))
	}
}

// writeError sends a JSON error body. Only caller-input failures reach here;
// provider failures are absorbed upstream and never surface as errors.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// handleSearch handles POST /api/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.searchRequestsTotal.WithLabelValues("rejected").Inc()
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	result, err := s.search.Search(r.Context(), knowledge.Query{
		Text:      req.Query,
		Filter:    req.Filters,
		Limit:     req.Limit,
		Threshold: req.Threshold,
	})
	if err != nil {
		// Search only fails on input validation; nothing else propagates.
		s.metrics.searchRequestsTotal.WithLabelValues("rejected").Inc()
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	outcome := "ok"
	if result.Degraded {
		outcome = "degraded"
	}
	s.metrics.searchRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.searchDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	writeJSON(w, r, http.StatusOK, searchResponse{
		Documents:     result.Documents,
		TotalResults:  result.TotalResults,
		SearchTime:    float64(result.SearchTime.Microseconds()) / 1000,
		AvgSimilarity: result.AvgSimilarity,
		Degraded:      result.Degraded,
	})
}

// handleAsk handles POST /api/ask.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req rag.Question
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.askRequestsTotal.WithLabelValues("rejected").Inc()
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	answer, err := s.ask.Ask(r.Context(), req)
	if err != nil {
		s.metrics.askRequestsTotal.WithLabelValues("rejected").Inc()
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	outcome := "ok"
	if len(answer.Sources) == 0 {
		outcome = "no_sources"
	}
	s.metrics.askRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.askDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	writeJSON(w, r, http.StatusOK, answer)
}

// handleAddDocument handles POST /api/documents.
func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.store.Add(r.Context(), req.Content, req.Metadata)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.mutated(r)
	writeJSON(w, r, http.StatusCreated, addDocumentResponse{DocumentID: id})
}

// handleGetDocument handles GET /api/documents/{id}.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, r, http.StatusOK, doc)
}

// handleUpdateDocument handles PATCH /api/documents/{id}.
func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.store.Get(id); !ok {
		writeError(w, r, http.StatusNotFound, "document not found")
		return
	}

	var req updateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	ok := s.store.Update(r.Context(), id, knowledge.Patch{
		Content:    req.Content,
		Title:      req.Title,
		Source:     req.Source,
		Type:       req.Type,
		Difficulty: req.Difficulty,
		Topics:     req.Topics,
		LessonLink: req.LessonLink,
	})
	if !ok {
		// The id exists, so a false return means the patch was invalid.
		writeError(w, r, http.StatusBadRequest, "invalid patch")
		return
	}

	s.mutated(r)
	doc, _ := s.store.Get(id)
	writeJSON(w, r, http.StatusOK, doc)
}

// handleDeleteDocument handles DELETE /api/documents/{id}.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if !s.store.Remove(r.PathValue("id")) {
		writeError(w, r, http.StatusNotFound, "document not found")
		return
	}
	s.mutated(r)
	w.WriteHeader(http.StatusNoContent)
}

// handleStats handles GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.store.Stats())
}

// handleExport handles GET /api/export. The response includes embeddings so
// the snapshot can be re-imported without provider calls.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, exportResponse{
		Documents:  s.store.Export(),
		ExportedAt: time.Now(),
	})
}

// handleImport handles POST /api/import: wholesale replacement of the
// collection, with lazy embedding backfill for documents that lack one.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.Import(r.Context(), req.Documents); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.mutated(r)
	writeJSON(w, r, http.StatusOK, importResponse{Imported: s.store.Len()})
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// mutated runs the configured post-mutation hook, if any.
func (s *Server) mutated(r *http.Request) {
	if s.cfg.OnMutation == nil {
		return
	}
	log := logging.FromContext(r.Context())
	log.Debug("running post-mutation hook")
	s.cfg.OnMutation(r.Context())
}
