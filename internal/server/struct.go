package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/studyloop/mentor-go/internal/knowledge"
	"github.com/studyloop/mentor-go/internal/rag"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	// Must cover a full RAG round trip including two completion calls.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives all Prometheus metric registrations. If nil,
	// prometheus.DefaultRegisterer is used. Tests inject a fresh registry.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. If nil, prometheus.DefaultGatherer
	// is used. Must correspond to MetricsRegistry.
	MetricsGatherer prometheus.Gatherer
	// OnMutation, if set, is called after every successful mutation
	// (add, update, delete, import), e.g. to persist a snapshot.
	OnMutation func(ctx context.Context)
}

// documentStore is the slice of the knowledge store surface the handlers
// need. *knowledge.Store satisfies it; tests inject a fake.
type documentStore interface {
	Add(ctx context.Context, content string, meta knowledge.Metadata) (string, error)
	Update(ctx context.Context, id string, patch knowledge.Patch) bool
	Remove(id string) bool
	Get(id string) (knowledge.Document, bool)
	Export() []knowledge.Document
	Import(ctx context.Context, docs []knowledge.Document) error
	Stats() knowledge.Stats
	Len() int
}

// searcher is the semantic search surface. *knowledge.Searcher satisfies it.
type searcher interface {
	Search(ctx context.Context, q knowledge.Query) (*knowledge.Result, error)
}

// asker is the RAG surface. *rag.Engine satisfies it.
type asker interface {
	Ask(ctx context.Context, q rag.Question) (*rag.Answer, error)
}

// Server is the HTTP server exposing search, ask, and document management.
type Server struct {
	// store is the document collection behind the CRUD endpoints.
	store documentStore
	// search serves POST /api/search.
	search searcher
	// ask serves POST /api/ask.
	ask asker
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// metrics holds all Prometheus metrics owned by this server.
	metrics *serverMetrics
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// searchRequest is the JSON body for POST /api/search.
type searchRequest struct {
	// Query is the natural-language search text.
	Query string `json:"query"`
	// Filters optionally narrows candidates by metadata.
	Filters *knowledge.Filter `json:"filters,omitempty"`
	// Limit caps the returned page. Zero means the server default.
	Limit int `json:"limit,omitempty"`
	// Threshold is the minimum similarity. Absent means the server default;
	// an explicit 0 is honoured.
	Threshold *float64 `json:"threshold,omitempty"`
}

// searchResponse is the JSON response for POST /api/search.
type searchResponse struct {
	// Documents is the ordered result page with transient similarity scores.
	Documents []knowledge.ScoredDocument `json:"documents"`
	// TotalResults counts all matches above threshold, pre-truncation.
	TotalResults int `json:"totalResults"`
	// SearchTime is the elapsed search time in milliseconds.
	SearchTime float64 `json:"searchTime"`
	// AvgSimilarity is the mean similarity across all matches.
	AvgSimilarity float64 `json:"avgSimilarity"`
	// Degraded reports that the query embedding came from the fallback path.
	Degraded bool `json:"degraded,omitempty"`
}

// addDocumentRequest is the JSON body for POST /api/documents.
type addDocumentRequest struct {
	// Content is the passage text.
	Content string `json:"content"`
	// Metadata is the descriptive record for the passage.
	Metadata knowledge.Metadata `json:"metadata"`
}

// addDocumentResponse is the JSON response for POST /api/documents.
type addDocumentResponse struct {
	// DocumentID is the id assigned to the new document.
	DocumentID string `json:"documentId"`
}

// updateDocumentRequest is the JSON body for PATCH /api/documents/{id}.
// Absent fields are left unchanged.
type updateDocumentRequest struct {
	Content    *string               `json:"content,omitempty"`
	Title      *string               `json:"title,omitempty"`
	Source     *string               `json:"source,omitempty"`
	Type       *knowledge.DocType    `json:"type,omitempty"`
	Difficulty *knowledge.Difficulty `json:"difficulty,omitempty"`
	Topics     []string              `json:"topics,omitempty"`
	LessonLink *knowledge.LessonLink `json:"lessonLink,omitempty"`
}

// exportResponse is the JSON response for GET /api/export.
type exportResponse struct {
	// Documents is the full collection, embeddings included.
	Documents []knowledge.Document `json:"documents"`
	// ExportedAt is when the snapshot was taken.
	ExportedAt time.Time `json:"exportedAt"`
}

// importRequest is the JSON body for POST /api/import. The collection is
// replaced wholesale; documents without embeddings are backfilled.
type importRequest struct {
	Documents []knowledge.Document `json:"documents"`
}

// importResponse is the JSON response for POST /api/import.
type importResponse struct {
	// Imported is the number of documents now in the store.
	Imported int `json:"imported"`
}

// errorResponse is the JSON error body for all 4xx responses.
type errorResponse struct {
	Error string `json:"error"`
}
