package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Search defaults applied when the caller leaves the field unset.
const (
	// DefaultLimit is the result-count limit for ad hoc search.
	DefaultLimit = 10
	// DefaultThreshold is the minimum similarity for ad hoc search.
	DefaultThreshold = 0.1
)

// Query is a caller-constructed, ephemeral search request.
type Query struct {
	// Text is the natural-language query. Required.
	Text string
	// Filter optionally narrows the candidate set before ranking.
	Filter *Filter
	// Limit caps the returned page. Zero means DefaultLimit.
	Limit int
	// Threshold is the minimum similarity a result must reach. Nil means
	// DefaultThreshold; an explicit zero is honoured.
	Threshold *float64
}

// Result is the outcome of one semantic search.
type Result struct {
	// Documents is the ordered result page, each carrying its transient
	// similarity score.
	Documents []ScoredDocument
	// TotalResults counts all matches above threshold, pre-truncation.
	TotalResults int
	// SearchTime is the end-to-end elapsed time, embedding included.
	SearchTime time.Duration
	// AvgSimilarity is the mean similarity across all matches.
	AvgSimilarity float64
	// Degraded is true when the query vector came from the gateway's
	// provider-unavailable fallback. Ranking semantics are unchanged; this is
	// purely a quality signal.
	Degraded bool
}

// Searcher is the read-only semantic search façade over a Store:
// validate → filter → embed query → rank. It never mutates the store.
type Searcher struct {
	// store is the document collection searched.
	store *Store
	// embedder produces the query vector.
	embedder Embedder
	// log is the structured logger for search telemetry.
	log *slog.Logger
}

// NewSearcher constructs a Searcher over store. The embedder is typically the
// same gateway the store embeds documents with, so query and document vectors
// share a space. The logger may be nil.
func NewSearcher(store *Store, embedder Embedder, log *slog.Logger) (*Searcher, error) {
	if store == nil {
		return nil, fmt.Errorf("knowledge: store must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("knowledge: embedder must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Searcher{store: store, embedder: embedder, log: log}, nil
}

// Search runs one semantic search. Malformed input is rejected before any
// provider call is made; every other failure mode is absorbed into degraded
// results, so a non-nil error always means caller error.
func (s *Searcher) Search(ctx context.Context, q Query) (*Result, error) {
	if q.Text == "" {
		return nil, fmt.Errorf("knowledge: query text must not be empty")
	}
	if q.Limit < 0 {
		return nil, fmt.Errorf("knowledge: limit must not be negative, got %d", q.Limit)
	}
	if err := q.Filter.Validate(); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	threshold := DefaultThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	if threshold < -1 || threshold > 1 {
		return nil, fmt.Errorf("knowledge: threshold must be in [-1, 1], got %v", threshold)
	}

	start := time.Now()

	candidates := q.Filter.Apply(s.store.All())
	embedded := s.embedder.Embed(ctx, q.Text)
	ranking := Rank(embedded.Vector, q.Text, candidates, threshold, limit)

	res := &Result{
		Documents:     ranking.Results,
		TotalResults:  ranking.TotalMatches,
		SearchTime:    time.Since(start),
		AvgSimilarity: ranking.AvgSimilarity,
		Degraded:      embedded.Degraded,
	}

	s.log.Debug("search complete",
		slog.Int("candidates", len(candidates)),
		slog.Int("total_results", res.TotalResults),
		slog.Int("returned", len(res.Documents)),
		slog.Duration("took", res.SearchTime),
		slog.Bool("degraded", res.Degraded),
	)
	return res, nil
}
