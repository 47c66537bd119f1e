package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the authoritative keyed collection of documents. It embeds content
// through the injected Embedder on add/update/import and hands out defensive
// copies only.
//
// Concurrency: a single RWMutex gives the single-writer/multiple-reader
// discipline the read paths need — readers never observe a partially applied
// mutation, and at hundreds of documents per store there is no need for
// per-document locking.
type Store struct {
	// mu protects every field below.
	mu sync.RWMutex
	// docs maps document ID to the canonical record.
	docs map[string]*Document
	// order holds IDs in insertion order so enumeration is deterministic.
	order []string
	// dims is the store-wide embedding dimension, fixed by the first vector
	// seen. Zero until then.
	dims int
	// lastUpdate is the instant of the most recent mutation.
	lastUpdate time.Time
	// embedder produces vectors for document content.
	embedder Embedder
	// log is the structured logger for store events.
	log *slog.Logger
}

// NewStore constructs an empty Store around the given embedder.
// The logger may be nil, in which case slog.Default is used.
func NewStore(embedder Embedder, log *slog.Logger) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("knowledge: embedder must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		docs:     make(map[string]*Document),
		embedder: embedder,
		log:      log,
	}, nil
}

// Add embeds content, assigns an ID, and inserts the document.
// Returns the new document's ID.
func (s *Store) Add(ctx context.Context, content string, meta Metadata) (string, error) {
	if content == "" {
		return "", fmt.Errorf("knowledge: content must not be empty")
	}
	if err := validateMetadata(&meta); err != nil {
		return "", err
	}

	res := s.embedder.Embed(ctx, content)
	if res.Degraded {
		s.log.Warn("store: degraded embedding on add", slog.String("title", meta.Title))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkDimsLocked(res.Vector); err != nil {
		return "", err
	}

	id := uuid.NewString()
	meta.Timestamp = s.now()
	doc := &Document{
		ID:        id,
		Content:   content,
		Metadata:  meta,
		Embedding: res.Vector,
	}
	s.docs[id] = doc
	s.order = append(s.order, id)
	s.lastUpdate = meta.Timestamp
	return id, nil
}

// Patch enumerates the mutable document fields. A nil field leaves the
// current value unchanged; there is no way to express an unknown field.
type Patch struct {
	// Content replaces the passage text and triggers re-embedding.
	Content *string
	// Title replaces the metadata title.
	Title *string
	// Source replaces the provenance label.
	Source *string
	// Type replaces the document type.
	Type *DocType
	// Difficulty replaces the difficulty level.
	Difficulty *Difficulty
	// Topics replaces the topic set. Nil means unchanged; an empty non-nil
	// slice clears the set.
	Topics []string
	// LessonLink replaces the lesson link. Nil means unchanged.
	LessonLink *LessonLink
}

// Update applies the patch to the document with the given ID. Returns false
// if the ID is unknown or the patch is invalid; the store is unaffected in
// either case. The embedding is regenerated only when Content changes —
// metadata-only patches leave it bit-for-bit intact.
func (s *Store) Update(ctx context.Context, id string, p Patch) bool {
	// Embed outside the lock: the provider call can take seconds.
	var embedded *EmbedResult
	if p.Content != nil {
		if *p.Content == "" {
			return false
		}
		res := s.embedder.Embed(ctx, *p.Content)
		embedded = &res
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return false
	}

	// Validate the merged metadata before touching the record.
	meta := doc.Metadata
	if p.Title != nil {
		meta.Title = *p.Title
	}
	if p.Source != nil {
		meta.Source = *p.Source
	}
	if p.Type != nil {
		meta.Type = *p.Type
	}
	if p.Difficulty != nil {
		meta.Difficulty = *p.Difficulty
	}
	if p.Topics != nil {
		meta.Topics = normaliseTopics(p.Topics)
	}
	if p.LessonLink != nil {
		link := *p.LessonLink
		meta.LessonLink = &link
	}
	if !meta.Type.Valid() || !meta.Difficulty.Valid() {
		return false
	}

	if embedded != nil {
		if err := s.checkDimsLocked(embedded.Vector); err != nil {
			s.log.Warn("store: rejecting update", slog.String("id", id), slog.Any("error", err))
			return false
		}
		doc.Content = *p.Content
		doc.Embedding = embedded.Vector
	}

	meta.Timestamp = s.now()
	doc.Metadata = meta
	s.lastUpdate = meta.Timestamp
	return true
}

// Remove deletes the document with the given ID. Returns false if unknown.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.lastUpdate = s.now()
	return true
}

// Get returns a copy of the document with the given ID.
func (s *Store) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, false
	}
	return doc.clone(), true
}

// All returns defensive copies of every document in insertion order.
func (s *Store) All() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Export returns the full document set, embeddings included, for backup.
func (s *Store) Export() []Document {
	return s.All()
}

// Import replaces the store contents wholesale. Documents lacking an
// embedding are backfilled by embedding their content, so a store can be
// restored from a textual backup that predates embedding support. Invalid
// documents abort the import before any mutation is applied.
func (s *Store) Import(ctx context.Context, docs []Document) error {
	incoming := make([]*Document, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for i := range docs {
		doc := docs[i].clone()
		if doc.ID == "" {
			return fmt.Errorf("knowledge: import: document %d has no id", i)
		}
		if _, dup := seen[doc.ID]; dup {
			return fmt.Errorf("knowledge: import: duplicate id %q", doc.ID)
		}
		seen[doc.ID] = struct{}{}
		if doc.Content == "" {
			return fmt.Errorf("knowledge: import: document %q has no content", doc.ID)
		}
		if err := validateMetadata(&doc.Metadata); err != nil {
			return fmt.Errorf("knowledge: import: document %q: %w", doc.ID, err)
		}
		if doc.Metadata.Timestamp.IsZero() {
			doc.Metadata.Timestamp = time.Now()
		}
		incoming = append(incoming, &doc)
	}

	// Lazy backfill before taking the write lock.
	backfilled := 0
	for _, doc := range incoming {
		if doc.Embedding != nil {
			continue
		}
		res := s.embedder.Embed(ctx, doc.Content)
		doc.Embedding = res.Vector
		backfilled++
	}

	// Cross-document dimension check after backfill, still before any
	// mutation: the first embedded document fixes the dimension for the
	// whole incoming set. A nil vector stays a lexical-fallback document.
	dims := 0
	for _, doc := range incoming {
		if doc.Embedding == nil {
			continue
		}
		if dims == 0 {
			dims = len(doc.Embedding)
			continue
		}
		if len(doc.Embedding) != dims {
			return fmt.Errorf("knowledge: import: document %q: embedding dimension %d does not match import dimension %d",
				doc.ID, len(doc.Embedding), dims)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = make(map[string]*Document, len(incoming))
	s.order = s.order[:0]
	s.dims = dims
	for _, doc := range incoming {
		s.docs[doc.ID] = doc
		s.order = append(s.order, doc.ID)
	}
	s.lastUpdate = time.Now()

	if backfilled > 0 {
		s.log.Info("store: import backfilled embeddings", slog.Int("count", backfilled))
	}
	return nil
}

// Len returns the number of documents in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// LastUpdate returns the instant of the most recent mutation.
// Zero if the store has never been written.
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Dimensions returns the store-wide embedding dimension, or zero if no
// vector has been stored yet.
func (s *Store) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dims
}

// snapshotLocked copies every document in insertion order.
// Callers must hold at least the read lock.
func (s *Store) snapshotLocked() []Document {
	out := make([]Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id].clone())
	}
	return out
}

// checkDimsLocked enforces the store-wide embedding dimension, fixing it on
// first use. A nil vector is allowed (lexical-fallback documents).
// Callers must hold the write lock.
func (s *Store) checkDimsLocked(vec []float32) error {
	if vec == nil {
		return nil
	}
	if s.dims == 0 {
		s.dims = len(vec)
		return nil
	}
	if len(vec) != s.dims {
		return fmt.Errorf("knowledge: embedding dimension %d does not match store dimension %d", len(vec), s.dims)
	}
	return nil
}

// now returns a monotonically non-decreasing timestamp so document
// timestamps only move forward even under clock skew within a run.
func (s *Store) now() time.Time {
	t := time.Now()
	if !t.After(s.lastUpdate) {
		t = s.lastUpdate.Add(time.Nanosecond)
	}
	return t
}
