// Package knowledge implements the semantic retrieval core: the document
// store, metadata filtering, similarity ranking, the search façade, and the
// stats reporter. Documents are short educational passages; the corpus is
// small (hundreds to low thousands per store), so search is an exhaustive
// linear scan rather than an approximate index.
package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DocType classifies the pedagogical role of a document.
type DocType string

const (
	// TypeLesson is a full lesson passage.
	TypeLesson DocType = "lesson"
	// TypeSummary is a condensed recap of a lesson.
	TypeSummary DocType = "summary"
	// TypeConcept is a standalone concept explanation.
	TypeConcept DocType = "concept"
	// TypeExample is a worked example.
	TypeExample DocType = "example"
	// TypeExercise is a practice exercise.
	TypeExercise DocType = "exercise"
)

// Valid reports whether t is one of the known document types.
func (t DocType) Valid() bool {
	switch t {
	case TypeLesson, TypeSummary, TypeConcept, TypeExample, TypeExercise:
		return true
	}
	return false
}

// Difficulty grades how advanced a document is.
type Difficulty string

const (
	// Beginner content assumes no prior knowledge.
	Beginner Difficulty = "beginner"
	// Intermediate content assumes the basics.
	Intermediate Difficulty = "intermediate"
	// Advanced content assumes substantial prior knowledge.
	Advanced Difficulty = "advanced"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// LessonLink ties a document back to the lesson it was authored from.
type LessonLink struct {
	// LessonID is the external lesson identifier.
	LessonID string `json:"lessonId" yaml:"lesson_id"`
	// Section is the section title within the lesson.
	Section string `json:"section" yaml:"section"`
}

// Metadata is the fixed descriptive record attached to every document.
type Metadata struct {
	// Title is the display title of the passage.
	Title string `json:"title" yaml:"title"`
	// Source is a free-form provenance label (course name, textbook, URL).
	Source string `json:"source" yaml:"source"`
	// Type classifies the passage (lesson, summary, concept, example, exercise).
	Type DocType `json:"type" yaml:"type"`
	// Difficulty grades the passage (beginner, intermediate, advanced).
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
	// Topics is the set of topic tags. Empty strings are stripped on write.
	Topics []string `json:"topics" yaml:"topics"`
	// Timestamp is the creation or last-modification instant. It only moves
	// forward on update.
	Timestamp time.Time `json:"timestamp" yaml:"-"`
	// LessonLink optionally ties the passage to its source lesson.
	LessonLink *LessonLink `json:"lessonLink,omitempty" yaml:"lesson_link,omitempty"`
}

// Document is the unit of indexed knowledge owned by the Store. Callers only
// ever receive copies; mutation goes through Store.Update.
type Document struct {
	// ID is the opaque unique identifier, assigned at creation.
	ID string `json:"id"`
	// Content is the passage text.
	Content string `json:"content"`
	// Metadata is the fixed descriptive record.
	Metadata Metadata `json:"metadata"`
	// Embedding is the fixed-length vector for Content. Nil for documents
	// ingested before embedding support; the ranker falls back to a lexical
	// heuristic for those.
	Embedding []float32 `json:"embedding,omitempty"`
}

// clone returns a deep copy of d so the canonical record can never be
// mutated through a returned value.
func (d *Document) clone() Document {
	out := *d
	if d.Embedding != nil {
		out.Embedding = append([]float32(nil), d.Embedding...)
	}
	if d.Metadata.Topics != nil {
		out.Metadata.Topics = append([]string(nil), d.Metadata.Topics...)
	}
	if d.Metadata.LessonLink != nil {
		link := *d.Metadata.LessonLink
		out.Metadata.LessonLink = &link
	}
	return out
}

// ScoredDocument is a document paired with its query-scoped similarity.
// Similarity is transient — it is never persisted on the canonical record.
type ScoredDocument struct {
	Document
	// Similarity is the relevance score for the query that produced this
	// result, in [-1, 1] (cosine range; [0, 1] for typical embeddings).
	Similarity float64 `json:"similarity"`
}

// EmbedResult is the outcome of an embedding call. Degraded marks vectors
// produced by the gateway's provider-unavailable fallback so callers can
// surface reduced-quality results without changing ranking semantics.
type EmbedResult struct {
	// Vector is the fixed-length embedding. Always non-nil.
	Vector []float32
	// Degraded is true when the provider was unreachable and Vector is a
	// content-independent placeholder.
	Degraded bool
}

// Embedder converts a single text into a fixed-length vector. Implementations
// never fail — provider problems are absorbed into a degraded result.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed returns the embedding for text, bounded by ctx.
	Embed(ctx context.Context, text string) EmbedResult
}

// validateMetadata checks enum fields and normalises the topic set in place
// (trims whitespace, drops empty strings).
func validateMetadata(meta *Metadata) error {
	if !meta.Type.Valid() {
		return fmt.Errorf("knowledge: unknown document type %q", meta.Type)
	}
	if !meta.Difficulty.Valid() {
		return fmt.Errorf("knowledge: unknown difficulty %q", meta.Difficulty)
	}
	meta.Topics = normaliseTopics(meta.Topics)
	return nil
}

// normaliseTopics trims each topic and drops empties, preserving order.
func normaliseTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
