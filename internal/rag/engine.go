// Package rag composes retrieval and generation into grounded answers:
// retrieve relevant passages, assemble them into a context block, generate
// an answer primarily from that context, then derive a confidence estimate
// and candidate follow-up questions.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/studyloop/mentor-go/internal/knowledge"
	"github.com/studyloop/mentor-go/internal/logging"
)

const (
	// DefaultMaxSources bounds how many passages ground an answer.
	DefaultMaxSources = 5
	// retrievalThreshold is tighter than ad hoc search: results become
	// grounding context, so precision beats recall here.
	retrievalThreshold = 0.3
	// maxFollowUps caps the follow-up question list.
	maxFollowUps = 3
	// snippetRunes bounds source snippets in the response.
	snippetRunes = 160
)

// Style selects the register of the generated answer.
type Style string

const (
	StyleConcise        Style = "concise"
	StyleDetailed       Style = "detailed"
	StyleConversational Style = "conversational"
)

// Valid reports whether s is a known response style.
func (s Style) Valid() bool {
	switch s {
	case StyleConcise, StyleDetailed, StyleConversational:
		return true
	}
	return false
}

// Question is a single ask request.
type Question struct {
	// Text is the learner's question.
	Text string `json:"query"`
	// MaxSources bounds how many passages ground the answer. Zero means
	// DefaultMaxSources.
	MaxSources int `json:"maxSources,omitempty"`
	// IncludeFollowUp requests candidate follow-up questions.
	IncludeFollowUp bool `json:"includeFollowUp,omitempty"`
	// Style selects the answer register. Empty means StyleDetailed.
	Style Style `json:"responseStyle,omitempty"`
}

// Source attributes part of an answer to a stored passage.
type Source struct {
	// Title is the passage title.
	Title string `json:"title"`
	// Source is the passage's free-form provenance label.
	Source string `json:"source"`
	// Relevance is the retrieval similarity as a rounded percentage.
	Relevance int `json:"relevance"`
	// Snippet is a short excerpt of the passage content.
	Snippet string `json:"snippet"`
}

// Answer is the pipeline output. It is always well-formed: provider
// failures degrade the answer text, never the shape.
type Answer struct {
	// Answer is the generated answer text.
	Answer string `json:"answer"`
	// Sources lists the passages that grounded the answer, best first.
	Sources []Source `json:"sources"`
	// Confidence is a percentage in [0, 95].
	Confidence int `json:"confidence"`
	// FollowUpQuestions lists candidate next questions. Non-empty whenever
	// IncludeFollowUp was set, and always present on the zero-retrieval
	// terminal answer.
	FollowUpQuestions []string `json:"followUpQuestions"`
	// Degraded reports that the query embedding came from the fallback
	// path, so retrieval quality is reduced.
	Degraded bool `json:"degraded,omitempty"`
}

// searcher is the slice of the knowledge search surface the engine needs.
type searcher interface {
	Search(ctx context.Context, q knowledge.Query) (*knowledge.Result, error)
}

// Completer produces text from a system prompt and a user prompt. It is
// expected to be fail-soft: return fallback text, never an error.
type Completer interface {
	Complete(ctx context.Context, system, user string) string
}

// Engine runs the retrieve, assemble, generate, derive pipeline.
type Engine struct {
	search   searcher
	complete Completer
	log      *slog.Logger
}

// NewEngine wires a retrieval façade and a completion provider.
func NewEngine(search searcher, complete Completer, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{search: search, complete: complete, log: log}
}

// Ask answers a question grounded in stored passages. Input validation
// failures are the only errors it returns; everything downstream degrades
// to an answer-shaped response instead of failing.
func (e *Engine) Ask(ctx context.Context, q Question) (*Answer, error) {
	if err := validateQuestion(&q); err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)
	start := time.Now()

	threshold := retrievalThreshold
	result, err := e.search.Search(ctx, knowledge.Query{
		Text:      q.Text,
		Limit:     q.MaxSources,
		Threshold: &threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("rag: retrieval failed: %w", err)
	}

	if len(result.Documents) == 0 {
		log.Info("rag: no passages cleared threshold, returning no-information answer",
			slog.String("question", q.Text),
		)
		return noInformationAnswer(), nil
	}

	contextBlock := assembleContext(result.Documents)
	answerText := e.complete.Complete(ctx, answerSystemPrompt(q.Style), answerUserPrompt(q.Text, contextBlock))

	out := &Answer{
		Answer:     answerText,
		Sources:    buildSources(result.Documents),
		Confidence: confidence(result.AvgSimilarity, len(result.Documents)),
		Degraded:   result.Degraded,
	}
	if q.IncludeFollowUp {
		out.FollowUpQuestions = e.followUps(ctx, q.Text, answerText)
	}

	log.Info("rag: answered",
		slog.Int("sources", len(out.Sources)),
		slog.Int("confidence", out.Confidence),
		slog.Bool("degraded", out.Degraded),
		slog.Duration("took", time.Since(start)),
	)
	return out, nil
}

func validateQuestion(q *Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("rag: question text must not be empty")
	}
	if q.MaxSources < 0 {
		return fmt.Errorf("rag: maxSources must not be negative")
	}
	if q.MaxSources == 0 {
		q.MaxSources = DefaultMaxSources
	}
	if q.Style == "" {
		q.Style = StyleDetailed
	}
	if !q.Style.Valid() {
		return fmt.Errorf("rag: unknown response style %q — valid values: concise, detailed, conversational", q.Style)
	}
	return nil
}

// noInformationAnswer is the designed terminal state for empty retrieval:
// a well-formed zero-confidence answer, never an error. The generic
// clarifying follow-ups are included whether or not the caller asked for
// follow-ups, so a learner who hit a gap always has a next step.
func noInformationAnswer() *Answer {
	return &Answer{
		Answer:            noInformationText,
		Sources:           []Source{},
		Confidence:        0,
		FollowUpQuestions: genericFollowUps(),
	}
}

// followUps asks the completion provider for follow-up questions seeded
// with the original question and the produced answer. When the provider
// degrades or returns nothing question-shaped, a fixed generic set is
// substituted so the list is never empty.
func (e *Engine) followUps(ctx context.Context, question, answer string) []string {
	raw := e.complete.Complete(ctx, followUpSystemPrompt, followUpUserPrompt(question, answer))

	parsed := parseFollowUps(raw)
	if len(parsed) == 0 {
		return genericFollowUps()
	}
	return parsed
}

// parseFollowUps extracts question lines from model output, stripping list
// markers. Lines that do not end in a question mark are dropped, which also
// filters out the gateway's fallback apology text.
func parseFollowUps(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		line = strings.Trim(line, `"`)
		if line == "" || !strings.HasSuffix(line, "?") {
			continue
		}
		out = append(out, line)
		if len(out) == maxFollowUps {
			break
		}
	}
	return out
}

func buildSources(docs []knowledge.ScoredDocument) []Source {
	sources := make([]Source, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, Source{
			Title:     d.Metadata.Title,
			Source:    d.Metadata.Source,
			Relevance: percent(d.Similarity),
			Snippet:   snippet(d.Content),
		})
	}
	return sources
}

// percent converts a similarity in [-1, 1] to a rounded percentage
// clamped to [0, 100].
func percent(similarity float64) int {
	p := int(similarity*100 + 0.5)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// snippet truncates content to a short, rune-safe excerpt.
func snippet(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= snippetRunes {
		return string(runes)
	}
	return string(runes[:snippetRunes]) + "…"
}
