package ingestion

import (
	"strings"

	"github.com/studyloop/mentor-go/internal/knowledge"
)

// Seed authors may omit type, difficulty, and topics; explicit values in the
// seed file always take precedence over what is inferred here. This is the
// best-effort fallback so hand-written seed files stay terse.

// exerciseMarkers identify passages that ask the learner to do something.
var exerciseMarkers = []string{
	"exercise:",
	"your task",
	"try it yourself",
	"implement the following",
	"write a function",
	"write a program",
}

// advancedMarkers identify content unlikely to appear in beginner material.
var advancedMarkers = []string{
	"race condition",
	"lock-free",
	"amortized",
	"asymptotic",
	"memory model",
	"garbage collect",
	"profil",
	"optimiz",
}

// inferDefaults fills the metadata fields the seed file left empty.
func inferDefaults(meta *knowledge.Metadata, content string) {
	lower := strings.ToLower(content)

	if meta.Type == "" {
		meta.Type = inferType(lower)
	}
	if meta.Difficulty == "" {
		meta.Difficulty = inferDifficulty(lower)
	}
	if len(meta.Topics) == 0 {
		meta.Topics = inferTopics(meta.Title)
	}
}

// inferType classifies a passage from its content shape.
func inferType(lower string) knowledge.DocType {
	for _, marker := range exerciseMarkers {
		if strings.Contains(lower, marker) {
			return knowledge.TypeExercise
		}
	}
	switch {
	case strings.Contains(lower, "for example") || strings.Contains(lower, "```"):
		return knowledge.TypeExample
	case strings.Contains(lower, "in summary") || strings.Contains(lower, "to recap"):
		return knowledge.TypeSummary
	default:
		return knowledge.TypeConcept
	}
}

// inferDifficulty defaults to beginner unless the content mentions topics
// that only show up in advanced material.
func inferDifficulty(lower string) knowledge.Difficulty {
	for _, marker := range advancedMarkers {
		if strings.Contains(lower, marker) {
			return knowledge.Advanced
		}
	}
	return knowledge.Beginner
}

// inferTopics derives topic tags from the title: lowercase words, short
// connective words dropped.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "for": true, "in": true,
	"of": true, "on": true, "or": true, "the": true, "to": true,
	"with": true, "what": true, "how": true, "is": true, "are": true,
}

func inferTopics(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	var topics []string
	for _, f := range fields {
		if len(f) < 3 || stopWords[f] {
			continue
		}
		topics = append(topics, f)
	}
	return topics
}
