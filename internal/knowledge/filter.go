package knowledge

import (
	"fmt"
	"strings"
)

// Filter narrows a candidate set by metadata before ranking. Every field is
// independently optional — a nil/empty field imposes no constraint — and all
// present constraints are ANDed.
type Filter struct {
	// Types restricts documents to these types.
	Types []DocType `json:"type,omitempty"`
	// Difficulties restricts documents to these difficulty levels.
	Difficulties []Difficulty `json:"difficulty,omitempty"`
	// Topics matches when at least one requested topic and one document topic
	// contain each other case-insensitively (either direction). Deliberately
	// loose to tolerate tag drift between authored content and query
	// vocabulary.
	Topics []string `json:"topics,omitempty"`
	// Sources restricts documents to these provenance labels.
	Sources []string `json:"source,omitempty"`
}

// Validate rejects unknown enum values so malformed filters fail at the
// boundary instead of silently matching nothing.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	for _, t := range f.Types {
		if !t.Valid() {
			return fmt.Errorf("knowledge: filter: unknown document type %q", t)
		}
	}
	for _, d := range f.Difficulties {
		if !d.Valid() {
			return fmt.Errorf("knowledge: filter: unknown difficulty %q", d)
		}
	}
	return nil
}

// Matches reports whether doc satisfies every present constraint.
func (f *Filter) Matches(doc *Document) bool {
	if f == nil {
		return true
	}
	if len(f.Types) > 0 && !containsType(f.Types, doc.Metadata.Type) {
		return false
	}
	if len(f.Difficulties) > 0 && !containsDifficulty(f.Difficulties, doc.Metadata.Difficulty) {
		return false
	}
	if len(f.Sources) > 0 && !containsString(f.Sources, doc.Metadata.Source) {
		return false
	}
	if len(f.Topics) > 0 && !topicsOverlap(f.Topics, doc.Metadata.Topics) {
		return false
	}
	return true
}

// Apply returns the subset of docs that satisfy the filter, preserving order.
func (f *Filter) Apply(docs []Document) []Document {
	if f == nil {
		return docs
	}
	out := make([]Document, 0, len(docs))
	for i := range docs {
		if f.Matches(&docs[i]) {
			out = append(out, docs[i])
		}
	}
	return out
}

// topicsOverlap reports whether any requested topic and any document topic
// contain each other as case-insensitive substrings, in either direction.
func topicsOverlap(requested, have []string) bool {
	for _, want := range requested {
		w := strings.ToLower(want)
		for _, got := range have {
			g := strings.ToLower(got)
			if strings.Contains(g, w) || strings.Contains(w, g) {
				return true
			}
		}
	}
	return false
}

func containsType(set []DocType, v DocType) bool {
	for _, t := range set {
		if t == v {
			return true
		}
	}
	return false
}

func containsDifficulty(set []Difficulty, v Difficulty) bool {
	for _, d := range set {
		if d == v {
			return true
		}
	}
	return false
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
