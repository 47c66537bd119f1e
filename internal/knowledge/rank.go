package knowledge

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Ranking is the outcome of scoring a candidate set against a query vector.
type Ranking struct {
	// Results is the threshold-filtered, similarity-ordered, limit-truncated
	// result page.
	Results []ScoredDocument
	// TotalMatches counts every candidate that cleared the threshold,
	// including those truncated away by the limit.
	TotalMatches int
	// AvgSimilarity is the mean similarity across all matches (not just the
	// returned page). Zero when nothing matched.
	AvgSimilarity float64
	// Took is the elapsed scoring/sorting time.
	Took time.Duration
}

// Rank scores every candidate against query, drops candidates below
// threshold, sorts the survivors by descending similarity (stable, so ties
// keep candidate order and identical inputs give identical output), and
// truncates to limit.
//
// Documents without an embedding are scored by a lexical overlap heuristic
// against queryText instead of being excluded, so pre-embedding documents
// stay searchable at reduced fidelity.
//
// Thresholding happens before limiting on purpose: discarding after the sort
// would change which documents survive when threshold and limit interact.
func Rank(query []float32, queryText string, candidates []Document, threshold float64, limit int) Ranking {
	start := time.Now()

	matches := make([]ScoredDocument, 0, len(candidates))
	var sum float64
	for i := range candidates {
		sim := score(query, queryText, &candidates[i])
		if sim < threshold {
			continue
		}
		matches = append(matches, ScoredDocument{Document: candidates[i], Similarity: sim})
		sum += sim
	}

	total := len(matches)
	avg := 0.0
	if total > 0 {
		avg = sum / float64(total)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return Ranking{
		Results:       matches,
		TotalMatches:  total,
		AvgSimilarity: avg,
		Took:          time.Since(start),
	}
}

// score computes the relevance of one document: cosine similarity when the
// document carries an embedding, lexical overlap against queryText otherwise.
func score(query []float32, queryText string, doc *Document) float64 {
	if doc.Embedding != nil {
		return Cosine(query, doc.Embedding)
	}
	return lexicalOverlap(queryText, doc.Content)
}

// Cosine returns the cosine similarity of a and b: dot(a,b)/(|a|·|b|).
// Defined as 0 when either norm is zero, guarding degenerate vectors, and 0
// when the lengths differ (cross-dimension comparison is meaningless).
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// lexicalOverlap returns the fraction of query tokens that appear as a
// substring of, or contain, some token of content (case-insensitive).
func lexicalOverlap(query, content string) float64 {
	queryTokens := strings.Fields(strings.ToLower(query))
	if len(queryTokens) == 0 {
		return 0
	}
	contentTokens := strings.Fields(strings.ToLower(content))

	hits := 0
	for _, qt := range queryTokens {
		for _, ct := range contentTokens {
			if strings.Contains(ct, qt) || strings.Contains(qt, ct) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(queryTokens))
}
