package rag

const (
	// confidenceCap leaves permanent room for acknowledged uncertainty.
	confidenceCap = 95
	// corroborationBonus is added per independent source, saturating at
	// corroborationSaturation sources.
	corroborationBonus      = 3
	corroborationSaturation = 5
)

// confidence derives the answer confidence percentage from retrieval
// quality: mean similarity scaled to a percentage, plus a small bonus for
// independent corroborating sources, clamped to [0, confidenceCap].
func confidence(avgSimilarity float64, sources int) int {
	c := int(avgSimilarity*100 + 0.5)

	if sources > corroborationSaturation {
		sources = corroborationSaturation
	}
	c += sources * corroborationBonus

	if c < 0 {
		return 0
	}
	if c > confidenceCap {
		return confidenceCap
	}
	return c
}
