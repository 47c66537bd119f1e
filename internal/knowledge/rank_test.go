package knowledge

import (
	"math"
	"testing"
)

func Test_Cosine_SelfSimilarityIsOne(t *testing.T) {
	t.Parallel()
	v := []float32{0.3, -1.2, 4.5, 0.01}

	if got := Cosine(v, v); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Cosine(v, v) = %v, want 1.0", got)
	}
}

func Test_Cosine_IsSymmetric(t *testing.T) {
	t.Parallel()
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 7}

	if Cosine(a, b) != Cosine(b, a) {
		t.Errorf("Cosine(a,b)=%v != Cosine(b,a)=%v", Cosine(a, b), Cosine(b, a))
	}
}

func Test_Cosine_ZeroNormIsZero(t *testing.T) {
	t.Parallel()
	zero := []float32{0, 0, 0}
	v := []float32{1, 2, 3}

	if got := Cosine(zero, v); got != 0 {
		t.Errorf("Cosine(zero, v) = %v, want 0", got)
	}
	if got := Cosine(v, zero); got != 0 {
		t.Errorf("Cosine(v, zero) = %v, want 0", got)
	}
	if got := Cosine(v, []float32{1, 2}); got != 0 {
		t.Errorf("Cosine across dimensions = %v, want 0", got)
	}
}

// rankDoc builds a candidate with a fixed embedding for ranking tests.
func rankDoc(id string, vec []float32) Document {
	return Document{ID: id, Content: id, Metadata: testMeta(id), Embedding: vec}
}

func Test_Rank_OrdersByDescendingSimilarity(t *testing.T) {
	t.Parallel()
	query := []float32{1, 0}
	candidates := []Document{
		rankDoc("low", []float32{0.2, 1}),
		rankDoc("high", []float32{1, 0.01}),
		rankDoc("mid", []float32{1, 1}),
	}

	r := Rank(query, "", candidates, 0, 10)

	if len(r.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(r.Results))
	}
	for i := 0; i < len(r.Results)-1; i++ {
		if r.Results[i].Similarity < r.Results[i+1].Similarity {
			t.Errorf("results out of order at %d: %v < %v", i, r.Results[i].Similarity, r.Results[i+1].Similarity)
		}
	}
	if r.Results[0].ID != "high" {
		t.Errorf("top result = %q, want high", r.Results[0].ID)
	}
}

func Test_Rank_TiesKeepCandidateOrder(t *testing.T) {
	t.Parallel()
	query := []float32{1, 0}
	// Identical vectors — similarity ties across all three.
	same := []float32{3, 4}
	candidates := []Document{rankDoc("a", same), rankDoc("b", same), rankDoc("c", same)}

	r := Rank(query, "", candidates, 0, 10)

	want := []string{"a", "b", "c"}
	for i, id := range want {
		if r.Results[i].ID != id {
			t.Errorf("result[%d] = %q, want %q (stable order)", i, r.Results[i].ID, id)
		}
	}
}

func Test_Rank_ThresholdAppliesBeforeLimit(t *testing.T) {
	t.Parallel()
	query := []float32{1, 0}
	candidates := []Document{
		rankDoc("below", []float32{0, 1}),      // sim 0
		rankDoc("edge", []float32{1, 1}),       // sim ~0.707
		rankDoc("exact", []float32{1, 0}),      // sim 1
		rankDoc("close", []float32{1, 0.1}),    // sim ~0.995
		rankDoc("far", []float32{-1, 0}),       // sim -1
		rankDoc("middle", []float32{1, 0.5}),   // sim ~0.894
		rankDoc("nearish", []float32{1, 0.75}), // sim 0.8
	}

	r := Rank(query, "", candidates, 0.5, 2)

	// 5 candidates clear the 0.5 threshold; limit truncates to 2.
	if r.TotalMatches != 5 {
		t.Errorf("TotalMatches = %d, want 5", r.TotalMatches)
	}
	if len(r.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(r.Results))
	}
	for _, res := range r.Results {
		if res.Similarity < 0.5 {
			t.Errorf("result %q below threshold: %v", res.ID, res.Similarity)
		}
	}
	if r.Results[0].ID != "exact" || r.Results[1].ID != "close" {
		t.Errorf("page = [%q %q], want [exact close]", r.Results[0].ID, r.Results[1].ID)
	}
}

func Test_Rank_AvgCoversAllMatchesNotJustPage(t *testing.T) {
	t.Parallel()
	query := []float32{1, 0}
	candidates := []Document{
		rankDoc("a", []float32{1, 0}), // sim 1
		rankDoc("b", []float32{1, 0}), // sim 1
		rankDoc("c", []float32{0, 1}), // sim 0
	}

	r := Rank(query, "", candidates, 0, 1)

	// All three match at threshold 0; mean is 2/3 even though only one is returned.
	if math.Abs(r.AvgSimilarity-2.0/3.0) > 1e-9 {
		t.Errorf("AvgSimilarity = %v, want 2/3", r.AvgSimilarity)
	}
	if len(r.Results) != 1 {
		t.Errorf("got %d results, want 1", len(r.Results))
	}
}

func Test_Rank_LexicalFallbackForMissingEmbedding(t *testing.T) {
	t.Parallel()
	noVec := Document{ID: "legacy", Content: "temperature controls randomness", Metadata: testMeta("legacy")}

	r := Rank([]float32{1, 0}, "what does temperature control", []Document{noVec}, 0.05, 10)

	if len(r.Results) != 1 {
		t.Fatalf("lexical fallback produced %d results, want 1", len(r.Results))
	}
	if r.Results[0].Similarity <= 0 {
		t.Errorf("lexical similarity = %v, want > 0", r.Results[0].Similarity)
	}
}

func Test_LexicalOverlap_CaseInsensitiveBidirectional(t *testing.T) {
	t.Parallel()

	// "Temp" is contained in "temperature"; "RANDOMNESS" contains "random".
	got := lexicalOverlap("Temp RANDOMNESS", "temperature adds random noise")
	if got != 1.0 {
		t.Errorf("overlap = %v, want 1.0", got)
	}
	if lexicalOverlap("", "anything") != 0 {
		t.Error("empty query should score 0")
	}
	if lexicalOverlap("unrelated words", "") != 0 {
		t.Error("empty content should score 0")
	}
}

func Test_Rank_DeterministicForIdenticalInputs(t *testing.T) {
	t.Parallel()
	query := []float32{0.5, 0.5, 0.1}
	candidates := []Document{
		rankDoc("x", []float32{0.5, 0.5, 0.1}),
		rankDoc("y", []float32{0.1, 0.5, 0.5}),
		rankDoc("z", []float32{0.5, 0.1, 0.5}),
	}

	first := Rank(query, "", candidates, 0, 10)
	second := Rank(query, "", candidates, 0, 10)

	if len(first.Results) != len(second.Results) {
		t.Fatalf("result counts differ: %d vs %d", len(first.Results), len(second.Results))
	}
	for i := range first.Results {
		if first.Results[i].ID != second.Results[i].ID {
			t.Errorf("ordering differs at %d: %q vs %q", i, first.Results[i].ID, second.Results[i].ID)
		}
	}
}
