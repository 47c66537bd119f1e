package knowledge

import (
	"testing"
)

func newTestSearcher(t *testing.T) (*Store, *Searcher, *fakeEmbedder) {
	t.Helper()
	store, emb := newTestStore(t)
	searcher, err := NewSearcher(store, emb, nil)
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}
	return store, searcher, emb
}

func Test_Searcher_RejectsMalformedInputBeforeEmbedding(t *testing.T) {
	t.Parallel()
	_, searcher, emb := newTestSearcher(t)

	bad := []Query{
		{Text: ""},
		{Text: "q", Limit: -1},
		{Text: "q", Threshold: f64(1.5)},
		{Text: "q", Filter: &Filter{Types: []DocType{"video"}}},
	}
	for i, q := range bad {
		if _, err := searcher.Search(t.Context(), q); err == nil {
			t.Errorf("query %d accepted, want rejection", i)
		}
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times for rejected queries, want 0", emb.calls)
	}
}

func Test_Searcher_SingleDocumentEndToEnd(t *testing.T) {
	t.Parallel()
	store, searcher, _ := newTestSearcher(t)

	_, err := store.Add(t.Context(),
		"Temperature controls randomness in model output sampling.",
		Metadata{
			Title: "Temperature", Source: "course", Type: TypeConcept,
			Difficulty: Intermediate, Topics: []string{"temperature"},
		})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	res, err := searcher.Search(t.Context(), Query{
		Text:      "What does temperature control?",
		Threshold: f64(0.0),
		Limit:     5,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if res.TotalResults != 1 {
		t.Errorf("TotalResults = %d, want 1", res.TotalResults)
	}
	if len(res.Documents) != 1 {
		t.Fatalf("got %d documents, want 1", len(res.Documents))
	}
	if res.Documents[0].Metadata.Title != "Temperature" {
		t.Errorf("top result = %q, want Temperature", res.Documents[0].Metadata.Title)
	}
}

func Test_Searcher_RespectsLimitAndThresholdInvariants(t *testing.T) {
	t.Parallel()
	store, searcher, _ := newTestSearcher(t)

	passages := []string{
		"loops repeat a block of code",
		"loops and iteration basics",
		"recursion calls a function from itself",
		"variables hold values",
		"conditionals branch on boolean tests",
	}
	for _, p := range passages {
		if _, err := store.Add(t.Context(), p, testMeta(p, "programming")); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	res, err := searcher.Search(t.Context(), Query{Text: "loops and iteration", Threshold: f64(0.0), Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(res.Documents) > 2 {
		t.Errorf("len(results) = %d exceeds limit 2", len(res.Documents))
	}
	if res.TotalResults < len(res.Documents) {
		t.Errorf("TotalResults %d < returned %d", res.TotalResults, len(res.Documents))
	}
	for i := 0; i < len(res.Documents)-1; i++ {
		if res.Documents[i].Similarity < res.Documents[i+1].Similarity {
			t.Errorf("results not sorted at %d", i)
		}
	}
}

func Test_Searcher_FilterNarrowsBeforeRanking(t *testing.T) {
	t.Parallel()
	store, searcher, _ := newTestSearcher(t)

	meta := testMeta("match", "algebra")
	if _, err := store.Add(t.Context(), "algebra basics", meta); err != nil {
		t.Fatalf("Add: %v", err)
	}
	other := testMeta("other", "algebra")
	other.Type = TypeExercise
	if _, err := store.Add(t.Context(), "algebra exercises", other); err != nil {
		t.Fatalf("Add: %v", err)
	}

	res, err := searcher.Search(t.Context(), Query{
		Text:      "algebra",
		Threshold: f64(0.0),
		Filter:    &Filter{Types: []DocType{TypeExercise}},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	for _, doc := range res.Documents {
		if doc.Metadata.Type != TypeExercise {
			t.Errorf("filtered search returned type %q", doc.Metadata.Type)
		}
	}
	if res.TotalResults != 1 {
		t.Errorf("TotalResults = %d, want 1", res.TotalResults)
	}
}

func Test_Searcher_PropagatesDegradedFlag(t *testing.T) {
	t.Parallel()
	store, emb := newTestStore(t)
	if _, err := store.Add(t.Context(), "some passage", testMeta("A")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	emb.degraded = true
	searcher, err := NewSearcher(store, emb, nil)
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}

	res, err := searcher.Search(t.Context(), Query{Text: "passage", Threshold: f64(0.0)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !res.Degraded {
		t.Error("Degraded flag not propagated from embed result")
	}
}

// f64 returns a pointer to v for Query.Threshold literals.
func f64(v float64) *float64 { return &v }
