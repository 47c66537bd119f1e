package knowledge

import (
	"fmt"
	"testing"
)

func Test_Stats_CountsByTypeAndDifficulty(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	seed := []struct {
		typ  DocType
		diff Difficulty
	}{
		{TypeConcept, Beginner},
		{TypeConcept, Advanced},
		{TypeExample, Beginner},
	}
	for i, s := range seed {
		meta := testMeta(fmt.Sprintf("doc-%d", i))
		meta.Type = s.typ
		meta.Difficulty = s.diff
		if _, err := store.Add(t.Context(), fmt.Sprintf("passage %d", i), meta); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	stats := store.Stats()

	if stats.TotalDocuments != 3 {
		t.Errorf("TotalDocuments = %d, want 3", stats.TotalDocuments)
	}
	if stats.DocumentTypes[TypeConcept] != 2 || stats.DocumentTypes[TypeExample] != 1 {
		t.Errorf("DocumentTypes = %v, want concept:2 example:1", stats.DocumentTypes)
	}
	if stats.DifficultyLevels[Beginner] != 2 || stats.DifficultyLevels[Advanced] != 1 {
		t.Errorf("DifficultyLevels = %v, want beginner:2 advanced:1", stats.DifficultyLevels)
	}
	if stats.LastIndexUpdate.IsZero() {
		t.Error("LastIndexUpdate is zero after adds")
	}
}

func Test_Stats_TopTopicsDescendingCappedAtTen(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	// 12 distinct topics; "popular" appears on every document.
	for i := 0; i < 12; i++ {
		meta := testMeta(fmt.Sprintf("doc-%d", i), "popular", fmt.Sprintf("topic-%02d", i))
		if _, err := store.Add(t.Context(), fmt.Sprintf("passage %d", i), meta); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	stats := store.Stats()

	if len(stats.TopTopics) != 10 {
		t.Fatalf("TopTopics length = %d, want 10", len(stats.TopTopics))
	}
	if stats.TopTopics[0].Topic != "popular" || stats.TopTopics[0].Count != 12 {
		t.Errorf("top topic = %+v, want popular:12", stats.TopTopics[0])
	}
	for i := 0; i < len(stats.TopTopics)-1; i++ {
		if stats.TopTopics[i].Count < stats.TopTopics[i+1].Count {
			t.Errorf("TopTopics not descending at %d", i)
		}
	}
}

func Test_Stats_EmptyStore(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	stats := store.Stats()

	if stats.TotalDocuments != 0 {
		t.Errorf("TotalDocuments = %d, want 0", stats.TotalDocuments)
	}
	if len(stats.TopTopics) != 0 {
		t.Errorf("TopTopics = %v, want empty", stats.TopTopics)
	}
}
