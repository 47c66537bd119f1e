package snapshot

import (
	"testing"
	"time"

	"github.com/studyloop/mentor-go/internal/knowledge"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDocs() []knowledge.Document {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	return []knowledge.Document{
		{
			ID:      "doc-1",
			Content: "A goroutine is a lightweight thread managed by the Go runtime.",
			Metadata: knowledge.Metadata{
				Title:      "Goroutines",
				Source:     "course-notes",
				Type:       knowledge.TypeConcept,
				Difficulty: knowledge.Intermediate,
				Topics:     []string{"concurrency", "goroutines"},
				Timestamp:  ts,
				LessonLink: &knowledge.LessonLink{LessonID: "go-201", Section: "Concurrency basics"},
			},
			Embedding: []float32{0.1, -0.2, 0.3},
		},
		{
			ID:      "doc-2",
			Content: "Channels connect goroutines.",
			Metadata: knowledge.Metadata{
				Title:      "Channels",
				Source:     "course-notes",
				Type:       knowledge.TypeLesson,
				Difficulty: knowledge.Beginner,
				Topics:     []string{"concurrency"},
				Timestamp:  ts.Add(time.Minute),
			},
			// No embedding: predates embedding support.
		},
	}
}

func Test_Snapshot_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	want := sampleDocs()

	if err := s.Save(t.Context(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Load returned %d documents, want %d", len(got), len(want))
	}

	for i := range want {
		w, g := want[i], got[i]
		if g.ID != w.ID || g.Content != w.Content {
			t.Errorf("doc %d = %+v, want %+v", i, g, w)
		}
		if g.Metadata.Type != w.Metadata.Type || g.Metadata.Difficulty != w.Metadata.Difficulty {
			t.Errorf("doc %d metadata enums changed: %+v", i, g.Metadata)
		}
		if !g.Metadata.Timestamp.Equal(w.Metadata.Timestamp) {
			t.Errorf("doc %d timestamp = %v, want %v (nanosecond fidelity)", i, g.Metadata.Timestamp, w.Metadata.Timestamp)
		}
		if len(g.Metadata.Topics) != len(w.Metadata.Topics) {
			t.Errorf("doc %d topics = %v, want %v", i, g.Metadata.Topics, w.Metadata.Topics)
		}
	}

	if got[0].Metadata.LessonLink == nil || got[0].Metadata.LessonLink.LessonID != "go-201" {
		t.Errorf("doc 0 lesson link = %+v, want go-201", got[0].Metadata.LessonLink)
	}
	if got[1].Metadata.LessonLink != nil {
		t.Errorf("doc 1 lesson link = %+v, want nil", got[1].Metadata.LessonLink)
	}
	if len(got[0].Embedding) != 3 || got[0].Embedding[1] != -0.2 {
		t.Errorf("doc 0 embedding = %v, want original vector", got[0].Embedding)
	}
	if got[1].Embedding != nil {
		t.Errorf("doc 1 embedding = %v, want nil preserved", got[1].Embedding)
	}
}

func Test_Snapshot_SaveReplacesWholesale(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if err := s.Save(t.Context(), sampleDocs()); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	replacement := sampleDocs()[:1]
	replacement[0].ID = "doc-9"
	if err := s.Save(t.Context(), replacement); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := s.Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "doc-9" {
		t.Errorf("Load = %v, want only doc-9", got)
	}
}

func Test_Snapshot_LoadEmptyDatabase(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	got, err := s.Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load on fresh database = %v, want empty", got)
	}
}

func Test_Snapshot_PreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	docs := sampleDocs()
	// Reverse so lexical id order disagrees with insertion order.
	docs[0], docs[1] = docs[1], docs[0]

	if err := s.Save(t.Context(), docs); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got[0].ID != "doc-2" || got[1].ID != "doc-1" {
		t.Errorf("Load order = [%s, %s], want insertion order [doc-2, doc-1]", got[0].ID, got[1].ID)
	}
}
