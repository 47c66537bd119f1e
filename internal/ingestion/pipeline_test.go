package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/studyloop/mentor-go/internal/knowledge"
)

type recordingStore struct {
	contents []string
	metas    []knowledge.Metadata
	failAt   int // 1-based Add call that fails; 0 means never
}

func (r *recordingStore) Add(_ context.Context, content string, meta knowledge.Metadata) (string, error) {
	if r.failAt > 0 && len(r.contents)+1 == r.failAt {
		return "", fmt.Errorf("store full")
	}
	r.contents = append(r.contents, content)
	r.metas = append(r.metas, meta)
	return fmt.Sprintf("doc-%d", len(r.contents)), nil
}

func seedFixture() SeedFile {
	return SeedFile{
		Source: "go-basics",
		Documents: []SeedDocument{
			{
				Title:      "Variables",
				Type:       knowledge.TypeLesson,
				Difficulty: knowledge.Beginner,
				Topics:     []string{"variables"},
				Content:    "Variables hold values.",
			},
			{
				Title:   "Slices",
				Content: "A slice is a growable view over an array. For example, s := []int{1, 2}.",
			},
		},
	}
}

func Test_Pipeline_IngestAddsEveryPassage(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	p, err := NewPipeline(store, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	var progress []string
	added, err := p.Ingest(t.Context(), []SeedFile{seedFixture()}, func(msg string) {
		progress = append(progress, msg)
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}
	if len(progress) == 0 {
		t.Error("no progress messages reported")
	}

	// Explicit seed metadata is preserved as given.
	if store.metas[0].Type != knowledge.TypeLesson || store.metas[0].Source != "go-basics" {
		t.Errorf("metas[0] = %+v, want explicit lesson metadata", store.metas[0])
	}
	// Omitted fields are inferred: "For example" marks an example passage.
	if store.metas[1].Type != knowledge.TypeExample {
		t.Errorf("metas[1].Type = %q, want inferred example", store.metas[1].Type)
	}
	if len(store.metas[1].Topics) == 0 {
		t.Error("metas[1].Topics empty, want topics inferred from title")
	}
}

func Test_Pipeline_ChunksLongContentWithOverlap(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	p, err := NewPipeline(store, &Config{ChunkSize: 100, ChunkOverlap: 20})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	long := strings.Repeat("abcdefghij", 25) // 250 chars -> 3 chunks at stride 80
	files := []SeedFile{{
		Source:    "long",
		Documents: []SeedDocument{{Title: "Big lesson", Content: long}},
	}}

	added, err := p.Ingest(t.Context(), files, nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if added != 3 {
		t.Fatalf("added = %d chunks, want 3", added)
	}
	if store.metas[0].Title != "Big lesson (part 1)" || store.metas[2].Title != "Big lesson (part 3)" {
		t.Errorf("chunk titles = %q ... %q, want part suffixes", store.metas[0].Title, store.metas[2].Title)
	}
	// Consecutive chunks share the configured overlap.
	if !strings.HasPrefix(store.contents[1], store.contents[0][80:]) {
		t.Error("second chunk does not start with the overlap tail of the first")
	}
	for i, c := range store.contents {
		if len(c) > 100 {
			t.Errorf("chunk %d is %d chars, want <= 100", i, len(c))
		}
	}
}

func Test_Pipeline_ChunkIsRuneAligned(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline(&recordingStore{}, &Config{ChunkSize: 10, ChunkOverlap: 2})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	for i, c := range p.chunk(strings.Repeat("日本語テキスト", 10)) {
		if !strings.ContainsRune(c, '日') && !strings.ContainsRune(c, '本') {
			continue
		}
		for _, r := range c {
			if r == '�' {
				t.Fatalf("chunk %d contains a replacement rune: %q", i, c)
			}
		}
	}
}

func Test_Pipeline_IngestStopsAtFirstError(t *testing.T) {
	t.Parallel()

	store := &recordingStore{failAt: 2}
	p, err := NewPipeline(store, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	added, err := p.Ingest(t.Context(), []SeedFile{seedFixture()}, nil)
	if err == nil {
		t.Fatal("Ingest succeeded, want error from second Add")
	}
	if added != 1 {
		t.Errorf("added = %d before failure, want 1", added)
	}
}

func Test_LoadDir_ParsesSeedFilesInLexicalOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSeed := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	writeSeed("02-advanced.yaml", "source: advanced\ndocuments:\n  - title: Generics\n    content: Type parameters.\n")
	writeSeed("01-basics.yml", "documents:\n  - title: Hello\n    content: First program.\n")
	writeSeed("notes.txt", "not yaml, must be skipped")

	files, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("LoadDir returned %d files, want 2", len(files))
	}
	// Missing source falls back to the file name.
	if files[0].Source != "01-basics" {
		t.Errorf("files[0].Source = %q, want file-name fallback", files[0].Source)
	}
	if files[1].Source != "advanced" {
		t.Errorf("files[1].Source = %q, want explicit source", files[1].Source)
	}
}

func Test_Load_RejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("documents: [title: {"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load succeeded on malformed YAML, want error")
	}
}
