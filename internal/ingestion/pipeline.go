// Package ingestion loads course material from YAML seed files, splits long
// passages into overlapping chunks, and adds each chunk to the knowledge
// store. The store embeds content as part of Add, so the pipeline itself
// never talks to an embedding provider. Invoked by the `mentor ingest` CLI
// command.
package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/studyloop/mentor-go/internal/knowledge"
)

// SeedDocument is one passage in a seed file. Type, difficulty, and topics
// may be omitted; the pipeline infers best-effort values from the content.
type SeedDocument struct {
	// Title is the passage title.
	Title string `yaml:"title"`
	// Type classifies the passage (lesson, summary, concept, example, exercise).
	Type knowledge.DocType `yaml:"type,omitempty"`
	// Difficulty is the learner level (beginner, intermediate, advanced).
	Difficulty knowledge.Difficulty `yaml:"difficulty,omitempty"`
	// Topics lists the topic tags.
	Topics []string `yaml:"topics,omitempty"`
	// Lesson links the passage back to its source lesson.
	Lesson *knowledge.LessonLink `yaml:"lesson,omitempty"`
	// Content is the passage text.
	Content string `yaml:"content"`
}

// SeedFile is a YAML file of course passages sharing one provenance label.
type SeedFile struct {
	// Source is the provenance label applied to every document in the file.
	Source string `yaml:"source"`
	// Documents are the passages to ingest.
	Documents []SeedDocument `yaml:"documents"`
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per document chunk.
	// Defaults to 1000 if zero.
	ChunkSize int

	// ChunkOverlap is the number of characters to overlap between consecutive
	// chunks. Defaults to 100 if zero.
	ChunkOverlap int
}

// adder is the slice of the store surface the pipeline needs.
type adder interface {
	Add(ctx context.Context, content string, meta knowledge.Metadata) (string, error)
}

// Pipeline orchestrates the load → infer → chunk → add flow for a set of
// seed files.
type Pipeline struct {
	store adder
	cfg   *Config
}

// NewPipeline constructs a Pipeline from the provided store and config.
func NewPipeline(store adder, cfg *Config) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = 100
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 10
	}
	return &Pipeline{store: store, cfg: cfg}, nil
}

// Load parses a single YAML seed file.
func Load(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: read %s: %w", path, err)
	}
	var f SeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("ingestion: parse %s: %w", path, err)
	}
	if f.Source == "" {
		f.Source = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &f, nil
}

// LoadDir parses every .yaml/.yml file in dir, in lexical order.
func LoadDir(dir string) ([]SeedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ingestion: read dir %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	files := make([]SeedFile, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, nil
}

// Ingest chunks and stores every passage from the given seed files,
// processing them sequentially and returning the number of documents added.
// It stops at the first error. Progress is reported via the optional
// progress callback.
func (p *Pipeline) Ingest(ctx context.Context, files []SeedFile, progress func(msg string)) (int, error) {
	if progress == nil {
		progress = func(string) {}
	}

	added := 0
	for _, f := range files {
		progress(fmt.Sprintf("ingesting %q (%d passages)", f.Source, len(f.Documents)))

		for _, d := range f.Documents {
			meta := knowledge.Metadata{
				Title:      d.Title,
				Source:     f.Source,
				Type:       d.Type,
				Difficulty: d.Difficulty,
				Topics:     d.Topics,
				LessonLink: d.Lesson,
			}
			inferDefaults(&meta, d.Content)

			chunks := p.chunk(d.Content)
			for i, chunk := range chunks {
				chunkMeta := meta
				if len(chunks) > 1 {
					chunkMeta.Title = fmt.Sprintf("%s (part %d)", meta.Title, i+1)
				}
				if _, err := p.store.Add(ctx, chunk, chunkMeta); err != nil {
					return added, fmt.Errorf("ingestion: add %q: %w", chunkMeta.Title, err)
				}
				added++
			}
		}

		progress(fmt.Sprintf("ingested %q", f.Source))
	}
	return added, nil
}

// chunk splits text into overlapping chunks of cfg.ChunkSize characters.
// Boundaries are rune-aligned so multi-byte text never splits mid-character.
func (p *Pipeline) chunk(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	size := p.cfg.ChunkSize
	overlap := p.cfg.ChunkOverlap

	for start := 0; start < len(runes); start += size - overlap {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
