// Package snapshot persists the document collection to a local SQLite
// database so the knowledge base survives process restarts. The in-memory
// store stays authoritative at runtime; a snapshot is written after
// mutations and loaded once at startup.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/studyloop/mentor-go/internal/knowledge"
)

// Store reads and writes document snapshots in a local SQLite database.
type Store struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the knowledge snapshot database.
// It resolves to ~/.mentor/knowledge.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("snapshot: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".mentor")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("snapshot: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "knowledge.db"), nil
}

// Open opens (or creates) a snapshot Store at the given path and runs the
// schema migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*Store, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *Store) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id             TEXT    PRIMARY KEY,
    position       INTEGER NOT NULL,  -- insertion order for deterministic enumeration
    content        TEXT    NOT NULL,
    title          TEXT    NOT NULL,
    source         TEXT    NOT NULL,
    doc_type       TEXT    NOT NULL CHECK(doc_type IN ('lesson','summary','concept','example','exercise')),
    difficulty     TEXT    NOT NULL CHECK(difficulty IN ('beginner','intermediate','advanced')),
    topics         TEXT    NOT NULL,  -- JSON array of strings
    updated_at     INTEGER NOT NULL,  -- Unix timestamp (nanoseconds)
    lesson_id      TEXT,
    lesson_section TEXT,
    embedding      TEXT               -- JSON array of floats; NULL when absent
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("snapshot: migrate: %w", err)
	}
	return nil
}

// Save replaces the persisted snapshot wholesale with the given documents,
// in a single transaction so readers never observe a partial collection.
func (s *Store) Save(ctx context.Context, docs []knowledge.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("snapshot: begin save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("snapshot: clear: %w", err)
	}

	const q = `
INSERT INTO documents
    (id, position, content, title, source, doc_type, difficulty, topics, updated_at, lesson_id, lesson_section, embedding)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i, d := range docs {
		topics, err := json.Marshal(d.Metadata.Topics)
		if err != nil {
			return fmt.Errorf("snapshot: encode topics for %s: %w", d.ID, err)
		}
		var embedding any
		if d.Embedding != nil {
			raw, err := json.Marshal(d.Embedding)
			if err != nil {
				return fmt.Errorf("snapshot: encode embedding for %s: %w", d.ID, err)
			}
			embedding = string(raw)
		}
		var lessonID, lessonSection any
		if link := d.Metadata.LessonLink; link != nil {
			lessonID, lessonSection = link.LessonID, link.Section
		}
		if _, err := tx.ExecContext(ctx, q,
			d.ID, i, d.Content,
			d.Metadata.Title, d.Metadata.Source,
			string(d.Metadata.Type), string(d.Metadata.Difficulty),
			string(topics), d.Metadata.Timestamp.UnixNano(),
			lessonID, lessonSection, embedding,
		); err != nil {
			return fmt.Errorf("snapshot: insert %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("snapshot: commit save: %w", err)
	}
	return nil
}

// Load returns every persisted document in insertion order. An empty or
// freshly created database yields an empty slice, not an error.
func (s *Store) Load(ctx context.Context) ([]knowledge.Document, error) {
	const q = `
SELECT id, content, title, source, doc_type, difficulty, topics, updated_at, lesson_id, lesson_section, embedding
FROM   documents
ORDER  BY position ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load: %w", err)
	}
	defer rows.Close()

	var docs []knowledge.Document
	for rows.Next() {
		var (
			d                       knowledge.Document
			docType, difficulty     string
			topics                  string
			updatedAt               int64
			lessonID, lessonSection sql.NullString
			embedding               sql.NullString
		)
		if err := rows.Scan(
			&d.ID, &d.Content,
			&d.Metadata.Title, &d.Metadata.Source,
			&docType, &difficulty,
			&topics, &updatedAt,
			&lessonID, &lessonSection, &embedding,
		); err != nil {
			return nil, fmt.Errorf("snapshot: load scan: %w", err)
		}
		d.Metadata.Type = knowledge.DocType(docType)
		d.Metadata.Difficulty = knowledge.Difficulty(difficulty)
		d.Metadata.Timestamp = time.Unix(0, updatedAt)
		if err := json.Unmarshal([]byte(topics), &d.Metadata.Topics); err != nil {
			return nil, fmt.Errorf("snapshot: decode topics for %s: %w", d.ID, err)
		}
		if lessonID.Valid {
			d.Metadata.LessonLink = &knowledge.LessonLink{
				LessonID: lessonID.String,
				Section:  lessonSection.String,
			}
		}
		if embedding.Valid {
			if err := json.Unmarshal([]byte(embedding.String), &d.Embedding); err != nil {
				return nil, fmt.Errorf("snapshot: decode embedding for %s: %w", d.ID, err)
			}
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: load rows: %w", err)
	}
	return docs, nil
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}
	return nil
}
