// Package store persists embedded knowledge-base chunks in an embedded
// SQLite database so the corpus only has to be embedded once per device.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/beri-ai/cli/internal/corpus"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id          TEXT PRIMARY KEY,
	chunk_index INTEGER NOT NULL,
	source      TEXT NOT NULL,
	section     TEXT NOT NULL,
	content     TEXT NOT NULL,
	embedding   TEXT
);`

// EmbedFunc turns text into a fixed-length vector. It must be
// deterministic for identical input within a session.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// ProgressFunc reports (current, total) after each chunk is embedded.
type ProgressFunc func(current, total int)

// Store holds the persisted chunk set.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the chunk store under dataDir. If dataDir is
// empty it defaults to ~/.beri/data.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".beri", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "chunks.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Has reports whether a non-empty, fully embedded chunk set is persisted.
// A set with any un-embedded chunk is not ready for retrieval.
func (s *Store) Has(ctx context.Context) (bool, error) {
	var total, embedded int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(embedding) FROM chunks`,
	).Scan(&total, &embedded)
	if err != nil {
		return false, fmt.Errorf("counting chunks: %w", err)
	}
	return total > 0 && total == embedded, nil
}

// LoadAll populates the store from the corpus document: parse, embed each
// chunk in order, persist, and report progress. It is idempotent: if the
// store is already populated it returns immediately.
func (s *Store) LoadAll(ctx context.Context, document string, embed EmbedFunc, onProgress ProgressFunc) error {
	has, err := s.Has(ctx)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	chunks, err := corpus.Parse(document)
	if err != nil {
		return err
	}

	// A partially embedded set from an interrupted run is replaced
	// wholesale rather than resumed.
	if err := s.Clear(ctx); err != nil {
		return err
	}

	if err := s.ingest(ctx, chunks, embed, onProgress); err != nil {
		// Rows written so far look like a complete, fully embedded set to
		// Has; they must not survive a failed run.
		_ = s.Clear(context.WithoutCancel(ctx))
		return err
	}
	return nil
}

func (s *Store) ingest(ctx context.Context, chunks []corpus.Chunk, embed EmbedFunc, onProgress ProgressFunc) error {
	dimension := 0
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		vec, err := embed(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		if dimension == 0 {
			dimension = len(vec)
		} else if len(vec) != dimension {
			return fmt.Errorf("embedding dimension mismatch: chunk %d has %d, want %d", i, len(vec), dimension)
		}

		chunk.Embedding = vec
		if err := s.put(ctx, chunk); err != nil {
			return err
		}
		if onProgress != nil {
			onProgress(i+1, len(chunks))
		}
	}

	return nil
}

// All returns every persisted chunk in original chunking order.
func (s *Store) All(ctx context.Context) ([]corpus.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chunk_index, source, section, content, embedding
		 FROM chunks ORDER BY chunk_index ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []corpus.Chunk
	for rows.Next() {
		var c corpus.Chunk
		var embedding sql.NullString
		if err := rows.Scan(&c.ID, &c.Metadata.ChunkIndex, &c.Metadata.Source, &c.Metadata.Section, &c.Content, &embedding); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if embedding.Valid {
			if err := json.Unmarshal([]byte(embedding.String), &c.Embedding); err != nil {
				return nil, fmt.Errorf("decoding embedding for %s: %w", c.ID, err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Count returns the number of persisted chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Clear removes all persisted chunks. Used by -reindex.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, c corpus.Chunk) error {
	var embedding any
	if c.HasEmbedding() {
		data, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding for %s: %w", c.ID, err)
		}
		embedding = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO chunks (id, chunk_index, source, section, content, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Metadata.ChunkIndex, c.Metadata.Source, c.Metadata.Section, c.Content, embedding,
	)
	if err != nil {
		return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
	}
	return nil
}
