// Package sqlite provides the embedded vector store backend.
//
// Vectors are stored as little-endian float32 blobs and searched with
// an exact in-process cosine scan. That keeps the backend dependency-
// free beyond the sqlite driver and is plenty for the collection sizes
// a local knowledge base reaches; the postgres backend takes over when
// an approximate index is needed.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/quarry/internal/adapters/driven/vectorstore/sqlite/migrations"
	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is the embedded SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the vector database at path.
// If path is empty, it defaults to ~/.quarry/data/vectors.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".quarry", "data", "vectors.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL keeps concurrent ingestion jobs and read-only searches from
	// blocking each other.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// EnsureCollection creates the collection if it does not exist.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	if name == "" || dimensions <= 0 {
		return fmt.Errorf("%w: collection name and dimensions are required", domain.ErrInvalidInput)
	}

	var existing int
	row := s.db.QueryRowContext(ctx, "SELECT dimensions FROM collections WHERE name = ?", name)
	switch err := row.Scan(&existing); {
	case err == nil:
		if existing != dimensions {
			return fmt.Errorf("%w: collection %s has %d dimensions, requested %d",
				domain.ErrDimensionMismatch, name, existing, dimensions)
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		// Fall through to create.
	default:
		return fmt.Errorf("checking collection: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, dimensions) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, dimensions)
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

// Upsert writes points into the collection, overwriting per point id.
// Points are written one by one: a failure part-way leaves the earlier
// writes in place, which callers tolerate as a mixed state.
func (s *Store) Upsert(ctx context.Context, collection string, points []domain.Point) error {
	dims, err := s.dimensions(ctx, collection)
	if err != nil {
		return err
	}

	for _, p := range points {
		if len(p.Vector) != dims {
			return fmt.Errorf("%w: point %s has %d dimensions, collection %s wants %d",
				domain.ErrDimensionMismatch, p.ID, len(p.Vector), collection, dims)
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO points (collection, id, document_id, filename, chunk_index, text, token_count, vector, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?,
				(SELECT COALESCE(MAX(seq), 0) + 1 FROM points WHERE collection = ?))
			ON CONFLICT(collection, id) DO UPDATE SET
				document_id = excluded.document_id,
				filename = excluded.filename,
				chunk_index = excluded.chunk_index,
				text = excluded.text,
				token_count = excluded.token_count,
				vector = excluded.vector
		`, collection, p.ID, p.DocumentID, p.Filename, p.ChunkIndex, p.Text, p.TokenCount,
			float32SliceToBytes(p.Vector), collection)
		if err != nil {
			return fmt.Errorf("upserting point %s: %w", p.ID, err)
		}
	}
	return nil
}

// Search scans the collection and returns the limit nearest points by
// cosine similarity, non-increasing, ties broken by insertion order.
func (s *Store) Search(
	ctx context.Context, collection string, vector []float32, limit int,
) ([]driven.ScoredPoint, error) {
	dims, err := s.dimensions(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s wants %d",
			domain.ErrDimensionMismatch, len(vector), collection, dims)
	}
	if limit <= 0 {
		return []driven.ScoredPoint{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, filename, chunk_index, text, token_count, vector
		FROM points WHERE collection = ? ORDER BY seq
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	var scored []driven.ScoredPoint //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Point
		var blob []byte
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Filename, &p.ChunkIndex,
			&p.Text, &p.TokenCount, &blob); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		p.Vector = bytesToFloat32Slice(blob)
		scored = append(scored, driven.ScoredPoint{
			Point: p,
			Score: cosineSimilarity(vector, p.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points: %w", err)
	}

	// Stable sort over the seq-ordered scan keeps insertion order as
	// the tie-break.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Scroll pages through a collection's points in insertion order.
func (s *Store) Scroll(ctx context.Context, collection string, offset, limit int) ([]domain.Point, error) {
	if _, err := s.dimensions(ctx, collection); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, filename, chunk_index, text, token_count, vector
		FROM points WHERE collection = ? ORDER BY seq LIMIT ? OFFSET ?
	`, collection, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("scrolling points: %w", err)
	}
	defer rows.Close()

	var points []domain.Point //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Point
		var blob []byte
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Filename, &p.ChunkIndex,
			&p.Text, &p.TokenCount, &blob); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		p.Vector = bytesToFloat32Slice(blob)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points: %w", err)
	}
	return points, nil
}

// DeleteDocument removes every point belonging to a document.
func (s *Store) DeleteDocument(ctx context.Context, collection, documentID string) error {
	if _, err := s.dimensions(ctx, collection); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM points WHERE collection = ? AND document_id = ?", collection, documentID)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return nil
}

// ListDocuments summarises the documents present in a collection,
// ordered by first insertion.
func (s *Store) ListDocuments(ctx context.Context, collection string) ([]domain.DocumentSummary, error) {
	if _, err := s.dimensions(ctx, collection); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, filename, COUNT(*) AS passages
		FROM points WHERE collection = ?
		GROUP BY document_id, filename
		ORDER BY MIN(seq)
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var d domain.DocumentSummary
		if err := rows.Scan(&d.DocumentID, &d.Filename, &d.Passages); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Stats describes a collection.
func (s *Store) Stats(ctx context.Context, collection string) (*domain.CollectionStats, error) {
	dims, err := s.dimensions(ctx, collection)
	if err != nil {
		return nil, err
	}

	var count int64
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM points WHERE collection = ?", collection)
	if err := row.Scan(&count); err != nil {
		return nil, fmt.Errorf("counting points: %w", err)
	}

	return &domain.CollectionStats{
		Name:       collection,
		Points:     count,
		Dimensions: dims,
	}, nil
}

// ListCollections returns all collection names, sorted.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var names []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}
	return names, nil
}

// DropCollection removes a collection and all its points.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	if _, err := s.dimensions(ctx, name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM points WHERE collection = ?", name); err != nil {
		return fmt.Errorf("dropping points: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	return nil
}

// dimensions looks up a collection's dimensionality.
// Unknown collections return domain.ErrNotFound.
func (s *Store) dimensions(ctx context.Context, collection string) (int, error) {
	var dims int
	row := s.db.QueryRowContext(ctx, "SELECT dimensions FROM collections WHERE name = ?", collection)
	if err := row.Scan(&dims); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: collection %s", domain.ErrNotFound, collection)
		}
		return 0, fmt.Errorf("looking up collection: %w", err)
	}
	return dims, nil
}

// cosineSimilarity computes the cosine of the angle between two
// equal-length vectors, in [-1, 1]. Zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
