// Package postgres provides the networked vector store backend on
// PostgreSQL with the pgvector extension.
//
// Each collection gets its own points table with a typed vector column,
// because pgvector fixes the dimensionality per column. A registry
// table maps collection names to their dimensions. Similarity is cosine
// throughout: search orders by the pgvector cosine distance operator
// and reports 1 - distance, the same [-1, 1] quantity the embedded
// backend computes.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// minIndexLists is the ivfflat lower bound on partition lists.
const minIndexLists = 100

// collectionName restricts collection names to safe identifier material,
// since they become part of table names.
var collectionName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,47}$`)

// Store is the pgvector-backed vector store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database and prepares the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: connection string is required", domain.ErrInvalidInput)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// init installs the extension and the collection registry.
func (s *Store) init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("installing pgvector extension: %w", err)
	}
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS collections (
			name       TEXT PRIMARY KEY,
			dimensions INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("creating collections table: %w", err)
	}
	return nil
}

// EnsureCollection creates the collection and its points table.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	if !collectionName.MatchString(name) {
		return fmt.Errorf("%w: invalid collection name %q", domain.ErrInvalidInput, name)
	}
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	var existing int
	err := s.pool.QueryRow(ctx, "SELECT dimensions FROM collections WHERE name = $1", name).Scan(&existing)
	switch {
	case err == nil:
		if existing != dimensions {
			return fmt.Errorf("%w: collection %s has %d dimensions, requested %d",
				domain.ErrDimensionMismatch, name, existing, dimensions)
		}
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		// Fall through to create.
	default:
		return fmt.Errorf("checking collection: %w", err)
	}

	table := pointsTable(name)
	_, err = s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			filename    TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			text        TEXT NOT NULL,
			token_count INTEGER NOT NULL,
			embedding   vector(%d) NOT NULL,
			seq         BIGSERIAL
		)
	`, table, dimensions))
	if err != nil {
		return fmt.Errorf("creating points table: %w", err)
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id)", table, table))
	if err != nil {
		return fmt.Errorf("creating document index: %w", err)
	}

	if _, err := s.pool.Exec(ctx,
		"INSERT INTO collections (name, dimensions) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING",
		name, dimensions); err != nil {
		return fmt.Errorf("registering collection: %w", err)
	}
	return nil
}

// Upsert writes points one by one, overwriting per point id. A failure
// part-way leaves earlier writes in place; the pipeline reports it as a
// storage failure and the caller tolerates the mixed state.
func (s *Store) Upsert(ctx context.Context, collection string, points []domain.Point) error {
	dims, err := s.dimensions(ctx, collection)
	if err != nil {
		return err
	}

	table := pointsTable(collection)
	for _, p := range points {
		if len(p.Vector) != dims {
			return fmt.Errorf("%w: point %s has %d dimensions, collection %s wants %d",
				domain.ErrDimensionMismatch, p.ID, len(p.Vector), collection, dims)
		}

		_, err := s.pool.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, document_id, filename, chunk_index, text, token_count, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				document_id = EXCLUDED.document_id,
				filename = EXCLUDED.filename,
				chunk_index = EXCLUDED.chunk_index,
				text = EXCLUDED.text,
				token_count = EXCLUDED.token_count,
				embedding = EXCLUDED.embedding
		`, table), p.ID, p.DocumentID, p.Filename, p.ChunkIndex, p.Text, p.TokenCount,
			pgvector.NewVector(p.Vector))
		if err != nil {
			return fmt.Errorf("upserting point %s: %w", p.ID, err)
		}
	}
	return nil
}

// Reindex (re)builds the ivfflat index for a collection, sizing the
// list count by the square root of the current row count the way
// pgvector recommends. Worth calling after bulk ingestion; search works
// without it, just sequentially.
func (s *Store) Reindex(ctx context.Context, collection string) error {
	if _, err := s.dimensions(ctx, collection); err != nil {
		return err
	}

	table := pointsTable(collection)
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return fmt.Errorf("counting points: %w", err)
	}

	lists := int(math.Sqrt(float64(count)))
	if lists < minIndexLists {
		lists = minIndexLists
	}

	if _, err := s.pool.Exec(ctx, fmt.Sprintf("DROP INDEX IF EXISTS %s_embedding_idx", table)); err != nil {
		return fmt.Errorf("dropping embedding index: %w", err)
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE INDEX %s_embedding_idx ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = %d)
	`, table, table, lists))
	if err != nil {
		return fmt.Errorf("creating embedding index: %w", err)
	}
	return nil
}

// Search returns the limit nearest points by cosine similarity.
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

	// <=> is cosine distance; 1 - distance is cosine similarity.
	// seq breaks ties by insertion order.
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, document_id, filename, chunk_index, text, token_count, embedding,
		       1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, seq
		LIMIT $2
	`, pointsTable(collection)), pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	var scored []driven.ScoredPoint //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Point
		var embedding pgvector.Vector
		var score float64
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Filename, &p.ChunkIndex,
			&p.Text, &p.TokenCount, &embedding, &score); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		p.Vector = embedding.Slice()
		scored = append(scored, driven.ScoredPoint{Point: p, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points: %w", err)
	}
	return scored, nil
}

// Scroll pages through a collection's points in insertion order.
func (s *Store) Scroll(ctx context.Context, collection string, offset, limit int) ([]domain.Point, error) {
	if _, err := s.dimensions(ctx, collection); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, document_id, filename, chunk_index, text, token_count, embedding
		FROM %s ORDER BY seq LIMIT $1 OFFSET $2
	`, pointsTable(collection)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("scrolling points: %w", err)
	}
	defer rows.Close()

	var points []domain.Point //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Point
		var embedding pgvector.Vector
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Filename, &p.ChunkIndex,
			&p.Text, &p.TokenCount, &embedding); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		p.Vector = embedding.Slice()
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
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", pointsTable(collection)), documentID)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return nil
}

// ListDocuments summarises the documents present in a collection.
func (s *Store) ListDocuments(ctx context.Context, collection string) ([]domain.DocumentSummary, error) {
	if _, err := s.dimensions(ctx, collection); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT document_id, filename, COUNT(*) AS passages
		FROM %s
		GROUP BY document_id, filename
		ORDER BY MIN(seq)
	`, pointsTable(collection)))
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
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM "+pointsTable(collection)).Scan(&count); err != nil {
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
	rows, err := s.pool.Query(ctx, "SELECT name FROM collections ORDER BY name")
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

// DropCollection removes a collection and its points table.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	if _, err := s.dimensions(ctx, name); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "DROP TABLE IF EXISTS "+pointsTable(name)); err != nil {
		return fmt.Errorf("dropping points table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM collections WHERE name = $1", name); err != nil {
		return fmt.Errorf("unregistering collection: %w", err)
	}
	return nil
}

// dimensions looks up a collection's dimensionality.
func (s *Store) dimensions(ctx context.Context, collection string) (int, error) {
	if !collectionName.MatchString(collection) {
		return 0, fmt.Errorf("%w: invalid collection name %q", domain.ErrInvalidInput, collection)
	}
	var dims int
	err := s.pool.QueryRow(ctx, "SELECT dimensions FROM collections WHERE name = $1", collection).Scan(&dims)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: collection %s", domain.ErrNotFound, collection)
		}
		return 0, fmt.Errorf("looking up collection: %w", err)
	}
	return dims, nil
}

// pointsTable maps a validated collection name to its table name.
func pointsTable(collection string) string {
	return "points_" + collection
}
