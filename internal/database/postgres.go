package database

import (
	"context"
	"fmt"

	"highlight-extractor/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB represents the database connection
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// schema returns the statements Initialize runs. The pgvector extension is
// only created when embeddings are stored; embeddings live in a float8[]
// column either way and are cast to vector when queried.
func schema(withEmbeddings bool) []string {
	var stmts []string
	if withEmbeddings {
		stmts = append(stmts, `CREATE EXTENSION IF NOT EXISTS vector`)
	}
	return append(stmts, `
        CREATE TABLE IF NOT EXISTS highlights (
            id SERIAL PRIMARY KEY,
            run_id TEXT NOT NULL,
            document TEXT NOT NULL,
            page_number INTEGER NOT NULL,
            position INTEGER NOT NULL,
            content TEXT NOT NULL,
            embedding FLOAT8[],
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `,
		`CREATE INDEX IF NOT EXISTS highlights_document_idx ON highlights (document, position)`,
		`CREATE INDEX IF NOT EXISTS highlights_run_idx ON highlights (run_id)`,
	)
}

// Initialize sets up the highlights table and indices. withEmbeddings also
// creates the pgvector extension needed by QuerySimilar.
func (db *DB) Initialize(ctx context.Context, withEmbeddings bool) error {
	for _, stmt := range schema(withEmbeddings) {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// ReplaceDocument stores the highlights of one document in a single
// transaction, removing any rows a previous run stored for it.
func (db *DB) ReplaceDocument(ctx context.Context, document string, highlights []models.IndexedHighlight) error {
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM highlights WHERE document = $1`, document); err != nil {
			return fmt.Errorf("failed to delete previous highlights: %w", err)
		}

		batch := &pgx.Batch{}
		for _, h := range highlights {
			batch.Queue(`
				INSERT INTO highlights (run_id, document, page_number, position, content, embedding)
				VALUES ($1, $2, $3, $4, $5, $6::float8[])
			`, h.RunID, document, h.Highlight.Page, h.Position, h.Highlight.Text, embeddingParam(h.Embedding))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to store highlights: %w", err)
		}
		return nil
	})
}

// QuerySimilar finds highlights similar to the query embedding. It needs
// the pgvector extension.
func (db *DB) QuerySimilar(ctx context.Context, embedding []float64, limit int) ([]models.IndexedHighlight, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, run_id, document, page_number, position, content
		FROM highlights
		WHERE embedding IS NOT NULL AND cardinality(embedding) = $2
		ORDER BY embedding::vector <=> $1::float8[]::vector
		LIMIT $3
	`, embedding, len(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar highlights: %w", err)
	}
	return processRows(rows)
}

// SearchText finds highlights containing query, ignoring case
func (db *DB) SearchText(ctx context.Context, query string, limit int) ([]models.IndexedHighlight, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, run_id, document, page_number, position, content
		FROM highlights
		WHERE content ILIKE '%' || $1 || '%'
		ORDER BY document, position
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search highlights: %w", err)
	}
	return processRows(rows)
}

// Documents lists indexed documents with their highlight counts
func (db *DB) Documents(ctx context.Context) (map[string]int, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT document, count(*) FROM highlights GROUP BY document ORDER BY document
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := make(map[string]int)
	for rows.Next() {
		var (
			document string
			count    int
		)
		if err := rows.Scan(&document, &count); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs[document] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return docs, nil
}

func processRows(rows pgx.Rows) ([]models.IndexedHighlight, error) {
	defer rows.Close()

	var highlights []models.IndexedHighlight
	for rows.Next() {
		var h models.IndexedHighlight
		if err := rows.Scan(
			&h.ID,
			&h.RunID,
			&h.Document,
			&h.Highlight.Page,
			&h.Position,
			&h.Highlight.Text); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		highlights = append(highlights, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return highlights, nil
}

// embeddingParam stores a missing embedding as NULL
func embeddingParam(embedding []float64) any {
	if len(embedding) == 0 {
		return nil
	}
	return embedding
}

// Close closes the database connection
func (db *DB) Close() {
	db.Pool.Close()
}
