package rag_service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresIndexStore persists the index in a pgvector table. The whole
// index is replaced inside one transaction, which gives the same
// all-or-nothing swap as the file store.
type PostgresIndexStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresIndexStore(db *pgxpool.Pool, logger *slog.Logger) *PostgresIndexStore {
	return &PostgresIndexStore{db: db, logger: logger}
}

func (s *PostgresIndexStore) Save(ctx context.Context, index *VectorIndex) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS index_chunks (
            position  integer PRIMARY KEY,
            content   text NOT NULL,
            embedding vector NOT NULL
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create index table: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM index_chunks"); err != nil {
		return fmt.Errorf("failed to clear previous index: %w", err)
	}

	batch := &pgx.Batch{}
	for _, entry := range index.Entries {
		batch.Queue(
			"INSERT INTO index_chunks (position, content, embedding) VALUES ($1, $2, $3)",
			entry.Position, entry.Text, pgvector.NewVector(entry.Embedding),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert index chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}

	s.logger.Info("Persisted vector index to postgres",
		slog.Int("chunks", index.Len()))

	return nil
}

func (s *PostgresIndexStore) Load(ctx context.Context) (*VectorIndex, error) {
	rows, err := s.db.Query(ctx, `
        SELECT position, content, embedding
        FROM index_chunks
        ORDER BY position
    `)
	if err != nil {
		// 42P01 is undefined_table: nothing was ever saved.
		if pgErrCode(err) == "42P01" {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("failed to query index chunks: %w", err)
	}
	defer rows.Close()

	index := &VectorIndex{}
	for rows.Next() {
		var entry IndexEntry
		var embedding pgvector.Vector
		if err := rows.Scan(&entry.Position, &entry.Text, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan index chunk: %w", err)
		}
		entry.Embedding = embedding.Slice()
		index.Entries = append(index.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		if pgErrCode(err) == "42P01" {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("failed to read index chunks: %w", err)
	}

	if len(index.Entries) == 0 {
		return nil, ErrIndexNotFound
	}
	index.Dimension = len(index.Entries[0].Embedding)

	s.logger.Info("Loaded vector index from postgres",
		slog.Int("chunks", index.Len()))

	return index, nil
}

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
