package rag_service

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileIndexStore persists the index as a gob file. Save writes to a staging
// file in the same directory and renames it over the target, so readers
// either see the old index or the new one, never a partial write.
type FileIndexStore struct {
	path   string
	logger *slog.Logger
}

func NewFileIndexStore(path string, logger *slog.Logger) *FileIndexStore {
	return &FileIndexStore{path: path, logger: logger}
}

func (s *FileIndexStore) Save(ctx context.Context, index *VectorIndex) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	staging := filepath.Join(filepath.Dir(s.path), fmt.Sprintf(".staging-%s", uuid.NewString()))
	f, err := os.OpenFile(staging, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(index); err != nil {
		f.Close()
		os.Remove(staging)
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(staging)
		return fmt.Errorf("failed to close staging file: %w", err)
	}

	if err := os.Rename(staging, s.path); err != nil {
		os.Remove(staging)
		return fmt.Errorf("failed to swap index into place: %w", err)
	}

	s.logger.Info("Persisted vector index",
		slog.String("path", s.path),
		slog.Int("chunks", index.Len()))

	return nil
}

func (s *FileIndexStore) Load(ctx context.Context) (*VectorIndex, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer f.Close()

	var index VectorIndex
	if err := gob.NewDecoder(f).Decode(&index); err != nil {
		return nil, fmt.Errorf("failed to decode index file: %w", err)
	}

	s.logger.Info("Loaded vector index from disk",
		slog.String("path", s.path),
		slog.Int("chunks", index.Len()))

	return &index, nil
}
