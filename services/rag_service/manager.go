package rag_service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// IndexManager owns the process-wide index handle. One writer (ingestion)
// swaps the whole index; any number of readers query it concurrently.
// A query arriving before any ingestion in this process lifetime triggers
// a lazy load from the store, coalesced so concurrent callers share a
// single load.
type IndexManager struct {
	store  IndexStore
	logger *slog.Logger

	mu      sync.RWMutex
	current *VectorIndex

	loadMu   sync.Mutex
	ingestMu sync.Mutex
}

func NewIndexManager(store IndexStore, logger *slog.Logger) *IndexManager {
	return &IndexManager{store: store, logger: logger}
}

// Current returns the in-memory index, if one is set.
func (m *IndexManager) Current() (*VectorIndex, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current != nil
}

// EnsureLoaded returns the in-memory index, reading the persisted copy
// first if no ingestion has populated it yet. Repeated calls without an
// intervening ingestion return the same index with no further I/O.
// Returns ErrNoIndexAvailable when nothing was ever persisted.
func (m *IndexManager) EnsureLoaded(ctx context.Context) (*VectorIndex, error) {
	if index, ok := m.Current(); ok {
		return index, nil
	}

	// Serialize loaders; the winner populates current, the rest see it on
	// the re-check and return without touching the store.
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if index, ok := m.Current(); ok {
		return index, nil
	}

	index, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrIndexNotFound) {
			return nil, ErrNoIndexAvailable
		}
		return nil, err
	}

	// An ingestion may have swapped in a fresh index while the load was in
	// flight; the loaded copy is stale then and must not replace it.
	m.mu.Lock()
	if m.current != nil {
		index = m.current
		m.mu.Unlock()
		return index, nil
	}
	m.current = index
	m.mu.Unlock()

	m.logger.Info("Index lazily loaded into memory",
		slog.Int("chunks", index.Len()))

	return index, nil
}

// BeginIngestion claims the single writer slot. It fails with
// ErrIngestionInProgress when another ingestion holds it; the returned
// release func must be called when the ingestion finishes, success or not.
func (m *IndexManager) BeginIngestion() (func(), error) {
	if !m.ingestMu.TryLock() {
		return nil, ErrIngestionInProgress
	}
	return m.ingestMu.Unlock, nil
}

// Swap installs a fully built index as the active one. The ingestion
// pipeline only calls this after the index has been persisted, so the
// in-memory handle never gets ahead of durable state.
func (m *IndexManager) Swap(index *VectorIndex) {
	m.mu.Lock()
	m.current = index
	m.mu.Unlock()
}
