package rag_service

import "errors"

var (
	// ErrEmptyDocument means extraction produced no text, or chunking
	// produced zero chunks. Ingestion aborts without touching the
	// active index.
	ErrEmptyDocument = errors.New("document contains no text to index")

	// ErrInvalidChunking means chunk size/overlap are misconfigured.
	// Configuration is validated at startup, so hitting this at request
	// time is a programming error.
	ErrInvalidChunking = errors.New("chunk size must be positive and greater than overlap")

	// ErrNoIndexAvailable means a query arrived before any successful
	// ingestion, in this or any prior process lifetime.
	ErrNoIndexAvailable = errors.New("no index found, upload a document first")

	// ErrNoRelevantContent means retrieval returned zero chunks. Benign:
	// the caller answers "no relevant content" instead of generating.
	ErrNoRelevantContent = errors.New("no relevant content found in the document")

	// ErrIngestionInProgress means a second ingestion arrived while one
	// was in flight. Ingestions are never interleaved.
	ErrIngestionInProgress = errors.New("an upload is already being processed")

	// ErrIndexNotFound is returned by IndexStore.Load when no prior Save
	// has happened at the store's location.
	ErrIndexNotFound = errors.New("no persisted index found")

	// ErrEmbeddingProvider and ErrGenerationProvider tag failures of the
	// external providers so callers can report them as retryable without
	// inspecting provider-specific error types.
	ErrEmbeddingProvider  = errors.New("embedding provider failed")
	ErrGenerationProvider = errors.New("generation provider failed")
)
