package rag_service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askpdf/askpdf/pipeline_type"
	"github.com/askpdf/askpdf/services/llm_service"
)

// PipelineConfig carries the chunking and retrieval parameters. Validate
// rejects configurations the chunker cannot honor; the process refuses to
// start with an invalid one so request handling never sees it.
type PipelineConfig struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

func (c PipelineConfig) Validate() error {
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkSize <= c.ChunkOverlap {
		return ErrInvalidChunking
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top-k must be positive, got %d", c.TopK)
	}
	return nil
}

// Pipeline sequences ingestion (chunk, embed, index, persist, swap) and
// query handling (load, retrieve, assemble, generate). It is the only
// writer of the process-wide index.
type Pipeline struct {
	cfg      PipelineConfig
	embedder llm_service.EmbeddingService
	llm      llm_service.LLMService
	manager  *IndexManager
	store    IndexStore
	logger   *slog.Logger
}

func NewPipeline(cfg PipelineConfig, embedder llm_service.EmbeddingService, llm llm_service.LLMService, manager *IndexManager, store IndexStore, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:      cfg,
		embedder: embedder,
		llm:      llm,
		manager:  manager,
		store:    store,
		logger:   logger,
	}, nil
}

// IngestResult reports what one successful ingestion produced.
type IngestResult struct {
	ChunkCount    int
	EmbeddingTime time.Duration
}

// Ingest chunks the document text, embeds all chunks in one batch, builds
// a fresh index, persists it and only then swaps it in. Any failure leaves
// the previously active index untouched. A second concurrent ingestion is
// rejected with ErrIngestionInProgress rather than interleaved.
func (p *Pipeline) Ingest(ctx context.Context, doc pipeline_type.Document) (*IngestResult, error) {
	text := strings.Join(doc.Pages, " ")
	chunks, err := SplitText(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	release, err := p.manager.BeginIngestion()
	if err != nil {
		return nil, err
	}
	defer release()

	p.logger.Info("Ingesting document",
		slog.String("filename", doc.Filename),
		slog.String("document_id", doc.ID),
		slog.Int("chunks", len(chunks)))

	embedStart := time.Now()
	vectors, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingProvider, err)
	}
	embeddingTime := time.Since(embedStart)

	// The caller may have gone away during the provider call; discard the
	// result instead of applying it to shared state.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index, err := NewVectorIndex(chunks, vectors)
	if err != nil {
		return nil, err
	}

	if err := p.store.Save(ctx, index); err != nil {
		return nil, fmt.Errorf("failed to persist index: %w", err)
	}
	p.manager.Swap(index)

	p.logger.Info("Document indexed",
		slog.String("filename", doc.Filename),
		slog.Int("chunks", index.Len()),
		slog.Int("dimension", index.Dimension))

	return &IngestResult{
		ChunkCount:    len(chunks),
		EmbeddingTime: embeddingTime,
	}, nil
}

// Query embeds the question, retrieves the top-k most similar chunks and
// asks the generation provider for an answer grounded in them. Zero
// retrieved chunks short-circuits with ErrNoRelevantContent; generation is
// never invoked on an empty context.
func (p *Pipeline) Query(ctx context.Context, query string) (string, error) {
	index, err := p.manager.EnsureLoaded(ctx)
	if err != nil {
		return "", err
	}

	vectors, err := p.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEmbeddingProvider, err)
	}

	results := index.Search(vectors[0], p.cfg.TopK)
	if len(results) == 0 {
		return "", ErrNoRelevantContent
	}

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	prompt := BuildPrompt(texts, query)

	answer, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationProvider, err)
	}

	p.logger.Debug("Query answered",
		slog.Int("retrieved_chunks", len(results)),
		slog.Float64("top_score", results[0].Score))

	return answer, nil
}
