package rag_service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/askpdf/askpdf/pipeline_type"
	"github.com/askpdf/askpdf/services/llm_service"
)

// keywordEmbedder is a deterministic embedder: one dimension per keyword
// plus a constant bias dimension, so texts sharing keywords score higher.
func keywordEmbedder(keywords ...string) *llm_service.MockEmbeddingService {
	return &llm_service.MockEmbeddingService{
		EmbedBatchFunc: func(ctx context.Context, inputs []string) ([][]float32, error) {
			vectors := make([][]float32, len(inputs))
			for i, input := range inputs {
				v := make([]float32, len(keywords)+1)
				lower := strings.ToLower(input)
				for j, kw := range keywords {
					if strings.Contains(lower, kw) {
						v[j] = 1
					}
				}
				v[len(keywords)] = 1
				vectors[i] = v
			}
			return vectors, nil
		},
	}
}

func newTestPipeline(t *testing.T, embedder llm_service.EmbeddingService, llm llm_service.LLMService, store IndexStore, cfg PipelineConfig) (*Pipeline, *IndexManager) {
	t.Helper()
	if store == nil {
		store = &countingStore{}
	}
	manager := NewIndexManager(store, testLogger())
	pipeline, err := NewPipeline(cfg, embedder, llm, manager, store, testLogger())
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}
	return pipeline, manager
}

func TestNewPipelineValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  PipelineConfig
	}{
		{"zero chunk size", PipelineConfig{ChunkSize: 0, ChunkOverlap: 0, TopK: 3}},
		{"overlap not below chunk size", PipelineConfig{ChunkSize: 100, ChunkOverlap: 100, TopK: 3}},
		{"negative overlap", PipelineConfig{ChunkSize: 100, ChunkOverlap: -1, TopK: 3}},
		{"zero top-k", PipelineConfig{ChunkSize: 100, ChunkOverlap: 10, TopK: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(tt.cfg, keywordEmbedder(), &llm_service.MockLLMService{}, NewIndexManager(&countingStore{}, testLogger()), &countingStore{}, testLogger())
			if err == nil {
				t.Fatal("expected configuration error, got nil")
			}
		})
	}
}

func TestIngestEmptyDocument(t *testing.T) {
	store := &countingStore{}
	pipeline, _ := newTestPipeline(t, keywordEmbedder(), &llm_service.MockLLMService{}, store,
		PipelineConfig{ChunkSize: 500, ChunkOverlap: 100, TopK: 3})

	_, err := pipeline.Ingest(context.Background(), pipeline_type.Document{
		ID:       "doc-1",
		Filename: "empty.pdf",
		Pages:    []string{""},
	})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if store.saves != 0 {
		t.Errorf("expected no save for an empty document, got %d", store.saves)
	}
}

func TestIngestBuildsPersistsAndSwaps(t *testing.T) {
	store := &countingStore{}
	pipeline, manager := newTestPipeline(t, keywordEmbedder("sky", "grass"), &llm_service.MockLLMService{}, store,
		PipelineConfig{ChunkSize: 20, ChunkOverlap: 5, TopK: 3})

	result, err := pipeline.Ingest(context.Background(), pipeline_type.Document{
		ID:       "doc-1",
		Filename: "doc.pdf",
		Pages:    []string{"The sky is blue. Grass is green."},
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.ChunkCount != 2 {
		t.Errorf("expected 2 chunks, got %d", result.ChunkCount)
	}
	if store.saves != 1 {
		t.Errorf("expected one persist, got %d", store.saves)
	}

	index, ok := manager.Current()
	if !ok {
		t.Fatal("expected an active in-memory index after ingestion")
	}
	if index.Len() != 2 {
		t.Errorf("expected active index with 2 chunks, got %d", index.Len())
	}
}

func TestIngestReplacesPreviousIndex(t *testing.T) {
	store := &countingStore{}
	pipeline, manager := newTestPipeline(t, keywordEmbedder("sky"), &llm_service.MockLLMService{}, store,
		PipelineConfig{ChunkSize: 500, ChunkOverlap: 100, TopK: 3})
	ctx := context.Background()

	if _, err := pipeline.Ingest(ctx, pipeline_type.Document{ID: "a", Filename: "a.pdf", Pages: []string{"first document"}}); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if _, err := pipeline.Ingest(ctx, pipeline_type.Document{ID: "b", Filename: "b.pdf", Pages: []string{"second document"}}); err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	index, _ := manager.Current()
	if index.Len() != 1 || index.Entries[0].Text != "second document" {
		t.Errorf("expected the second document's index to fully replace the first, got %+v", index.Entries)
	}
}

func TestIngestEmbeddingFailureLeavesIndexIntact(t *testing.T) {
	store := &countingStore{}
	goodEmbedder := keywordEmbedder("sky")
	pipeline, manager := newTestPipeline(t, goodEmbedder, &llm_service.MockLLMService{}, store,
		PipelineConfig{ChunkSize: 500, ChunkOverlap: 100, TopK: 3})
	ctx := context.Background()

	if _, err := pipeline.Ingest(ctx, pipeline_type.Document{ID: "a", Filename: "a.pdf", Pages: []string{"The sky is blue."}}); err != nil {
		t.Fatalf("setup ingest failed: %v", err)
	}
	before, _ := manager.Current()
	wantBefore := before.Search([]float32{1, 1}, 1)

	goodEmbedder.EmbedBatchFunc = func(ctx context.Context, inputs []string) ([][]float32, error) {
		return nil, errors.New("quota exceeded")
	}

	_, err := pipeline.Ingest(ctx, pipeline_type.Document{ID: "b", Filename: "b.pdf", Pages: []string{"replacement text"}})
	if !errors.Is(err, ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}

	after, ok := manager.Current()
	if !ok || after != before {
		t.Fatal("expected the previous index to remain active after a failed ingestion")
	}
	gotAfter := after.Search([]float32{1, 1}, 1)
	if len(gotAfter) != 1 || gotAfter[0] != wantBefore[0] {
		t.Errorf("query results changed after failed ingestion:\nbefore %+v\nafter  %+v", wantBefore, gotAfter)
	}
	if store.saves != 1 {
		t.Errorf("expected no additional persist after failed ingestion, got %d saves", store.saves)
	}
}

func TestIngestWhileIngestionInProgress(t *testing.T) {
	pipeline, manager := newTestPipeline(t, keywordEmbedder(), &llm_service.MockLLMService{}, nil,
		PipelineConfig{ChunkSize: 500, ChunkOverlap: 100, TopK: 3})

	release, err := manager.BeginIngestion()
	if err != nil {
		t.Fatalf("BeginIngestion failed: %v", err)
	}
	defer release()

	_, err = pipeline.Ingest(context.Background(), pipeline_type.Document{ID: "a", Filename: "a.pdf", Pages: []string{"text"}})
	if !errors.Is(err, ErrIngestionInProgress) {
		t.Fatalf("expected ErrIngestionInProgress, got %v", err)
	}
}

func TestIngestCancelledContextDiscardsResult(t *testing.T) {
	store := &countingStore{}
	embedder := &llm_service.MockEmbeddingService{}
	pipeline, manager := newTestPipeline(t, embedder, &llm_service.MockLLMService{}, store,
		PipelineConfig{ChunkSize: 500, ChunkOverlap: 100, TopK: 3})

	ctx, cancel := context.WithCancel(context.Background())
	embedder.EmbedBatchFunc = func(ctx context.Context, inputs []string) ([][]float32, error) {
		// Caller goes away while the provider call is in flight.
		cancel()
		vectors := make([][]float32, len(inputs))
		for i := range inputs {
			vectors[i] = []float32{1}
		}
		return vectors, nil
	}

	_, err := pipeline.Ingest(ctx, pipeline_type.Document{ID: "a", Filename: "a.pdf", Pages: []string{"text"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, ok := manager.Current(); ok {
		t.Error("expected no index to be installed after cancellation")
	}
	if store.saves != 0 {
		t.Errorf("expected no persist after cancellation, got %d", store.saves)
	}
}

func TestQueryNoIndexAvailable(t *testing.T) {
	pipeline, _ := newTestPipeline(t, keywordEmbedder(), &llm_service.MockLLMService{}, nil,
		PipelineConfig{ChunkSize: 500, ChunkOverlap: 100, TopK: 3})

	_, err := pipeline.Query(context.Background(), "What color is the sky?")
	if !errors.Is(err, ErrNoIndexAvailable) {
		t.Fatalf("expected ErrNoIndexAvailable, got %v", err)
	}
}

func TestQueryLazilyLoadsPersistedIndex(t *testing.T) {
	index := buildTestIndex(t, []string{"The sky is blue."}, [][]float32{{1, 1}})
	store := &countingStore{index: index}
	pipeline, _ := newTestPipeline(t, keywordEmbedder("sky"), &llm_service.MockLLMService{}, store,
		PipelineConfig{ChunkSize: 500, ChunkOverlap: 100, TopK: 3})

	answer, err := pipeline.Query(context.Background(), "What color is the sky?")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if answer != "mock response" {
		t.Errorf("unexpected answer %q", answer)
	}
	if store.loads != 1 {
		t.Errorf("expected exactly one lazy load, got %d", store.loads)
	}
}

func TestQueryRetrievesMostRelevantChunkFirst(t *testing.T) {
	embedder := keywordEmbedder("sky", "grass")
	var capturedPrompt string
	llm := &llm_service.MockLLMService{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			capturedPrompt = prompt
			return "The sky is blue.", nil
		},
	}
	pipeline, _ := newTestPipeline(t, embedder, llm, &countingStore{},
		PipelineConfig{ChunkSize: 20, ChunkOverlap: 5, TopK: 1})
	ctx := context.Background()

	if _, err := pipeline.Ingest(ctx, pipeline_type.Document{
		ID:       "doc",
		Filename: "doc.pdf",
		Pages:    []string{"The sky is blue. Grass is green."},
	}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	answer, err := pipeline.Query(ctx, "What color is the sky?")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if answer != "The sky is blue." {
		t.Errorf("unexpected answer %q", answer)
	}

	if !strings.Contains(capturedPrompt, "The sky is blue. Gra") {
		t.Errorf("prompt missing the sky chunk: %q", capturedPrompt)
	}
	if strings.Contains(capturedPrompt, "Grass is green") {
		t.Errorf("prompt should only contain the top-1 chunk: %q", capturedPrompt)
	}
	if !strings.HasSuffix(capturedPrompt, "Question: What color is the sky?") {
		t.Errorf("prompt does not end with the literal question: %q", capturedPrompt)
	}
}

func TestQueryEmptyIndexShortCircuitsGeneration(t *testing.T) {
	generated := false
	llm := &llm_service.MockLLMService{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			generated = true
			return "", nil
		},
	}
	pipeline, manager := newTestPipeline(t, keywordEmbedder(), llm, nil,
		PipelineConfig{ChunkSize: 500, ChunkOverlap: 100, TopK: 3})
	manager.Swap(&VectorIndex{})

	_, err := pipeline.Query(context.Background(), "anything")
	if !errors.Is(err, ErrNoRelevantContent) {
		t.Fatalf("expected ErrNoRelevantContent, got %v", err)
	}
	if generated {
		t.Error("generation must not run when retrieval returns nothing")
	}
}

func TestQueryGenerationFailure(t *testing.T) {
	llm := &llm_service.MockLLMService{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("model overloaded")
		},
	}
	index := buildTestIndex(t, []string{"some text"}, [][]float32{{1}})
	store := &countingStore{index: index}
	pipeline, _ := newTestPipeline(t, &llm_service.MockEmbeddingService{
		EmbedBatchFunc: func(ctx context.Context, inputs []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		},
	}, llm, store, PipelineConfig{ChunkSize: 500, ChunkOverlap: 100, TopK: 3})

	_, err := pipeline.Query(context.Background(), "anything")
	if !errors.Is(err, ErrGenerationProvider) {
		t.Fatalf("expected ErrGenerationProvider, got %v", err)
	}
}
