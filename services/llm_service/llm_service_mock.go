package llm_service

import (
	"context"
)

type MockEmbeddingService struct {
	EmbedBatchFunc func(ctx context.Context, inputs []string) ([][]float32, error)
}

func (m *MockEmbeddingService) EmbedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(ctx, inputs)
	}
	vectors := make([][]float32, len(inputs))
	for i := range inputs {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

type MockLLMService struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *MockLLMService) Generate(ctx context.Context, prompt string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "mock response", nil
}
