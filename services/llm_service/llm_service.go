package llm_service

import "context"

// EmbeddingService turns text into fixed-dimension vectors via an external
// provider. One call embeds a whole batch; providers bill per token either
// way and batching keeps ingestion to a single round trip.
type EmbeddingService interface {
	EmbedBatch(ctx context.Context, inputs []string) ([][]float32, error)
}

// LLMService generates an answer for a fully assembled prompt.
type LLMService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
