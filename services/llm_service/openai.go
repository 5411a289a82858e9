package llm_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures the OpenAI client.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	EmbeddingModel  string
	GenerationModel string
	Timeout         time.Duration
}

// OpenAIService calls the OpenAI API for embeddings and chat completions.
type OpenAIService struct {
	httpClient      *http.Client
	logger          *slog.Logger
	apiKey          string
	baseURL         string
	embeddingModel  string
	generationModel string
}

func NewOpenAIService(cfg OpenAIConfig, logger *slog.Logger) *OpenAIService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openAIDefaultBaseURL
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-ada-002"
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &OpenAIService{
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		logger:          logger,
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		embeddingModel:  cfg.EmbeddingModel,
		generationModel: cfg.GenerationModel,
	}
}

type openAIEmbeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// EmbedBatch embeds all inputs in one /embeddings call, returning vectors
// in input order.
func (s *OpenAIService) EmbedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs to embed")
	}

	var embedResp openAIEmbeddingResponse
	err := s.post(ctx, s.baseURL+"/embeddings", openAIEmbeddingRequest{
		Input: inputs,
		Model: s.embeddingModel,
	}, &embedResp)
	if err != nil {
		return nil, err
	}

	if len(embedResp.Data) != len(inputs) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(embedResp.Data))
	}

	// The API documents index-ordered data but places the index explicitly,
	// so honor it.
	vectors := make([][]float32, len(inputs))
	for _, item := range embedResp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("empty embedding at position %d", i)
		}
	}

	s.logger.Debug("Embedded batch via OpenAI",
		slog.Int("inputs", len(inputs)),
		slog.Int("total_tokens", embedResp.Usage.TotalTokens))

	return vectors, nil
}

type openAIChatRequest struct {
	Model    string              `json:"model"`
	Messages []map[string]string `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt as a chat completion and returns the first
// choice's content.
func (s *OpenAIService) Generate(ctx context.Context, prompt string) (string, error) {
	payload := openAIChatRequest{
		Model: s.generationModel,
		Messages: []map[string]string{
			{"role": "system", "content": "You are a helpful assistant."},
			{"role": "user", "content": prompt},
		},
	}

	var chatResp openAIChatResponse
	if err := s.post(ctx, s.baseURL+"/chat/completions", payload, &chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	return chatResp.Choices[0].Message.Content, nil
}

func (s *OpenAIService) post(ctx context.Context, url string, payload, out interface{}) error {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		httpErr := newProviderHttpError("OpenAI", resp)
		if httpErr.StatusCode == http.StatusTooManyRequests {
			s.logger.Error("OpenAI API quota exceeded",
				slog.String("error_message", httpErr.Message),
				slog.Int("status_code", httpErr.StatusCode))
		} else {
			s.logger.Error("OpenAI API error",
				slog.Int("status_code", httpErr.StatusCode),
				slog.String("error_message", httpErr.Message),
				slog.String("raw_body", httpErr.RawBody))
		}
		return httpErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
