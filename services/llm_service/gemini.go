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

const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiConfig configures the Gemini client. Zero values fall back to the
// models the service was built against.
type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	EmbeddingModel  string
	GenerationModel string
	Timeout         time.Duration
}

// GeminiService calls the Google Generative Language API for both
// embeddings and answer generation. Calls are single-shot with a bounded
// timeout; retry policy belongs to the caller.
type GeminiService struct {
	httpClient      *http.Client
	logger          *slog.Logger
	apiKey          string
	baseURL         string
	embeddingModel  string
	generationModel string
}

func NewGeminiService(cfg GeminiConfig, logger *slog.Logger) *GeminiService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = geminiDefaultBaseURL
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "embedding-001"
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "gemini-1.5-pro"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &GeminiService{
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		logger:          logger,
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		embeddingModel:  cfg.EmbeddingModel,
		generationModel: cfg.GenerationModel,
	}
}

type geminiEmbedContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedRequest struct {
	Model   string             `json:"model"`
	Content geminiEmbedContent `json:"content"`
}

type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// EmbedBatch embeds all inputs in a single batchEmbedContents call and
// returns one vector per input, in input order.
func (s *GeminiService) EmbedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs to embed")
	}

	payload := geminiBatchEmbedRequest{Requests: make([]geminiEmbedRequest, 0, len(inputs))}
	for _, input := range inputs {
		payload.Requests = append(payload.Requests, geminiEmbedRequest{
			Model:   "models/" + s.embeddingModel,
			Content: geminiEmbedContent{Parts: []geminiPart{{Text: input}}},
		})
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", s.baseURL, s.embeddingModel, s.apiKey)

	var embedResp geminiBatchEmbedResponse
	if err := s.post(ctx, url, payload, &embedResp); err != nil {
		return nil, err
	}

	if len(embedResp.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(embedResp.Embeddings))
	}

	vectors := make([][]float32, len(embedResp.Embeddings))
	for i, emb := range embedResp.Embeddings {
		if len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at position %d", i)
		}
		vectors[i] = emb.Values
	}

	s.logger.Debug("Embedded batch via Gemini",
		slog.Int("inputs", len(inputs)),
		slog.Int("dimension", len(vectors[0])))

	return vectors, nil
}

type geminiGenerateRequest struct {
	Contents []struct {
		Role  string       `json:"role"`
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig map[string]interface{} `json:"generationConfig"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt to the generation model and returns the
// candidate text.
func (s *GeminiService) Generate(ctx context.Context, prompt string) (string, error) {
	payload := geminiGenerateRequest{
		GenerationConfig: map[string]interface{}{
			"responseMimeType": "text/plain",
		},
	}
	payload.Contents = append(payload.Contents, struct {
		Role  string       `json:"role"`
		Parts []geminiPart `json:"parts"`
	}{
		Role:  "user",
		Parts: []geminiPart{{Text: prompt}},
	})

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.generationModel, s.apiKey)

	var genResp geminiGenerateResponse
	if err := s.post(ctx, url, payload, &genResp); err != nil {
		return "", err
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini API")
	}

	var sb strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func (s *GeminiService) post(ctx context.Context, url string, payload, out interface{}) error {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		httpErr := newProviderHttpError("Gemini", resp)
		s.logger.Error("Gemini API error",
			slog.Int("status_code", httpErr.StatusCode),
			slog.String("error_message", httpErr.Message))
		return httpErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
