package llm_service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// providerError is the error envelope both the Gemini and OpenAI APIs
// return: {"error": {"message": ..., ...}}.
type providerError struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Status  string      `json:"status"`
		Code    json.Number `json:"code"`
	} `json:"error"`
}

// ProviderHttpError is a non-2xx response from an embedding or generation
// provider, with whatever detail the provider's error envelope carried.
type ProviderHttpError struct {
	Provider   string
	StatusCode int
	Message    string
	RawBody    string
}

func (e *ProviderHttpError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error (HTTP %d)", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
}

// newProviderHttpError drains the response body and extracts the provider's
// error message when the body parses as an error envelope.
func newProviderHttpError(provider string, resp *http.Response) *ProviderHttpError {
	httpErr := &ProviderHttpError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return httpErr
	}
	httpErr.RawBody = string(body)

	var provErr providerError
	if err := json.Unmarshal(body, &provErr); err == nil && provErr.Error.Message != "" {
		httpErr.Message = provErr.Error.Message
	}

	return httpErr
}
