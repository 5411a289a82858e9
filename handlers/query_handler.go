package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/askpdf/askpdf/pipeline_type"
	"github.com/askpdf/askpdf/services/rag_service"
)

// noAnswerMessage is what the caller sees when retrieval finds nothing
// relevant. Benign, not an error.
const noAnswerMessage = "No relevant answer found in the document."

type QueryHandler struct {
	pipeline DocumentPipeline
	logger   *slog.Logger
}

func NewQueryHandler(pipeline DocumentPipeline, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req pipeline_type.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request body",
			slog.String("error", err.Error()))
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Query == "" {
		writeJSONError(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	answer, err := h.pipeline.Query(r.Context(), req.Query)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(pipeline_type.QueryResponse{Answer: answer}); err != nil {
		h.logger.Error("Failed to encode response",
			slog.String("error", err.Error()))
	}
}

func (h *QueryHandler) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rag_service.ErrNoIndexAvailable):
		writeJSONError(w, "No index found. Upload a document first.", http.StatusBadRequest)
	case errors.Is(err, rag_service.ErrNoRelevantContent):
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(pipeline_type.QueryResponse{Answer: noAnswerMessage})
	case errors.Is(err, rag_service.ErrEmbeddingProvider):
		h.logger.Error("Embedding provider failed during query",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to process search query", http.StatusBadGateway)
	case errors.Is(err, rag_service.ErrGenerationProvider):
		h.logger.Error("Generation provider failed",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to generate an answer", http.StatusBadGateway)
	default:
		h.logger.Error("Query failed",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to answer query", http.StatusInternalServerError)
	}
}
