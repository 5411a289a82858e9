package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/askpdf/askpdf/pipeline_type"
	"github.com/askpdf/askpdf/services/rag_service"
)

const maxUploadBytes = 10 << 20 // 10 MB

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".html": "text/html",
	".htm":  "text/html",
}

// DocumentPipeline is what the handlers need from the ingestion/query core.
type DocumentPipeline interface {
	Ingest(ctx context.Context, doc pipeline_type.Document) (*rag_service.IngestResult, error)
	Query(ctx context.Context, query string) (string, error)
}

type UploadHandler struct {
	pipeline  DocumentPipeline
	extractor *rag_service.DocumentExtractor
	uploadDir string
	logger    *slog.Logger
}

func NewUploadHandler(pipeline DocumentPipeline, extractor *rag_service.DocumentExtractor, uploadDir string, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		pipeline:  pipeline,
		extractor: extractor,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Received file upload request")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	filename := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(filename))

	h.logger.Debug("Starting text extraction",
		slog.String("filename", filename),
		slog.String("content_type", header.Header.Get("Content-Type")),
		slog.Int64("size", header.Size))

	if err := h.saveUpload(filename, buf.Bytes()); err != nil {
		h.logger.Error("Failed to save uploaded file",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to save uploaded file", http.StatusInternalServerError)
		return
	}

	metadata := pipeline_type.DocumentMetadata{
		ContentType: mimeType(ext),
	}

	extractStart := time.Now()
	var pages []string

	switch ext {
	case ".pdf":
		pages, err = h.extractor.ExtractTextFromPDF(buf.Bytes())
	case ".doc", ".docx":
		pages, err = h.extractor.ExtractTextFromWord(buf.Bytes())
	case ".html", ".htm":
		pages, err = h.extractor.ExtractTextFromHTML(buf.Bytes())
	default:
		h.logger.Error("Unsupported file type",
			slog.String("filename", filename),
			slog.String("extension", ext))
		writeJSONError(w, "Unsupported file type", http.StatusBadRequest)
		return
	}

	metadata.ProcessingStats.ExtractionTime = time.Since(extractStart).Seconds()

	if err != nil {
		h.logger.Error("Text extraction failed",
			slog.String("filename", filename),
			slog.String("error", err.Error()))

		errorResponse := pipeline_type.RAGResponse{
			Message:  "Failed to extract text from document",
			Filename: filename,
			Status:   "failed",
			Error:    err.Error(),
			Metadata: metadata,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(errorResponse)
		return
	}

	text := strings.Join(pages, " ")
	metadata.WordCount = len(strings.Fields(text))
	if len(text) > 250 {
		metadata.ContentPreview = text[:250] + "..."
	} else {
		metadata.ContentPreview = text
	}

	doc := pipeline_type.Document{
		ID:       uuid.NewString(),
		Filename: filename,
		Pages:    pages,
	}

	result, err := h.pipeline.Ingest(r.Context(), doc)
	if err != nil {
		h.writeIngestError(w, filename, err)
		return
	}

	metadata.ChunkCount = result.ChunkCount
	metadata.ProcessingStats.EmbeddingTime = result.EmbeddingTime.Seconds()

	response := pipeline_type.RAGResponse{
		Message:    "File uploaded and processed successfully",
		Filename:   filename,
		DocumentID: doc.ID,
		Metadata:   metadata,
		Status:     "indexed",
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to write response",
			slog.String("error", err.Error()))
	}
}

func (h *UploadHandler) saveUpload(filename string, data []byte) error {
	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(h.uploadDir, filename), data, 0644)
}

func (h *UploadHandler) writeIngestError(w http.ResponseWriter, filename string, err error) {
	switch {
	case errors.Is(err, rag_service.ErrEmptyDocument):
		h.logger.Warn("Uploaded document contains no text",
			slog.String("filename", filename))
		writeJSONError(w, "No text found in the document. Please upload a valid document.", http.StatusUnprocessableEntity)
	case errors.Is(err, rag_service.ErrIngestionInProgress):
		writeJSONError(w, "Another upload is being processed. Try again shortly.", http.StatusConflict)
	case errors.Is(err, rag_service.ErrEmbeddingProvider):
		h.logger.Error("Embedding provider failed during ingestion",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to generate embeddings for the document", http.StatusBadGateway)
	default:
		h.logger.Error("Ingestion failed",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to process document", http.StatusInternalServerError)
	}
}

func mimeType(ext string) string {
	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
