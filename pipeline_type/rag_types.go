package pipeline_type

// ProcessingStats collects per-stage timings for one ingestion.
type ProcessingStats struct {
	ExtractionTime float64 `json:"extraction_time"`
	EmbeddingTime  float64 `json:"embedding_time"`
}

// Document is one uploaded file after text extraction. It only lives long
// enough to be chunked and indexed; the vector index is authoritative after
// that.
type Document struct {
	ID       string
	Filename string
	Pages    []string
}

// RetrievedChunk is a single similarity-search hit.
type RetrievedChunk struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Position int     `json:"position"`
}

// DocumentMetadata describes the processed document in the upload response.
type DocumentMetadata struct {
	WordCount       int             `json:"word_count"`
	ChunkCount      int             `json:"chunk_count"`
	ContentPreview  string          `json:"content_preview"`
	ContentType     string          `json:"content_type"`
	ProcessingStats ProcessingStats `json:"processing_stats"`
}

// RAGResponse is the upload endpoint's JSON payload.
type RAGResponse struct {
	Message    string           `json:"message"`
	Filename   string           `json:"filename"`
	DocumentID string           `json:"documentID"`
	Metadata   DocumentMetadata `json:"metadata"`
	Error      string           `json:"error,omitempty"`
	Status     string           `json:"status"`
}

// QueryRequest is the query endpoint's JSON body.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the query endpoint's JSON payload.
type QueryResponse struct {
	Answer string `json:"answer"`
}
