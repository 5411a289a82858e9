package rag_service

import (
	"fmt"
	"math"
	"sort"

	"github.com/askpdf/askpdf/pipeline_type"
)

// IndexEntry is one indexed chunk: its text, its position in the original
// chunk sequence, and its embedding vector.
type IndexEntry struct {
	Position  int
	Text      string
	Embedding []float32
}

// VectorIndex is the searchable collection of chunk embeddings for the
// current document. Entries are immutable after construction; queries only
// read, so a loaded index needs no locking of its own.
type VectorIndex struct {
	Dimension int
	Entries   []IndexEntry
}

// NewVectorIndex pairs chunks with their embedding vectors, in order.
func NewVectorIndex(chunks []string, vectors [][]float32) (*VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	dimension := len(vectors[0])
	entries := make([]IndexEntry, len(chunks))
	for i := range chunks {
		if len(vectors[i]) != dimension {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(vectors[i]), dimension)
		}
		entries[i] = IndexEntry{
			Position:  i,
			Text:      chunks[i],
			Embedding: vectors[i],
		}
	}

	return &VectorIndex{Dimension: dimension, Entries: entries}, nil
}

// Len reports the number of indexed chunks.
func (idx *VectorIndex) Len() int { return len(idx.Entries) }

// Search scores every entry against the query vector by cosine similarity
// and returns the k best in descending score order. Ties go to the chunk
// that appears earlier in the document. Fewer than k entries means all of
// them come back.
func (idx *VectorIndex) Search(query []float32, k int) []pipeline_type.RetrievedChunk {
	if k <= 0 || len(idx.Entries) == 0 {
		return nil
	}

	scored := make([]pipeline_type.RetrievedChunk, 0, len(idx.Entries))
	for _, entry := range idx.Entries {
		scored = append(scored, pipeline_type.RetrievedChunk{
			Text:     entry.Text,
			Score:    cosineSimilarity(query, entry.Embedding),
			Position: entry.Position,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Position < scored[j].Position
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// cosineSimilarity scores two vectors of equal dimension. Mismatched
// dimensions mean the vectors came from different embedding models and
// cannot be compared; that scores 0 rather than a truncated guess.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
