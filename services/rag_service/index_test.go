package rag_service

import (
	"testing"
)

func buildTestIndex(t *testing.T, chunks []string, vectors [][]float32) *VectorIndex {
	t.Helper()
	index, err := NewVectorIndex(chunks, vectors)
	if err != nil {
		t.Fatalf("failed to build index: %v", err)
	}
	return index
}

func TestNewVectorIndex(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []string
		vectors [][]float32
		wantErr bool
	}{
		{
			name:    "valid pairs",
			chunks:  []string{"a", "b"},
			vectors: [][]float32{{1, 0}, {0, 1}},
		},
		{
			name:    "no chunks",
			chunks:  nil,
			vectors: nil,
			wantErr: true,
		},
		{
			name:    "length mismatch",
			chunks:  []string{"a", "b"},
			vectors: [][]float32{{1, 0}},
			wantErr: true,
		},
		{
			name:    "dimension mismatch",
			chunks:  []string{"a", "b"},
			vectors: [][]float32{{1, 0}, {0, 1, 2}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, err := NewVectorIndex(tt.chunks, tt.vectors)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if index.Len() != len(tt.chunks) {
				t.Errorf("expected %d entries, got %d", len(tt.chunks), index.Len())
			}
			for i, entry := range index.Entries {
				if entry.Position != i {
					t.Errorf("entry %d has position %d", i, entry.Position)
				}
			}
		})
	}
}

func TestVectorIndexSearch(t *testing.T) {
	index := buildTestIndex(t,
		[]string{"north", "east", "northeast"},
		[][]float32{
			{0, 1},
			{1, 0},
			{1, 1},
		},
	)

	results := index.Search([]float32{0, 1}, 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != "north" {
		t.Errorf("expected best match 'north', got %q", results[0].Text)
	}
	if results[1].Text != "northeast" {
		t.Errorf("expected second match 'northeast', got %q", results[1].Text)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not in descending score order: %v", results)
	}
}

func TestVectorIndexSearchKLargerThanIndex(t *testing.T) {
	index := buildTestIndex(t,
		[]string{"a", "b"},
		[][]float32{{1, 0}, {0, 1}},
	)

	results := index.Search([]float32{1, 0}, 10)
	if len(results) != 2 {
		t.Fatalf("expected all 2 entries, got %d", len(results))
	}
}

func TestVectorIndexSearchTieBreakByPosition(t *testing.T) {
	// Identical vectors score identically; the earlier chunk must win.
	index := buildTestIndex(t,
		[]string{"first", "second", "third"},
		[][]float32{{1, 1}, {1, 1}, {1, 1}},
	)

	results := index.Search([]float32{1, 1}, 3)
	for i, want := range []string{"first", "second", "third"} {
		if results[i].Text != want {
			t.Errorf("result %d: expected %q, got %q", i, want, results[i].Text)
		}
	}
}

func TestVectorIndexSearchEmptyIndex(t *testing.T) {
	index := &VectorIndex{}
	if results := index.Search([]float32{1, 0}, 3); len(results) != 0 {
		t.Errorf("expected no results from empty index, got %d", len(results))
	}
}

func TestVectorIndexSearchMismatchedQueryDimension(t *testing.T) {
	// A query vector from a different embedding model than the index must
	// not produce truncated lookalike scores.
	index := buildTestIndex(t,
		[]string{"a", "b"},
		[][]float32{{1, 0}, {0, 1}},
	)

	results := index.Search([]float32{1, 0, 0}, 2)
	for i, r := range results {
		if r.Score != 0 {
			t.Errorf("result %d: expected score 0 for mismatched dimensions, got %v", i, r.Score)
		}
	}
}

func TestVectorIndexSearchNonPositiveK(t *testing.T) {
	index := buildTestIndex(t, []string{"a"}, [][]float32{{1}})
	if results := index.Search([]float32{1}, 0); results != nil {
		t.Errorf("expected nil results for k=0, got %v", results)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"dimension mismatch", []float32{1, 0, 0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
