package rag_service

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	chunks := []string{"most relevant", "second", "third"}
	query := "What color is the sky?"

	prompt := BuildPrompt(chunks, query)

	want := "Based on the following context, answer the question:\n\nContext: most relevant\n\nsecond\n\nthird\n\nQuestion: What color is the sky?"
	if prompt != want {
		t.Errorf("prompt mismatch:\nwant %q\ngot  %q", want, prompt)
	}
}

func TestBuildPromptPreservesChunkOrder(t *testing.T) {
	chunks := []string{"zebra", "apple", "mango"}
	prompt := BuildPrompt(chunks, "q")

	last := -1
	for _, chunk := range chunks {
		pos := strings.Index(prompt, chunk)
		if pos < 0 {
			t.Fatalf("chunk %q missing from prompt", chunk)
		}
		if pos < last {
			t.Errorf("chunk %q appears out of order", chunk)
		}
		last = pos
	}
}

func TestBuildPromptEndsWithQuestion(t *testing.T) {
	prompt := BuildPrompt([]string{"context"}, "the question")
	if !strings.HasSuffix(prompt, "Question: the question") {
		t.Errorf("prompt does not end with the literal question: %q", prompt)
	}
}
