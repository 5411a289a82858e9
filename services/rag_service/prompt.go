package rag_service

import (
	"fmt"
	"strings"
)

// BuildPrompt merges the retrieved chunks and the question into a single
// grounding instruction. Chunks must arrive highest-relevance first and are
// kept in that order, so any context-length truncation the provider applies
// drops the least relevant evidence. Pure function.
func BuildPrompt(chunks []string, query string) string {
	context := strings.Join(chunks, "\n\n")
	return fmt.Sprintf("Based on the following context, answer the question:\n\nContext: %s\n\nQuestion: %s", context, query)
}
