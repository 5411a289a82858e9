package rag_service

// SplitText slides a window of chunkSize characters over text, advancing by
// chunkSize-overlap each step, so consecutive chunks share exactly overlap
// characters. The final chunk may be shorter. Windows are measured in runes,
// never in bytes, so a multi-byte character is never split across a chunk
// boundary and every chunk is valid UTF-8. Concatenating the chunks with the
// overlap removed reconstructs the input exactly.
//
// Pure function; requires chunkSize > overlap >= 0.
func SplitText(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 || overlap < 0 || chunkSize <= overlap {
		return nil, ErrInvalidChunking
	}
	if len(text) == 0 {
		return nil, nil
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}, nil
	}

	step := chunkSize - overlap
	chunks := make([]string, 0, (len(runes)-overlap+step-1)/step)
	for start := 0; ; start += step {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}
