package splitters

import (
	"fmt"

	"LOTR_RAG/backend/go/internal/chat_service/rag/interfaces"
)

// CharacterSplitter cuts text into windows of ChunkSize characters, each
// starting ChunkSize-ChunkOverlap characters after the previous one.
// Characters are Unicode code points. Boundaries ignore words and sentences.
type CharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

var _ interfaces.Splitter = (*CharacterSplitter)(nil)

// NewCharacterSplitter requires 0 <= chunkOverlap < chunkSize.
func NewCharacterSplitter(chunkSize, chunkOverlap int) (*CharacterSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must satisfy 0 <= overlap < %d, got %d", chunkSize, chunkOverlap)
	}
	return &CharacterSplitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}, nil
}

// SplitText returns no chunks for empty text and a single chunk when text
// fits in one window.
func (s *CharacterSplitter) SplitText(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.ChunkOverlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
