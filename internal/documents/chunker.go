package documents

import (
	"github.com/google/uuid"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits text into fixed-size windows of runes that overlap by a
// fixed amount.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return Chunker{size: size, overlap: overlap}
}

func (c Chunker) Split(doc Document) []Chunk {
	text := []rune(doc.Content)
	if len(text) == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]Chunk, 0, len(text)/step+1)
	for start := 0; start < len(text); start += step {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}

		chunks = append(chunks, Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Position:   len(chunks),
			Content:    string(text[start:end]),
		})

		if end == len(text) {
			break
		}
	}
	return chunks
}
