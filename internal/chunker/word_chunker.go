package chunker

import (
	"strings"

	"docqa/internal/domain"
)

const (
	DefaultChunkSize = 200
	DefaultOverlap   = 50
)

// WordChunker splits text into overlapping windows of whitespace-separated words.
type WordChunker struct {
	chunkSize int
	overlap   int
}

// NewWordChunker validates the window parameters. The window start advances
// by chunkSize-overlap words, so that stride must be positive.
func NewWordChunker(chunkSize, overlap int) (*WordChunker, error) {
	if chunkSize <= 0 {
		return nil, domain.Configf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, domain.Configf("overlap must not be negative, got %d", overlap)
	}
	if chunkSize-overlap <= 0 {
		return nil, domain.Configf("overlap %d must be smaller than chunk size %d", overlap, chunkSize)
	}
	return &WordChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split returns the ordered chunk texts. The final chunk may hold fewer
// than chunkSize words.
func (c *WordChunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.chunkSize - c.overlap
	chunks := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// ChunkSize returns the window length in words.
func (c *WordChunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the number of words shared by consecutive windows.
func (c *WordChunker) Overlap() int { return c.overlap }

// Split is a convenience wrapper around NewWordChunker and WordChunker.Split.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	c, err := NewWordChunker(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(text), nil
}
