// Package chunker provides a fixed-size text chunking splitter.
package chunker

import (
	"github.com/medkb-labs/icdassist/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// Splitter splits record text blocks into fixed-size chunks.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a new splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split splits the given text into chunks carrying the record's code and
// source metadata. Chunk IDs are derived from the record code and the chunk
// position, so splitting the same text twice yields identical chunks.
// Characters are counted as runes so multi-byte text never splits mid-rune.
func (s *Splitter) Split(rec domain.Record, text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)

	step := s.chunkSize - s.overlap
	estimated := (total / step) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	position := 0
	start := 0

	for start < total {
		end := start + s.chunkSize
		if end > total {
			end = total
		}

		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(rec.Code, position),
			RecordCode: rec.Code,
			Content:    string(runes[start:end]),
			Position:   position,
			BrowserURL: rec.BrowserURL,
			SourceFile: rec.SourceFile,
		})
		position++

		// A further chunk would sit entirely inside this one
		if end == total {
			break
		}
		start += step
	}

	return chunks
}
