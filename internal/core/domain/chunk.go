package domain

import "fmt"

// Chunk is a contiguous slice of a record's text block, bounded by the
// configured maximum size and overlapping its predecessor by the
// configured overlap. Chunks are created once at index-build time and
// are immutable afterwards.
type Chunk struct {
	// ID is the deterministic chunk identifier, derived from the record
	// code and the chunk position. Re-running the indexer over the same
	// corpus therefore upserts instead of duplicating.
	ID string

	// RecordCode is the ICD-11 code of the owning record.
	RecordCode string

	// Content is the chunk text.
	Content string

	// Position is the ordinal position within the text block, from 0.
	Position int

	// BrowserURL is the record's source link, copied for citations.
	BrowserURL string

	// SourceFile is the text file the chunk was cut from.
	SourceFile string

	// Embedding is the vector representation, populated by the indexer.
	Embedding []float32
}

// ChunkID builds the deterministic identifier for a chunk of the given
// record at the given position.
func ChunkID(recordCode string, position int) string {
	return fmt.Sprintf("%s:%d", recordCode, position)
}
