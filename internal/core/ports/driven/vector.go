package driven

import (
	"context"

	"github.com/medkb-labs/icdassist/internal/core/domain"
)

// VectorIndex is the persistent similarity index. Backed by a Chroma
// collection; entries carry the chunk text plus provenance metadata
// {record code, source link, source file, position}.
//
// Writes happen batch-at-a-time during offline indexing; the online
// query path only reads.
type VectorIndex interface {
	// Add appends a batch of embedded chunks to the index. Chunk IDs
	// are deterministic, so re-adding a chunk upserts rather than
	// duplicating.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Search returns the IDs of the k nearest chunks to the query
	// embedding, best first.
	Search(ctx context.Context, embedding []float32, k int) ([]string, error)

	// Count reports the number of entries in the index.
	Count(ctx context.Context) (int, error)

	// Fingerprint returns the embedding model name the index was built
	// with, or "" for a fresh index.
	Fingerprint(ctx context.Context) (string, error)

	// Close releases resources.
	Close() error
}
