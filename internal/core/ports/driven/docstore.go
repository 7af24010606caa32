package driven

import (
	"context"
	"time"

	"github.com/medkb-labs/icdassist/internal/core/domain"
)

// DocumentStore persists records, chunks and the index checkpoint.
// Backed by SQLite.
type DocumentStore interface {
	// SaveRecord stores or updates an ingested record.
	SaveRecord(ctx context.Context, rec *domain.Record) error

	// GetRecord retrieves a record by ICD code.
	GetRecord(ctx context.Context, code string) (*domain.Record, error)

	// ListRecords returns all records ordered by code.
	ListRecords(ctx context.Context) ([]domain.Record, error)

	// CountRecords reports the number of stored records.
	CountRecords(ctx context.Context) (int, error)

	// SaveChunks stores chunks, embeddings included, upserting by ID.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// CountChunks reports the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// IndexState returns the current index checkpoint, or nil when no
	// indexing run has been persisted yet.
	IndexState(ctx context.Context) (*IndexState, error)

	// SaveIndexState persists the index checkpoint. Called after every
	// embedded batch so interrupted runs resume instead of restarting.
	SaveIndexState(ctx context.Context, state IndexState) error

	// ResetIndexState removes the checkpoint, forcing the next run to
	// start from scratch.
	ResetIndexState(ctx context.Context) error

	// Close closes the store.
	Close() error
}

// IndexState is the indexing checkpoint: how far the indexer got, and
// which embedding model produced the vectors so far.
type IndexState struct {
	// EmbeddingModel is the fingerprint of the model used for every
	// persisted batch. A different configured model is a fatal
	// configuration error.
	EmbeddingModel string

	// ChunksIndexed counts chunks embedded and persisted so far.
	ChunksIndexed int

	// LastChunkID is the ID of the chunk at position ChunksIndexed-1 in
	// the flattened corpus sequence. A rebuild whose sequence carries a
	// different ID at that position knows the corpus changed underneath
	// the checkpoint and starts over.
	LastChunkID string

	// UpdatedAt is when the checkpoint was last advanced.
	UpdatedAt time.Time
}
