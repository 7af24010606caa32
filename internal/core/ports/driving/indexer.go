package driving

import "context"

// IndexStatus reports how much of the corpus has been embedded.
type IndexStatus struct {
	// Records is the number of ingested records.
	Records int

	// ChunksTotal is the number of chunks the corpus splits into.
	ChunksTotal int

	// ChunksIndexed is the number embedded and persisted so far.
	ChunksIndexed int

	// EmbeddingModel is the index fingerprint, "" before the first run.
	EmbeddingModel string
}

// IndexService builds and maintains the similarity index.
type IndexService interface {
	// BuildIndex chunks every ingested record, embeds the chunks in
	// batches and appends them to the vector index, persisting a
	// checkpoint after each batch. Interrupted runs resume from the
	// checkpoint with no duplicates.
	BuildIndex(ctx context.Context) (*IndexStatus, error)

	// IndexRecord chunks and embeds a single record incrementally.
	// Used by the watcher.
	IndexRecord(ctx context.Context, code string) error

	// Reset discards the checkpoint so the next build starts over.
	Reset(ctx context.Context) error

	// Status reports current index progress and fingerprint.
	Status(ctx context.Context) (*IndexStatus, error)
}
