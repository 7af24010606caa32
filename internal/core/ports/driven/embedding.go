package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The same service, with the same model, must be used for indexing and
// for query embedding: vectors from different models are not comparable.
// The indexer records ModelName alongside the index and the retriever
// validates it at startup.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. This is the
	// indexer's per-batch call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model being used.
	// It is persisted as the index fingerprint.
	ModelName() string

	// Ping validates the service is reachable with a lightweight
	// request. Used at startup before committing to an operation.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
