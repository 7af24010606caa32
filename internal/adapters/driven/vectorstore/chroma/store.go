// Package chroma provides a vector index adapter backed by a ChromaDB
// collection.
package chroma

import (
	"context"
	"encoding/json"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driven"
	"github.com/medkb-labs/icdassist/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:8000"
	DefaultCollection = "icd11_index"
)

// Metadata keys persisted with every index entry.
const (
	metaKeyCode       = "icd_code"
	metaKeyBrowserURL = "browser_url"
	metaKeySourceFile = "source_file"
	metaKeyPosition   = "position"

	// metaKeyModel is stored on the collection itself and fingerprints
	// the embedding model the index was built with.
	metaKeyModel = "embedding_model"
)

// Config holds configuration for the Chroma vector store.
type Config struct {
	// BaseURL is the ChromaDB server URL (default: http://localhost:8000).
	BaseURL string

	// Collection is the collection name (default: icd11_index).
	Collection string

	// EmbeddingModel is written into the collection metadata when the
	// collection is first created. Required.
	EmbeddingModel string
}

// Store is a vector index backed by a ChromaDB collection. Entry IDs
// are the deterministic chunk IDs, so adding the same chunk twice
// upserts instead of duplicating.
type Store struct {
	client     chromago.Client
	collection chromago.Collection
}

// New connects to ChromaDB and opens (or creates) the configured
// collection. A freshly created collection is stamped with the
// embedding model name; Fingerprint exposes it for validation.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("creating chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		ctx,
		cfg.Collection,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute(metaKeyModel, cfg.EmbeddingModel),
			),
		),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("opening collection %q: %w", cfg.Collection, err)
	}

	logger.Debug("Opened chroma collection %q at %s", cfg.Collection, cfg.BaseURL)
	return &Store{client: client, collection: collection}, nil
}

// Add appends a batch of embedded chunks to the collection, keyed by
// chunk ID.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, len(chunks))
	texts := make([]string, len(chunks))
	vectors := make([]embeddings.Embedding, len(chunks))
	metadatas := make([]chromago.DocumentMetadata, len(chunks))

	for i, ch := range chunks {
		if len(ch.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding: %w", ch.ID, domain.ErrInvalidInput)
		}
		ids[i] = chromago.DocumentID(ch.ID)
		texts[i] = ch.Content
		vectors[i] = embeddings.NewEmbeddingFromFloat32(ch.Embedding)
		metadatas[i] = chromago.NewDocumentMetadata(
			chromago.NewStringAttribute(metaKeyCode, ch.RecordCode),
			chromago.NewStringAttribute(metaKeyBrowserURL, ch.BrowserURL),
			chromago.NewStringAttribute(metaKeySourceFile, ch.SourceFile),
			chromago.NewIntAttribute(metaKeyPosition, int64(ch.Position)),
		)
	}

	if err := s.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	); err != nil {
		return fmt.Errorf("adding to collection: %w", err)
	}
	return nil
}

// Search returns the IDs of the k nearest chunks to the query
// embedding, best first.
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]string, error) {
	results, err := s.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(embedding)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	groups := results.GetIDGroups()
	if len(groups) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(groups[0]))
	for _, id := range groups[0] {
		ids = append(ids, string(id))
	}
	return ids, nil
}

// Count reports the number of entries in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting collection: %w", err)
	}
	return int(count), nil
}

// Fingerprint returns the embedding model name stored in the collection
// metadata, or "" when none was recorded.
func (s *Store) Fingerprint(_ context.Context) (string, error) {
	metadata := s.collection.Metadata()
	if metadata == nil {
		return "", nil
	}

	// CollectionMetadata exposes no direct value accessor; round-trip
	// through JSON to read the attribute.
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("reading collection metadata: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return "", fmt.Errorf("reading collection metadata: %w", err)
	}

	model, _ := values[metaKeyModel].(string)
	return model, nil
}

// Close releases the client connection.
func (s *Store) Close() error {
	return s.client.Close()
}
