package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driven"
	"github.com/medkb-labs/icdassist/internal/logger"
)

// DefaultTopK is the default number of chunks retrieved per query.
const DefaultTopK = 4

// Retriever finds the chunks most similar to a query. It embeds the
// expanded query with the same model the index was built with, asks the
// vector index for the nearest chunk IDs and hydrates them from the
// document store, scoring each against the query embedding.
type Retriever struct {
	docStore driven.DocumentStore
	vector   driven.VectorIndex
	embedder driven.EmbeddingService
	topK     int
}

// NewRetriever creates a new retriever returning up to topK chunks.
func NewRetriever(
	docStore driven.DocumentStore,
	vector driven.VectorIndex,
	embedder driven.EmbeddingService,
	topK int,
) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		docStore: docStore,
		vector:   vector,
		embedder: embedder,
		topK:     topK,
	}
}

// Retrieve returns up to topK chunks for the expanded query, ordered by
// descending similarity. If the expanded query retrieves nothing and a
// formal synonym term was matched during expansion, one fallback search
// using only the first matched term runs before giving up. An empty
// result is not an error; it triggers the answerer's fallback path.
func (r *Retriever) Retrieve(ctx context.Context, query string, matchedTerms []string) ([]domain.RetrievedChunk, error) {
	results, err := r.search(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 && len(matchedTerms) > 0 {
		logger.Debug("No results for expanded query, retrying with %q", matchedTerms[0])
		results, err = r.search(ctx, matchedTerms[0])
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("Retrieved %d chunks", len(results))
	return results, nil
}

func (r *Retriever) search(ctx context.Context, query string) ([]domain.RetrievedChunk, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w: %v", domain.ErrServiceUnavailable, err)
	}

	ids, err := r.vector.Search(ctx, embedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results := make([]domain.RetrievedChunk, 0, len(ids))
	for _, id := range ids {
		chunk, err := r.docStore.GetChunk(ctx, id)
		if err != nil {
			// index entries can outlive store rows after a reset
			logger.Warn("Chunk %s missing from store: %v", id, err)
			continue
		}
		results = append(results, domain.RetrievedChunk{
			Chunk: *chunk,
			Score: cosineSimilarity(embedding, chunk.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// cosineSimilarity computes the cosine of the angle between two
// vectors. Returns 0 for mismatched or zero-length vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
