package services

import (
	"context"
	"fmt"
	"time"

	"github.com/medkb-labs/icdassist/internal/chunker"
	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driven"
	"github.com/medkb-labs/icdassist/internal/core/ports/driving"
	"github.com/medkb-labs/icdassist/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// DefaultBatchSize is the number of chunks embedded per batch.
const DefaultBatchSize = 50

// IndexService builds and maintains the similarity index. Records are
// chunked deterministically, embedded in fixed-size batches and
// appended to the vector index; a checkpoint is persisted after every
// batch so an interrupted run resumes where it stopped.
type IndexService struct {
	docStore  driven.DocumentStore
	vector    driven.VectorIndex
	embedder  driven.EmbeddingService
	splitter  *chunker.Splitter
	batchSize int
}

// NewIndexService creates a new index service.
func NewIndexService(
	docStore driven.DocumentStore,
	vector driven.VectorIndex,
	embedder driven.EmbeddingService,
	splitter *chunker.Splitter,
	batchSize int,
) *IndexService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &IndexService{
		docStore:  docStore,
		vector:    vector,
		embedder:  embedder,
		splitter:  splitter,
		batchSize: batchSize,
	}
}

// BuildIndex chunks every ingested record and embeds the chunks in
// batches. Each batch is appended to the vector index, persisted to the
// document store and recorded in the checkpoint before the next batch
// starts, so a partial run leaves a valid, queryable, partial index.
func (s *IndexService) BuildIndex(ctx context.Context) (*driving.IndexStatus, error) {
	logger.Section("Index Build")

	if err := s.checkFingerprint(ctx); err != nil {
		return nil, err
	}

	chunks, records, err := s.chunkCorpus(ctx)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no ingested records to index: %w", domain.ErrNotIndexed)
	}

	indexed := 0
	if state, err := s.docStore.IndexState(ctx); err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	} else if state != nil {
		if state.EmbeddingModel != s.embedder.ModelName() {
			return nil, fmt.Errorf(
				"checkpoint was built with model %q but %q is configured, reset the index: %w",
				state.EmbeddingModel, s.embedder.ModelName(), domain.ErrModelMismatch,
			)
		}
		indexed = state.ChunksIndexed
		if indexed > len(chunks) || (indexed > 0 && chunks[indexed-1].ID != state.LastChunkID) {
			// The corpus changed since the checkpoint was written, so
			// positions no longer line up with what was embedded.
			// Deterministic IDs make re-adds upserts, so start over.
			logger.Info("Corpus changed since last build, re-running all %d chunks", len(chunks))
			indexed = 0
		}
		if indexed > 0 {
			logger.Info("Resuming from checkpoint: %d/%d chunks already indexed", indexed, len(chunks))
		}
	}

	for indexed < len(chunks) {
		end := indexed + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[indexed:end]

		if err := s.indexBatch(ctx, batch); err != nil {
			return nil, err
		}

		indexed = end
		if err := s.docStore.SaveIndexState(ctx, driven.IndexState{
			EmbeddingModel: s.embedder.ModelName(),
			ChunksIndexed:  indexed,
			LastChunkID:    chunks[indexed-1].ID,
			UpdatedAt:      time.Now().UTC(),
		}); err != nil {
			return nil, fmt.Errorf("saving checkpoint: %w", err)
		}

		logger.Info("Indexed %d/%d chunks", indexed, len(chunks))
	}

	return &driving.IndexStatus{
		Records:        records,
		ChunksTotal:    len(chunks),
		ChunksIndexed:  indexed,
		EmbeddingModel: s.embedder.ModelName(),
	}, nil
}

// IndexRecord chunks and embeds a single record. Chunk IDs are
// deterministic, so re-indexing an already indexed record upserts its
// entries instead of duplicating them. The build checkpoint is not
// touched; the next full build notices the changed corpus sequence and
// re-runs it.
func (s *IndexService) IndexRecord(ctx context.Context, code string) error {
	if err := s.checkFingerprint(ctx); err != nil {
		return err
	}

	rec, err := s.docStore.GetRecord(ctx, code)
	if err != nil {
		return fmt.Errorf("loading record %s: %w", code, err)
	}

	chunks := s.splitter.Split(*rec, rec.TextBlock())
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := s.indexBatch(ctx, chunks[start:end]); err != nil {
			return err
		}
	}

	logger.Debug("Indexed record %s (%d chunks)", code, len(chunks))
	return nil
}

// Reset discards the build checkpoint. The next build starts from the
// first chunk; deterministic chunk IDs turn the re-run into upserts, so
// the index never accumulates duplicates.
func (s *IndexService) Reset(ctx context.Context) error {
	if err := s.docStore.ResetIndexState(ctx); err != nil {
		return fmt.Errorf("resetting checkpoint: %w", err)
	}
	logger.Info("Index checkpoint reset")
	return nil
}

// Status reports current index progress and the model fingerprint.
func (s *IndexService) Status(ctx context.Context) (*driving.IndexStatus, error) {
	records, err := s.docStore.CountRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	chunks, _, err := s.chunkCorpus(ctx)
	if err != nil {
		return nil, err
	}

	status := &driving.IndexStatus{
		Records:     records,
		ChunksTotal: len(chunks),
	}

	state, err := s.docStore.IndexState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	if state != nil {
		status.ChunksIndexed = state.ChunksIndexed
		status.EmbeddingModel = state.EmbeddingModel
	}
	return status, nil
}

// chunkCorpus splits every ingested record into chunks, in record code
// order. The flattened sequence is deterministic, which is what makes
// the positional checkpoint meaningful across runs.
func (s *IndexService) chunkCorpus(ctx context.Context) ([]domain.Chunk, int, error) {
	records, err := s.docStore.ListRecords(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("listing records: %w", err)
	}

	var chunks []domain.Chunk
	for _, rec := range records {
		chunks = append(chunks, s.splitter.Split(rec, rec.TextBlock())...)
	}
	return chunks, len(records), nil
}

// indexBatch embeds one batch of chunks and persists it to the vector
// index and the document store. An embedding failure aborts the batch;
// previously persisted batches remain queryable.
func (s *IndexService) indexBatch(ctx context.Context, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i, ch := range batch {
		texts[i] = ch.Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w: %v", domain.ErrServiceUnavailable, err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedding service returned %d vectors for %d chunks", len(embeddings), len(batch))
	}

	for i := range batch {
		batch[i].Embedding = embeddings[i]
	}

	if err := s.vector.Add(ctx, batch); err != nil {
		return fmt.Errorf("adding batch to vector index: %w", err)
	}
	if err := s.docStore.SaveChunks(ctx, batch); err != nil {
		return fmt.Errorf("persisting batch: %w", err)
	}
	return nil
}

// checkFingerprint validates that the vector index was built with the
// configured embedding model. A mismatch is a fatal configuration
// error: vectors from different models are not comparable.
func (s *IndexService) checkFingerprint(ctx context.Context) error {
	fingerprint, err := s.vector.Fingerprint(ctx)
	if err != nil {
		return fmt.Errorf("reading index fingerprint: %w", err)
	}
	if fingerprint != "" && fingerprint != s.embedder.ModelName() {
		return fmt.Errorf(
			"index was built with model %q but %q is configured: %w",
			fingerprint, s.embedder.ModelName(), domain.ErrModelMismatch,
		)
	}
	return nil
}
