package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medkb-labs/icdassist/internal/chunker"
	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driven"
)

func seedRecords(t *testing.T, store *mockDocStore, n int) {
	t.Helper()
	titles := []string{"Cholera", "Influenza", "Tetanus", "Varicella", "Pertussis"}
	for i := 0; i < n; i++ {
		rec := domain.Record{
			Code:       string(rune('A'+i)) + "00",
			Title:      titles[i%len(titles)],
			Definition: strings.Repeat(titles[i%len(titles)]+" is an infectious disease. ", 10),
			BrowserURL: "https://icd.who.int/browse/" + string(rune('A'+i)),
		}
		require.NoError(t, store.SaveRecord(context.Background(), &rec))
	}
}

func newTestIndexService(store *mockDocStore, vector *mockVectorIndex, embedder *mockEmbeddingService, batchSize int) *IndexService {
	splitter := chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(20))
	return NewIndexService(store, vector, embedder, splitter, batchSize)
}

func TestIndexService_BuildIndex(t *testing.T) {
	store := newMockDocStore()
	vector := newMockVectorIndex()
	embedder := &mockEmbeddingService{}
	seedRecords(t, store, 3)

	svc := newTestIndexService(store, vector, embedder, 4)

	status, err := svc.BuildIndex(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, status.Records)
	assert.Greater(t, status.ChunksTotal, 3)
	assert.Equal(t, status.ChunksTotal, status.ChunksIndexed)
	assert.Equal(t, "mock-embed", status.EmbeddingModel)

	// Every chunk made it to the index and the store
	count, err := vector.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.ChunksTotal, count)

	stored, err := store.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.ChunksTotal, stored)

	// Embeddings persisted alongside chunks
	for _, id := range vector.ids {
		ch, err := store.GetChunk(context.Background(), id)
		require.NoError(t, err)
		assert.NotEmpty(t, ch.Embedding)
	}

	// Checkpoint carries the model fingerprint
	state, err := store.IndexState(context.Background())
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "mock-embed", state.EmbeddingModel)
	assert.Equal(t, status.ChunksIndexed, state.ChunksIndexed)
}

func TestIndexService_BuildIndex_EmptyCorpus(t *testing.T) {
	svc := newTestIndexService(newMockDocStore(), newMockVectorIndex(), &mockEmbeddingService{}, 4)
	_, err := svc.BuildIndex(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotIndexed)
}

func TestIndexService_BuildIndex_Resume(t *testing.T) {
	store := newMockDocStore()
	vector := newMockVectorIndex()
	embedder := &mockEmbeddingService{}
	seedRecords(t, store, 3)

	svc := newTestIndexService(store, vector, embedder, 2)

	// Simulate an interrupted run: checkpoint after the first batch.
	chunks, _, err := svc.chunkCorpus(context.Background())
	require.NoError(t, err)
	require.Greater(t, len(chunks), 4)

	require.NoError(t, svc.indexBatch(context.Background(), chunks[:2]))
	require.NoError(t, store.SaveIndexState(context.Background(), driven.IndexState{
		EmbeddingModel: "mock-embed",
		ChunksIndexed:  2,
		LastChunkID:    chunks[1].ID,
	}))
	callsBefore := embedder.batchCalls

	status, err := svc.BuildIndex(context.Background())
	require.NoError(t, err)

	// No duplicates after resume and no re-embedding of batch one
	count, err := vector.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.ChunksTotal, count)

	expectedBatches := (len(chunks) - 2 + 1) / 2
	assert.Equal(t, callsBefore+expectedBatches, embedder.batchCalls)
}

func TestIndexService_BuildIndex_RecordAddedAfterFullBuild(t *testing.T) {
	store := newMockDocStore()
	vector := newMockVectorIndex()
	embedder := &mockEmbeddingService{}
	seedRecords(t, store, 2) // A00, B00

	svc := newTestIndexService(store, vector, embedder, 4)

	_, err := svc.BuildIndex(context.Background())
	require.NoError(t, err)

	// A record sorting before the existing codes shifts every position
	// in the corpus sequence. The stale checkpoint must not hide it.
	rec := domain.Record{
		Code:       "1A00",
		Title:      "Cholera",
		Definition: strings.Repeat("Cholera is an acute diarrhoeal infection. ", 10),
	}
	require.NoError(t, store.SaveRecord(context.Background(), &rec))

	status, err := svc.BuildIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, status.Records)
	assert.Equal(t, status.ChunksTotal, status.ChunksIndexed)

	ch, err := store.GetChunk(context.Background(), domain.ChunkID("1A00", 0))
	require.NoError(t, err)
	assert.NotEmpty(t, ch.Embedding)
	assert.Contains(t, vector.ids, domain.ChunkID("1A00", 0))

	// Re-added chunks were upserts, so the index holds no duplicates
	count, err := vector.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.ChunksTotal, count)
}

func TestIndexService_BuildIndex_CheckpointModelMismatch(t *testing.T) {
	store := newMockDocStore()
	seedRecords(t, store, 1)
	require.NoError(t, store.SaveIndexState(context.Background(), driven.IndexState{
		EmbeddingModel: "other-model",
		ChunksIndexed:  1,
	}))

	svc := newTestIndexService(store, newMockVectorIndex(), &mockEmbeddingService{}, 4)
	_, err := svc.BuildIndex(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestIndexService_BuildIndex_IndexFingerprintMismatch(t *testing.T) {
	store := newMockDocStore()
	seedRecords(t, store, 1)
	vector := newMockVectorIndex()
	vector.fingerprint = "other-model"

	svc := newTestIndexService(store, vector, &mockEmbeddingService{}, 4)
	_, err := svc.BuildIndex(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestIndexService_BuildIndex_EmbeddingFailure(t *testing.T) {
	store := newMockDocStore()
	seedRecords(t, store, 2)
	embedder := &mockEmbeddingService{embedErr: errors.New("connection refused")}

	svc := newTestIndexService(store, newMockVectorIndex(), embedder, 4)
	_, err := svc.BuildIndex(context.Background())
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)

	// No partial batch was persisted
	stored, err := store.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stored)
}

func TestIndexService_IndexRecord(t *testing.T) {
	store := newMockDocStore()
	vector := newMockVectorIndex()
	seedRecords(t, store, 2)

	svc := newTestIndexService(store, vector, &mockEmbeddingService{}, 4)

	require.NoError(t, svc.IndexRecord(context.Background(), "A00"))

	count, err := vector.Count(context.Background())
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	// Re-indexing the same record upserts, the count stays put
	require.NoError(t, svc.IndexRecord(context.Background(), "A00"))
	again, err := vector.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, count, again)
}

func TestIndexService_IndexRecord_Unknown(t *testing.T) {
	svc := newTestIndexService(newMockDocStore(), newMockVectorIndex(), &mockEmbeddingService{}, 4)
	err := svc.IndexRecord(context.Background(), "ZZ99")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndexService_ResetAndStatus(t *testing.T) {
	store := newMockDocStore()
	vector := newMockVectorIndex()
	seedRecords(t, store, 2)

	svc := newTestIndexService(store, vector, &mockEmbeddingService{}, 4)

	_, err := svc.BuildIndex(context.Background())
	require.NoError(t, err)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, status.Records)
	assert.Equal(t, status.ChunksTotal, status.ChunksIndexed)

	require.NoError(t, svc.Reset(context.Background()))

	status, err = svc.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, status.ChunksIndexed)
	assert.Empty(t, status.EmbeddingModel)
}
