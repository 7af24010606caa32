package services

import (
	"context"
	"sort"
	"sync"

	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockDocStore implements driven.DocumentStore in memory.
type mockDocStore struct {
	mu      sync.Mutex
	records map[string]domain.Record
	chunks  map[string]domain.Chunk
	state   *driven.IndexState

	saveRecordErr error
	saveChunksErr error
	saveStateErr  error
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{
		records: make(map[string]domain.Record),
		chunks:  make(map[string]domain.Chunk),
	}
}

func (m *mockDocStore) SaveRecord(_ context.Context, rec *domain.Record) error {
	if m.saveRecordErr != nil {
		return m.saveRecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Code] = *rec
	return nil
}

func (m *mockDocStore) GetRecord(_ context.Context, code string) (*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (m *mockDocStore) ListRecords(_ context.Context) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *mockDocStore) CountRecords(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *mockDocStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if m.saveChunksErr != nil {
		return m.saveChunksErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range chunks {
		m.chunks[ch.ID] = ch
	}
	return nil
}

func (m *mockDocStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ch, nil
}

func (m *mockDocStore) CountChunks(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks), nil
}

func (m *mockDocStore) IndexState(_ context.Context) (*driven.IndexState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	state := *m.state
	return &state, nil
}

func (m *mockDocStore) SaveIndexState(_ context.Context, state driven.IndexState) error {
	if m.saveStateErr != nil {
		return m.saveStateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &state
	return nil
}

func (m *mockDocStore) ResetIndexState(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

func (m *mockDocStore) Close() error { return nil }

// mockVectorIndex implements driven.VectorIndex in memory. Entries are
// returned in insertion order; similarity ranking is the caller's
// concern in these tests.
type mockVectorIndex struct {
	mu          sync.Mutex
	ids         []string
	seen        map[string]bool
	fingerprint string

	addErr         error
	searchErr      error
	searchIDs      []string // overrides stored order when set
	fingerprintErr error
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{seen: make(map[string]bool)}
}

func (m *mockVectorIndex) Add(_ context.Context, chunks []domain.Chunk) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range chunks {
		if !m.seen[ch.ID] {
			m.seen[ch.ID] = true
			m.ids = append(m.ids, ch.ID)
		}
	}
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]string, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.searchIDs
	if ids == nil {
		ids = m.ids
	}
	if k < len(ids) {
		ids = ids[:k]
	}
	return append([]string(nil), ids...), nil
}

func (m *mockVectorIndex) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids), nil
}

func (m *mockVectorIndex) Fingerprint(_ context.Context) (string, error) {
	if m.fingerprintErr != nil {
		return "", m.fingerprintErr
	}
	return m.fingerprint, nil
}

func (m *mockVectorIndex) Close() error { return nil }

// mockEmbeddingService implements driven.EmbeddingService. Embeddings
// are constant unless embedFn is set.
type mockEmbeddingService struct {
	embedding []float32
	embedFn   func(text string) []float32
	embedErr  error
	model     string

	mu         sync.Mutex
	batchCalls int
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	if m.embedding != nil {
		return m.embedding
	}
	return []float32{1, 0, 0}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService.
type mockLLMService struct {
	response string
	genErr   error

	mu         sync.Mutex
	generated  int
	lastPrompt string
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	if m.genErr != nil {
		return "", m.genErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated++
	m.lastPrompt = prompt
	return m.response, nil
}

func (m *mockLLMService) Chat(_ context.Context, _ []domain.ChatMessage, _ driven.GenerateOptions) (string, error) {
	if m.genErr != nil {
		return "", m.genErr
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
	loadErr error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	if m.prompts != nil {
		if p, ok := m.prompts[name]; ok {
			return p, nil
		}
	}
	return "Context:\n%s\n\nQuestion: %s", nil
}

func (m *mockPromptStore) Reload() {}
