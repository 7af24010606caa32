package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driven"
	"github.com/medkb-labs/icdassist/internal/core/ports/driving"
	"github.com/medkb-labs/icdassist/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.AssistantService = (*AssistantService)(nil)

// AssistantService answers medical questions over the indexed corpus.
// Each turn runs the full query pipeline: expansion, retrieval, context
// assembly and generation. Turns are handled one at a time; the online
// path never writes to the index.
type AssistantService struct {
	expander  *Expander
	retriever *Retriever
	answerer  *Answerer
	vector    driven.VectorIndex
	embedder  driven.EmbeddingService

	mu        sync.Mutex
	validated bool
}

// NewAssistantService creates a new assistant service.
func NewAssistantService(
	expander *Expander,
	retriever *Retriever,
	answerer *Answerer,
	vector driven.VectorIndex,
	embedder driven.EmbeddingService,
) *AssistantService {
	return &AssistantService{
		expander:  expander,
		retriever: retriever,
		answerer:  answerer,
		vector:    vector,
		embedder:  embedder,
	}
}

// Ask handles one chat turn: the query is expanded, retrieval runs
// against the index, and the answerer produces an answer. The returned
// history is the input history with the user turn and the assistant
// turn appended. A retrieval shortfall yields the fallback answer, not
// an error; an error means a model service was unreachable and the turn
// is retryable.
func (s *AssistantService) Ask(ctx context.Context, query string, history []domain.ChatMessage) ([]domain.ChatMessage, domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return history, domain.Answer{}, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}

	if err := s.checkFingerprint(ctx); err != nil {
		return history, domain.Answer{}, err
	}

	logger.Section("Chat Turn")
	logger.Debug("Query: %q", query)

	expanded, matched := s.expander.Expand(query)

	retrieved, err := s.retriever.Retrieve(ctx, expanded, matched)
	if err != nil {
		return history, domain.Answer{}, err
	}

	answer, err := s.answerer.Answer(ctx, query, retrieved)
	if err != nil {
		return history, domain.Answer{}, err
	}

	updated := make([]domain.ChatMessage, 0, len(history)+2)
	updated = append(updated, history...)
	updated = append(updated,
		domain.ChatMessage{Role: domain.RoleUser, Content: query},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: answer.Render()},
	)
	return updated, answer, nil
}

// checkFingerprint validates, once per process, that the index was
// built with the configured embedding model. A mismatch is fatal for
// every query; answering against a foreign index would produce
// meaningless similarity scores.
func (s *AssistantService) checkFingerprint(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.validated {
		return nil
	}

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

	s.validated = true
	return nil
}
