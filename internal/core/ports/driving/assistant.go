package driving

import (
	"context"

	"github.com/medkb-labs/icdassist/internal/core/domain"
)

// AssistantService answers medical questions over the indexed corpus.
// This is the chat contract: a query plus the prior turn history yields
// the history with the new user and assistant turns appended.
type AssistantService interface {
	// Ask handles one chat turn to completion. Retrieval shortfalls are
	// answered with the fixed fallback sentence, never an error; an
	// error indicates an unreachable model service and is retryable.
	Ask(ctx context.Context, query string, history []domain.ChatMessage) ([]domain.ChatMessage, domain.Answer, error)
}
