package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driven"
	"github.com/medkb-labs/icdassist/internal/logger"
)

// DefaultMinContextChars is the minimum combined context length below
// which the answerer skips the language model entirely.
const DefaultMinContextChars = 50

// DefaultGenerateTimeout bounds a single generation call. A hung model
// server fails the turn with a retryable error instead of blocking it
// forever.
const DefaultGenerateTimeout = 120 * time.Second

// Answerer assembles retrieved chunks into a grounding context and asks
// the language model for an answer constrained to that context. The
// model output is treated as an untrusted black box; it is trimmed but
// never validated against the context.
type Answerer struct {
	llm             driven.LLMService
	prompts         driven.PromptStore
	minContextChars int
	timeout         time.Duration
	genOpts         driven.GenerateOptions
}

// NewAnswerer creates a new answerer. Zero values for minContextChars
// and timeout select the defaults.
func NewAnswerer(
	llm driven.LLMService,
	prompts driven.PromptStore,
	minContextChars int,
	timeout time.Duration,
	genOpts driven.GenerateOptions,
) *Answerer {
	if minContextChars <= 0 {
		minContextChars = DefaultMinContextChars
	}
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	return &Answerer{
		llm:             llm,
		prompts:         prompts,
		minContextChars: minContextChars,
		timeout:         timeout,
		genOpts:         genOpts,
	}
}

// Answer produces an answer for the query from the retrieved chunks.
// When no chunks were retrieved, or the combined context is shorter
// than the minimum threshold, the fixed fallback answer is returned
// without invoking the model and with no citations.
func (a *Answerer) Answer(ctx context.Context, query string, retrieved []domain.RetrievedChunk) (domain.Answer, error) {
	chunks := make([]domain.Chunk, len(retrieved))
	texts := make([]string, len(retrieved))
	for i, rc := range retrieved {
		chunks[i] = rc.Chunk
		texts[i] = rc.Chunk.Content
	}

	contextBlock := strings.Join(texts, "\n\n")
	if len(contextBlock) < a.minContextChars {
		logger.Debug("Context too short (%d chars), taking fallback path", len(contextBlock))
		return domain.Answer{Text: domain.FallbackAnswer, Fallback: true}, nil
	}

	template, err := a.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("loading answer prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, contextBlock, query)

	genCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.llm.Generate(genCtx, prompt, a.genOpts)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generating answer: %w: %v", domain.ErrServiceUnavailable, err)
	}

	return domain.Answer{
		Text:      strings.TrimSpace(raw),
		Citations: domain.CiteChunks(chunks),
	}, nil
}
