package llm

import (
	"context"
	"fmt"

	"LOTR_RAG/backend/go/internal/config"
	"LOTR_RAG/backend/go/internal/models"
)

// LLM completes an ordered list of chat messages. Calls are non-streaming: the
// full answer is returned once generation finishes.
type LLM interface {
	Chat(ctx context.Context, messages []models.ChatMessage, opts models.ChatOptions) (string, error)
}

// NewLLM builds the chat client selected by cfg.Provider.
func NewLLM(ctx context.Context, cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return NewOllama(cfg.Model, cfg.BaseURL)
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.Model, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
