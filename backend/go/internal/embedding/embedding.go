package embedding

import (
	"context"
	"fmt"

	"LOTR_RAG/backend/go/internal/config"
)

// Embedding turns text into fixed-length vectors.
type Embedding interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmdModel builds the embedding client selected by cfg.Provider.
func NewEmdModel(ctx context.Context, cfg config.EmbeddingConfig) (Embedding, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	case config.ProviderOpenAI:
		return NewOpenAIModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.ProviderGemini:
		return NewGoogleModel(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
