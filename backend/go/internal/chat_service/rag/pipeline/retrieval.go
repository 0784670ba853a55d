package pipeline

import (
	"context"
	"fmt"

	"LOTR_RAG/backend/go/internal/chat_service/rag/interfaces"
	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"
	"LOTR_RAG/backend/go/pkg/logger"
)

// RetrievalPipeline finds the stored chunks nearest to a question.
type RetrievalPipeline struct {
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	topK        int
	log         logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline returning at most topK
// records per question.
func NewRetrievalPipeline(
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	topK int,
	log logger.Logger,
) *RetrievalPipeline {
	return &RetrievalPipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		topK:        topK,
		log:         log,
	}
}

// Run embeds question and returns the nearest records, best first.
func (p *RetrievalPipeline) Run(ctx context.Context, question string) ([]schema.Record, error) {
	vec, err := p.embedder.Embed(ctx, question)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to embed question: %v", err))
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	records, err := p.vectorStore.Query(ctx, vec, p.topK)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to query vector store: %v", err))
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}
	if len(records) > p.topK {
		records = records[:p.topK]
	}

	p.log.Debug(fmt.Sprintf("Retrieved %d records", len(records)))
	return records, nil
}
