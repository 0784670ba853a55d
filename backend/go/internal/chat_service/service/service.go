package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"
	"LOTR_RAG/backend/go/internal/models"
	"LOTR_RAG/backend/go/pkg/logger"
)

var (
	// ErrMessageRequired is returned for an empty or whitespace-only message.
	ErrMessageRequired = errors.New("message is required")
	// ErrInternal wraps every downstream failure.
	ErrInternal = errors.New("internal error")
)

// Retriever returns the records nearest to a question.
type Retriever interface {
	Run(ctx context.Context, question string) ([]schema.Record, error)
}

// Answerer produces a reply from a question and its records.
type Answerer interface {
	Run(ctx context.Context, question string, records []schema.Record) (string, error)
}

// ChatService answers a single question, statelessly.
type ChatService struct {
	retriever Retriever
	answerer  Answerer
	log       logger.Logger
}

// NewChatService creates a new ChatService.
func NewChatService(retriever Retriever, answerer Answerer, log logger.Logger) *ChatService {
	return &ChatService{
		retriever: retriever,
		answerer:  answerer,
		log:       log,
	}
}

// Chat retrieves context for message and asks the LLM. Sources is the number
// of records retrieved. A blank message fails with ErrMessageRequired before
// any downstream call.
func (s *ChatService) Chat(ctx context.Context, message string) (*models.ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrMessageRequired
	}

	start := time.Now()
	records, err := s.retriever.Run(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieval failed: %w", ErrInternal, err)
	}
	s.log.Debug(fmt.Sprintf("Retrieval took %s, %d records", time.Since(start), len(records)))

	start = time.Now()
	answer, err := s.answerer.Run(ctx, message, records)
	if err != nil {
		return nil, fmt.Errorf("%w: answer generation failed: %w", ErrInternal, err)
	}
	s.log.Debug(fmt.Sprintf("Answer generation took %s", time.Since(start)))

	return &models.ChatResponse{Message: answer, Sources: len(records)}, nil
}
