package pipeline

import (
	"context"
	"fmt"
	"strings"

	"LOTR_RAG/backend/go/internal/chat_service/rag/interfaces"
	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"
	"LOTR_RAG/backend/go/internal/models"
	"LOTR_RAG/backend/go/pkg/logger"
)

// DefaultContextLimit caps the context block, counted in characters.
const DefaultContextLimit = 2000

const promptHeader = `You are a loremaster of Middle-earth, steeped in the histories, songs and tongues of J.R.R. Tolkien's legendarium.
You answer questions about The Lord of the Rings, its people, places and ages with warmth and a touch of old-world gravity.
Draw on the passages between START CONTEXT and END CONTEXT first.
If they do not hold the answer, answer from your own knowledge of Tolkien's works.
If you are still unsure, say so plainly rather than invent lore.
Format your answer with markdown where it helps the reader.`

const emptyContext = "The archives hold no passages for this question. Answer from your general knowledge of Middle-earth, or admit that you are unsure."

const separator = "-------------"

// QAPipeline turns retrieved records and a question into an answer.
type QAPipeline struct {
	llm          interfaces.LLM
	opts         models.ChatOptions
	contextLimit int
	log          logger.Logger
}

// NewQAPipeline creates a new QAPipeline. A non-positive contextLimit uses
// DefaultContextLimit.
func NewQAPipeline(llm interfaces.LLM, opts models.ChatOptions, contextLimit int, log logger.Logger) *QAPipeline {
	if contextLimit <= 0 {
		contextLimit = DefaultContextLimit
	}
	return &QAPipeline{
		llm:          llm,
		opts:         opts,
		contextLimit: contextLimit,
		log:          log,
	}
}

// Run asks the LLM question against records and returns its reply.
func (p *QAPipeline) Run(ctx context.Context, question string, records []schema.Record) (string, error) {
	prompt := BuildPrompt(BuildContext(records, p.contextLimit), question)

	messages := []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}
	answer, err := p.llm.Chat(ctx, messages, p.opts)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to get chat completion: %v", err))
		return "", fmt.Errorf("failed to get chat completion: %w", err)
	}
	return answer, nil
}

// BuildContext joins record texts, in order, with a blank line and keeps at
// most limit characters. The cut may land mid-word.
func BuildContext(records []schema.Record, limit int) string {
	texts := make([]string, 0, len(records))
	for _, r := range records {
		texts = append(texts, r.Text)
	}
	joined := strings.Join(texts, "\n\n")

	runes := []rune(joined)
	if limit >= 0 && len(runes) > limit {
		return string(runes[:limit])
	}
	return joined
}

// BuildPrompt composes the instruction frame, the context block and the
// question. A blank context is replaced by a note telling the model to fall
// back on general knowledge.
func BuildPrompt(context, question string) string {
	var sb strings.Builder
	sb.WriteString(promptHeader)
	sb.WriteString("\n")
	sb.WriteString(separator)
	sb.WriteString("\nSTART CONTEXT\n")
	if strings.TrimSpace(context) == "" {
		sb.WriteString(emptyContext)
	} else {
		sb.WriteString(context)
	}
	sb.WriteString("\nEND CONTEXT\n")
	sb.WriteString(separator)
	sb.WriteString("\nQUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n")
	sb.WriteString(separator)
	return sb.String()
}
