package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"LOTR_RAG/backend/go/internal/models"

	olla "github.com/ollama/ollama/api"
)

// Ollama talks to the chat endpoint of a local Ollama daemon.
type Ollama struct {
	client *olla.Client
	model  string
}

var _ LLM = (*Ollama)(nil)

func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

func (o *Ollama) Chat(ctx context.Context, messages []models.ChatMessage, opts models.ChatOptions) (string, error) {
	req := &olla.ChatRequest{
		Model:    o.model,
		Messages: toOllamaMessages(messages),
		Stream:   &[]bool{false}[0],
		Options: map[string]interface{}{
			"num_predict": opts.MaxTokens,
			"temperature": opts.Temperature,
		},
	}

	var result *olla.ChatResponse
	err := o.client.Chat(ctx, req, func(resp olla.ChatResponse) error {
		result = &resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to chat with ollama: %w", err)
	}
	if result == nil {
		return "", fmt.Errorf("ollama returned no response")
	}
	return result.Message.Content, nil
}

func toOllamaMessages(messages []models.ChatMessage) []olla.Message {
	out := make([]olla.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, olla.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}
