package llm

import (
	"context"
	"fmt"
	"strings"

	"LOTR_RAG/backend/go/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini completes chats with a Google Gemini model.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ LLM = (*Gemini)(nil)

func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Chat sends every message but the last as history and the last one as the
// turn to answer. System messages become the system instruction.
func (g *Gemini) Chat(ctx context.Context, messages []models.ChatMessage, opts models.ChatOptions) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("gemini chat requires at least one message")
	}

	// A model handle per call keeps generation settings out of shared state.
	gm := g.client.GenerativeModel(g.model)
	gm.SetMaxOutputTokens(int32(opts.MaxTokens))
	gm.SetTemperature(opts.Temperature)

	var system []string
	var history []*genai.Content
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Content)
		case models.RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n"))}}
	}

	cs := gm.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(messages[len(messages)-1].Content))
	if err != nil {
		return "", fmt.Errorf("failed to chat with gemini: %w", err)
	}
	return textOf(resp), nil
}

func textOf(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
