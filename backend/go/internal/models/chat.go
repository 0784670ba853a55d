package models

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of the ordered message list sent to a chat model.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatOptions are the decoding parameters of a single completion.
type ChatOptions struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

// ChatRequest is the body accepted by the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by the chat endpoint on success.
type ChatResponse struct {
	Message string `json:"message"`
	Sources int    `json:"sources"`
}

// ErrorResponse is the body returned by the chat endpoint on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
