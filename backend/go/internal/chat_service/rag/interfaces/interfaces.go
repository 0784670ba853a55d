package interfaces

import (
	"context"

	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"
	"LOTR_RAG/backend/go/internal/models"
)

// Loader fetches a source page and returns its plain text.
type Loader interface {
	Load(ctx context.Context, url string) (*schema.Document, error)
}

// Splitter cuts text into bounded, overlapping chunks.
type Splitter interface {
	SplitText(text string) []string
}

// EmbeddingModel turns a single text into a vector.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore holds the knowledge-base collection.
type VectorStore interface {
	// DropCollection removes the collection; an absent collection is not an error.
	DropCollection(ctx context.Context) error
	CreateCollection(ctx context.Context, dim int, metric string) error
	Insert(ctx context.Context, rec schema.StoredRecord) error
	// Query returns at most k records ordered by similarity to vector.
	Query(ctx context.Context, vector []float32, k int) ([]schema.Record, error)
}

// Flusher is implemented by stores that buffer inserts.
type Flusher interface {
	Flush(ctx context.Context) error
}

// LLM completes a chat, non-streaming.
type LLM interface {
	Chat(ctx context.Context, messages []models.ChatMessage, opts models.ChatOptions) (string, error)
}

// PageArchive keeps a copy of every ingested page.
type PageArchive interface {
	Put(ctx context.Context, doc *schema.Document) error
}
