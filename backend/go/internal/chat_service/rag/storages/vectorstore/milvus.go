package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"LOTR_RAG/backend/go/internal/chat_service/rag/interfaces"
	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"
	"LOTR_RAG/backend/go/internal/database/milvus"
	"LOTR_RAG/backend/go/pkg/logger"
)

// ErrDimensionMismatch is returned when a vector does not fit the collection.
var ErrDimensionMismatch = milvus.ErrDimensionMismatch

// MilvusStore is an adapter for the Milvus client to implement the
// VectorStore interface. Payloads are validated here so nothing untyped
// reaches the pipelines.
type MilvusStore struct {
	log    logger.Logger
	client *milvus.Client
}

// NewMilvusStore creates a new MilvusStore adapter.
func NewMilvusStore(client *milvus.Client, log logger.Logger) (*MilvusStore, error) {
	if client == nil {
		return nil, errors.New("milvus client is not initialized")
	}
	return &MilvusStore{log: log, client: client}, nil
}

func (s *MilvusStore) DropCollection(ctx context.Context) error {
	dropped, err := s.client.DropCollectionIfExists(ctx)
	if err != nil {
		return err
	}
	if dropped {
		s.log.Info(fmt.Sprintf("Dropped existing collection: %s", s.client.Collection()))
	} else {
		s.log.Info(fmt.Sprintf("Collection %s doesn't exist, continuing...", s.client.Collection()))
	}
	return nil
}

func (s *MilvusStore) CreateCollection(ctx context.Context, dim int, metric string) error {
	if err := s.client.CreateCollection(ctx, dim, metric); err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("Created collection: %s (dimension=%d, metric=%s)", s.client.Collection(), dim, metric))
	return nil
}

func (s *MilvusStore) Insert(ctx context.Context, rec schema.StoredRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return s.client.Insert(ctx, [][]float32{rec.Vector}, []string{rec.Text})
}

func (s *MilvusStore) Flush(ctx context.Context) error {
	return s.client.Flush(ctx)
}

// Query drops hits whose payload is missing or empty, logging each one.
func (s *MilvusStore) Query(ctx context.Context, vector []float32, k int) ([]schema.Record, error) {
	hits, err := s.client.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	records := make([]schema.Record, 0, len(hits))
	for i, hit := range hits {
		if hit.Text == nil {
			s.log.Warn(fmt.Sprintf("Search hit %d has no text field, skipping", i))
			continue
		}
		rec := schema.Record{Text: *hit.Text}
		if err := rec.Validate(); err != nil {
			s.log.Warn(fmt.Sprintf("Search hit %d has an empty text payload, skipping", i))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

var (
	_ interfaces.VectorStore = (*MilvusStore)(nil)
	_ interfaces.Flusher     = (*MilvusStore)(nil)
)
