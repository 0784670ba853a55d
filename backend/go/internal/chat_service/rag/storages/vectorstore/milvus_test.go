package vectorstore

import (
	"context"
	"testing"

	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"
	"LOTR_RAG/backend/go/internal/config"
	"LOTR_RAG/backend/go/internal/database/milvus"
	"LOTR_RAG/backend/go/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSDK struct {
	exists   bool
	dropped  int
	created  bool
	inserted int
	results  []client.SearchResult
}

func (s *stubSDK) HasCollection(ctx context.Context, name string) (bool, error) { return s.exists, nil }
func (s *stubSDK) DropCollection(ctx context.Context, name string) error {
	s.dropped++
	return nil
}
func (s *stubSDK) CreateCollection(ctx context.Context, schema *entity.Schema) error {
	s.created = true
	return nil
}
func (s *stubSDK) CreateIndex(ctx context.Context, collection, field string, idx entity.Index) error {
	return nil
}
func (s *stubSDK) LoadCollection(ctx context.Context, name string) error { return nil }
func (s *stubSDK) Insert(ctx context.Context, collection string, columns ...entity.Column) error {
	s.inserted++
	return nil
}
func (s *stubSDK) Flush(ctx context.Context, collection string) error { return nil }
func (s *stubSDK) Search(ctx context.Context, collection string, outputFields []string, vector []float32,
	vectorField string, metric entity.MetricType, topK int, sp entity.SearchParam) ([]client.SearchResult, error) {
	return s.results, nil
}
func (s *stubSDK) Close() error { return nil }

func newMilvusStore(t *testing.T, sdk *stubSDK) *MilvusStore {
	t.Helper()
	cfg := config.Default().Milvus
	cfg.Dimension = 2
	store, err := NewMilvusStore(milvus.NewWithSDK(sdk, cfg), logger.Nop())
	require.NoError(t, err)
	return store
}

func TestNewMilvusStoreRequiresClient(t *testing.T) {
	_, err := NewMilvusStore(nil, logger.Nop())
	assert.Error(t, err)
}

func TestMilvusStoreDropToleratesAbsent(t *testing.T) {
	sdk := &stubSDK{exists: false}
	require.NoError(t, newMilvusStore(t, sdk).DropCollection(context.Background()))
	assert.Equal(t, 0, sdk.dropped)
}

func TestMilvusStoreInsertValidatesRecord(t *testing.T) {
	sdk := &stubSDK{}
	store := newMilvusStore(t, sdk)

	err := store.Insert(context.Background(), schema.StoredRecord{Vector: []float32{1, 2}, Record: schema.Record{Text: ""}})
	assert.ErrorIs(t, err, schema.ErrMalformedRecord)
	assert.Equal(t, 0, sdk.inserted)

	err = store.Insert(context.Background(), schema.StoredRecord{Vector: []float32{1, 2, 3}, Record: schema.Record{Text: "Bilbo"}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	require.NoError(t, store.Insert(context.Background(), schema.StoredRecord{Vector: []float32{1, 2}, Record: schema.Record{Text: "Bilbo"}}))
	assert.Equal(t, 1, sdk.inserted)
}

func TestMilvusStoreQuerySkipsMalformedPayloads(t *testing.T) {
	sdk := &stubSDK{results: []client.SearchResult{{
		ResultCount: 3,
		Scores:      []float32{0.9, 0.8, 0.7},
		Fields: []entity.Column{
			entity.NewColumnVarChar("text", []string{"Sauron forged the One Ring.", "  ", "The Ring was destroyed at Mount Doom."}),
		},
	}}}

	got, err := newMilvusStore(t, sdk).Query(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []schema.Record{
		{Text: "Sauron forged the One Ring."},
		{Text: "The Ring was destroyed at Mount Doom."},
	}, got)
}
