package milvus

import (
	"context"
	"errors"
	"testing"

	"LOTR_RAG/backend/go/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSDK struct {
	exists     bool
	hasErr     error
	dropErr    error
	dropCalls  int
	created    *entity.Schema
	indexField string
	index      entity.Index
	loaded     int
	inserted   []entity.Column
	results    []client.SearchResult
	searchErr  error
	outFields  []string
	metric     entity.MetricType
	topK       int
}

func (f *fakeSDK) HasCollection(ctx context.Context, name string) (bool, error) {
	return f.exists, f.hasErr
}

func (f *fakeSDK) DropCollection(ctx context.Context, name string) error {
	f.dropCalls++
	return f.dropErr
}

func (f *fakeSDK) CreateCollection(ctx context.Context, schema *entity.Schema) error {
	f.created = schema
	return nil
}

func (f *fakeSDK) CreateIndex(ctx context.Context, collection, field string, idx entity.Index) error {
	f.indexField, f.index = field, idx
	return nil
}

func (f *fakeSDK) LoadCollection(ctx context.Context, name string) error {
	f.loaded++
	return nil
}

func (f *fakeSDK) Insert(ctx context.Context, collection string, columns ...entity.Column) error {
	f.inserted = columns
	return nil
}

func (f *fakeSDK) Flush(ctx context.Context, collection string) error { return nil }

func (f *fakeSDK) Search(ctx context.Context, collection string, outputFields []string, vector []float32,
	vectorField string, metric entity.MetricType, topK int, sp entity.SearchParam) ([]client.SearchResult, error) {
	f.outFields, f.metric, f.topK = outputFields, metric, topK
	return f.results, f.searchErr
}

func (f *fakeSDK) Close() error { return nil }

func testConfig() config.MilvusConfig {
	cfg := config.Default().Milvus
	cfg.Dimension = 3
	return cfg
}

func TestDropCollectionIfExists(t *testing.T) {
	ctx := context.Background()

	absent := &fakeSDK{exists: false}
	dropped, err := NewWithSDK(absent, testConfig()).DropCollectionIfExists(ctx)
	require.NoError(t, err)
	assert.False(t, dropped)
	assert.Equal(t, 0, absent.dropCalls)

	present := &fakeSDK{exists: true}
	dropped, err = NewWithSDK(present, testConfig()).DropCollectionIfExists(ctx)
	require.NoError(t, err)
	assert.True(t, dropped)
	assert.Equal(t, 1, present.dropCalls)

	failing := &fakeSDK{exists: true, dropErr: errors.New("permission denied")}
	_, err = NewWithSDK(failing, testConfig()).DropCollectionIfExists(ctx)
	assert.Error(t, err)
}

func TestCreateCollectionBuildsSchemaAndIndex(t *testing.T) {
	sdk := &fakeSDK{}
	c := NewWithSDK(sdk, testConfig())

	require.NoError(t, c.CreateCollection(context.Background(), 768, config.MetricDotProduct))

	require.NotNil(t, sdk.created)
	assert.Equal(t, "lotr", sdk.created.CollectionName)
	require.Len(t, sdk.created.Fields, 3)
	assert.True(t, sdk.created.Fields[0].PrimaryKey)
	assert.Equal(t, entity.FieldTypeFloatVector, sdk.created.Fields[1].DataType)
	assert.Equal(t, "768", sdk.created.Fields[1].TypeParams[entity.TypeParamDim])
	assert.Equal(t, "vector", sdk.indexField)
	assert.Equal(t, string(entity.IP), sdk.index.Params()["metric_type"])
	assert.Equal(t, 1, sdk.loaded)
	assert.Equal(t, 768, c.Dimension())
}

func TestCreateCollectionRejectsUnknownMetric(t *testing.T) {
	sdk := &fakeSDK{}
	err := NewWithSDK(sdk, testConfig()).CreateCollection(context.Background(), 768, "hamming")
	assert.Error(t, err)
	assert.Nil(t, sdk.created)
}

func TestMetricType(t *testing.T) {
	for name, want := range map[string]entity.MetricType{
		config.MetricDotProduct: entity.IP,
		config.MetricCosine:     entity.COSINE,
		config.MetricEuclidean:  entity.L2,
	} {
		got, err := MetricType(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestInsertChecksDimension(t *testing.T) {
	sdk := &fakeSDK{}
	c := NewWithSDK(sdk, testConfig())

	err := c.Insert(context.Background(), [][]float32{{1, 2}}, []string{"short vector"})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Nil(t, sdk.inserted)

	require.NoError(t, c.Insert(context.Background(), [][]float32{{1, 2, 3}}, []string{"Frodo"}))
	require.Len(t, sdk.inserted, 3)
	assert.Equal(t, "text", sdk.inserted[2].Name())
	assert.Equal(t, []string{"Frodo"}, sdk.inserted[2].(*entity.ColumnVarChar).Data())
}

func TestSearchProjectsTextOnly(t *testing.T) {
	sdk := &fakeSDK{results: []client.SearchResult{{
		ResultCount: 2,
		Scores:      []float32{0.9, 0.8},
		Fields: []entity.Column{
			entity.NewColumnVarChar("text", []string{"Sauron forged the One Ring.", "The Ring was destroyed at Mount Doom."}),
		},
	}}}
	c := NewWithSDK(sdk, testConfig())

	hits, err := c.Search(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Sauron forged the One Ring.", *hits[0].Text)
	assert.Equal(t, "The Ring was destroyed at Mount Doom.", *hits[1].Text)
	assert.Equal(t, []string{"text"}, sdk.outFields)
	assert.Equal(t, entity.IP, sdk.metric)
	assert.Equal(t, 3, sdk.topK)
}

func TestSearchMissingTextColumn(t *testing.T) {
	sdk := &fakeSDK{results: []client.SearchResult{{ResultCount: 1, Scores: []float32{0.5}}}}
	hits, err := NewWithSDK(sdk, testConfig()).Search(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Nil(t, hits[0].Text)
}

func TestSearchErrors(t *testing.T) {
	c := NewWithSDK(&fakeSDK{}, testConfig())
	_, err := c.Search(context.Background(), []float32{1}, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	c = NewWithSDK(&fakeSDK{searchErr: errors.New("unavailable")}, testConfig())
	_, err = c.Search(context.Background(), []float32{1, 2, 3}, 3)
	assert.Error(t, err)
}
