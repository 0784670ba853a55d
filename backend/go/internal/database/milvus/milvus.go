package milvus

import (
	"context"
	"errors"
	"fmt"

	"LOTR_RAG/backend/go/internal/config"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// ErrDimensionMismatch reports a vector whose length differs from the
// collection's configured dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// SDK is the part of the Milvus SDK this package relies on. The production
// implementation forwards to client.Client; tests substitute a fake.
type SDK interface {
	HasCollection(ctx context.Context, name string) (bool, error)
	DropCollection(ctx context.Context, name string) error
	CreateCollection(ctx context.Context, schema *entity.Schema) error
	CreateIndex(ctx context.Context, collection, field string, idx entity.Index) error
	LoadCollection(ctx context.Context, name string) error
	Insert(ctx context.Context, collection string, columns ...entity.Column) error
	Flush(ctx context.Context, collection string) error
	Search(ctx context.Context, collection string, outputFields []string, vector []float32,
		vectorField string, metric entity.MetricType, topK int, sp entity.SearchParam) ([]client.SearchResult, error)
	Close() error
}

type sdkClient struct {
	c client.Client
}

func (s *sdkClient) HasCollection(ctx context.Context, name string) (bool, error) {
	return s.c.HasCollection(ctx, name)
}

func (s *sdkClient) DropCollection(ctx context.Context, name string) error {
	return s.c.DropCollection(ctx, name)
}

func (s *sdkClient) CreateCollection(ctx context.Context, schema *entity.Schema) error {
	return s.c.CreateCollection(ctx, schema, entity.DefaultShardNumber)
}

func (s *sdkClient) CreateIndex(ctx context.Context, collection, field string, idx entity.Index) error {
	return s.c.CreateIndex(ctx, collection, field, idx, false)
}

func (s *sdkClient) LoadCollection(ctx context.Context, name string) error {
	return s.c.LoadCollection(ctx, name, false)
}

func (s *sdkClient) Insert(ctx context.Context, collection string, columns ...entity.Column) error {
	_, err := s.c.Insert(ctx, collection, "" /* default partition */, columns...)
	return err
}

func (s *sdkClient) Flush(ctx context.Context, collection string) error {
	return s.c.Flush(ctx, collection, false)
}

func (s *sdkClient) Search(ctx context.Context, collection string, outputFields []string, vector []float32,
	vectorField string, metric entity.MetricType, topK int, sp entity.SearchParam) ([]client.SearchResult, error) {
	return s.c.Search(ctx, collection, []string{}, "", outputFields,
		[]entity.Vector{entity.FloatVector(vector)}, vectorField, metric, topK, sp)
}

func (s *sdkClient) Close() error {
	return s.c.Close()
}

// Client manages the single knowledge-base collection.
type Client struct {
	sdk SDK
	cfg config.MilvusConfig
}

// NewClient connects to the server described by cfg.
func NewClient(ctx context.Context, cfg config.MilvusConfig) (*Client, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		DBName:   cfg.DBName,
		Username: cfg.Username,
		Password: cfg.Password,
		APIKey:   cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", cfg.Address, err)
	}
	return &Client{sdk: &sdkClient{c: c}, cfg: cfg}, nil
}

// NewWithSDK wraps an already constructed SDK.
func NewWithSDK(sdk SDK, cfg config.MilvusConfig) *Client {
	return &Client{sdk: sdk, cfg: cfg}
}

// Collection returns the managed collection name.
func (c *Client) Collection() string {
	return c.cfg.CollectionName
}

// Dimension returns the configured vector dimension.
func (c *Client) Dimension() int {
	return c.cfg.Dimension
}

func (c *Client) Close() error {
	return c.sdk.Close()
}

// DropCollectionIfExists removes the collection. An absent collection is not
// an error; dropped reports whether anything was removed.
func (c *Client) DropCollectionIfExists(ctx context.Context) (dropped bool, err error) {
	name := c.cfg.CollectionName
	exists, err := c.sdk.HasCollection(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check collection '%s': %w", name, err)
	}
	if !exists {
		return false, nil
	}
	if err := c.sdk.DropCollection(ctx, name); err != nil {
		return false, fmt.Errorf("failed to drop collection '%s': %w", name, err)
	}
	return true, nil
}

// CreateCollection creates the collection with a uuid primary key, a float
// vector of the given dimension and the text payload, indexes the vector with
// metric and loads the collection.
func (c *Client) CreateCollection(ctx context.Context, dim int, metric string) error {
	mt, err := MetricType(metric)
	if err != nil {
		return err
	}
	if dim <= 0 {
		return fmt.Errorf("collection dimension must be positive, got %d", dim)
	}
	name := c.cfg.CollectionName

	schema := entity.NewSchema().
		WithName(name).
		WithDescription(c.cfg.Description).
		WithField(entity.NewField().
			WithName(c.cfg.PrimaryField).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(c.cfg.VectorField).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dim))).
		WithField(entity.NewField().
			WithName(c.cfg.TextField).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(int64(c.cfg.TextMaxLength)))

	if err := c.sdk.CreateCollection(ctx, schema); err != nil {
		return fmt.Errorf("failed to create collection '%s': %w", name, err)
	}

	nlist := c.cfg.NList
	if nlist <= 0 {
		nlist = 128
	}
	idx, err := entity.NewIndexIvfFlat(mt, nlist)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	if err := c.sdk.CreateIndex(ctx, name, c.cfg.VectorField, idx); err != nil {
		return fmt.Errorf("failed to create index on field '%s': %w", c.cfg.VectorField, err)
	}

	c.cfg.Dimension = dim
	c.cfg.Metric = metric
	return c.LoadCollection(ctx)
}

// LoadCollection makes the collection searchable.
func (c *Client) LoadCollection(ctx context.Context) error {
	if err := c.sdk.LoadCollection(ctx, c.cfg.CollectionName); err != nil {
		return fmt.Errorf("failed to load collection '%s': %w", c.cfg.CollectionName, err)
	}
	return nil
}

// Insert stores texts[i] with vectors[i]. Every vector must match the
// collection's dimension.
func (c *Client) Insert(ctx context.Context, vectors [][]float32, texts []string) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("mismatch between number of texts (%d) and vectors (%d)", len(texts), len(vectors))
	}
	if len(texts) == 0 {
		return nil
	}
	for _, v := range vectors {
		if len(v) != c.cfg.Dimension {
			return fmt.Errorf("%w: got %d, collection expects %d", ErrDimensionMismatch, len(v), c.cfg.Dimension)
		}
	}

	ids := make([]string, len(texts))
	for i := range texts {
		ids[i] = uuid.New().String()
	}

	idCol := entity.NewColumnVarChar(c.cfg.PrimaryField, ids)
	vectorCol := entity.NewColumnFloatVector(c.cfg.VectorField, c.cfg.Dimension, vectors)
	textCol := entity.NewColumnVarChar(c.cfg.TextField, texts)

	if err := c.sdk.Insert(ctx, c.cfg.CollectionName, idCol, vectorCol, textCol); err != nil {
		return fmt.Errorf("failed to insert into collection '%s': %w", c.cfg.CollectionName, err)
	}
	return nil
}

// Flush seals pending inserts.
func (c *Client) Flush(ctx context.Context) error {
	if err := c.sdk.Flush(ctx, c.cfg.CollectionName); err != nil {
		return fmt.Errorf("failed to flush collection '%s': %w", c.cfg.CollectionName, err)
	}
	return nil
}

// Hit is one search result. Text is nil when the result carried no text
// payload.
type Hit struct {
	Text  *string
	Score float32
}

// Search returns at most topK hits nearest to vector, projecting only the
// text field.
func (c *Client) Search(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	if len(vector) != c.cfg.Dimension {
		return nil, fmt.Errorf("%w: got %d, collection expects %d", ErrDimensionMismatch, len(vector), c.cfg.Dimension)
	}
	mt, err := MetricType(c.cfg.Metric)
	if err != nil {
		return nil, err
	}
	nprobe := c.cfg.NProbe
	if nprobe <= 0 {
		nprobe = 16
	}
	sp, err := entity.NewIndexIvfFlatSearchParam(nprobe)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	results, err := c.sdk.Search(ctx, c.cfg.CollectionName, []string{c.cfg.TextField},
		vector, c.cfg.VectorField, mt, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection '%s': %w", c.cfg.CollectionName, err)
	}

	var hits []Hit
	for _, res := range results {
		if res.Err != nil {
			return nil, fmt.Errorf("search result error: %w", res.Err)
		}
		var texts []string
		for _, field := range res.Fields {
			if field.Name() != c.cfg.TextField {
				continue
			}
			if col, ok := field.(*entity.ColumnVarChar); ok {
				texts = col.Data()
			}
		}
		for i := 0; i < res.ResultCount && len(hits) < topK; i++ {
			hit := Hit{}
			if i < len(res.Scores) {
				hit.Score = res.Scores[i]
			}
			if i < len(texts) {
				text := texts[i]
				hit.Text = &text
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// MetricType maps a configured metric name onto the Milvus metric.
func MetricType(metric string) (entity.MetricType, error) {
	switch metric {
	case config.MetricDotProduct:
		return entity.IP, nil
	case config.MetricCosine:
		return entity.COSINE, nil
	case config.MetricEuclidean:
		return entity.L2, nil
	default:
		return "", fmt.Errorf("unsupported similarity metric: %s", metric)
	}
}
