package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"LOTR_RAG/backend/go/internal/chat_service/rag/interfaces"
	"LOTR_RAG/backend/go/pkg/logger"
	"LOTR_RAG/backend/go/pkg/lru"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned by Cache.Get for an unknown key.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a string key/value store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// LocalCache is an in-process Cache used when Redis is not configured.
type LocalCache struct {
	lru *lru.Cache[string, string]
}

// NewLocalCache keeps at most size entries.
func NewLocalCache(size int) (*LocalCache, error) {
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &LocalCache{lru: c}, nil
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}
	return "", ErrCacheMiss
}

func (c *LocalCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.lru.Put(key, value, ttl)
	return nil
}

// CachedEmbedder memoises the vectors of an EmbeddingModel. Cache failures
// are logged and fall through to the model; they never fail a call.
type CachedEmbedder struct {
	next  interfaces.EmbeddingModel
	cache Cache
	model string
	ttl   time.Duration
	log   logger.Logger
}

// NewCachedEmbedder wraps next. model namespaces the keys so a model change
// never serves stale vectors.
func NewCachedEmbedder(next interfaces.EmbeddingModel, cache Cache, model string, ttl time.Duration, log logger.Logger) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: cache, model: model, ttl: ttl, log: log}
}

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%s", e.model, hex.EncodeToString(sum[:]))
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.key(text)

	raw, err := e.cache.Get(ctx, key)
	switch {
	case err == nil:
		var vec []float32
		if jsonErr := json.Unmarshal([]byte(raw), &vec); jsonErr == nil {
			return vec, nil
		}
		e.log.Warn(fmt.Sprintf("Discarding undecodable cached embedding %s", key))
	case !errors.Is(err, ErrCacheMiss):
		e.log.WithError(err).Warn("Embedding cache read failed")
	}

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(vec)
	if err == nil {
		err = e.cache.Set(ctx, key, string(encoded), e.ttl)
	}
	if err != nil {
		e.log.WithError(err).Warn("Embedding cache write failed")
	}
	return vec, nil
}

var _ interfaces.EmbeddingModel = (*CachedEmbedder)(nil)
