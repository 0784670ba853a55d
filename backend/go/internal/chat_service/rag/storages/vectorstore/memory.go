package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"LOTR_RAG/backend/go/internal/chat_service/rag/interfaces"
	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"
	"LOTR_RAG/backend/go/internal/config"
)

// MemoryStore is a brute-force, in-process vector store. It backs dry-run
// ingestion and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	exists  bool
	dim     int
	metric  string
	records []schema.StoredRecord
}

// NewMemoryStore returns a store with no collection.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) DropCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = false
	s.records = nil
	return nil
}

func (s *MemoryStore) CreateCollection(ctx context.Context, dim int, metric string) error {
	if dim <= 0 {
		return fmt.Errorf("collection dimension must be positive, got %d", dim)
	}
	switch metric {
	case config.MetricDotProduct, config.MetricCosine, config.MetricEuclidean:
	default:
		return fmt.Errorf("unsupported similarity metric: %s", metric)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exists {
		return fmt.Errorf("collection already exists")
	}
	s.exists, s.dim, s.metric, s.records = true, dim, metric, nil
	return nil
}

func (s *MemoryStore) Insert(ctx context.Context, rec schema.StoredRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return fmt.Errorf("collection does not exist")
	}
	if len(rec.Vector) != s.dim {
		return fmt.Errorf("%w: got %d, collection expects %d", ErrDimensionMismatch, len(rec.Vector), s.dim)
	}
	vec := append([]float32(nil), rec.Vector...)
	s.records = append(s.records, schema.StoredRecord{Vector: vec, Record: rec.Record})
	return nil
}

// Query ranks every record; ties keep insertion order.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, k int) ([]schema.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return nil, fmt.Errorf("collection does not exist")
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: got %d, collection expects %d", ErrDimensionMismatch, len(vector), s.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(s.records))
	for i, rec := range s.records {
		ranked[i] = scored{idx: i, score: similarity(s.metric, rec.Vector, vector)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]schema.Record, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, s.records[r.idx].Record)
	}
	return out, nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// similarity is higher for closer vectors under every metric.
func similarity(metric string, a, b []float32) float64 {
	switch metric {
	case config.MetricCosine:
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / (na * nb)
	case config.MetricEuclidean:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return -math.Sqrt(sum)
	default:
		return dot(a, b)
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(a []float32) float64 {
	return math.Sqrt(dot(a, a))
}

var _ interfaces.VectorStore = (*MemoryStore)(nil)
