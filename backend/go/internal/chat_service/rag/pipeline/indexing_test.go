package pipeline

import (
	"context"
	"strings"
	"testing"

	"LOTR_RAG/backend/go/internal/chat_service/rag/splitters"
	"LOTR_RAG/backend/go/internal/chat_service/rag/storages/vectorstore"
	"LOTR_RAG/backend/go/internal/config"
	"LOTR_RAG/backend/go/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndexing(loader *fakeLoader, emb *fakeEmbedder, store *fakeStore, archive *fakeArchive, opts IndexingOptions) *IndexingPipeline {
	p := NewIndexingPipeline(loader, wordSplitter{}, emb, store, nil, opts, logger.Nop())
	if archive != nil {
		p.archive = archive
	}
	return p
}

func TestIndexingStoresChunksInOrder(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		"a": "one two",
		"b": "three",
	}}
	emb := &fakeEmbedder{dim: 4}
	store := &fakeStore{}
	archive := &fakeArchive{}

	report, err := newIndexing(loader, emb, store, archive, IndexingOptions{Dimension: 4, Metric: config.MetricDotProduct, Workers: 1}).
		Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, 1, store.dropped)
	assert.Equal(t, 1, store.created)
	assert.Equal(t, 1, store.flushed)
	assert.Equal(t, []string{"one", "two", "three"}, store.texts())
	assert.Equal(t, []string{"a", "b"}, archive.urls)
	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 3, report.Chunks)
	assert.Empty(t, report.Failed)
}

func TestIndexingConcurrentKeepsOrder(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{"a": "w1 w2 w3 w4 w5 w6 w7 w8"}}
	emb := &fakeEmbedder{dim: 2}
	store := &fakeStore{}

	_, err := newIndexing(loader, emb, store, nil, IndexingOptions{Dimension: 2, Metric: config.MetricCosine, Workers: 4}).
		Run(context.Background(), []string{"a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"w1", "w2", "w3", "w4", "w5", "w6", "w7", "w8"}, store.texts())
	assert.EqualValues(t, 8, emb.calls.Load())
}

func TestIndexingAbortsOnFirstFailure(t *testing.T) {
	loader := &fakeLoader{
		pages: map[string]string{"a": "one", "c": "three"},
		fail:  map[string]bool{"b": true},
	}
	store := &fakeStore{}

	report, err := newIndexing(loader, &fakeEmbedder{dim: 2}, store, nil, IndexingOptions{Dimension: 2, Metric: config.MetricDotProduct}).
		Run(context.Background(), []string{"a", "b", "c"})
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, []string{"a", "b"}, loader.calls)
	assert.Equal(t, []string{"one"}, store.texts())
	assert.Equal(t, 0, store.flushed)
	assert.Equal(t, 1, report.Documents)
}

func TestIndexingEmbedFailureStopsDocument(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{"a": "one two three"}}
	store := &fakeStore{}

	_, err := newIndexing(loader, &fakeEmbedder{dim: 2, fail: "two"}, store, nil, IndexingOptions{Dimension: 2, Metric: config.MetricDotProduct}).
		Run(context.Background(), []string{"a"})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"one"}, store.texts())
}

func TestIndexingSkipFailedDocuments(t *testing.T) {
	loader := &fakeLoader{
		pages: map[string]string{"a": "one", "c": "three"},
		fail:  map[string]bool{"b": true},
	}
	store := &fakeStore{}

	report, err := newIndexing(loader, &fakeEmbedder{dim: 2}, store, nil, IndexingOptions{
		Dimension: 2, Metric: config.MetricDotProduct, SkipFailedDocuments: true,
	}).Run(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "three"}, store.texts())
	assert.Equal(t, 2, report.Documents)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "b", report.Failed[0].URL)
	assert.Equal(t, 1, store.flushed)
}

func TestIndexingSkippedDocumentKeepsStoredChunks(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{"a": "one two", "b": "three"}}
	store := &fakeStore{}

	report, err := newIndexing(loader, &fakeEmbedder{dim: 2, fail: "two"}, store, nil, IndexingOptions{
		Dimension: 2, Metric: config.MetricDotProduct, SkipFailedDocuments: true,
	}).Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "three"}, store.texts())
	assert.Equal(t, 1, report.Documents)
	assert.Equal(t, 2, report.Chunks)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "a", report.Failed[0].URL)
	assert.Equal(t, 1, report.Failed[0].Chunks)
	assert.ErrorIs(t, report.Failed[0].Err, errBoom)
}

func TestIndexingSkipsBlankChunks(t *testing.T) {
	text := "Sauron forged the One Ring." + strings.Repeat("\n ", 1000) + "Frodo destroyed it."
	loader := &fakeLoader{pages: map[string]string{"ring": text}}
	splitter, err := splitters.NewCharacterSplitter(512, 100)
	require.NoError(t, err)
	split := splitter.SplitText(text)

	emb := &fakeEmbedder{dim: 2}
	store := vectorstore.NewMemoryStore()
	p := NewIndexingPipeline(loader, splitter, emb, store, nil,
		IndexingOptions{Dimension: 2, Metric: config.MetricDotProduct}, logger.Nop())

	report, err := p.Run(context.Background(), []string{"ring"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Documents)
	assert.Less(t, report.Chunks, len(split))
	assert.Equal(t, report.Chunks, store.Len())
	assert.EqualValues(t, report.Chunks, emb.calls.Load())
}

func TestIndexingDimensionMismatchIsFatal(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{"a": "one", "b": "two"}}
	store := &fakeStore{}

	_, err := newIndexing(loader, &fakeEmbedder{dim: 3}, store, nil, IndexingOptions{
		Dimension: 2, Metric: config.MetricDotProduct, SkipFailedDocuments: true,
	}).Run(context.Background(), []string{"a", "b"})
	require.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
	assert.Empty(t, store.inserted)
}

func TestIndexingCreateFailureStopsBeforeLoading(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{"a": "one"}}
	store := &fakeStore{createErr: errBoom}

	_, err := newIndexing(loader, &fakeEmbedder{dim: 2}, store, nil, IndexingOptions{Dimension: 2, Metric: config.MetricDotProduct}).
		Run(context.Background(), []string{"a"})
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, loader.calls)
}

func TestIndexingIntoMemoryStoreIsQueryable(t *testing.T) {
	text := "Frodo carried the Ring to Mount Doom while Sam followed."
	loader := &fakeLoader{pages: map[string]string{"ring": text}}
	splitter, err := splitters.NewCharacterSplitter(20, 5)
	require.NoError(t, err)
	store := vectorstore.NewMemoryStore()

	p := NewIndexingPipeline(loader, splitter, &fakeEmbedder{dim: 2}, store, nil,
		IndexingOptions{Dimension: 2, Metric: config.MetricDotProduct, Workers: 2}, logger.Nop())
	report, err := p.Run(context.Background(), []string{"ring"})
	require.NoError(t, err)

	assert.Equal(t, len(splitter.SplitText(text)), store.Len())
	assert.Equal(t, store.Len(), report.Chunks)

	// A second run starts from an empty collection.
	_, err = p.Run(context.Background(), []string{"ring"})
	require.NoError(t, err)
	assert.Equal(t, report.Chunks, store.Len())
}
