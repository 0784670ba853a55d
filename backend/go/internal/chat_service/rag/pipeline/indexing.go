package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"LOTR_RAG/backend/go/internal/chat_service/rag/interfaces"
	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"
	"LOTR_RAG/backend/go/internal/chat_service/rag/storages/vectorstore"
	"LOTR_RAG/backend/go/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// IndexingOptions shape a single ingestion run.
type IndexingOptions struct {
	// Dimension and Metric configure the freshly created collection. Every
	// embedding must have exactly Dimension values.
	Dimension int
	Metric    string
	// Workers bounds the embedding calls in flight for one document. 1 keeps
	// the run strictly sequential.
	Workers int
	// SkipFailedDocuments records a failing page and moves on instead of
	// aborting. Collection and dimension errors still abort.
	SkipFailedDocuments bool
}

// FailedDocument is a page skipped under SkipFailedDocuments. Chunks stored
// before the failure stay in the collection and are counted in Chunks.
type FailedDocument struct {
	URL    string
	Chunks int
	Err    error
}

// IndexReport summarises a run. Chunks is the number of records written,
// including those left behind by failed documents.
type IndexReport struct {
	Documents int
	Chunks    int
	Failed    []FailedDocument
}

// IndexingPipeline rebuilds the collection from a list of pages: load, split,
// embed, store.
type IndexingPipeline struct {
	loader      interfaces.Loader
	splitter    interfaces.Splitter
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	archive     interfaces.PageArchive // optional
	opts        IndexingOptions
	log         logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline. archive may be nil.
func NewIndexingPipeline(
	loader interfaces.Loader,
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	archive interfaces.PageArchive,
	opts IndexingOptions,
	log logger.Logger,
) *IndexingPipeline {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &IndexingPipeline{
		loader:      loader,
		splitter:    splitter,
		embedder:    embedder,
		vectorStore: vectorStore,
		archive:     archive,
		opts:        opts,
		log:         log,
	}
}

// Run drops and recreates the collection, then indexes every url in order.
// By default the first failure aborts the run; the returned report covers the
// work done up to that point.
func (p *IndexingPipeline) Run(ctx context.Context, urls []string) (*IndexReport, error) {
	report := &IndexReport{}

	if err := p.vectorStore.DropCollection(ctx); err != nil {
		return report, fmt.Errorf("failed to drop collection: %w", err)
	}
	if err := p.vectorStore.CreateCollection(ctx, p.opts.Dimension, p.opts.Metric); err != nil {
		return report, fmt.Errorf("failed to create collection: %w", err)
	}

	for _, url := range urls {
		chunks, err := p.indexDocument(ctx, url)
		report.Chunks += chunks
		if err != nil {
			if !p.opts.SkipFailedDocuments || errors.Is(err, vectorstore.ErrDimensionMismatch) || ctx.Err() != nil {
				return report, fmt.Errorf("failed to index %s: %w", url, err)
			}
			p.log.WithError(err).Warn(fmt.Sprintf("Skipping %s", url))
			report.Failed = append(report.Failed, FailedDocument{URL: url, Chunks: chunks, Err: err})
			continue
		}
		report.Documents++
	}

	if f, ok := p.vectorStore.(interfaces.Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			return report, fmt.Errorf("failed to flush collection: %w", err)
		}
	}

	p.log.Info(fmt.Sprintf("Indexed %d documents into %d chunks (%d skipped)", report.Documents, report.Chunks, len(report.Failed)))
	return report, nil
}

// indexDocument returns the number of chunks stored for url.
func (p *IndexingPipeline) indexDocument(ctx context.Context, url string) (int, error) {
	doc, err := p.loader.Load(ctx, url)
	if err != nil {
		return 0, err
	}

	if p.archive != nil {
		if err := p.archive.Put(ctx, doc); err != nil {
			return 0, err
		}
	}

	split := p.splitter.SplitText(doc.Text)
	chunks := nonBlank(split)
	if skipped := len(split) - len(chunks); skipped > 0 {
		p.log.Debug(fmt.Sprintf("Skipped %d blank chunks of %s", skipped, url))
	}
	p.log.Debug(fmt.Sprintf("Split %s into %d chunks", url, len(chunks)))

	var stored int
	if p.opts.Workers == 1 {
		stored, err = p.storeSequential(ctx, url, chunks)
	} else {
		stored, err = p.storeConcurrent(ctx, url, chunks)
	}
	if err != nil {
		return stored, err
	}

	p.log.Info(fmt.Sprintf("Loaded %s: %d chunks", url, stored))
	return stored, nil
}

// nonBlank drops whitespace-only chunks; the stores reject empty text.
func nonBlank(chunks []string) []string {
	out := chunks[:0:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

func (p *IndexingPipeline) storeSequential(ctx context.Context, url string, chunks []string) (int, error) {
	for i, chunk := range chunks {
		vec, err := p.embed(ctx, chunk)
		if err != nil {
			return i, err
		}
		if err := p.insert(ctx, url, i, chunk, vec); err != nil {
			return i, err
		}
	}
	return len(chunks), nil
}

// storeConcurrent embeds with up to Workers calls in flight, then inserts in
// chunk order. The first embedding error cancels the rest.
func (p *IndexingPipeline) storeConcurrent(ctx context.Context, url string, chunks []string) (int, error) {
	vectors := make([][]float32, len(chunks))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.opts.Workers)
	for i, chunk := range chunks {
		eg.Go(func() error {
			vec, err := p.embed(gCtx, chunk)
			if err != nil {
				return err
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	for i, chunk := range chunks {
		if err := p.insert(ctx, url, i, chunk, vectors[i]); err != nil {
			return i, err
		}
	}
	return len(chunks), nil
}

func (p *IndexingPipeline) embed(ctx context.Context, chunk string) ([]float32, error) {
	vec, err := p.embedder.Embed(ctx, chunk)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunk: %w", err)
	}
	if len(vec) != p.opts.Dimension {
		return nil, fmt.Errorf("%w: embedding has %d values, collection expects %d",
			vectorstore.ErrDimensionMismatch, len(vec), p.opts.Dimension)
	}
	return vec, nil
}

func (p *IndexingPipeline) insert(ctx context.Context, url string, idx int, chunk string, vec []float32) error {
	rec := schema.StoredRecord{Vector: vec, Record: schema.Record{Text: chunk}}
	if err := p.vectorStore.Insert(ctx, rec); err != nil {
		return fmt.Errorf("failed to store chunk %d: %w", idx, err)
	}
	p.log.Debug(fmt.Sprintf("Stored chunk %d of %s", idx, url))
	return nil
}
