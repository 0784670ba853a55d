package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"LOTR_RAG/backend/go/internal/chat_service/rag/interfaces"
	"LOTR_RAG/backend/go/internal/chat_service/rag/loaders"
	"LOTR_RAG/backend/go/internal/chat_service/rag/pipeline"
	"LOTR_RAG/backend/go/internal/chat_service/rag/splitters"
	"LOTR_RAG/backend/go/internal/chat_service/rag/storages/archive"
	"LOTR_RAG/backend/go/internal/chat_service/rag/storages/vectorstore"
	"LOTR_RAG/backend/go/internal/config"
	"LOTR_RAG/backend/go/internal/database/kafka"
	"LOTR_RAG/backend/go/internal/database/milvus"
	"LOTR_RAG/backend/go/internal/database/minio"
	"LOTR_RAG/backend/go/internal/embedding"
	"LOTR_RAG/backend/go/pkg/circuitbreaker"
	httpclient "LOTR_RAG/backend/go/pkg/http"
	"LOTR_RAG/backend/go/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration")
	dryRun := flag.Bool("dry-run", false, "index into an in-memory store instead of Milvus")
	flag.Parse()

	if err := run(*configPath, *dryRun); err != nil {
		log.Printf("load_db failed: %v", err)
		os.Exit(1)
	}
}

func run(configPath string, dryRun bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	appLogger := logger.Init("LoadDB", cfg.Logger.Level)
	if cfg.Kafka.Enabled {
		hook := kafka.NewLogHook(kafka.NewWriter(cfg.Kafka), "LoadDB", 0)
		defer hook.Close()
		appLogger.AddHook(hook)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := httpclient.NewClient(cfg.Scraper, func(name string, from, to circuitbreaker.State) {
		appLogger.Warn(fmt.Sprintf("Circuit breaker '%s' changed from %s to %s", name, from, to))
	})
	loader := loaders.NewWebLoader(fetcher)

	splitter, err := splitters.NewCharacterSplitter(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap)
	if err != nil {
		return err
	}

	embedder, err := embedding.NewEmdModel(ctx, cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}

	var store interfaces.VectorStore
	if dryRun {
		appLogger.Info("Dry run: indexing into an in-memory store")
		store = vectorstore.NewMemoryStore()
	} else {
		milvusClient, err := milvus.NewClient(ctx, cfg.Milvus)
		if err != nil {
			return err
		}
		defer milvusClient.Close()
		if store, err = vectorstore.NewMilvusStore(milvusClient, appLogger); err != nil {
			return err
		}
	}

	var pageArchive interfaces.PageArchive
	if cfg.Ingestion.ArchivePages && !dryRun {
		minioClient, err := minio.NewClient(ctx, cfg.MinIO)
		if err != nil {
			return err
		}
		pageArchive = archive.NewMinioArchive(minioClient, cfg.MinIO.Bucket)
		appLogger.Info(fmt.Sprintf("Archiving pages to bucket %s", cfg.MinIO.Bucket))
	}

	indexing := pipeline.NewIndexingPipeline(loader, splitter, embedder, store, pageArchive, pipeline.IndexingOptions{
		Dimension:           cfg.Milvus.Dimension,
		Metric:              cfg.Milvus.Metric,
		Workers:             cfg.Ingestion.Workers,
		SkipFailedDocuments: cfg.Ingestion.SkipFailedDocuments,
	}, appLogger)

	report, err := indexing.Run(ctx, cfg.Ingestion.URLs)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Error loading data: %v", err))
		return err
	}
	for _, f := range report.Failed {
		appLogger.WithError(f.Err).Warn(fmt.Sprintf("Failed to load %s (%d chunks stored before the failure)", f.URL, f.Chunks))
	}
	appLogger.Info(fmt.Sprintf("Data loaded successfully: %d documents, %d chunks", report.Documents, report.Chunks))
	return nil
}
