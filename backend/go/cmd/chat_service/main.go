package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"LOTR_RAG/backend/go/internal/chat_service/api"
	"LOTR_RAG/backend/go/internal/chat_service/rag/embeddings"
	"LOTR_RAG/backend/go/internal/chat_service/rag/interfaces"
	"LOTR_RAG/backend/go/internal/chat_service/rag/pipeline"
	"LOTR_RAG/backend/go/internal/chat_service/rag/storages/vectorstore"
	"LOTR_RAG/backend/go/internal/chat_service/service"
	"LOTR_RAG/backend/go/internal/config"
	"LOTR_RAG/backend/go/internal/database/kafka"
	"LOTR_RAG/backend/go/internal/database/milvus"
	"LOTR_RAG/backend/go/internal/database/redis"
	"LOTR_RAG/backend/go/internal/embedding"
	"LOTR_RAG/backend/go/internal/llm"
	"LOTR_RAG/backend/go/internal/models"
	httpserver "LOTR_RAG/backend/go/pkg/http"
	"LOTR_RAG/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.Init(cfg.Logger.ServiceName, cfg.Logger.Level)
	if cfg.Kafka.Enabled {
		hook := kafka.NewLogHook(kafka.NewWriter(cfg.Kafka), cfg.Logger.ServiceName, 0)
		defer hook.Close()
		appLogger.AddHook(hook)
		appLogger.Info(fmt.Sprintf("Publishing logs to kafka topic %s", cfg.Kafka.Topic))
	}
	appLogger.Info("Starting chat service...")

	ctx := context.Background()

	// 3. Initialize Dependencies
	milvusClient, err := milvus.NewClient(ctx, cfg.Milvus)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to connect to Milvus: %v", err))
	}
	defer milvusClient.Close()
	if err := milvusClient.LoadCollection(ctx); err != nil {
		appLogger.Warn(fmt.Sprintf("Collection not loaded, run load_db first: %v", err))
	}

	vectorStore, err := vectorstore.NewMilvusStore(milvusClient, appLogger)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to create vector store: %v", err))
	}

	emdModel, err := embedding.NewEmdModel(ctx, cfg.Embedding)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to create embedding client: %v", err))
	}
	var embedder interfaces.EmbeddingModel = emdModel
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to connect to Redis: %v", err))
		}
		defer rdb.Close()
		embedder = embeddings.NewCachedEmbedder(emdModel, embeddings.NewRedisCache(rdb), cfg.Embedding.Model, cfg.Redis.TTL, appLogger)
		appLogger.Info("Query embedding cache enabled")
	} else if cfg.Embedding.CacheSize > 0 {
		local, err := embeddings.NewLocalCache(cfg.Embedding.CacheSize)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to create embedding cache: %v", err))
		}
		embedder = embeddings.NewCachedEmbedder(emdModel, local, cfg.Embedding.Model, 0, appLogger)
		appLogger.Info(fmt.Sprintf("In-process embedding cache enabled (%d entries)", cfg.Embedding.CacheSize))
	}

	chatModel, err := llm.NewLLM(ctx, cfg.LLM)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to create LLM client: %v", err))
	}

	// 4. Create the chat service
	retrieval := pipeline.NewRetrievalPipeline(embedder, vectorStore, cfg.Retrieval.TopK, appLogger)
	qa := pipeline.NewQAPipeline(chatModel, models.ChatOptions{
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, cfg.Retrieval.ContextLimit, appLogger)
	chatService := service.NewChatService(retrieval, qa, appLogger)

	// 5. Start HTTP server in a goroutine
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewAPI(chatService, appLogger), cfg.Middleware, cfg.Server.RequestTimeout, appLogger)
	server := httpserver.NewServer(cfg.Server, router)

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", server.Addr()))
		errCh <- server.ListenAndServe()
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			appLogger.Error(err.Error())
		}
		return
	}
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
		return
	}
	appLogger.Info("Server gracefully stopped")
}
