package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Similarity metrics accepted for the collection.
const (
	MetricDotProduct = "dot_product"
	MetricCosine     = "cosine"
	MetricEuclidean  = "euclidean"
)

// Provider names shared by the embedding and llm factories.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// DefaultURLs are the pages ingested into the knowledge base.
var DefaultURLs = []string{
	"https://en.wikipedia.org/wiki/The_Lord_of_the_Rings_(film_series)",
	"https://en.wikipedia.org/wiki/The_Lord_of_the_Rings:_The_Fellowship_of_the_Ring",
	"https://en.wikipedia.org/wiki/The_Lord_of_the_Rings:_The_Two_Towers",
	"https://en.wikipedia.org/wiki/The_Lord_of_the_Rings:_The_Return_of_the_King",
	"https://en.wikipedia.org/wiki/The_Lord_of_the_Rings",
	"https://en.wikipedia.org/wiki/Rings_of_Power",
	"https://en.wikipedia.org/wiki/The_Hobbit",
	"https://en.wikipedia.org/wiki/Middle-earth",
	"https://en.wikipedia.org/wiki/Sauron",
	"https://en.wikipedia.org/wiki/The_Silmarillion",
}

// ServerConfig configures the chat HTTP server.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"` // bounds embed, search and generate of one request
}

// LoggerConfig configures the process logger.
type LoggerConfig struct {
	ServiceName string `yaml:"serviceName"`
	Level       string `yaml:"level"` // "debug", "info", "warn", "error"
}

// MilvusConfig holds the connection and collection layout of the vector store.
type MilvusConfig struct {
	Address        string `yaml:"address"` // host:port
	DBName         string `yaml:"dbName"`  // namespace
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	APIKey         string `yaml:"apiKey"` // access token
	CollectionName string `yaml:"collectionName"`
	Description    string `yaml:"description"`
	PrimaryField   string `yaml:"primaryField"`
	VectorField    string `yaml:"vectorField"`
	TextField      string `yaml:"textField"`
	TextMaxLength  int    `yaml:"textMaxLength"`
	Dimension      int    `yaml:"dimension"`
	Metric         string `yaml:"metric"` // "dot_product", "cosine", "euclidean"
	NList          int    `yaml:"nlist"`
	NProbe         int    `yaml:"nprobe"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "ollama", "openai", "gemini"
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"baseURL"`
	APIKey   string `yaml:"apiKey"`
	// CacheSize bounds the in-process query embedding cache used when Redis
	// is disabled. 0 turns it off.
	CacheSize int `yaml:"cacheSize"`
}

// LLMConfig selects the chat model and its decoding parameters.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "ollama", "gemini"
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"baseURL"`
	APIKey      string  `yaml:"apiKey"`
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float32 `yaml:"temperature"`
}

// IngestionConfig drives the load_db job.
type IngestionConfig struct {
	URLs                []string `yaml:"urls"`
	ChunkSize           int      `yaml:"chunkSize"`
	ChunkOverlap        int      `yaml:"chunkOverlap"`
	Workers             int      `yaml:"workers"`             // embedding calls in flight per document
	SkipFailedDocuments bool     `yaml:"skipFailedDocuments"` // false keeps the run fail-fast
	ArchivePages        bool     `yaml:"archivePages"`        // requires minio.enabled
}

// RetrievalConfig bounds the context assembled for a question.
type RetrievalConfig struct {
	TopK         int `yaml:"topK"`
	ContextLimit int `yaml:"contextLimit"` // characters
}

// ScraperConfig configures the page fetcher.
type ScraperConfig struct {
	Timeout          time.Duration `yaml:"timeout"`
	UserAgent        string        `yaml:"userAgent"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
	OpenTimeout      time.Duration `yaml:"openTimeout"`
}

// MiddlewareConfig groups the HTTP middlewares of the chat service.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig configures the token bucket guarding the chat endpoint.
type RateLimiterConfig struct {
	Enabled bool    `yaml:"enabled"`
	Rate    float64 `yaml:"rate"` // tokens per second
	Burst   int     `yaml:"burst"`
}

// CircuitBreakerConfig configures the breaker guarding the chat endpoint.
type CircuitBreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
	SuccessThreshold uint32        `yaml:"successThreshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// RedisConfig configures the query embedding cache.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// MinIOConfig configures the raw page archive.
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// KafkaConfig configures the log publisher.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// AppConfig is the root of config.yaml.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Logger     LoggerConfig     `yaml:"logger"`
	Milvus     MilvusConfig     `yaml:"milvus"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	LLM        LLMConfig        `yaml:"llm"`
	Ingestion  IngestionConfig  `yaml:"ingestion"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	Middleware MiddlewareConfig `yaml:"middleware"`
	Redis      RedisConfig      `yaml:"redis"`
	MinIO      MinIOConfig      `yaml:"minio"`
	Kafka      KafkaConfig      `yaml:"kafka"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  90 * time.Second,
		},
		Logger: LoggerConfig{ServiceName: "ChatService", Level: "info"},
		Milvus: MilvusConfig{
			Address:        "localhost:19530",
			CollectionName: "lotr",
			Description:    "Lord of the Rings knowledge base",
			PrimaryField:   "id",
			VectorField:    "vector",
			TextField:      "text",
			TextMaxLength:  4096,
			Dimension:      768,
			Metric:         MetricDotProduct,
			NList:          128,
			NProbe:         16,
		},
		Embedding: EmbeddingConfig{
			Provider:  ProviderOllama,
			Model:     "nomic-embed-text",
			BaseURL:   "http://localhost:11434",
			CacheSize: 1024,
		},
		LLM: LLMConfig{
			Provider:    ProviderOllama,
			Model:       "llama3.1",
			BaseURL:     "http://localhost:11434",
			MaxTokens:   512,
			Temperature: 0.7,
		},
		Ingestion: IngestionConfig{
			URLs:         append([]string(nil), DefaultURLs...),
			ChunkSize:    512,
			ChunkOverlap: 100,
			Workers:      1,
		},
		Retrieval: RetrievalConfig{TopK: 3, ContextLimit: 2000},
		Scraper: ScraperConfig{
			Timeout:          30 * time.Second,
			UserAgent:        "lotr-rag-loader/1.0",
			FailureThreshold: 3,
			OpenTimeout:      30 * time.Second,
		},
		Middleware: MiddlewareConfig{
			RateLimiter: RateLimiterConfig{Enabled: true, Rate: 5, Burst: 10},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Timeout:          30 * time.Second,
			},
		},
		Redis: RedisConfig{Address: "localhost:6379", TTL: 24 * time.Hour},
		MinIO: MinIOConfig{Endpoint: "localhost:9000", Bucket: "lotr-pages"},
		Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "lotr-rag-logs"},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at path
// (skipped when path is empty) and finally the environment. A .env file in the
// working directory is loaded into the environment first if present.
func LoadConfig(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()
	if path != "" {
		yamlFile, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() error {
	c.Milvus.Address = getEnv("MILVUS_ADDRESS", c.Milvus.Address)
	c.Milvus.DBName = getEnv("MILVUS_DB_NAME", c.Milvus.DBName)
	c.Milvus.CollectionName = getEnv("MILVUS_COLLECTION", c.Milvus.CollectionName)
	c.Milvus.APIKey = getEnv("MILVUS_API_KEY", c.Milvus.APIKey)
	c.Milvus.Username = getEnv("MILVUS_USERNAME", c.Milvus.Username)
	c.Milvus.Password = getEnv("MILVUS_PASSWORD", c.Milvus.Password)

	if host, ok := os.LookupEnv("OLLAMA_HOST"); ok && host != "" {
		if c.Embedding.Provider == ProviderOllama {
			c.Embedding.BaseURL = host
		}
		if c.LLM.Provider == ProviderOllama {
			c.LLM.BaseURL = host
		}
	}
	c.Embedding.APIKey = getEnv("EMBEDDING_API_KEY", c.Embedding.APIKey)
	c.LLM.APIKey = getEnv("LLM_API_KEY", c.LLM.APIKey)

	c.Redis.Address = getEnv("REDIS_ADDR", c.Redis.Address)
	c.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", c.MinIO.AccessKey)
	c.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", c.MinIO.SecretKey)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}

	c.Logger.Level = getEnv("LOG_LEVEL", c.Logger.Level)
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)

	topK, err := getEnvAsInt("RETRIEVAL_TOP_K", c.Retrieval.TopK)
	if err != nil {
		return err
	}
	c.Retrieval.TopK = topK
	return nil
}

// Validate reports every missing or inconsistent field at once.
func (c *AppConfig) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Milvus.Address == "" {
		add("milvus.address is required")
	}
	if c.Milvus.CollectionName == "" {
		add("milvus.collectionName is required")
	}
	if c.Milvus.VectorField == "" || c.Milvus.TextField == "" || c.Milvus.PrimaryField == "" {
		add("milvus field names are required")
	}
	if c.Milvus.Dimension <= 0 {
		add("milvus.dimension must be positive, got %d", c.Milvus.Dimension)
	}
	switch c.Milvus.Metric {
	case MetricDotProduct, MetricCosine, MetricEuclidean:
	default:
		add("milvus.metric %q is not one of dot_product, cosine, euclidean", c.Milvus.Metric)
	}

	switch c.Embedding.Provider {
	case ProviderOllama, ProviderOpenAI, ProviderGemini:
	default:
		add("embedding.provider %q is not supported", c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		add("embedding.model is required")
	}
	if c.Embedding.CacheSize < 0 {
		add("embedding.cacheSize must not be negative")
	}
	switch c.LLM.Provider {
	case ProviderOllama, ProviderGemini:
	default:
		add("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		add("llm.model is required")
	}
	if c.LLM.MaxTokens <= 0 {
		add("llm.maxTokens must be positive")
	}

	if c.Ingestion.ChunkSize <= 0 {
		add("ingestion.chunkSize must be positive")
	}
	if c.Ingestion.ChunkOverlap < 0 || c.Ingestion.ChunkOverlap >= c.Ingestion.ChunkSize {
		add("ingestion.chunkOverlap must satisfy 0 <= overlap < chunkSize, got %d", c.Ingestion.ChunkOverlap)
	}
	if len(c.Ingestion.URLs) == 0 {
		add("ingestion.urls must not be empty")
	}
	if c.Ingestion.Workers <= 0 {
		add("ingestion.workers must be positive")
	}
	if c.Ingestion.ArchivePages && !c.MinIO.Enabled {
		add("ingestion.archivePages requires minio.enabled")
	}

	if c.Retrieval.TopK <= 0 {
		add("retrieval.topK must be positive")
	}
	if c.Retrieval.ContextLimit <= 0 {
		add("retrieval.contextLimit must be positive")
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		add("redis.address is required when redis is enabled")
	}
	if c.MinIO.Enabled && (c.MinIO.Endpoint == "" || c.MinIO.Bucket == "") {
		add("minio.endpoint and minio.bucket are required when minio is enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		add("kafka.brokers and kafka.topic are required when kafka is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
