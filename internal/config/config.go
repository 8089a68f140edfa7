package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"ai-qa-rag-be/pkg/chunker"
	"ai-qa-rag-be/pkg/rag/settings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Topics   TopicConfig
	RAG      RAGConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider   string // "openai" or "ollama"
	EmbeddingModel      string
	EmbeddingBaseURL    string
	EmbeddingAPIKey     string
	EmbeddingRedisCache bool
	LLMProvider         string // "ollama", "openai", "huggingface"
	LLMModel            string
	LLMBaseURL          string
	LLMAPIKey           string
}

type TopicConfig struct {
	Ingest string
	Usage  string
}

// RAGConfig holds the tuning knobs. Defaults can be overridden by the YAML file named in RAG_CONFIG_FILE.
type RAGConfig struct {
	DuplicateThreshold float64        `yaml:"duplicate_threshold"`
	RelevanceThreshold float64        `yaml:"relevance_threshold"`
	MaxChunks          int            `yaml:"max_chunks"`
	NumCandidates      int            `yaml:"num_candidates"`
	Temperature        float64        `yaml:"temperature"`
	MaxTokens          int            `yaml:"max_tokens"`
	HistoryWindow      int            `yaml:"history_window"`
	Chunking           chunker.Config `yaml:"chunking"`
	Cache              CacheConfig    `yaml:"cache"`
	Timeouts           TimeoutConfig  `yaml:"timeouts"`
	Retry              RetryConfig    `yaml:"retry"`
	Ingest             IngestConfig   `yaml:"ingest"`
	SettingsTTL        time.Duration  `yaml:"settings_ttl"`
}

type CacheConfig struct {
	MaxEntries int           `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"`
}

type TimeoutConfig struct {
	Embedding  time.Duration `yaml:"embedding"`
	Generation time.Duration `yaml:"generation"`
	Search     time.Duration `yaml:"search"`
	Record     time.Duration `yaml:"record"`
}

type RetryConfig struct {
	MaxTries   uint          `yaml:"max_tries"`
	MaxElapsed time.Duration `yaml:"max_elapsed"`
}

type IngestConfig struct {
	Workers       int     `yaml:"workers"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	ragCfg, err := LoadRAG(getEnv("RAG_CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}

	embeddingProvider := getEnv("EMBEDDING_PROVIDER", "openai")
	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:   embeddingProvider,
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", defaultEmbeddingModel(embeddingProvider)),
			EmbeddingBaseURL:    getEnv("EMBEDDING_BASE_URL", ""),
			EmbeddingAPIKey:     getEnv("OPENAI_API_KEY", ""),
			EmbeddingRedisCache: getEnvAsBool("EMBEDDING_REDIS_CACHE", false),
			LLMProvider:         getEnv("LLM_PROVIDER", "openai"),
			LLMModel:            getEnv("LLM_MODEL", "gpt-4o-mini"),
			LLMBaseURL:          getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:           getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", "")),
		},
		Topics: TopicConfig{
			Ingest: getEnv("INGEST_TOPIC_NAME", "INGEST_DOCUMENT"),
			Usage:  getEnv("USAGE_TOPIC_NAME", "TRACK_USAGE"),
		},
		RAG: ragCfg,
	}, nil
}

func defaultEmbeddingModel(provider string) string {
	if provider == "ollama" {
		return "mxbai-embed-large"
	}
	return "text-embedding-3-small"
}

func DefaultRAG() RAGConfig {
	return RAGConfig{
		DuplicateThreshold: 0.98,
		RelevanceThreshold: 0.7,
		MaxChunks:          5,
		NumCandidates:      100,
		Temperature:        0.7,
		MaxTokens:          1000,
		HistoryWindow:      6,
		Chunking:           chunker.DefaultConfig(),
		Cache:              CacheConfig{MaxEntries: 1000, TTL: 24 * time.Hour},
		Timeouts: TimeoutConfig{
			Embedding:  15 * time.Second,
			Generation: 60 * time.Second,
			Search:     5 * time.Second,
			Record:     10 * time.Second,
		},
		Retry:       RetryConfig{MaxTries: 3, MaxElapsed: 30 * time.Second},
		Ingest:      IngestConfig{Workers: 4, RatePerSecond: 10, Burst: 4},
		SettingsTTL: time.Minute,
	}
}

// LoadRAG reads the YAML overrides at path over DefaultRAG. An empty path or a missing file keeps the defaults.
func LoadRAG(path string) (RAGConfig, error) {
	cfg := DefaultRAG()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("Note: RAG config file %s not found, using defaults", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read rag config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse rag config %s: %w", path, err)
	}
	if err := cfg.Chunking.Validate(); err != nil {
		return cfg, fmt.Errorf("rag config %s: %w", path, err)
	}
	return cfg, nil
}

// SettingsDefaults is the snapshot used when the settings table lacks a key.
func (r RAGConfig) SettingsDefaults() settings.Snapshot {
	s := settings.Defaults()
	s.DuplicateThreshold = r.DuplicateThreshold
	s.RelevanceThreshold = r.RelevanceThreshold
	s.MaxChunks = r.MaxChunks
	s.NumCandidates = r.NumCandidates
	s.Chunking = r.Chunking
	s.Temperature = r.Temperature
	s.MaxTokens = r.MaxTokens
	s.HistoryWindow = r.HistoryWindow
	return s
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
