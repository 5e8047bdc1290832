package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Vector store backends.
const (
	VectorBackendChromem = "chromem"
	VectorBackendQdrant  = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL     string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com"`
	LLMModelName   string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMAPIKey      string        `env:"LLM_API_KEY"`
	LLMTemperature float32       `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	EmbeddingBaseURL   string        `env:"EMBEDDING_BASE_URL" envDefault:"https://api.openai.com"`
	EmbeddingModelName string        `env:"EMBEDDING_MODEL_NAME" envDefault:"text-embedding-3-small"`
	EmbeddingAPIKey    string        `env:"EMBEDDING_API_KEY"`
	EmbeddingTimeout   time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"30s"`
	EmbeddingBatchSize int           `env:"EMBEDDING_BATCH_SIZE" envDefault:"16"`
	EmbeddingRetries   uint          `env:"EMBEDDING_RETRIES" envDefault:"3"`
	VectorSize         int           `env:"VECTOR_SIZE" envDefault:"1536"`

	VectorBackend    string `env:"VECTOR_BACKEND" envDefault:"chromem"`
	VectorCollection string `env:"VECTOR_COLLECTION" envDefault:"shared_pdf"`
	ChromemPath      string `env:"CHROMEM_PATH" envDefault:"./data/chroma_db"`
	QdrantURL        string `env:"QDRANT_URL" envDefault:"http://localhost:6333"`

	DistanceThreshold float64 `env:"RAG_DISTANCE_THRESHOLD" envDefault:"0.6"`
	TopK              int     `env:"RAG_TOP_K" envDefault:"3"`
	AnnotateSources   bool    `env:"RAG_ANNOTATE_SOURCES" envDefault:"true"`

	DBPath        string `env:"DB_PATH" envDefault:"./data/examenbot.db"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"./data/uploads"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	APIPort    string        `env:"API_PORT" envDefault:"9000"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from environment variables and returns a Config struct.
// If a .env file exists in the current directory or one of its parents, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// The embeddings API usually shares the LLM key.
	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = cfg.LLMAPIKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, dir := range cfg.dataDirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.AdminUsername == "" || c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required")
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("VECTOR_SIZE must be greater than 0")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("RAG_TOP_K must be greater than 0")
	}
	if c.DistanceThreshold <= 0 || c.DistanceThreshold > 2 {
		return fmt.Errorf("RAG_DISTANCE_THRESHOLD must be in (0, 2], got %v", c.DistanceThreshold)
	}
	if c.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("EMBEDDING_BATCH_SIZE must be greater than 0")
	}
	switch c.VectorBackend {
	case VectorBackendChromem, VectorBackendQdrant:
	default:
		return fmt.Errorf("VECTOR_BACKEND must be %q or %q, got %q", VectorBackendChromem, VectorBackendQdrant, c.VectorBackend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c *Config) dataDirs() []string {
	dirs := []string{filepath.Dir(c.DBPath), c.UploadDir}
	if c.VectorBackend == VectorBackendChromem {
		dirs = append(dirs, c.ChromemPath)
	}
	return dirs
}

// loadDotEnv loads .env from the working directory, or from the nearest parent that has one.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}
