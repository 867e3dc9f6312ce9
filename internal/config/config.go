// ABOUTME: Centralized configuration for the fact memory system
// ABOUTME: Defaults, then an optional YAML file, then environment variables, then validation
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/harper/factmemory/internal/models"
	"gopkg.in/yaml.v3"
)

// Reasoner backends
const (
	ReasonerAuto      = "auto"
	ReasonerOpenAI    = "openai"
	ReasonerAnthropic = "anthropic"
	ReasonerNone      = "none"
)

// Embedder backends
const (
	EmbedderHash   = "hash"
	EmbedderOpenAI = "openai"
)

// Config holds all configuration for the memory system
type Config struct {
	// Storage
	DBPath string `yaml:"db_path"`

	// Reasoning service
	Reasoner       string        `yaml:"reasoner"`
	OpenAIKey      string        `yaml:"-"`
	OpenAIBaseURL  string        `yaml:"openai_base_url"`
	AnthropicKey   string        `yaml:"-"`
	ChatModel      string        `yaml:"openai_model"`
	AnthropicModel string        `yaml:"anthropic_model"`
	ServiceTimeout time.Duration `yaml:"service_timeout"`
	ProbeInterval  time.Duration `yaml:"probe_interval"`

	// Embeddings
	Embedder           string        `yaml:"embedder"`
	EmbeddingModel     string        `yaml:"embedding_model"`
	VectorDimension    int           `yaml:"vector_dimension"`
	EmbeddingCacheSize int           `yaml:"embedding_cache"`
	MaxRetries         int           `yaml:"max_retries"`
	RetryDelay         time.Duration `yaml:"retry_delay"`

	// Retrieval
	TopK                int     `yaml:"top_k"`
	MinScopedResults    int     `yaml:"min_scoped_results"`
	MinScopedSimilarity float64 `yaml:"min_scoped_similarity"`
	RefineAlpha         float64 `yaml:"refine_alpha"`

	// Writing and compression
	DuplicateThreshold   float64 `yaml:"duplicate_threshold"`
	CompressionThreshold int     `yaml:"compression_threshold"`
	CompressionBatch     int     `yaml:"compression_batch"`
	CompressedCategory   string  `yaml:"compressed_category"`
	AutoCompress         bool    `yaml:"auto_compress"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Reasoner:             ReasonerAuto,
		ChatModel:            "gpt-4o-mini",
		AnthropicModel:       "claude-3-5-haiku-latest",
		ServiceTimeout:       20 * time.Second,
		ProbeInterval:        30 * time.Second,
		Embedder:             EmbedderHash,
		EmbeddingModel:       "text-embedding-3-small",
		VectorDimension:      384,
		EmbeddingCacheSize:   4096,
		MaxRetries:           3,
		RetryDelay:           2 * time.Second,
		TopK:                 5,
		MinScopedResults:     3,
		MinScopedSimilarity:  0.2,
		RefineAlpha:          0.1,
		DuplicateThreshold:   0.92,
		CompressionThreshold: 50,
		CompressionBatch:     25,
		CompressedCategory:   string(models.CategoryMisc),
		AutoCompress:         true,
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// Load reads configuration from the file named by MEMORY_CONFIG (if any) and the environment
func Load() (*Config, error) {
	return LoadFile(os.Getenv("MEMORY_CONFIG"))
}

// LoadFile reads configuration from a YAML file, then applies environment overrides.
// An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.DBPath = getEnv("MEMORY_DB_PATH", c.DBPath)
	c.Reasoner = strings.ToLower(getEnv("MEMORY_REASONER", c.Reasoner))
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.AnthropicKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicKey)
	c.ChatModel = getEnv("MEMORY_OPENAI_MODEL", c.ChatModel)
	c.AnthropicModel = getEnv("MEMORY_ANTHROPIC_MODEL", c.AnthropicModel)
	c.ServiceTimeout = getEnvDuration("MEMORY_SERVICE_TIMEOUT", c.ServiceTimeout)
	c.ProbeInterval = getEnvDuration("MEMORY_PROBE_INTERVAL", c.ProbeInterval)
	c.Embedder = strings.ToLower(getEnv("MEMORY_EMBEDDER", c.Embedder))
	c.EmbeddingModel = getEnv("MEMORY_EMBEDDING_MODEL", c.EmbeddingModel)
	c.VectorDimension = getEnvInt("VECTOR_DIMENSION", c.VectorDimension)
	c.EmbeddingCacheSize = getEnvInt("MEMORY_EMBEDDING_CACHE", c.EmbeddingCacheSize)
	c.MaxRetries = getEnvInt("OPENAI_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("OPENAI_RETRY_DELAY", c.RetryDelay)
	c.TopK = getEnvInt("MEMORY_TOP_K", c.TopK)
	c.MinScopedResults = getEnvInt("MEMORY_MIN_SCOPED_RESULTS", c.MinScopedResults)
	c.MinScopedSimilarity = getEnvFloat("MEMORY_MIN_SCOPED_SIMILARITY", c.MinScopedSimilarity)
	c.RefineAlpha = getEnvFloat("MEMORY_REFINE_ALPHA", c.RefineAlpha)
	c.DuplicateThreshold = getEnvFloat("MEMORY_DUPLICATE_THRESHOLD", c.DuplicateThreshold)
	c.CompressionThreshold = getEnvInt("MEMORY_COMPRESSION_THRESHOLD", c.CompressionThreshold)
	c.CompressionBatch = getEnvInt("MEMORY_COMPRESSION_BATCH", c.CompressionBatch)
	c.CompressedCategory = strings.ToLower(getEnv("MEMORY_COMPRESSED_CATEGORY", c.CompressedCategory))
	c.AutoCompress = getEnvBool("MEMORY_AUTO_COMPRESS", c.AutoCompress)
	c.LogLevel = strings.ToLower(getEnv("MEMORY_LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(getEnv("MEMORY_LOG_FORMAT", c.LogFormat))
}

// Validate range-checks every setting
func (c *Config) Validate() error {
	switch c.Reasoner {
	case ReasonerAuto, ReasonerNone:
	case ReasonerOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("MEMORY_REASONER=openai requires OPENAI_API_KEY")
		}
	case ReasonerAnthropic:
		if c.AnthropicKey == "" {
			return fmt.Errorf("MEMORY_REASONER=anthropic requires ANTHROPIC_API_KEY")
		}
	default:
		return fmt.Errorf("MEMORY_REASONER must be auto, openai, anthropic or none, got %q", c.Reasoner)
	}

	switch c.Embedder {
	case EmbedderHash:
	case EmbedderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("MEMORY_EMBEDDER=openai requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("MEMORY_EMBEDDER must be hash or openai, got %q", c.Embedder)
	}

	if c.VectorDimension <= 0 {
		return fmt.Errorf("VECTOR_DIMENSION must be positive, got %d", c.VectorDimension)
	}
	if c.EmbeddingCacheSize < 0 {
		return fmt.Errorf("MEMORY_EMBEDDING_CACHE must be >= 0, got %d", c.EmbeddingCacheSize)
	}
	if c.ServiceTimeout <= 0 {
		return fmt.Errorf("MEMORY_SERVICE_TIMEOUT must be positive, got %v", c.ServiceTimeout)
	}
	if c.ProbeInterval < 0 {
		return fmt.Errorf("MEMORY_PROBE_INTERVAL must be >= 0, got %v", c.ProbeInterval)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.TopK < 1 {
		return fmt.Errorf("MEMORY_TOP_K must be >= 1, got %d", c.TopK)
	}
	if c.MinScopedResults < 0 {
		return fmt.Errorf("MEMORY_MIN_SCOPED_RESULTS must be >= 0, got %d", c.MinScopedResults)
	}
	if c.MinScopedSimilarity < -1 || c.MinScopedSimilarity > 1 {
		return fmt.Errorf("MEMORY_MIN_SCOPED_SIMILARITY must be -1 to 1, got %f", c.MinScopedSimilarity)
	}
	if c.RefineAlpha < 0 || c.RefineAlpha > 1 {
		return fmt.Errorf("MEMORY_REFINE_ALPHA must be 0-1, got %f", c.RefineAlpha)
	}
	if c.DuplicateThreshold <= 0 || c.DuplicateThreshold > 1 {
		return fmt.Errorf("MEMORY_DUPLICATE_THRESHOLD must be in (0, 1], got %f", c.DuplicateThreshold)
	}
	if c.CompressionThreshold < 1 {
		return fmt.Errorf("MEMORY_COMPRESSION_THRESHOLD must be >= 1, got %d", c.CompressionThreshold)
	}
	if c.CompressionBatch < 2 {
		return fmt.Errorf("MEMORY_COMPRESSION_BATCH must be >= 2, got %d", c.CompressionBatch)
	}
	if _, err := models.ParseCategory(c.CompressedCategory); err != nil {
		return fmt.Errorf("MEMORY_COMPRESSED_CATEGORY: %w", err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("MEMORY_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("MEMORY_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ResolvedReasoner turns auto into a concrete backend based on which keys are present
func (c *Config) ResolvedReasoner() string {
	if c.Reasoner != ReasonerAuto {
		return c.Reasoner
	}
	switch {
	case c.OpenAIKey != "":
		return ReasonerOpenAI
	case c.AnthropicKey != "":
		return ReasonerAnthropic
	default:
		return ReasonerNone
	}
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
