// ABOUTME: Builds the memory system from configuration: store, embedder, reasoner and curator
// ABOUTME: Shared by the CLI commands, the MCP server and the benchmark
package app

import (
	"fmt"
	"log/slog"

	"github.com/harper/factmemory/internal/config"
	"github.com/harper/factmemory/internal/core"
	"github.com/harper/factmemory/internal/embedding"
	"github.com/harper/factmemory/internal/llm"
	"github.com/harper/factmemory/internal/logging"
	"github.com/harper/factmemory/internal/models"
	"github.com/harper/factmemory/internal/storage/sqlite"
	openai "github.com/sashabaranov/go-openai"
)

// InMemoryPath selects a throwaway in-memory database
const InMemoryPath = ":memory:"

// App holds the wired components. Close releases them.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Store       *sqlite.Storage
	Embedder    embedding.Embedder
	Coordinator *core.Coordinator
	Retriever   *core.Retriever
	Compressor  *core.Compressor
	Curator     *core.Curator
	Hydrator    *core.ContextHydrator

	closers []func()
}

// New wires every component described by cfg
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, func() { _ = store.Close() })

	emb, closeEmb, err := NewEmbedder(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Embedder = emb
	a.closers = append(a.closers, closeEmb)

	reasoner, err := NewReasoner(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Coordinator = core.NewCoordinator(reasoner, core.CoordinatorConfig{
		Timeout:       cfg.ServiceTimeout,
		ProbeInterval: cfg.ProbeInterval,
		Logger:        logger,
	})
	a.Retriever = core.NewRetriever(store, emb, core.RetrieverConfig{
		TopK:                cfg.TopK,
		MinScopedResults:    cfg.MinScopedResults,
		MinScopedSimilarity: cfg.MinScopedSimilarity,
		Alpha:               cfg.RefineAlpha,
		Logger:              logger,
	})
	a.Compressor = core.NewCompressor(store, emb, a.Coordinator, core.CompressorConfig{
		Threshold: cfg.CompressionThreshold,
		BatchSize: cfg.CompressionBatch,
		Category:  models.Category(cfg.CompressedCategory),
		Logger:    logger,
	})
	a.Curator = core.NewCurator(store, emb,
		core.NewFallbackExtractor(a.Coordinator, logger),
		a.Retriever, a.Compressor, a.Coordinator,
		core.CuratorConfig{
			DuplicateThreshold: cfg.DuplicateThreshold,
			AutoCompress:       cfg.AutoCompress,
			Logger:             logger,
		})
	a.Hydrator = core.NewContextHydrator(a.Curator, cfg.TopK)

	logging.Component(logger, "app").Debug("memory system ready",
		"db", store.Path(),
		"embedder", cfg.Embedder,
		"dimension", emb.Dimension(),
		"reasoner", a.Coordinator.Health().Service)
	return a, nil
}

// Close releases resources in reverse order of creation
func (a *App) Close() error {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	return nil
}

// OpenStore opens the database named by cfg.DBPath, the XDG default when empty
func OpenStore(cfg *config.Config) (*sqlite.Storage, error) {
	var (
		store *sqlite.Storage
		err   error
	)
	switch cfg.DBPath {
	case "":
		store, err = sqlite.NewStorage(cfg.VectorDimension)
	case InMemoryPath:
		store, err = sqlite.NewStorageInMemory(cfg.VectorDimension)
	default:
		store, err = sqlite.NewStorageWithPath(cfg.DBPath, cfg.VectorDimension)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open memory store: %w", err)
	}
	return store, nil
}

// NewEmbedder builds the configured embedder, wrapped in a cache when enabled.
// The returned func releases the cache.
func NewEmbedder(cfg *config.Config) (embedding.Embedder, func(), error) {
	var (
		base embedding.Embedder
		err  error
	)
	switch cfg.Embedder {
	case config.EmbedderOpenAI:
		client, clientErr := llm.NewOpenAIClientWithConfig(openAIConfig(cfg))
		if clientErr != nil {
			return nil, nil, fmt.Errorf("failed to create embedding client: %w", clientErr)
		}
		base, err = embedding.NewRemoteEmbedder(client, cfg.VectorDimension)
	default:
		base, err = embedding.NewHashEmbedder(cfg.VectorDimension)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	if cfg.EmbeddingCacheSize <= 0 {
		return base, func() {}, nil
	}
	cached, err := embedding.NewCachedEmbedder(base, int64(cfg.EmbeddingCacheSize))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return cached, cached.Close, nil
}

// NewReasoner builds the reasoning backend, or returns nil when none is configured
func NewReasoner(cfg *config.Config) (core.Reasoner, error) {
	switch cfg.ResolvedReasoner() {
	case config.ReasonerOpenAI:
		client, err := llm.NewOpenAIClientWithConfig(openAIConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI reasoner: %w", err)
		}
		return client, nil
	case config.ReasonerAnthropic:
		client, err := llm.NewAnthropicClient(&llm.AnthropicConfig{
			APIKey: cfg.AnthropicKey,
			Model:  cfg.AnthropicModel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Anthropic reasoner: %w", err)
		}
		return client, nil
	default:
		return nil, nil
	}
}

func openAIConfig(cfg *config.Config) *llm.ClientConfig {
	c := llm.DefaultConfig(cfg.OpenAIKey)
	c.BaseURL = cfg.OpenAIBaseURL
	c.ChatModel = cfg.ChatModel
	c.EmbeddingModel = openai.EmbeddingModel(cfg.EmbeddingModel)
	c.EmbeddingDimensions = cfg.VectorDimension
	c.MaxRetries = cfg.MaxRetries
	c.RetryDelay = cfg.RetryDelay
	return c
}
