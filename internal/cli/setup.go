package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/veracity-tools/lorecheck/internal/cache"
	"github.com/veracity-tools/lorecheck/internal/index"
	"github.com/veracity-tools/lorecheck/internal/model"
)

// loadConfig builds the effective configuration: defaults, then config
// file and environment overrides, then API keys from the environment.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if v := viper.GetString("index.store_dir"); v != "" {
		cfg.Index.StoreDir = v
	}
	if viper.IsSet("index.chunk_size") {
		cfg.Index.ChunkSize = viper.GetInt("index.chunk_size")
	}
	if viper.IsSet("index.overlap") {
		cfg.Index.Overlap = viper.GetInt("index.overlap")
	}
	if viper.IsSet("retrieval.top_k_early") {
		cfg.Retrieval.TopKEarly = viper.GetInt("retrieval.top_k_early")
	}
	if viper.IsSet("retrieval.top_k_mid") {
		cfg.Retrieval.TopKMid = viper.GetInt("retrieval.top_k_mid")
	}
	if viper.IsSet("retrieval.top_k_late") {
		cfg.Retrieval.TopKLate = viper.GetInt("retrieval.top_k_late")
	}
	if viper.IsSet("thresholds.contradiction") {
		cfg.Thresholds.Contradiction = viper.GetFloat64("thresholds.contradiction")
	}
	if viper.IsSet("thresholds.strong_support") {
		cfg.Thresholds.StrongSupport = viper.GetFloat64("thresholds.strong_support")
	}
	if viper.IsSet("thresholds.weak_contradiction") {
		cfg.Thresholds.WeakContradiction = viper.GetFloat64("thresholds.weak_contradiction")
	}
	if v := viper.GetString("engine.provider"); v != "" {
		cfg.Engine.Provider = v
	}
	if v := viper.GetString("engine.model"); v != "" {
		cfg.Engine.Model = v
	}
	if v := viper.GetString("engine.base_url"); v != "" {
		cfg.Engine.BaseURL = v
	}
	if viper.IsSet("engine.rate_limit") {
		cfg.Engine.RateLimit = viper.GetFloat64("engine.rate_limit")
	}
	if viper.IsSet("engine.max_retries") {
		cfg.Engine.MaxRetries = viper.GetInt("engine.max_retries")
	}
	if v := viper.GetString("embedding.model"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := viper.GetString("embedding.cache_dir"); v != "" {
		cfg.Embedding.CacheDir = v
	}
	if viper.IsSet("concurrency.claim_workers") {
		cfg.Concurrency.ClaimWorkers = viper.GetInt("concurrency.claim_workers")
	}
	if viper.IsSet("output.undetermined_prediction") {
		cfg.Output.UndeterminedPrediction = viper.GetInt("output.undetermined_prediction")
	}
	cfg.Output.Verbose = verbose

	if err := resolveAPIKeys(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveAPIKeys pulls provider credentials from the environment
func resolveAPIKeys(cfg *model.Config) error {
	switch cfg.Engine.Provider {
	case "openai":
		cfg.Engine.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Engine.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.Engine.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.Engine.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Engine.BaseURL = baseURL
		}
	}

	// Embeddings always go through the OpenAI API
	cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.Embedding.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set (required for embeddings)")
	}
	return nil
}

// newLogger builds a stderr logger; verbose enables debug output
func newLogger() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

// newEmbedder wires the OpenAI embedder behind the embedding cache
func newEmbedder(cfg *model.Config) (index.Embedder, error) {
	inner, err := index.NewOpenAIEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	ttl := time.Duration(cfg.Embedding.CacheTTL) * time.Hour
	var c cache.Cache
	if cfg.Embedding.CacheDir != "" {
		c = cache.NewLayeredCache(ttl, cfg.Embedding.CacheDir, ttl)
	} else {
		c = cache.NewMemoryCache(ttl, 10*time.Minute)
	}
	return index.NewCachedEmbedder(inner, c, cfg.Embedding.Model, ttl), nil
}

// openIndex loads the chunk store and embeds it into a searchable index
func openIndex(ctx context.Context, cfg *model.Config, embedder index.Embedder, logger *zap.Logger) (*index.Index, error) {
	chunks, err := index.LoadChunks(cfg.Index.StoreDir)
	if err != nil {
		return nil, fmt.Errorf("load chunk store %q: %w (run 'lorecheck index' first)", cfg.Index.StoreDir, err)
	}

	logger.Info("building vector index",
		zap.Int("chunks", len(chunks)),
		zap.String("store", cfg.Index.StoreDir))

	ix, err := index.Build(ctx, embedder, chunks)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return ix, nil
}
