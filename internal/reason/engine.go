package reason

import (
	"context"
	"fmt"
	"strings"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// Engine is the external reasoning engine collaborator. It answers a
// natural-language prompt with structured output that may be malformed or
// time out; it is never assumed synchronous or instant.
type Engine interface {
	// Name returns the engine name
	Name() string

	// Evaluate sends one prompt and returns the raw response text
	Evaluate(ctx context.Context, prompt string) (string, error)

	// IsAvailable checks if the engine is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Config holds reasoning engine configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts model.EngineConfig to reason.Config
func ConfigFromModel(cfg model.EngineConfig) Config {
	return Config{
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		MaxTokens:  cfg.MaxTokens,
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
		NoProxy:    cfg.NoProxy,
	}
}

// NewEngine creates a reasoning engine based on configuration
func NewEngine(config Config) (Engine, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIEngine(config)

	case "anthropic", "claude":
		return NewAnthropicEngine(config)

	case "ollama":
		return NewOllamaEngine(config)

	default:
		return nil, fmt.Errorf("unknown reasoning engine: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// systemPrompt constrains every engine call to structured output
const systemPrompt = "You output valid JSON only. No markdown, no commentary."
