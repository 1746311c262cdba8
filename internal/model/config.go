package model

import "time"

// Config is the complete LoreCheck configuration
type Config struct {
	Index       IndexConfig       `yaml:"index" json:"index"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" json:"retrieval"`
	Thresholds  Thresholds        `yaml:"thresholds" json:"thresholds"`
	Engine      EngineConfig      `yaml:"engine" json:"engine"`
	Embedding   EmbeddingConfig   `yaml:"embedding" json:"embedding"`
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// IndexConfig controls novel chunking
type IndexConfig struct {
	ChunkSize int    `yaml:"chunk_size" json:"chunk_size"` // tokens per chunk
	Overlap   int    `yaml:"overlap" json:"overlap"`       // overlapping tokens between chunks
	StoreDir  string `yaml:"store_dir" json:"store_dir"`   // chunk store directory
}

// RetrievalConfig controls per-slice evidence selection
type RetrievalConfig struct {
	TopKEarly int `yaml:"top_k_early" json:"top_k_early"`
	TopKMid   int `yaml:"top_k_mid" json:"top_k_mid"`
	TopKLate  int `yaml:"top_k_late" json:"top_k_late"`
}

// TopKFor returns the per-slice candidate budget
func (r RetrievalConfig) TopKFor(slice TemporalSlice) int {
	switch slice {
	case SliceEarly:
		return r.TopKEarly
	case SliceLate:
		return r.TopKLate
	default:
		return r.TopKMid
	}
}

// Thresholds are the calibrated verdict synthesis constants. They are passed
// into the synthesizer explicitly so they can be recalibrated per corpus
// without code changes.
type Thresholds struct {
	// Contradiction: any contradiction confidence strictly above this yields
	// CONTRADICTED regardless of support.
	Contradiction float64 `yaml:"contradiction" json:"contradiction"`

	// StrongSupport: support confidence must strictly exceed this for
	// SUPPORTED.
	StrongSupport float64 `yaml:"strong_support" json:"strong_support"`

	// WeakContradiction: contradiction confidence must stay strictly below
	// this sensitivity floor for SUPPORTED. Support alone is never enough.
	WeakContradiction float64 `yaml:"weak_contradiction" json:"weak_contradiction"`
}

// DefaultThresholds returns the calibrated anti-bias thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		Contradiction:     0.6,
		StrongSupport:     0.5,
		WeakContradiction: 0.3,
	}
}

// EngineConfig configures the external reasoning engine
type EngineConfig struct {
	Provider   string  `yaml:"provider" json:"provider"` // openai, anthropic, ollama
	Model      string  `yaml:"model" json:"model"`
	APIKey     string  `yaml:"-" json:"-"`
	BaseURL    string  `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout    int     `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens  int     `yaml:"max_tokens" json:"max_tokens"`
	MaxRetries int     `yaml:"max_retries" json:"max_retries"`
	RateLimit  float64 `yaml:"rate_limit" json:"rate_limit"` // requests per second

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty" json:"no_proxy,omitempty"`
}

// EmbeddingConfig configures the embedding collaborator
type EmbeddingConfig struct {
	Model    string `yaml:"model" json:"model"`
	APIKey   string `yaml:"-" json:"-"`
	BaseURL  string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
	CacheTTL int    `yaml:"cache_ttl" json:"cache_ttl"` // hours
}

// HTTPConfig configures novel fetching over HTTP
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	ClaimWorkers int `yaml:"claim_workers" json:"claim_workers"`
}

// OutputConfig controls artifact rendering
type OutputConfig struct {
	DossierDir string `yaml:"dossier_dir" json:"dossier_dir"`
	ResultsCSV string `yaml:"results_csv" json:"results_csv"`

	// UndeterminedPrediction maps UNDETERMINED into the two-valued output
	// format {0,1}. The binary format has no third state, so this choice is
	// explicit configuration and is named in the rationale text.
	UndeterminedPrediction int  `yaml:"undetermined_prediction" json:"undetermined_prediction"`
	Verbose                bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			ChunkSize: 1400,
			Overlap:   300,
			StoreDir:  "chunks",
		},
		Retrieval: RetrievalConfig{
			TopKEarly: 2,
			TopKMid:   3,
			TopKLate:  2,
		},
		Thresholds: DefaultThresholds(),
		Engine: EngineConfig{
			Provider:   "openai",
			Timeout:    60,
			MaxTokens:  1024,
			MaxRetries: 5,
			RateLimit:  1.0,
		},
		Embedding: EmbeddingConfig{
			Model:    "text-embedding-3-small",
			CacheDir: "",
			CacheTTL: 24,
		},
		HTTP: HTTPConfig{
			Timeout:      2 * time.Minute,
			UserAgent:    "LoreCheck/0.1 (+https://github.com/veracity-tools/lorecheck)",
			MaxBodyBytes: 8_000_000,
		},
		Concurrency: ConcurrencyConfig{
			ClaimWorkers: 4,
		},
		Output: OutputConfig{
			DossierDir:             "dossiers",
			ResultsCSV:             "results.csv",
			UndeterminedPrediction: 0,
		},
	}
}
