package model

import "time"

// Config holds the complete lexcite configuration
type Config struct {
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Cluster      ClusterConfig     `yaml:"cluster" mapstructure:"cluster"`
	Verify       VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
}

// HTTPConfig controls outbound HTTP behavior
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls authority-response caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ClusterConfig holds the parallel-citation pairing thresholds. Both are
// tunable: the right values depend on the document corpus, so they are
// configuration rather than constants.
type ClusterConfig struct {
	// ProximityChars is the maximum distance, in bytes between citation
	// start offsets, at which two citations may be considered parallel.
	ProximityChars int `yaml:"proximity_chars" mapstructure:"proximity_chars"`

	// NameSimilarity is the minimum case-name similarity [0,1] for a
	// parallel pair when both sides have a resolved name.
	NameSimilarity float64 `yaml:"name_similarity" mapstructure:"name_similarity"`
}

// VerifyConfig controls external verification
type VerifyConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	StrategyTimeout time.Duration `yaml:"strategy_timeout" mapstructure:"strategy_timeout"`
	ClusterWorkers  int           `yaml:"cluster_workers" mapstructure:"cluster_workers"`
	Primary         SourceConfig  `yaml:"primary" mapstructure:"primary"`
	Fallback        SourceConfig  `yaml:"fallback" mapstructure:"fallback"`
}

// SourceConfig identifies one external authority
type SourceConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Name     string `yaml:"name" mapstructure:"name"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	APIToken string `yaml:"api_token" mapstructure:"api_token"`
}

// RateLimitConfig controls per-host throttling of authority requests
type RateLimitConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	MinHostDelay      time.Duration `yaml:"min_host_delay" mapstructure:"min_host_delay"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LLMConfig controls the optional report summarizer
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai", "ollama", "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Lexcite/0.1 (+https://github.com/pverenik/lexcite)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // resolved to ~/.lexcite/cache at startup
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Cluster: ClusterConfig{
			ProximityChars: 500,
			NameSimilarity: 0.60,
		},
		Verify: VerifyConfig{
			Enabled:         true,
			StrategyTimeout: 10 * time.Second,
			ClusterWorkers:  4,
			Primary: SourceConfig{
				Enabled: true,
				Name:    "courtlistener",
				BaseURL: "https://www.courtlistener.com/api/rest/v4",
			},
			Fallback: SourceConfig{
				Enabled: false,
				Name:    "caselaw",
			},
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
			MinHostDelay:      250 * time.Millisecond,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 1000,
		},
	}
}
