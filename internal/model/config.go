package model

import "time"

// Config is the complete ProofPilot configuration
type Config struct {
	Oracle       OracleConfig       `yaml:"oracle" mapstructure:"oracle"`
	Session      SessionConfig      `yaml:"session" mapstructure:"session"`
	Credibility  CredibilityConfig  `yaml:"credibility" mapstructure:"credibility"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// OracleConfig selects and configures the verification oracle
type OracleConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama, offline
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SessionConfig bounds per-session oracle usage and replay detection
type SessionConfig struct {
	MaxOracleCalls int           `yaml:"max_oracle_calls" mapstructure:"max_oracle_calls"`
	ReplayWindow   time.Duration `yaml:"replay_window" mapstructure:"replay_window"`
	ReplayHistory  int           `yaml:"replay_history" mapstructure:"replay_history"` // History size that triggers an expiry sweep
}

// CredibilityConfig holds the domain classification tables
type CredibilityConfig struct {
	HighDomains []string `yaml:"high_domains" mapstructure:"high_domains"`
	LowDomains  []string `yaml:"low_domains" mapstructure:"low_domains"`
}

// ConcurrencyConfig controls the per-claim worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles oracle calls
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig controls caching of raw oracle verifications
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HTTPConfig controls fetching of URL inputs
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultHighCredibilityDomains are outlets and institutions rated 0.95
var DefaultHighCredibilityDomains = []string{
	"reuters.com", "apnews.com", "bbc.com", "nytimes.com", "wsj.com",
	"bloomberg.com", "nature.com", "science.org", "thelancet.com",
	"who.int", "un.org", "nasa.gov", "nih.gov", "cdc.gov",
	"britannica.com", "wikipedia.org",
}

// DefaultLowCredibilityDomains are social and user-generated content hosts rated 0.3
var DefaultLowCredibilityDomains = []string{
	"twitter.com", "x.com", "facebook.com", "reddit.com", "medium.com",
	"blogspot.com", "wordpress.com", "youtube.com", "quora.com", "tiktok.com",
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Oracle: OracleConfig{
			Provider:  "offline",
			Model:     "gpt-4o-mini",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Session: SessionConfig{
			MaxOracleCalls: 15,
			ReplayWindow:   5 * time.Minute,
			ReplayHistory:  1024,
		},
		Credibility: CredibilityConfig{
			HighDomains: append([]string(nil), DefaultHighCredibilityDomains...),
			LowDomains:  append([]string(nil), DefaultLowCredibilityDomains...),
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			Dir:       ".proofpilot-cache",
			DiskTTL:   24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "ProofPilot/0.3 (+https://github.com/ppiankov/proofpilot)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
