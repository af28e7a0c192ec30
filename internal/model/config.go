package model

import (
	"fmt"
	"time"
)

// Config is the complete Wellspring configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Generation   GenerationConfig   `yaml:"generation" mapstructure:"generation"`
	Dedup        DedupConfig        `yaml:"dedup" mapstructure:"dedup"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Auth         AuthConfig         `yaml:"auth" mapstructure:"auth"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// LLMConfig configures the generator and judge provider
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"`       // openai, anthropic, ollama
	Model      string `yaml:"model" mapstructure:"model"`             // generation model
	JudgeModel string `yaml:"judge_model" mapstructure:"judge_model"` // defaults to Model
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds per request
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RateLimitingConfig bounds calls to the LLM provider
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// GenerationConfig tunes the quota loop and the multi-category fan-out
type GenerationConfig struct {
	MaxAttempts        int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Buffer             int           `yaml:"buffer" mapstructure:"buffer"`
	SaturationLimit    int           `yaml:"saturation_limit" mapstructure:"saturation_limit"`
	Overflow           int           `yaml:"overflow" mapstructure:"overflow"`
	BaseTemperature    float64       `yaml:"base_temperature" mapstructure:"base_temperature"`
	TemperatureStep    float64       `yaml:"temperature_step" mapstructure:"temperature_step"`
	MaxTemperature     float64       `yaml:"max_temperature" mapstructure:"max_temperature"`
	ExclusionLimit     int           `yaml:"exclusion_limit" mapstructure:"exclusion_limit"`
	MaxCount           int           `yaml:"max_count" mapstructure:"max_count"`
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout"`
	DefaultTranslation string        `yaml:"default_translation" mapstructure:"default_translation"`
}

// DedupConfig tunes the duplicate detector
type DedupConfig struct {
	SoftThreshold float64 `yaml:"soft_threshold" mapstructure:"soft_threshold"`
	JudgeEnabled  bool    `yaml:"judge_enabled" mapstructure:"judge_enabled"`
	JudgeMaxPrior int     `yaml:"judge_max_prior" mapstructure:"judge_max_prior"`
	JudgePolicy   string  `yaml:"judge_policy" mapstructure:"judge_policy"` // fail_open, fail_closed
}

// CacheConfig configures the judge verdict cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir,omitempty" mapstructure:"dir"` // empty disables the disk layer
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StoreConfig configures the SQLite content store
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AuthConfig lists roles allowed to trigger generation
type AuthConfig struct {
	AllowedRoles []string `yaml:"allowed_roles" mapstructure:"allowed_roles"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Mode  string `yaml:"mode" mapstructure:"mode"`   // dev, prod
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

const (
	JudgePolicyFailOpen   = "fail_open"
	JudgePolicyFailClosed = "fail_closed"
)

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   60,
			MaxTokens: 2000,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Generation: GenerationConfig{
			MaxAttempts:        5,
			Buffer:             5,
			SaturationLimit:    15,
			Overflow:           3,
			BaseTemperature:    0.8,
			TemperatureStep:    0.1,
			MaxTemperature:     1.2,
			ExclusionLimit:     40,
			MaxCount:           100,
			Timeout:            3 * time.Minute,
			DefaultTranslation: "NIV",
		},
		Dedup: DedupConfig{
			SoftThreshold: 0.6,
			JudgeEnabled:  true,
			JudgeMaxPrior: 25,
			JudgePolicy:   JudgePolicyFailOpen,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "~/.wellspring/cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Path: "~/.wellspring/wellspring.db",
		},
		Auth: AuthConfig{
			AllowedRoles: []string{"admin", "editor"},
		},
		Log: LogConfig{
			Mode:  "dev",
			Level: "info",
		},
	}
}

// Validate rejects settings that would otherwise be silently misread
func (c *Config) Validate() error {
	switch c.Dedup.JudgePolicy {
	case JudgePolicyFailOpen, JudgePolicyFailClosed:
	default:
		return fmt.Errorf("%w: dedup.judge_policy must be %q or %q, got %q",
			ErrConfig, JudgePolicyFailOpen, JudgePolicyFailClosed, c.Dedup.JudgePolicy)
	}
	if c.Dedup.JudgeMaxPrior < 0 {
		return fmt.Errorf("%w: dedup.judge_max_prior must not be negative, got %d", ErrConfig, c.Dedup.JudgeMaxPrior)
	}
	return nil
}
