package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// SystemPrompt is prepended to every completion request. It is never stored in a transcript.
const SystemPrompt = `You are an AI expert in Indian medical-legal cases, assisting doctors to avoid legal troubles.
Provide detailed, in-depth guidance with references to Indian laws (e.g., Indian Medical Council Act, 1956; Consumer Protection Act, 2019; Clinical Establishments Act, 2010; NDPS Act, 1985; IT Act, 2000) and multiple relevant landmark judgments (e.g., Samira Kohli vs. Dr. Prabha Manchanda, 2008; Jacob Mathew vs. State of Punjab, 2005; V. Shantha vs. Indian Medical Association, 1995) to illustrate legal principles.
If a file is uploaded (e.g., consent form), analyze it thoroughly and check compliance with legal standards, citing specific clauses or cases.
Offer practical steps doctors can take and emphasize that this is not legal advice; doctors should consult professionals for specific cases.`

// Config holds application configuration
type Config struct {
	Addr  string `yaml:"addr"`
	Debug bool   `yaml:"debug"`

	// OpenAI-compatible endpoint
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	APIKey      string        `yaml:"-"` // only ever read from the environment

	// Storage locations
	SaveDir   string `yaml:"save_dir"` // where "Save Chat" writes transcripts
	LogDir    string `yaml:"log_dir"`  // slog output plus trace/metric exports
	AuditPath string `yaml:"audit_db"` // SQLite completion audit, empty disables it

	// Session store
	Store      string        `yaml:"store"` // memory or redis
	RedisAddr  string        `yaml:"redis_addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`

	// Per-client request budget on mutating routes
	RatePerMinute int `yaml:"rate_per_minute"`
	RateBurst     int `yaml:"rate_burst"`
}

// Default returns the configuration used when no file or flags override it.
func Default() Config {
	return Config{
		Addr:          ":8501",
		BaseURL:       DefaultBaseURL,
		Model:         DefaultModel,
		Temperature:   DefaultTemperature,
		MaxTokens:     DefaultMaxTokens,
		HTTPTimeout:   60 * time.Second,
		SaveDir:       ".",
		LogDir:        "logs",
		AuditPath:     "medlegalchat.db",
		Store:         StoreMemory,
		RedisAddr:     "localhost:6379",
		SessionTTL:    24 * time.Hour,
		RatePerMinute: 30,
		RateBurst:     5,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate reports every setting that cannot work.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis store requires redis_addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session store: %s", c.Store))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url must not be empty"))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature))
	}
	if c.SaveDir == "" {
		errs = append(errs, errors.New("save_dir must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
