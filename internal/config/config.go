package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main sheetpilot configuration
type Config struct {
	// HTTP server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Session storage
	Sessions SessionsConfig `json:"sessions" mapstructure:"sessions"`

	// Model catalog and selection
	Models ModelsConfig `json:"models" mapstructure:"models"`

	// Inference providers
	AI AIConfig `json:"ai" mapstructure:"ai"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	Timeout            int    `json:"timeout" mapstructure:"timeout"` // seconds
}

// SessionsConfig holds session storage configuration
type SessionsConfig struct {
	Driver    string          `json:"driver" mapstructure:"driver"` // file, redis
	Dir       string          `json:"dir" mapstructure:"dir"`
	Redis     RedisConfig     `json:"redis" mapstructure:"redis"`
	Retention RetentionConfig `json:"retention" mapstructure:"retention"`
}

// RedisConfig holds Redis driver settings
type RedisConfig struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
	TTLHours int    `json:"ttl_hours" mapstructure:"ttl_hours"`
}

// RetentionConfig holds session retention sweeper settings
type RetentionConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Schedule string `json:"schedule" mapstructure:"schedule"` // cron expression
	MaxAge   int    `json:"max_age" mapstructure:"max_age"`   // days
}

// ModelsConfig holds model selection configuration
type ModelsConfig struct {
	Default     string            `json:"default" mapstructure:"default"`
	Aliases     map[string]string `json:"aliases" mapstructure:"aliases"`
	Fallback    []string          `json:"fallback" mapstructure:"fallback"`
	CatalogPath string            `json:"catalog_path" mapstructure:"catalog_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// AIConfig holds inference provider configuration
type AIConfig struct {
	// Provider selects the inference backend. "stub" answers with a
	// canned response and needs no credentials.
	Provider string      `json:"provider" mapstructure:"provider"`
	Profiles []AIProfile `json:"profiles" mapstructure:"profiles"`
}

// AIProfile represents an inference provider credential profile
type AIProfile struct {
	ID       string `json:"id" mapstructure:"id"`
	Provider string `json:"provider" mapstructure:"provider"` // anthropic, openai
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	Priority int    `json:"priority" mapstructure:"priority"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			RateLimitPerMinute: 100,
			Timeout:            30,
		},
		Sessions: SessionsConfig{
			Driver: "file",
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				TTLHours: 24,
			},
			Retention: RetentionConfig{
				Enabled:  false,
				Schedule: "0 3 * * *",
				MaxAge:   30,
			},
		},
		Models: ModelsConfig{
			Default: "phi-3.5-mini",
			Aliases: map[string]string{
				"phi":   "phi-3.5-mini",
				"small": "phi-3.5-mini",
				"coder": "qwen2.5-coder-7b",
			},
			Fallback: []string{"phi-3.5-mini"},
		},
		AI: AIConfig{
			Provider: "stub",
			Profiles: []AIProfile{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
		DataDir: "",
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate limit per minute cannot be negative")
	}

	if c.Sessions.Driver != "file" && c.Sessions.Driver != "redis" {
		return fmt.Errorf("invalid session driver: %s (must be: file, redis)", c.Sessions.Driver)
	}
	if c.Sessions.Driver == "redis" && c.Sessions.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when session driver is redis")
	}
	if c.Sessions.Retention.Enabled && c.Sessions.Retention.MaxAge <= 0 {
		return fmt.Errorf("retention max_age must be positive when retention is enabled")
	}

	if c.Models.Default == "" {
		return fmt.Errorf("default model is required")
	}

	switch c.AI.Provider {
	case "stub":
		// No credentials required.
	case "anthropic", "openai":
		if c.profileFor(c.AI.Provider) == nil {
			return fmt.Errorf("AI provider %s requires a matching profile with an api_key", c.AI.Provider)
		}
	default:
		return fmt.Errorf("invalid AI provider: %s (must be: stub, anthropic, openai)", c.AI.Provider)
	}

	for i, profile := range c.AI.Profiles {
		if profile.ID == "" {
			return fmt.Errorf("AI profile %d: ID is required", i)
		}
		if profile.Provider != "anthropic" && profile.Provider != "openai" {
			return fmt.Errorf("AI profile %s: invalid provider %s (must be: anthropic, openai)", profile.ID, profile.Provider)
		}
		if profile.APIKey == "" {
			return fmt.Errorf("AI profile %s: api_key is required", profile.ID)
		}
	}

	return nil
}

// ProfileFor returns the highest-priority profile for the given provider,
// or nil if none is configured.
func (c *Config) ProfileFor(provider string) *AIProfile {
	return c.profileFor(provider)
}

func (c *Config) profileFor(provider string) *AIProfile {
	var best *AIProfile
	for i := range c.AI.Profiles {
		p := &c.AI.Profiles[i]
		if p.Provider != provider || p.APIKey == "" {
			continue
		}
		if best == nil || p.Priority > best.Priority {
			best = p
		}
	}
	return best
}
