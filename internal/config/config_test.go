package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Sessions.Driver)
	assert.Equal(t, "phi-3.5-mini", cfg.Models.Default)
	assert.Equal(t, "stub", cfg.AI.Provider)
	assert.False(t, cfg.Sessions.Retention.Enabled)
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		shouldErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"negative rate limit", func(c *Config) { c.Server.RateLimitPerMinute = -1 }, true},
		{"unknown session driver", func(c *Config) { c.Sessions.Driver = "sqlite" }, true},
		{"redis driver without addr", func(c *Config) {
			c.Sessions.Driver = "redis"
			c.Sessions.Redis.Addr = ""
		}, true},
		{"redis driver with addr", func(c *Config) {
			c.Sessions.Driver = "redis"
			c.Sessions.Redis.Addr = "localhost:6379"
		}, false},
		{"retention enabled without max age", func(c *Config) {
			c.Sessions.Retention.Enabled = true
			c.Sessions.Retention.MaxAge = 0
		}, true},
		{"empty default model", func(c *Config) { c.Models.Default = "" }, true},
		{"unknown AI provider", func(c *Config) { c.AI.Provider = "gemini" }, true},
		{"anthropic without profile", func(c *Config) { c.AI.Provider = "anthropic" }, true},
		{"anthropic with profile", func(c *Config) {
			c.AI.Provider = "anthropic"
			c.AI.Profiles = []AIProfile{{ID: "p1", Provider: "anthropic", APIKey: "sk-test"}}
		}, false},
		{"profile missing id", func(c *Config) {
			c.AI.Profiles = []AIProfile{{Provider: "openai", APIKey: "sk-test"}}
		}, true},
		{"profile missing api key", func(c *Config) {
			c.AI.Profiles = []AIProfile{{ID: "p1", Provider: "openai"}}
		}, true},
		{"profile invalid provider", func(c *Config) {
			c.AI.Profiles = []AIProfile{{ID: "p1", Provider: "cohere", APIKey: "x"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProfileForPicksHighestPriority(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.Profiles = []AIProfile{
		{ID: "low", Provider: "openai", APIKey: "k1", Priority: 1},
		{ID: "high", Provider: "openai", APIKey: "k2", Priority: 5},
		{ID: "other", Provider: "anthropic", APIKey: "k3", Priority: 9},
	}

	p := cfg.ProfileFor("openai")
	assert.NotNil(t, p)
	assert.Equal(t, "high", p.ID)

	assert.Nil(t, cfg.ProfileFor("gemini"))
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()
	assert.Contains(t, s, `"server"`)
	assert.Contains(t, s, `"phi-3.5-mini"`)
}
