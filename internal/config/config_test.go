package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemoryConfig_Defaults(t *testing.T) {
	cfg, err := ParseMemoryConfig()
	require.NoError(t, err)

	assert.Equal(t, MethodSimple, cfg.Method)
	assert.Equal(t, LayoutPrefix, cfg.KeyLayout)
	assert.Equal(t, 100, cfg.STMemoryLimit)
	assert.Equal(t, 0.7, cfg.ImportanceThreshold)
	assert.Equal(t, 100*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, []string{"happy", "sad", "angry", "excited", "worried"}, cfg.AffectiveKeywords)
	assert.Less(t, cfg.ShortTermDuration(), cfg.LongTermDuration())
}

func TestParseMemoryConfig_Env(t *testing.T) {
	t.Setenv("BRAIN_MEMORY_METHOD", "redis")
	t.Setenv("BRAIN_ST_MEMORY_LIMIT", "3")
	t.Setenv("BRAIN_MEMORY_TTL_SHORT_TERM", "60")
	t.Setenv("BRAIN_MEMORY_TTL_LONG_TERM", "120")

	cfg, err := ParseMemoryConfig()
	require.NoError(t, err)
	assert.Equal(t, MethodRedis, cfg.Method)
	assert.Equal(t, 3, cfg.STMemoryLimit)
	assert.Equal(t, time.Minute, cfg.ShortTermDuration())
}

func TestMemoryConfig_Validate(t *testing.T) {
	valid := func() MemoryConfig {
		return MemoryConfig{
			Method:              MethodSimple,
			KeyLayout:           LayoutPrefix,
			STMemoryLimit:       10,
			ImportanceThreshold: 0.7,
			ShortTermTTL:        60,
			LongTermTTL:         600,
			HistorySize:         10,
			RetrieveLimit:       5,
			StoreTimeout:        time.Second,
			EmbedTimeout:        time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *MemoryConfig)
		wantErr bool
	}{
		{"valid", func(c *MemoryConfig) {}, false},
		{"in-process method", func(c *MemoryConfig) { c.Method = MethodMemory }, false},
		{"unknown method", func(c *MemoryConfig) { c.Method = "mongo" }, true},
		{"unknown layout", func(c *MemoryConfig) { c.KeyLayout = "tree" }, true},
		{"zero limit", func(c *MemoryConfig) { c.STMemoryLimit = 0 }, true},
		{"threshold above one", func(c *MemoryConfig) { c.ImportanceThreshold = 1.2 }, true},
		{"short ttl not below long", func(c *MemoryConfig) { c.ShortTermTTL = 600 }, true},
		{"negative budget", func(c *MemoryConfig) { c.ContextTokenBudget = -1 }, true},
		{"zero store timeout", func(c *MemoryConfig) { c.StoreTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRedisConfig(t *testing.T) {
	c := RedisConfig{Host: "10.0.0.5", Port: 6380, ConnectAttempts: 5, ConnectBaseDelay: 2 * time.Second, ConnectTimeout: 5 * time.Second, HealthInterval: 30 * time.Second}
	require.NoError(t, c.Validate())
	assert.Equal(t, "10.0.0.5:6380", c.Addr())

	c.Port = 70000
	assert.Error(t, c.Validate())

	c.Port = 6380
	c.HealthInterval = 0
	assert.Error(t, c.Validate())
}

func TestPersonalityConfig_Validate(t *testing.T) {
	assert.NoError(t, PersonalityConfig{LowThreshold: 0.3, HighThreshold: 0.7}.Validate())
	assert.Error(t, PersonalityConfig{LowThreshold: 0.7, HighThreshold: 0.3}.Validate())
	assert.Error(t, PersonalityConfig{LowThreshold: -0.1, HighThreshold: 0.3}.Validate())
}

func TestEmbeddingConfig_Validate(t *testing.T) {
	c := EmbeddingConfig{Provider: EmbeddingProviderHash, Dims: 64, Workers: 2}
	assert.NoError(t, c.Validate())

	c.Provider = "word2vec"
	assert.Error(t, c.Validate())
}

func TestLLMConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfg         LLMConfig
		wantEnabled bool
		wantErr     bool
	}{
		{"default endpoint", LLMConfig{Analysis: true, BaseURL: "https://api.openai.com/v1", Model: "m", AnalysisTimeout: time.Second}, true, false},
		{"analysis switched off", LLMConfig{BaseURL: "http://localhost:8080/v1", Model: "m", AnalysisTimeout: time.Second}, false, false},
		{"no endpoint", LLMConfig{Analysis: true, Model: "m", AnalysisTimeout: time.Second}, false, false},
		{"no model", LLMConfig{Analysis: true, BaseURL: "x", AnalysisTimeout: time.Second}, true, true},
		{"no timeout", LLMConfig{Analysis: true, BaseURL: "x", Model: "m"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantEnabled, tt.cfg.Enabled())
			if tt.wantErr {
				assert.Error(t, tt.cfg.Validate())
			} else {
				assert.NoError(t, tt.cfg.Validate())
			}
		})
	}
}
