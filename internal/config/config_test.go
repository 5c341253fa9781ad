package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))

	assert.False(t, cfg.Remote.Configured())
	assert.False(t, cfg.Auth.Configured())
	assert.Equal(t, 5, cfg.Ranking.PostLimit)
	assert.Equal(t, 3, cfg.Ranking.CommentLimit)
	assert.Equal(t, 30, cfg.Auth.PollLimit)
	assert.Equal(t, 2*time.Second, cfg.Auth.PollInterval)
	assert.Equal(t, 10, cfg.Collector.History)
}

func TestLoadReadsLegacyEnvironment(t *testing.T) {
	t.Setenv("BROWSERLESS_PUBLIC_DOMAIN", "chrome.example.net")
	t.Setenv("BROWSERLESS_TOKEN", "tok")
	t.Setenv("NAVER_ID", "someone")
	t.Setenv("NAVER_PASSWORD", "secret")
	t.Setenv("CAFE_ID", "123")
	t.Setenv("PORT", "9000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "chrome.example.net", cfg.Remote.Domain)
	assert.Equal(t, "tok", cfg.Remote.Token)
	assert.True(t, cfg.Auth.Configured())
	assert.Equal(t, "123", cfg.Portal.CafeID)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadPrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("NAVER_ID", "legacy")
	t.Setenv("CAFEPULSE_AUTH_USERNAME", "prefixed")
	t.Setenv("CAFEPULSE_DISABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Auth.Username)
	assert.True(t, cfg.Disabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cafepulse.yaml")
	content := `
portal:
  cafe_id: "999"
collector:
  interval: 90m
ranking:
  blocked_names: ["운영자", "관리자"]
  selector_type: xpath
  payload_selector: //pre
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "999", cfg.Portal.CafeID)
	assert.Equal(t, 90*time.Minute, cfg.Collector.Interval)
	assert.Equal(t, []string{"운영자", "관리자"}, cfg.Ranking.BlockedNames)
	assert.Equal(t, "xpath", cfg.Ranking.SelectorType)
	require.NoError(t, Validate(cfg))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty cafe", func(c *Config) { c.Portal.CafeID = "" }},
		{"remote with scheme", func(c *Config) { c.Remote.Domain = "wss://host" }},
		{"bad selector type", func(c *Config) { c.Ranking.SelectorType = "regex" }},
		{"zero poll interval", func(c *Config) { c.Auth.PollInterval = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"zero history", func(c *Config) { c.Collector.History = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
