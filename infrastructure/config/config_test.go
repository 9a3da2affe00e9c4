package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendGitHub, cfg.CommentsBackend)
	assert.Equal(t, BackendJSONBin, cfg.RoadmapBackend)
	assert.Equal(t, "comment", cfg.GitHubLabel)
	assert.Equal(t, "695405f2d0ea881f4049efd1", cfg.JSONBinBinID)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.RedisURL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_FileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: staging
roadmap_backend: dynamodb
table_name: from-file
github_label: feedback
http_timeout: 3s
cors_origins:
  - https://planner.example.com
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TABLE_NAME", "from-env")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("BREAKER_OPEN_TIMEOUT", "1500")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, BackendDynamoDB, cfg.RoadmapBackend)
	assert.Equal(t, "from-env", cfg.TableName)
	assert.Equal(t, "feedback", cfg.GitHubLabel)
	assert.Equal(t, "ghp_test", cfg.GitHubToken)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.BreakerOpenTimeout)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, []string{"https://planner.example.com"}, cfg.CORSOrigins)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown comments backend", func(c *Config) { c.CommentsBackend = "gitlab" }, true},
		{"unknown roadmap backend", func(c *Config) { c.RoadmapBackend = "s3" }, true},
		{"github without repo", func(c *Config) { c.GitHubRepo = "" }, true},
		{"memory without repo", func(c *Config) { c.CommentsBackend = BackendMemory; c.GitHubRepo = "" }, false},
		{"dynamodb without table", func(c *Config) { c.RoadmapBackend = BackendDynamoDB; c.TableName = "" }, true},
		{"negative breaker threshold", func(c *Config) { c.BreakerMaxFailures = -1 }, true},
		{"negative rate limit", func(c *Config) { c.WriteRateLimit = -1 }, true},
		{"production without bus", func(c *Config) { c.Environment = "production"; c.EventBusName = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(" , "))
}
