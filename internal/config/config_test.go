package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  address: ":9090"
mysql:
  host: "db.internal"
  port: 3307
  database: "resume_agent"
llm:
  api_key: "file_key"
  model: "qwen-max"
scraper:
  timeout_seconds: 120
  cache_ttl_hours: 6
jwt:
  secret: "s3cret"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "db.internal", cfg.MySQL.Host)
	assert.Equal(t, 3307, cfg.MySQL.Port)
	assert.Equal(t, "qwen-max", cfg.LLM.Model)
	assert.Equal(t, 120*time.Second, cfg.ScrapeTimeout())
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
llm:
  api_key: "file_key"
jwt:
  secret: "file_secret"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("LLM_API_KEY", "env_key")
	t.Setenv("JWT_SECRET", "env_secret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env_key", cfg.LLM.APIKey)
	assert.Equal(t, "env_secret", cfg.JWT.Secret)
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \"\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// 未配置时落到统一默认值
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 300*time.Second, cfg.ScrapeTimeout())
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
	assert.Equal(t, 24, cfg.JWT.ExpireHours)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes())
	assert.Contains(t, cfg.Upload.AllowedTypes, "application/pdf")
}

func TestLoadConfig_MissingFileInTest(t *testing.T) {
	// 测试环境下缺失配置文件时返回默认配置而不是报错
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "resume_agent", cfg.MySQL.Database)
	assert.NotEmpty(t, cfg.JWT.Secret)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Second))
	assert.Equal(t, time.Second, GetDuration("", time.Second))
	assert.Equal(t, time.Second, GetDuration("garbage", time.Second))
}
