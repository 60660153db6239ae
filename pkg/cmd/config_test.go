package cmd

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
http:
  listen: ":9090"
  rate_limit: 2.5
  rate_burst: 5
feishu:
  app_id: "cli_app"
  app_secret: "top-secret"
  base_id: "wiki-node"
  table_id: "tbl1"
  timeout: 5s
  max_retries: 2
cache:
  redis_addr: "localhost:6379"
  redis_password: "redis-secret"
  key_prefix: "wikiview:"
articles:
  fields:
    title: "Name"
  preview_length: 50
content:
  import_timeout: 3s
  import_disabled: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(&args{ConfigPath: writeConfig(t, testConfig)})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Listen)
	assert.InDelta(t, 2.5, cfg.HTTP.RateLimit, 0)
	assert.Equal(t, 5, cfg.HTTP.RateBurst)
	assert.Equal(t, "cli_app", cfg.Feishu.AppID)
	assert.Equal(t, "top-secret", cfg.Feishu.AppSecret)
	assert.Equal(t, "wiki-node", cfg.Feishu.BaseID)
	assert.Equal(t, "tbl1", cfg.Feishu.TableID)
	assert.Equal(t, 5*time.Second, cfg.Feishu.Timeout)
	assert.Equal(t, 2, cfg.Feishu.MaxRetries)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "wikiview:", cfg.Cache.KeyPrefix)
	assert.Equal(t, "Name", cfg.Articles.Fields.Title)
	assert.Equal(t, 50, cfg.Articles.PreviewLength)
	assert.Equal(t, 3*time.Second, cfg.Content.ImportTimeout)
	assert.True(t, cfg.Content.Disabled)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("FEISHU_TABLE_ID", "tbl-from-env")
	t.Setenv("FEISHU_MAX_RETRIES", "7")
	t.Setenv("HTTP_LISTEN", ":7000")

	cfg, err := loadConfig(&args{ConfigPath: writeConfig(t, testConfig)})
	require.NoError(t, err)

	assert.Equal(t, "tbl-from-env", cfg.Feishu.TableID)
	assert.Equal(t, 7, cfg.Feishu.MaxRetries)
	assert.Equal(t, ":7000", cfg.HTTP.Listen)
	assert.Equal(t, "cli_app", cfg.Feishu.AppID)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(&args{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "failed to read config")

	_, err = loadConfig(&args{ConfigPath: writeConfig(t, "feishu:\n  max_retries: [1, 2]\n")})
	assert.ErrorContains(t, err, "failed to unmarshal config")
}

func TestAppConfig_LogValue(t *testing.T) {
	cfg, err := loadConfig(&args{ConfigPath: writeConfig(t, testConfig)})
	require.NoError(t, err)

	var buf bytes.Buffer

	slog.New(slog.NewJSONHandler(&buf, nil)).Info("config", slog.Any("config", *cfg))

	assert.Contains(t, buf.String(), "cli_app")
	assert.Contains(t, buf.String(), "tbl1")
	assert.NotContains(t, buf.String(), "top-secret")
	assert.NotContains(t, buf.String(), "redis-secret")
}
