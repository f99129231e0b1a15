package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://ehw.fit.vutbr.cz/izv/", cfg.BaseURL)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "data_%s.gob.gz", cfg.CacheTemplate)
	assert.Equal(t, 60*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "reuse", cfg.ReusePolicy)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.ExportEnabled)
	assert.Equal(t, "traffic-accidents", cfg.KafkaTopic)
	assert.Equal(t, 50, cfg.BatchSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("IZV_BASE_URL", "http://mirror.local/izv/")
	t.Setenv("DATA_DIR", "/var/lib/accidents")
	t.Setenv("CACHE_TEMPLATE", "cache_%s.gz")
	t.Setenv("FETCH_TIMEOUT", "2m")
	t.Setenv("REUSE_POLICY", "Remerge")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "accidents")
	t.Setenv("BATCH_SIZE", "100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://mirror.local/izv/", cfg.BaseURL)
	assert.Equal(t, "/var/lib/accidents", cfg.DataDir)
	assert.Equal(t, "cache_%s.gz", cfg.CacheTemplate)
	assert.Equal(t, 2*time.Minute, cfg.FetchTimeout)
	assert.Equal(t, "remerge", cfg.ReusePolicy)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.ExportEnabled)
	assert.Equal(t, "accidents", cfg.KafkaTopic)
	assert.Equal(t, 100, cfg.BatchSize)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_CacheTemplateNeedsPlaceholder(t *testing.T) {
	t.Setenv("CACHE_TEMPLATE", "cache.gz")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_TEMPLATE")
}

func TestLoad_InvalidReusePolicy(t *testing.T) {
	t.Setenv("REUSE_POLICY", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REUSE_POLICY")
}
