package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all settings of the ingestion command, populated from environment variables.
type Config struct {
	BaseURL       string
	DataDir       string
	CacheTemplate string
	FetchTimeout  time.Duration
	ReusePolicy   string

	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Kafka export configuration. Export is enabled when brokers are set.
	KafkaBrokers  []string
	KafkaTopic    string
	ExportEnabled bool
	BatchSize     int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "60s"))
	if err != nil || fetchTimeout < 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	var brokers []string
	if s := sharedcfg.EnvOrDefault("KAFKA_BROKERS", ""); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}

	cfg := &Config{
		BaseURL:         sharedcfg.EnvOrDefault("IZV_BASE_URL", "https://ehw.fit.vutbr.cz/izv/"),
		DataDir:         sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		CacheTemplate:   sharedcfg.EnvOrDefault("CACHE_TEMPLATE", "data_%s.gob.gz"),
		FetchTimeout:    fetchTimeout,
		ReusePolicy:     strings.ToLower(sharedcfg.EnvOrDefault("REUSE_POLICY", "reuse")),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ""),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:  brokers,
		KafkaTopic:    sharedcfg.EnvOrDefault("KAFKA_TOPIC", "traffic-accidents"),
		ExportEnabled: len(brokers) > 0,
		BatchSize:     batchSize,
	}

	if cfg.BaseURL == "" {
		return nil, errors.New("IZV_BASE_URL is required")
	}
	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if strings.Count(cfg.CacheTemplate, "%s") != 1 {
		return nil, fmt.Errorf("CACHE_TEMPLATE must contain exactly one %%s, got %q", cfg.CacheTemplate)
	}
	if cfg.ReusePolicy != "reuse" && cfg.ReusePolicy != "remerge" {
		return nil, fmt.Errorf("invalid REUSE_POLICY %q", cfg.ReusePolicy)
	}
	if cfg.ExportEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}
