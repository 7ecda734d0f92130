// Package config loads service settings from environment variables, plus an
// optional TOML file overriding the model grid parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Model source configuration. When ModelBaseURL is set the service
	// fetches files over HTTP, otherwise it reads DataDir from disk.
	DataDir         string
	ModelBaseURL    string
	ModelTimeout    time.Duration
	SourceCacheSize int

	// Kafka sink configuration.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Params is the model grid shape, defaulted and optionally overridden
	// by the TOML file named in PARAMS_FILE.
	Params domain.Params
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	modelTimeout, err := parseDuration("MODEL_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	params, err := loadParams(os.Getenv("PARAMS_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir:         envOrDefault("DATA_DIR", "./database"),
		ModelBaseURL:    os.Getenv("MODEL_BASE_URL"),
		ModelTimeout:    modelTimeout,
		SourceCacheSize: parsePositiveInt("SOURCE_CACHE_SIZE", 100),

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   splitBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "plume-trajectories"),

		Params: params,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}
	if cfg.ModelBaseURL == "" && cfg.DataDir == "" {
		return nil, errors.New("one of MODEL_BASE_URL or DATA_DIR is required")
	}

	return cfg, nil
}

// loadParams starts from the default grid shape and overlays the TOML file
// when one is named. Fields absent from the file keep their defaults.
func loadParams(path string) (domain.Params, error) {
	params := domain.DefaultParams()
	if path == "" {
		return params, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("read params file: %w", err)
	}
	if err := toml.Unmarshal(raw, &params); err != nil {
		return params, fmt.Errorf("parse params file %s: %w", path, err)
	}
	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("params file %s: %w", path, err)
	}
	return params, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
