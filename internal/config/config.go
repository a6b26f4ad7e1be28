// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configuration is the full service configuration.
type Configuration struct {
	Provider      ProviderConfig
	Transcription TranscriptionConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ProviderConfig selects and configures the remote STT provider.
type ProviderConfig struct {
	Name         string        // speechmatics, mock
	APIKey       string        // Speechmatics API key
	BaseURL      string        // empty for the public endpoint
	PollInterval time.Duration // job status poll interval
}

// TranscriptionConfig holds transcription defaults.
type TranscriptionConfig struct {
	Language      string
	MaxConcurrent int
	ProbeTimeout  time.Duration
}

// KafkaConfig configures the batch event publisher.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// ObservabilityConfig configures logging and the metrics server.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string // json, console
	MetricsAddr string // empty disables the metrics HTTP server
}

// ErrMissingAPIKey is returned when the Speechmatics provider is selected
// without credentials.
var ErrMissingAPIKey = errors.New(
	"Speechmatics API key not provided: set SPEECHMATICS_API_KEY or select TRANSCRIBE_PROVIDER=mock")

// Load reads configuration from the environment, falling back to defaults on
// missing or unparseable values.
func Load() *Configuration {
	logFormat := "json"
	if os.Getenv("ENV") == "dev" {
		logFormat = "console"
	}

	return &Configuration{
		Provider: ProviderConfig{
			Name:         envOrDefault("TRANSCRIBE_PROVIDER", "speechmatics"),
			APIKey:       os.Getenv("SPEECHMATICS_API_KEY"),
			BaseURL:      os.Getenv("SPEECHMATICS_URL"),
			PollInterval: envOrDefaultDuration("SPEECHMATICS_POLL_INTERVAL", 5*time.Second),
		},
		Transcription: TranscriptionConfig{
			Language:      envOrDefault("TRANSCRIBE_LANGUAGE", "en"),
			MaxConcurrent: envOrDefaultInt("TRANSCRIBE_MAX_CONCURRENT", 10),
			ProbeTimeout:  envOrDefaultDuration("FFPROBE_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled: envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers: envOrDefaultSlice("KAFKA_BROKERS", nil),
			Topic:   envOrDefault("KAFKA_TOPIC", "transcription.batch.events"),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   logFormat,
			MetricsAddr: os.Getenv("METRICS_ADDR"),
		},
	}
}

// Validate checks settings that have no usable fallback.
func (c *Configuration) Validate() error {
	if c.Provider.Name != "mock" && c.Provider.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
