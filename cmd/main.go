package main

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	mcpapi "github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/api/mcp"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/config"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/events"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/media"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/observability"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/observability/logging"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/provider"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/provider/mock"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/provider/speechmatics"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/transcribe"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()

	logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	client := newProviderClient(cfg)
	defer client.Close()

	publisher := events.New(&events.Config{
		Enabled: cfg.Kafka.Enabled,
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer publisher.Close()

	if cfg.Observability.MetricsAddr != "" {
		obs := observability.NewServer(cfg.Observability.MetricsAddr)
		obs.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = obs.Shutdown(ctx)
		}()
	}

	transcriber := transcribe.New(client)
	probe := media.NewProbe(cfg.Transcription.ProbeTimeout)
	handlers := mcpapi.NewHandlers(transcriber, probe, publisher, cfg.Transcription.Language, cfg.Transcription.MaxConcurrent)

	s := server.NewMCPServer("transcription", version, server.WithToolCapabilities(false))
	mcpapi.Register(s, handlers)

	log.Info().
		Str("provider", cfg.Provider.Name).
		Str("version", version).
		Msg("Transcription MCP server listening on stdio")

	if err := server.ServeStdio(s); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}

// newProviderClient selects the provider implementation from configuration.
func newProviderClient(cfg *config.Configuration) provider.Client {
	if cfg.Provider.Name == "mock" {
		log.Warn().Msg("Using mock transcription provider")
		return mock.NewClient()
	}

	opts := []speechmatics.Option{
		speechmatics.WithPollInterval(cfg.Provider.PollInterval),
	}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, speechmatics.WithBaseURL(cfg.Provider.BaseURL))
	}
	return speechmatics.NewClient(cfg.Provider.APIKey, opts...)
}
