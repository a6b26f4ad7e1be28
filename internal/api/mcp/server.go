// Package mcpapi exposes the transcription operations as MCP tools over
// stdio: transcribe_file, transcribe_directory, get_transcript, get_usage.
package mcpapi

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/events"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/media"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/observability/logging"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/observability/metrics"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/transcribe"
)

// Concurrency bounds enforced on caller-supplied max_concurrent values.
const (
	minConcurrent = 1
	maxConcurrent = 50
)

// Handlers implements the MCP tool handlers.
type Handlers struct {
	transcriber        *transcribe.Transcriber
	probe              *media.Probe
	publisher          *events.Publisher
	language           string
	defaultConcurrency int
	logger             zerolog.Logger
	metrics            *metrics.Metrics
}

// NewHandlers wires the tool handlers to their collaborators.
func NewHandlers(transcriber *transcribe.Transcriber, probe *media.Probe, publisher *events.Publisher, language string, defaultConcurrency int) *Handlers {
	if defaultConcurrency < minConcurrent || defaultConcurrency > maxConcurrent {
		defaultConcurrency = transcribe.DefaultMaxConcurrent
	}
	return &Handlers{
		transcriber:        transcriber,
		probe:              probe,
		publisher:          publisher,
		language:           language,
		defaultConcurrency: defaultConcurrency,
		logger:             logging.WithComponent("mcp"),
		metrics:            metrics.DefaultMetrics,
	}
}

// Register adds all transcription tools to the MCP server.
func Register(s *server.MCPServer, h *Handlers) {
	s.AddTool(mcp.NewTool("transcribe_file",
		mcp.WithDescription("Transcribe a single audio/video file using the Speechmatics API"),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Absolute path to the media file"),
		),
		mcp.WithString("accuracy",
			mcp.Description("Transcription accuracy level"),
			mcp.Enum("standard", "enhanced"),
			mcp.DefaultString("standard"),
		),
		mcp.WithBoolean("with_timestamps",
			mcp.Description("Include word-level timestamps (outputs JSON instead of TXT)"),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("diarize",
			mcp.Description("Enable speaker diarization"),
			mcp.DefaultBool(false),
		),
	), h.instrumented("transcribe_file", h.TranscribeFile))

	s.AddTool(mcp.NewTool("transcribe_directory",
		mcp.WithDescription("Transcribe all media files in a directory (parallel processing)"),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Path to directory containing media files"),
		),
		mcp.WithArray("file_types",
			mcp.Description("File extensions to include (without dots)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("accuracy",
			mcp.Description("Transcription accuracy level"),
			mcp.Enum("standard", "enhanced"),
			mcp.DefaultString("standard"),
		),
		mcp.WithBoolean("with_timestamps",
			mcp.Description("Include word-level timestamps"),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Search subdirectories"),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("diarize",
			mcp.Description("Enable speaker diarization"),
			mcp.DefaultBool(false),
		),
		mcp.WithNumber("max_concurrent",
			mcp.Description("Maximum parallel transcription jobs"),
			mcp.DefaultNumber(transcribe.DefaultMaxConcurrent),
			mcp.Min(minConcurrent),
			mcp.Max(maxConcurrent),
		),
	), h.instrumented("transcribe_directory", h.TranscribeDirectory))

	s.AddTool(mcp.NewTool("get_transcript",
		mcp.WithDescription("Read an existing transcript file"),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to media file OR transcript file"),
		),
	), h.instrumented("get_transcript", h.GetTranscript))

	s.AddTool(mcp.NewTool("get_usage",
		mcp.WithDescription("Get Speechmatics API usage statistics for the current month"),
	), h.instrumented("get_usage", h.GetUsage))
}

// instrumented wraps a tool handler with call logging and metrics.
func (h *Handlers) instrumented(tool string, fn server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		res, err := fn(ctx, req)

		status := "success"
		if err != nil || (res != nil && res.IsError) {
			status = "error"
		}
		elapsed := time.Since(start)
		h.metrics.RecordToolCall(tool, status, elapsed.Seconds())

		h.logger.Info().
			Str("tool", tool).
			Str("status", status).
			Dur("duration", elapsed).
			Msg("Tool call completed")

		return res, err
	}
}
