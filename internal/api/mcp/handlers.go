package mcpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/events"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/media"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/models"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/observability/logging"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/report"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/transcribe"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/transcript"
)

// jsonResult renders a payload as an indented JSON text result. The tool
// layer never surfaces domain failures as protocol errors; they travel in
// the payload's status field.
func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorPayload is the uniform failure response.
type errorPayload struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

func errorResult(format string, args ...any) (*mcp.CallToolResult, error) {
	return jsonResult(errorPayload{
		Status:       string(models.StatusError),
		ErrorMessage: fmt.Sprintf(format, args...),
	})
}

// transcribeFilePayload is the transcribe_file success response.
type transcribeFilePayload struct {
	Status            string  `json:"status"`
	TranscriptPath    string  `json:"transcript_path"`
	DurationSeconds   float64 `json:"duration_seconds"`
	DurationFormatted string  `json:"duration_formatted"`
	Accuracy          string  `json:"accuracy"`
}

// TranscribeFile handles the transcribe_file tool.
func (h *Handlers) TranscribeFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	accuracy := models.ParseAccuracy(req.GetString("accuracy", string(models.AccuracyStandard)))
	withTimestamps := req.GetBool("with_timestamps", false)
	diarize := req.GetBool("diarize", false)

	if _, err := os.Stat(filePath); err != nil {
		return errorResult("File not found: %s", filePath)
	}

	duration, err := h.probe.Duration(ctx, filePath)
	if err != nil {
		return errorResult("Could not determine audio duration: %v", err)
	}

	outcome := h.transcriber.Transcribe(ctx, transcribe.Request{
		FilePath:        filePath,
		Accuracy:        accuracy,
		Language:        h.language,
		DurationSeconds: duration,
		Diarize:         diarize,
	})
	if !outcome.Succeeded() {
		return errorResult("%s", outcome.ErrorDetail)
	}

	transcriptPath, err := transcript.Write(outcome, withTimestamps)
	if err != nil {
		return errorResult("Failed to write transcript: %v", err)
	}

	return jsonResult(transcribeFilePayload{
		Status:            string(models.StatusSuccess),
		TranscriptPath:    transcriptPath,
		DurationSeconds:   duration,
		DurationFormatted: transcript.FormatDuration(duration),
		Accuracy:          string(accuracy),
	})
}

// batchPayload is the transcribe_directory success response.
type batchPayload struct {
	Status                 string              `json:"status"`
	FilesProcessed         int                 `json:"files_processed"`
	FilesFailed            int                 `json:"files_failed"`
	Transcripts            []report.FileReport `json:"transcripts"`
	TotalDurationSeconds   float64             `json:"total_duration_seconds"`
	TotalDurationFormatted string              `json:"total_duration_formatted,omitempty"`
	Message                string              `json:"message,omitempty"`
}

// TranscribeDirectory handles the transcribe_directory tool.
func (h *Handlers) TranscribeDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	directory, err := req.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fileTypes := req.GetStringSlice("file_types", media.DefaultFileTypes)
	accuracy := models.ParseAccuracy(req.GetString("accuracy", string(models.AccuracyStandard)))
	withTimestamps := req.GetBool("with_timestamps", false)
	recursive := req.GetBool("recursive", false)
	diarize := req.GetBool("diarize", false)
	concurrency := clamp(req.GetInt("max_concurrent", h.defaultConcurrency), minConcurrent, maxConcurrent)

	files, err := media.FindFiles(directory, fileTypes, recursive)
	if err != nil {
		return errorResult("%v", err)
	}
	if len(files) == 0 {
		return jsonResult(batchPayload{
			Status:      string(models.StatusSuccess),
			Transcripts: []report.FileReport{},
			Message:     "No media files found in directory",
		})
	}

	// Probe every file up front; a probe failure records duration 0 but the
	// file is still transcribed.
	items := make([]transcribe.Item, 0, len(files))
	for _, file := range files {
		duration, err := h.probe.Duration(ctx, file)
		if err != nil {
			h.logger.Warn().Str("file", file).Err(err).Msg("Duration probe failed, recording 0")
			duration = 0
		}
		items = append(items, transcribe.Item{Path: file, DurationSeconds: duration})
	}

	batchID := uuid.NewString()
	batchLogger := logging.WithBatch(batchID, len(items))

	outcomes := h.transcriber.TranscribeBatch(ctx, items, transcribe.BatchOptions{
		Accuracy:      accuracy,
		Language:      h.language,
		Diarize:       diarize,
		MaxConcurrent: concurrency,
		OnProgress: func(completed, total int, currentFile string) {
			batchLogger.Info().
				Int("completed", completed).
				Str("file", currentFile).
				Msg("Batch progress")
		},
	})

	transcriptPaths := make(map[string]string, len(outcomes))
	for i, outcome := range outcomes {
		if outcome.Succeeded() {
			path, err := transcript.Write(outcome, withTimestamps)
			if err != nil {
				outcomes[i].Status = models.StatusError
				outcomes[i].ErrorKind = models.ErrUnknown
				outcomes[i].ErrorDetail = fmt.Sprintf("Failed to write transcript: %v", err)
			} else {
				transcriptPaths[outcome.FilePath] = path
			}
		}
		h.publisher.PublishFileCompleted(ctx, events.FileCompleted{
			BatchID:         batchID,
			File:            outcome.FilePath,
			Status:          outcomes[i].Status,
			ErrorKind:       string(outcomes[i].ErrorKind),
			DurationSeconds: outcome.DurationSeconds,
			Completed:       i + 1,
			Total:           len(outcomes),
		})
	}

	summary := report.Summarize(outcomes, transcriptPaths)
	h.publisher.PublishBatchCompleted(ctx, events.BatchCompleted{
		BatchID:              batchID,
		FilesProcessed:       summary.FilesProcessed,
		FilesFailed:          summary.FilesFailed,
		TotalDurationSeconds: summary.TotalDurationSeconds,
	})

	return jsonResult(batchPayload{
		Status:                 string(models.StatusSuccess),
		FilesProcessed:         summary.FilesProcessed,
		FilesFailed:            summary.FilesFailed,
		Transcripts:            summary.Files,
		TotalDurationSeconds:   summary.TotalDurationSeconds,
		TotalDurationFormatted: transcript.FormatDuration(summary.TotalDurationSeconds),
	})
}

// transcriptPayload is the get_transcript success response.
type transcriptPayload struct {
	Status          string   `json:"status"`
	Transcript      string   `json:"transcript"`
	SourceMedia     string   `json:"source_media"`
	DurationSeconds *float64 `json:"duration_seconds"`
	HasTimestamps   bool     `json:"has_timestamps"`
	WordCount       *int     `json:"word_count,omitempty"`
}

// GetTranscript handles the get_transcript tool. The path may name either a
// media file (both transcript suffixes are probed) or a transcript artifact
// directly.
func (h *Handlers) GetTranscript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var transcriptPath, sourceMedia string
	if transcript.IsTranscriptPath(filePath) {
		transcriptPath = filePath
		sourceMedia = transcript.SourceMedia(filePath)
	} else {
		sourceMedia = filePath
		transcriptPath, err = transcript.Find(filePath)
		if err != nil {
			return errorResult("No transcript found for: %s", filePath)
		}
	}

	reading, err := transcript.Read(transcriptPath)
	if err != nil {
		return errorResult("Failed to read transcript: %v", err)
	}

	payload := transcriptPayload{
		Status:          string(models.StatusSuccess),
		Transcript:      reading.Transcript,
		SourceMedia:     sourceMedia,
		DurationSeconds: reading.DurationSeconds,
		HasTimestamps:   reading.HasTimestamps,
	}
	if reading.HasTimestamps {
		wordCount := reading.WordCount
		payload.WordCount = &wordCount
	}
	return jsonResult(payload)
}

// usagePayload is the get_usage success response. Monthly limit and
// remaining hours are not available from the provider API.
type usagePayload struct {
	Status             string   `json:"status"`
	HoursUsedThisMonth float64  `json:"hours_used_this_month"`
	MonthlyLimitHours  *float64 `json:"monthly_limit_hours"`
	HoursRemaining     *float64 `json:"hours_remaining"`
	JobsThisMonth      int      `json:"jobs_this_month"`
}

// GetUsage handles the get_usage tool.
func (h *Handlers) GetUsage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	usage, err := h.transcriber.Usage(ctx)
	if err != nil {
		_, detail := transcribe.Classify(err)
		return errorResult("%s", detail)
	}

	return jsonResult(usagePayload{
		Status:             string(models.StatusSuccess),
		HoursUsedThisMonth: usage.HoursUsedThisMonth,
		JobsThisMonth:      usage.JobsThisMonth,
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
