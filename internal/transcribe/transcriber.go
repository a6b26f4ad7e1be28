// Package transcribe coordinates transcription jobs against a batch STT
// provider: single-file transcription with typed failure classification,
// bounded-concurrency batch orchestration, and usage reporting.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/models"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/observability/logging"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/observability/metrics"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/provider"
)

// DefaultLanguage is used when the caller does not specify one.
const DefaultLanguage = "en"

// Transcriber runs transcription jobs through a provider client. All
// failures are captured as typed outcomes; Transcribe never returns an error.
type Transcriber struct {
	client  provider.Client
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a Transcriber on top of the given provider client.
func New(client provider.Client) *Transcriber {
	return &Transcriber{
		client:  client,
		logger:  logging.WithComponent("transcriber"),
		metrics: metrics.DefaultMetrics,
	}
}

// Request describes one transcription job.
type Request struct {
	FilePath        string
	Accuracy        models.Accuracy
	Language        string
	DurationSeconds float64
	Diarize         bool
}

// Transcribe submits one file and waits for the job's terminal state. The
// file must exist locally; otherwise a NotFound outcome is returned without
// any remote call.
func (t *Transcriber) Transcribe(ctx context.Context, req Request) models.Outcome {
	if req.Language == "" {
		req.Language = DefaultLanguage
	}

	outcome := models.Outcome{
		FilePath:        req.FilePath,
		DurationSeconds: req.DurationSeconds,
		Accuracy:        req.Accuracy,
		Diarization:     req.Diarize,
	}

	if _, err := os.Stat(req.FilePath); err != nil {
		outcome.Status = models.StatusError
		outcome.ErrorKind = models.ErrNotFound
		outcome.ErrorDetail = fmt.Sprintf("File not found: %s", req.FilePath)
		return outcome
	}

	start := time.Now()
	t.metrics.RecordJobStart()

	cfg := provider.JobConfig{
		Language:       req.Language,
		OperatingPoint: operatingPoint(req.Accuracy),
		Diarization:    req.Diarize,
	}

	jobID, err := t.client.SubmitJob(ctx, req.FilePath, cfg)
	if err != nil {
		return t.fail(outcome, err, start)
	}

	transcript, err := t.client.WaitForCompletion(ctx, jobID)
	if err != nil {
		return t.fail(outcome, err, start)
	}

	outcome.Status = models.StatusSuccess
	outcome.Transcript = transcript.Text()
	outcome.Words = extractWords(transcript)
	outcome.JobID = jobID

	t.metrics.RecordJobEnd("", time.Since(start).Seconds())
	t.logger.Info().
		Str("file", req.FilePath).
		Str("jobId", jobID).
		Int("words", len(outcome.Words)).
		Dur("elapsed", time.Since(start)).
		Msg("Transcription completed")
	return outcome
}

// fail classifies err into the outcome and records metrics.
func (t *Transcriber) fail(outcome models.Outcome, err error, start time.Time) models.Outcome {
	outcome.Status = models.StatusError
	outcome.ErrorKind, outcome.ErrorDetail = Classify(err)

	t.metrics.RecordJobEnd(string(outcome.ErrorKind), time.Since(start).Seconds())
	t.logger.Warn().
		Str("file", outcome.FilePath).
		Str("errorKind", string(outcome.ErrorKind)).
		Str("detail", outcome.ErrorDetail).
		Msg("Transcription failed")
	return outcome
}

// Classify maps a provider-layer error onto the failure taxonomy with a
// human-readable message.
func Classify(err error) (models.ErrorKind, string) {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return models.ErrRateLimited, "Rate limited by the transcription API. Please wait and try again."
		case http.StatusForbidden:
			return models.ErrQuotaOrAuth, "API quota exceeded or invalid API key. Check your Speechmatics account."
		case http.StatusUnauthorized:
			return models.ErrInvalidCredentials, "Invalid Speechmatics API key."
		case http.StatusBadRequest:
			detail := apiErr.Detail
			if detail == "" {
				detail = apiErr.Error()
			}
			return models.ErrBadRequest, fmt.Sprintf("Invalid request: %s", detail)
		default:
			return models.ErrRemote, fmt.Sprintf("API error (%d): %s", apiErr.StatusCode, apiErr.Detail)
		}
	}
	return models.ErrUnknown, err.Error()
}

// operatingPoint maps an accuracy level onto the provider tier.
func operatingPoint(accuracy models.Accuracy) provider.OperatingPoint {
	if accuracy == models.AccuracyEnhanced {
		return provider.OperatingPointEnhanced
	}
	return provider.OperatingPointStandard
}

// extractWords pulls word-level timing entries out of the transcript.
// Items without a usable alternative are skipped; nil is returned when no
// usable words exist, signalling that timestamps are unavailable.
func extractWords(transcript *provider.Transcript) []models.Word {
	var words []models.Word
	for _, item := range transcript.Results {
		if item.Type != "word" || len(item.Alternatives) == 0 {
			continue
		}
		alt := item.Alternatives[0]
		words = append(words, models.Word{
			Text:       alt.Content,
			Start:      item.StartTime,
			End:        item.EndTime,
			Confidence: alt.Confidence,
		})
	}
	return words
}
