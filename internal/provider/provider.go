// Package provider defines the interface for batch speech-to-text providers.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// OperatingPoint selects the provider accuracy tier.
type OperatingPoint string

const (
	OperatingPointStandard OperatingPoint = "standard"
	OperatingPointEnhanced OperatingPoint = "enhanced"
)

// JobConfig describes one transcription job submission.
type JobConfig struct {
	Language       string
	OperatingPoint OperatingPoint
	Diarization    bool
}

// ResultItem is one timed element of a completed transcript, usually a word
// or a punctuation mark.
type ResultItem struct {
	Type         string        `json:"type"`
	StartTime    float64       `json:"start_time"`
	EndTime      float64       `json:"end_time"`
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is one candidate reading of a result item.
type Alternative struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// Transcript is the payload of a completed transcription job.
type Transcript struct {
	Results []ResultItem `json:"results"`
}

// Text assembles the flat transcript from the timed result items.
// Punctuation attaches to the preceding word without a space.
func (t *Transcript) Text() string {
	var b strings.Builder
	for _, item := range t.Results {
		if len(item.Alternatives) == 0 {
			continue
		}
		content := item.Alternatives[0].Content
		if content == "" {
			continue
		}
		if b.Len() > 0 && item.Type != "punctuation" {
			b.WriteByte(' ')
		}
		b.WriteString(content)
	}
	return b.String()
}

// JobSummary describes one job as returned by the provider's job listing.
type JobSummary struct {
	ID              string
	CreatedAt       time.Time
	DurationSeconds float64
	Status          string
}

// Client is the interface for batch STT providers. Submission and completion
// wait are separate suspension points; the provider does not complete jobs
// synchronously.
type Client interface {
	// SubmitJob uploads the media file and starts a transcription job,
	// returning the remote job ID.
	SubmitJob(ctx context.Context, filePath string, cfg JobConfig) (string, error)

	// WaitForCompletion blocks until the job reaches a terminal state and
	// returns the transcript on success.
	WaitForCompletion(ctx context.Context, jobID string) (*Transcript, error)

	// ListJobs returns summaries of the account's transcription jobs.
	ListJobs(ctx context.Context) ([]JobSummary, error)

	// Close releases the underlying connections.
	Close() error
}

// APIError is a non-2xx response from the provider API.
type APIError struct {
	StatusCode int
	Detail     string
}

// Error formats the API failure for logs.
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("provider API error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("provider API error (%d): %s", e.StatusCode, e.Detail)
}
