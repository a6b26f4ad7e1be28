// Package speechmatics implements the provider interface against the
// Speechmatics Batch API (v2).
package speechmatics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/observability/logging"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/provider"
)

// DefaultBaseURL is the public Speechmatics Batch API endpoint.
const DefaultBaseURL = "https://asr.api.speechmatics.com/v2"

// Job statuses reported by GET /v2/jobs/{id}.
const (
	statusRunning  = "running"
	statusDone     = "done"
	statusRejected = "rejected"
	statusDeleted  = "deleted"
	statusExpired  = "expired"
)

// Client talks to the Speechmatics Batch API over HTTP.
type Client struct {
	apiKey       string
	baseURL      string
	httpc        *http.Client
	pollInterval time.Duration
	logger       zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used for tests and on-prem
// deployments.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithPollInterval overrides how often job status is polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// NewClient creates a Speechmatics batch client. The API key is passed
// explicitly; environment lookup is the caller's concern.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		httpc:        &http.Client{Timeout: 10 * time.Minute},
		pollInterval: 5 * time.Second,
		logger:       logging.WithComponent("speechmatics"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// jobConfigPayload is the `config` part of a job submission.
type jobConfigPayload struct {
	Type                string                     `json:"type"`
	TranscriptionConfig transcriptionConfigPayload `json:"transcription_config"`
}

type transcriptionConfigPayload struct {
	Language       string `json:"language"`
	OperatingPoint string `json:"operating_point"`
	Diarization    string `json:"diarization,omitempty"`
}

type submitResponse struct {
	ID string `json:"id"`
}

// SubmitJob uploads the media file as multipart form data and starts a
// transcription job.
func (c *Client) SubmitJob(ctx context.Context, filePath string, cfg provider.JobConfig) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	payload := jobConfigPayload{
		Type: "transcription",
		TranscriptionConfig: transcriptionConfigPayload{
			Language:       cfg.Language,
			OperatingPoint: string(cfg.OperatingPoint),
		},
	}
	if cfg.Diarization {
		payload.TranscriptionConfig.Diarization = "speaker"
	}
	configJSON, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("config", string(configJSON)); err != nil {
		return "", err
	}
	fw, err := mw.CreateFormFile("data_file", filepath.Base(filePath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp submitResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}

	c.logger.Debug().
		Str("jobId", resp.ID).
		Str("file", filePath).
		Str("operatingPoint", string(cfg.OperatingPoint)).
		Bool("diarization", cfg.Diarization).
		Msg("Job submitted")
	return resp.ID, nil
}

// jobEnvelope wraps the job detail response.
type jobEnvelope struct {
	Job jobDetail `json:"job"`
}

type jobDetail struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Duration  float64   `json:"duration"`
	Errors    []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// WaitForCompletion polls job status until a terminal state is reached, then
// fetches the transcript. Rejected or removed jobs surface as errors.
func (c *Client) WaitForCompletion(ctx context.Context, jobID string) (*provider.Transcript, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		detail, err := c.getJob(ctx, jobID)
		if err != nil {
			return nil, err
		}

		switch detail.Status {
		case statusDone:
			return c.getTranscript(ctx, jobID)
		case statusRejected:
			msg := "job rejected"
			if len(detail.Errors) > 0 {
				msg = detail.Errors[0].Message
			}
			return nil, fmt.Errorf("transcription job %s rejected: %s", jobID, msg)
		case statusDeleted, statusExpired:
			return nil, fmt.Errorf("transcription job %s is %s", jobID, detail.Status)
		}

		c.logger.Debug().Str("jobId", jobID).Str("status", detail.Status).Msg("Job still in progress")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) getJob(ctx context.Context, jobID string) (*jobDetail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var envelope jobEnvelope
	if err := c.do(req, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Job, nil
}

func (c *Client) getTranscript(ctx context.Context, jobID string) (*provider.Transcript, error) {
	url := c.baseURL + "/jobs/" + jobID + "/transcript?format=json-v2"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var transcript provider.Transcript
	if err := c.do(req, &transcript); err != nil {
		return nil, err
	}
	return &transcript, nil
}

// listResponse wraps GET /v2/jobs.
type listResponse struct {
	Jobs []jobDetail `json:"jobs"`
}

// ListJobs returns summaries of the account's transcription jobs.
func (c *Client) ListJobs(ctx context.Context) ([]provider.JobSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var resp listResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	summaries := make([]provider.JobSummary, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		summaries = append(summaries, provider.JobSummary{
			ID:              job.ID,
			CreatedAt:       job.CreatedAt,
			DurationSeconds: job.Duration,
			Status:          job.Status,
		})
	}
	return summaries, nil
}

// Close releases idle connections held by the HTTP client.
func (c *Client) Close() error {
	c.httpc.CloseIdleConnections()
	return nil
}

// errorBody is the error payload shape used by the API on 4xx responses.
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// do executes the request and decodes a JSON response into out. Non-2xx
// responses become *provider.APIError with the detail pulled from the body.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		detail := ""
		var parsed errorBody
		if json.Unmarshal(body, &parsed) == nil {
			if parsed.Detail != "" {
				detail = parsed.Detail
			} else {
				detail = parsed.Error
			}
		}
		if detail == "" {
			detail = string(bytes.TrimSpace(body))
		}
		return &provider.APIError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
