// Package mock provides a canned batch STT provider for running the service
// without Speechmatics credentials. Jobs complete after a short simulated
// delay with a fixed transcript.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/provider"
)

// DefaultTranscript is the canned result returned for every job.
var DefaultTranscript = provider.Transcript{
	Results: []provider.ResultItem{
		{Type: "word", StartTime: 0.2, EndTime: 0.5, Alternatives: []provider.Alternative{{Content: "Thank", Confidence: 0.98}}},
		{Type: "word", StartTime: 0.5, EndTime: 0.7, Alternatives: []provider.Alternative{{Content: "you", Confidence: 0.97}}},
		{Type: "word", StartTime: 0.8, EndTime: 1.1, Alternatives: []provider.Alternative{{Content: "very", Confidence: 0.95}}},
		{Type: "word", StartTime: 1.1, EndTime: 1.4, Alternatives: []provider.Alternative{{Content: "much", Confidence: 0.96}}},
		{Type: "punctuation", StartTime: 1.4, EndTime: 1.4, Alternatives: []provider.Alternative{{Content: ".", Confidence: 1}}},
	},
}

// Client implements provider.Client with simulated jobs.
type Client struct {
	Delay time.Duration

	mu      sync.Mutex
	nextJob int
	jobs    map[string]time.Time
}

// NewClient creates a mock provider with a 50ms simulated job runtime.
func NewClient() *Client {
	return &Client{Delay: 50 * time.Millisecond, jobs: make(map[string]time.Time)}
}

// SubmitJob records a simulated job and returns its ID.
func (c *Client) SubmitJob(ctx context.Context, filePath string, cfg provider.JobConfig) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextJob++
	id := fmt.Sprintf("mock-%d", c.nextJob)
	c.jobs[id] = time.Now().UTC()
	return id, nil
}

// WaitForCompletion waits out the simulated runtime and returns the canned
// transcript.
func (c *Client) WaitForCompletion(ctx context.Context, jobID string) (*provider.Transcript, error) {
	c.mu.Lock()
	_, ok := c.jobs[jobID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown job: %s", jobID)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.Delay):
	}

	transcript := DefaultTranscript
	return &transcript, nil
}

// ListJobs returns summaries for all simulated jobs.
func (c *Client) ListJobs(ctx context.Context) ([]provider.JobSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	summaries := make([]provider.JobSummary, 0, len(c.jobs))
	for id, created := range c.jobs {
		summaries = append(summaries, provider.JobSummary{
			ID:              id,
			CreatedAt:       created,
			DurationSeconds: 1.4,
			Status:          "done",
		})
	}
	return summaries, nil
}

// Close is a no-op.
func (c *Client) Close() error { return nil }
