package transcribe

import (
	"context"
	"sync"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/models"
)

// DefaultMaxConcurrent bounds in-flight jobs when the caller does not.
const DefaultMaxConcurrent = 10

// Item is one batch entry: a media path with its pre-probed duration.
// Duration is 0 when the probe failed upstream; the file is still
// transcribed.
type Item struct {
	Path            string
	DurationSeconds float64
}

// Progress is invoked after each completed item, in completion order.
type Progress func(completed, total int, currentFile string)

// BatchOptions configures a batch run.
type BatchOptions struct {
	Accuracy      models.Accuracy
	Language      string
	Diarize       bool
	MaxConcurrent int
	OnProgress    Progress
}

// TranscribeBatch transcribes all items with at most MaxConcurrent jobs in
// flight. The returned slice has one outcome per item in input order,
// regardless of completion order. One item's failure never affects the
// others.
func (t *Transcriber) TranscribeBatch(ctx context.Context, items []Item, opts BatchOptions) []models.Outcome {
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}

	t.metrics.RecordBatchStart(len(items))
	t.logger.Info().
		Int("files", len(items)).
		Int("maxConcurrent", maxConcurrent).
		Str("accuracy", string(opts.Accuracy)).
		Bool("diarize", opts.Diarize).
		Msg("Starting batch transcription")

	outcomes := make([]models.Outcome, len(items))
	gate := make(chan struct{}, maxConcurrent)

	var mu sync.Mutex
	completed := 0

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item Item) {
			defer wg.Done()

			gate <- struct{}{}
			defer func() { <-gate }()

			outcomes[i] = t.Transcribe(ctx, Request{
				FilePath:        item.Path,
				Accuracy:        opts.Accuracy,
				Language:        opts.Language,
				DurationSeconds: item.DurationSeconds,
				Diarize:         opts.Diarize,
			})

			// The callback runs under the lock so completion counts are
			// reported in order.
			mu.Lock()
			completed++
			if opts.OnProgress != nil {
				opts.OnProgress(completed, len(items), item.Path)
			}
			mu.Unlock()
		}(i, item)
	}
	wg.Wait()

	return outcomes
}
