package transcribe

import (
	"context"
	"math"
	"time"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/models"
)

// Usage reports how many jobs ran this UTC month and the audio hours they
// consumed, derived from the provider's job listing.
func (t *Transcriber) Usage(ctx context.Context) (models.UsageReport, error) {
	jobs, err := t.client.ListJobs(ctx)
	if err != nil {
		return models.UsageReport{}, err
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var report models.UsageReport
	var totalSeconds float64
	for _, job := range jobs {
		if job.CreatedAt.IsZero() || job.CreatedAt.Before(monthStart) {
			continue
		}
		report.JobsThisMonth++
		totalSeconds += job.DurationSeconds
	}

	report.HoursUsedThisMonth = math.Round(totalSeconds/3600*100) / 100
	return report, nil
}
