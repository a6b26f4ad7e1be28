package transcribe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/provider"
)

func TestUsageCountsCurrentMonthOnly(t *testing.T) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	client := &fakeProvider{
		list: func(context.Context) ([]provider.JobSummary, error) {
			return []provider.JobSummary{
				{ID: "old", CreatedAt: monthStart.Add(-time.Hour), DurationSeconds: 7200},
				{ID: "boundary", CreatedAt: monthStart, DurationSeconds: 3600},
				{ID: "recent", CreatedAt: monthStart.Add(48 * time.Hour), DurationSeconds: 1800},
				{ID: "undated", DurationSeconds: 999},
			}, nil
		},
	}

	usage, err := New(client).Usage(context.Background())
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}

	if usage.JobsThisMonth != 2 {
		t.Errorf("jobs this month = %d, want 2", usage.JobsThisMonth)
	}
	// 3600s + 1800s = 1.5 hours
	if usage.HoursUsedThisMonth != 1.5 {
		t.Errorf("hours used = %v, want 1.5", usage.HoursUsedThisMonth)
	}
}

func TestUsageRoundsToTwoDecimals(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeProvider{
		list: func(context.Context) ([]provider.JobSummary, error) {
			return []provider.JobSummary{
				{ID: "a", CreatedAt: now, DurationSeconds: 1000},
			}, nil
		},
	}

	usage, err := New(client).Usage(context.Background())
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	// 1000/3600 = 0.2777... rounds to 0.28
	if usage.HoursUsedThisMonth != 0.28 {
		t.Errorf("hours used = %v, want 0.28", usage.HoursUsedThisMonth)
	}
}

func TestUsagePropagatesListError(t *testing.T) {
	wantErr := errors.New("listing failed")
	client := &fakeProvider{
		list: func(context.Context) ([]provider.JobSummary, error) {
			return nil, wantErr
		},
	}

	if _, err := New(client).Usage(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Usage() error = %v, want %v", err, wantErr)
	}
}
