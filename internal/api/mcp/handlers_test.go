package mcpapi

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/events"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/media"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/models"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/provider"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/transcribe"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/transcript"
)

type fakeClient struct {
	listJobs func(ctx context.Context) ([]provider.JobSummary, error)
}

func (f *fakeClient) SubmitJob(ctx context.Context, filePath string, cfg provider.JobConfig) (string, error) {
	return "job-1", nil
}

func (f *fakeClient) WaitForCompletion(ctx context.Context, jobID string) (*provider.Transcript, error) {
	return &provider.Transcript{}, nil
}

func (f *fakeClient) ListJobs(ctx context.Context) ([]provider.JobSummary, error) {
	if f.listJobs != nil {
		return f.listJobs(ctx)
	}
	return nil, nil
}

func (f *fakeClient) Close() error { return nil }

func newTestHandlers(client provider.Client) *Handlers {
	return NewHandlers(
		transcribe.New(client),
		media.NewProbe(time.Second),
		events.New(nil),
		"en",
		transcribe.DefaultMaxConcurrent,
	)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("result content entries = %d, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("result content is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func decodePayload(t *testing.T, res *mcp.CallToolResult, into any) {
	t.Helper()
	if err := json.Unmarshal([]byte(resultText(t, res)), into); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
}

func TestTranscribeFileMissingArgument(t *testing.T) {
	h := newTestHandlers(&fakeClient{})

	res, err := h.TranscribeFile(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Error("missing required argument should yield a tool error result")
	}
}

func TestTranscribeFileNotFound(t *testing.T) {
	h := newTestHandlers(&fakeClient{})

	res, err := h.TranscribeFile(context.Background(), callRequest(map[string]any{
		"file_path": "/no/such/file.mp3",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	decodePayload(t, res, &payload)
	if payload.Status != "error" {
		t.Errorf("status = %q, want error", payload.Status)
	}
	if payload.ErrorMessage != "File not found: /no/such/file.mp3" {
		t.Errorf("error message = %q", payload.ErrorMessage)
	}
}

func TestTranscribeDirectoryMissingDirectory(t *testing.T) {
	h := newTestHandlers(&fakeClient{})

	res, err := h.TranscribeDirectory(context.Background(), callRequest(map[string]any{
		"directory": "/no/such/dir",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	decodePayload(t, res, &payload)
	if payload.Status != "error" {
		t.Errorf("status = %q, want error", payload.Status)
	}
}

func TestTranscribeDirectoryEmpty(t *testing.T) {
	h := newTestHandlers(&fakeClient{})
	dir := t.TempDir()

	res, err := h.TranscribeDirectory(context.Background(), callRequest(map[string]any{
		"directory": dir,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Status      string `json:"status"`
		Transcripts []any  `json:"transcripts"`
		Message     string `json:"message"`
	}
	decodePayload(t, res, &payload)
	if payload.Status != "success" {
		t.Errorf("status = %q, want success", payload.Status)
	}
	if payload.Message != "No media files found in directory" {
		t.Errorf("message = %q", payload.Message)
	}
	if payload.Transcripts == nil || len(payload.Transcripts) != 0 {
		t.Errorf("transcripts = %v, want empty array", payload.Transcripts)
	}
}

func TestGetTranscript(t *testing.T) {
	h := newTestHandlers(&fakeClient{})
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "meeting.mp3")

	_, err := transcript.Write(models.Outcome{
		FilePath:        mediaPath,
		Status:          models.StatusSuccess,
		Transcript:      "Hello there.",
		DurationSeconds: 90,
		Accuracy:        models.AccuracyStandard,
	}, false)
	if err != nil {
		t.Fatalf("writing transcript: %v", err)
	}

	res, err := h.GetTranscript(context.Background(), callRequest(map[string]any{
		"file_path": mediaPath,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Status          string   `json:"status"`
		Transcript      string   `json:"transcript"`
		SourceMedia     string   `json:"source_media"`
		DurationSeconds *float64 `json:"duration_seconds"`
		HasTimestamps   bool     `json:"has_timestamps"`
		WordCount       *int     `json:"word_count"`
	}
	decodePayload(t, res, &payload)
	if payload.Status != "success" {
		t.Fatalf("status = %q, want success", payload.Status)
	}
	if payload.Transcript != "Hello there." {
		t.Errorf("transcript = %q", payload.Transcript)
	}
	if payload.SourceMedia != mediaPath {
		t.Errorf("source media = %q", payload.SourceMedia)
	}
	if payload.DurationSeconds == nil || *payload.DurationSeconds != 90 {
		t.Errorf("duration = %v, want 90", payload.DurationSeconds)
	}
	if payload.HasTimestamps {
		t.Error("text transcript should not report timestamps")
	}
	if payload.WordCount != nil {
		t.Error("word_count should be omitted without timestamps")
	}
}

func TestGetTranscriptDirectPath(t *testing.T) {
	h := newTestHandlers(&fakeClient{})
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "meeting.mp3")

	path, err := transcript.Write(models.Outcome{
		FilePath:        mediaPath,
		Status:          models.StatusSuccess,
		Transcript:      "With words.",
		Words:           []models.Word{{Text: "With", Start: 0, End: 0.4}, {Text: "words.", Start: 0.4, End: 1}},
		DurationSeconds: 1,
	}, true)
	if err != nil {
		t.Fatalf("writing transcript: %v", err)
	}

	res, err := h.GetTranscript(context.Background(), callRequest(map[string]any{
		"file_path": path,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Status        string `json:"status"`
		SourceMedia   string `json:"source_media"`
		HasTimestamps bool   `json:"has_timestamps"`
		WordCount     *int   `json:"word_count"`
	}
	decodePayload(t, res, &payload)
	if payload.Status != "success" {
		t.Fatalf("status = %q, want success", payload.Status)
	}
	if payload.SourceMedia != mediaPath {
		t.Errorf("source media = %q, want %q", payload.SourceMedia, mediaPath)
	}
	if !payload.HasTimestamps {
		t.Error("JSON transcript should report timestamps")
	}
	if payload.WordCount == nil || *payload.WordCount != 2 {
		t.Errorf("word count = %v, want 2", payload.WordCount)
	}
}

func TestGetTranscriptNotFound(t *testing.T) {
	h := newTestHandlers(&fakeClient{})
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "meeting.mp3")
	if err := os.WriteFile(mediaPath, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := h.GetTranscript(context.Background(), callRequest(map[string]any{
		"file_path": mediaPath,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	decodePayload(t, res, &payload)
	if payload.Status != "error" {
		t.Errorf("status = %q, want error", payload.Status)
	}
	if payload.ErrorMessage != "No transcript found for: "+mediaPath {
		t.Errorf("error message = %q", payload.ErrorMessage)
	}
}

func TestGetUsage(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{
		listJobs: func(ctx context.Context) ([]provider.JobSummary, error) {
			return []provider.JobSummary{
				{ID: "a", CreatedAt: now, DurationSeconds: 1800},
				{ID: "b", CreatedAt: now, DurationSeconds: 1800},
			}, nil
		},
	}
	h := newTestHandlers(client)

	res, err := h.GetUsage(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Status             string   `json:"status"`
		HoursUsedThisMonth float64  `json:"hours_used_this_month"`
		MonthlyLimitHours  *float64 `json:"monthly_limit_hours"`
		HoursRemaining     *float64 `json:"hours_remaining"`
		JobsThisMonth      int      `json:"jobs_this_month"`
	}
	decodePayload(t, res, &payload)
	if payload.Status != "success" {
		t.Fatalf("status = %q, want success", payload.Status)
	}
	if payload.HoursUsedThisMonth != 1.0 {
		t.Errorf("hours used = %v, want 1.0", payload.HoursUsedThisMonth)
	}
	if payload.JobsThisMonth != 2 {
		t.Errorf("jobs = %d, want 2", payload.JobsThisMonth)
	}
	if payload.MonthlyLimitHours != nil || payload.HoursRemaining != nil {
		t.Error("limit fields should be null")
	}
}

func TestGetUsageError(t *testing.T) {
	client := &fakeClient{
		listJobs: func(ctx context.Context) ([]provider.JobSummary, error) {
			return nil, &provider.APIError{StatusCode: 401, Detail: "bad key"}
		},
	}
	h := newTestHandlers(client)

	res, err := h.GetUsage(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	decodePayload(t, res, &payload)
	if payload.Status != "error" {
		t.Errorf("status = %q, want error", payload.Status)
	}
	if payload.ErrorMessage != "Invalid Speechmatics API key." {
		t.Errorf("error message = %q", payload.ErrorMessage)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{0, 1, 50, 1},
		{100, 1, 50, 50},
		{10, 1, 50, 10},
		{1, 1, 50, 1},
		{50, 1, 50, 50},
	}
	for _, tt := range tests {
		if got := clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestNewHandlersDefaultConcurrencyBounds(t *testing.T) {
	h := newTestHandlers(&fakeClient{})
	if h.defaultConcurrency != transcribe.DefaultMaxConcurrent {
		t.Errorf("default concurrency = %d", h.defaultConcurrency)
	}

	out := NewHandlers(transcribe.New(&fakeClient{}), media.NewProbe(time.Second), events.New(nil), "en", 0)
	if out.defaultConcurrency != transcribe.DefaultMaxConcurrent {
		t.Errorf("out-of-range default concurrency = %d, want %d", out.defaultConcurrency, transcribe.DefaultMaxConcurrent)
	}
}
