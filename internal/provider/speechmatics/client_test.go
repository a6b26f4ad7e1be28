package speechmatics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/provider"
)

func writeMediaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.mp3")
	if err := os.WriteFile(path, []byte("audio-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key",
		WithBaseURL(srv.URL),
		WithPollInterval(time.Millisecond),
		WithHTTPClient(srv.Client()),
	)
}

func TestSubmitJob(t *testing.T) {
	var gotAuth, gotConfig string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/jobs" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotConfig = r.FormValue("config")
		if _, _, err := r.FormFile("data_file"); err != nil {
			t.Errorf("data_file part missing: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"job-7"}`)
	}))

	jobID, err := client.SubmitJob(context.Background(), writeMediaFile(t), provider.JobConfig{
		Language:       "en",
		OperatingPoint: provider.OperatingPointEnhanced,
		Diarization:    true,
	})
	if err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}
	if jobID != "job-7" {
		t.Errorf("jobID = %q, want job-7", jobID)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}

	var cfg struct {
		Type                string `json:"type"`
		TranscriptionConfig struct {
			Language       string `json:"language"`
			OperatingPoint string `json:"operating_point"`
			Diarization    string `json:"diarization"`
		} `json:"transcription_config"`
	}
	if err := json.Unmarshal([]byte(gotConfig), &cfg); err != nil {
		t.Fatalf("config payload not JSON: %v", err)
	}
	if cfg.Type != "transcription" {
		t.Errorf("config type = %q", cfg.Type)
	}
	if cfg.TranscriptionConfig.OperatingPoint != "enhanced" {
		t.Errorf("operating point = %q", cfg.TranscriptionConfig.OperatingPoint)
	}
	if cfg.TranscriptionConfig.Diarization != "speaker" {
		t.Errorf("diarization = %q, want speaker", cfg.TranscriptionConfig.Diarization)
	}
}

func TestSubmitJobOmitsDiarizationWhenDisabled(t *testing.T) {
	var gotConfig string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		gotConfig = r.FormValue("config")
		fmt.Fprint(w, `{"id":"job-1"}`)
	}))

	if _, err := client.SubmitJob(context.Background(), writeMediaFile(t), provider.JobConfig{
		Language:       "en",
		OperatingPoint: provider.OperatingPointStandard,
	}); err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}

	var raw map[string]json.RawMessage
	_ = json.Unmarshal([]byte(gotConfig), &raw)
	var tc map[string]any
	_ = json.Unmarshal(raw["transcription_config"], &tc)
	if _, present := tc["diarization"]; present {
		t.Errorf("diarization must be omitted when disabled, config = %s", gotConfig)
	}
}

func TestWaitForCompletionPollsUntilDone(t *testing.T) {
	var polls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jobs/job-9":
			status := "running"
			if atomic.AddInt32(&polls, 1) >= 3 {
				status = "done"
			}
			fmt.Fprintf(w, `{"job":{"id":"job-9","status":%q}}`, status)
		case "/jobs/job-9/transcript":
			if r.URL.Query().Get("format") != "json-v2" {
				t.Errorf("format = %q, want json-v2", r.URL.Query().Get("format"))
			}
			fmt.Fprint(w, `{"results":[
				{"type":"word","start_time":0.1,"end_time":0.5,"alternatives":[{"content":"hi","confidence":0.9}]}
			]}`)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	transcript, err := client.WaitForCompletion(context.Background(), "job-9")
	if err != nil {
		t.Fatalf("WaitForCompletion() error = %v", err)
	}
	if atomic.LoadInt32(&polls) < 3 {
		t.Errorf("polls = %d, want at least 3", polls)
	}
	if transcript.Text() != "hi" {
		t.Errorf("transcript = %q", transcript.Text())
	}
}

func TestWaitForCompletionRejectedJob(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"job":{"id":"job-2","status":"rejected","errors":[{"message":"unsupported format"}]}}`)
	}))

	_, err := client.WaitForCompletion(context.Background(), "job-2")
	if err == nil {
		t.Fatal("expected error for rejected job")
	}
}

func TestWaitForCompletionContextCancel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"job":{"id":"job-3","status":"running"}}`)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.WaitForCompletion(ctx, "job-3")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context deadline", err)
	}
}

func TestErrorClassificationPayload(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantDetail string
	}{
		{"detail field", http.StatusBadRequest, `{"detail":"config invalid"}`, "config invalid"},
		{"error field", http.StatusForbidden, `{"error":"quota exceeded"}`, "quota exceeded"},
		{"raw body", http.StatusInternalServerError, `upstream exploded`, "upstream exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				fmt.Fprint(w, tt.body)
			}))

			_, err := client.ListJobs(context.Background())
			var apiErr *provider.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *provider.APIError", err)
			}
			if apiErr.StatusCode != tt.statusCode {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.statusCode)
			}
			if apiErr.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", apiErr.Detail, tt.wantDetail)
			}
		})
	}
}

func TestListJobs(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"jobs":[
			{"id":"a","status":"done","created_at":"2026-08-02T10:00:00Z","duration":120.5},
			{"id":"b","status":"running","created_at":"2026-08-20T09:30:00Z","duration":0}
		]}`)
	}))

	jobs, err := client.ListJobs(context.Background())
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}
	if jobs[0].ID != "a" || jobs[0].DurationSeconds != 120.5 {
		t.Errorf("jobs[0] = %+v", jobs[0])
	}
	want := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	if !jobs[0].CreatedAt.Equal(want) {
		t.Errorf("created_at = %v, want %v", jobs[0].CreatedAt, want)
	}
}
