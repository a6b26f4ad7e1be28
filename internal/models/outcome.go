// Package models defines the data structures shared across the transcription
// service: per-file outcomes, word timings, and usage reports.
package models

// Status tags an Outcome as success or error.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Accuracy selects the provider operating point.
type Accuracy string

const (
	AccuracyStandard Accuracy = "standard"
	AccuracyEnhanced Accuracy = "enhanced"
)

// ParseAccuracy maps a caller-supplied string onto a known accuracy level,
// defaulting to standard for anything unrecognized.
func ParseAccuracy(s string) Accuracy {
	if s == string(AccuracyEnhanced) {
		return AccuracyEnhanced
	}
	return AccuracyStandard
}

// ErrorKind classifies a transcription failure.
type ErrorKind string

const (
	ErrNotFound             ErrorKind = "not_found"
	ErrDurationProbeFailed  ErrorKind = "duration_probe_failed"
	ErrRateLimited          ErrorKind = "rate_limited"
	ErrInvalidCredentials   ErrorKind = "invalid_credentials"
	ErrQuotaOrAuth          ErrorKind = "quota_or_auth_error"
	ErrBadRequest           ErrorKind = "bad_request"
	ErrRemote               ErrorKind = "remote_error"
	ErrUnknown              ErrorKind = "unknown"
	ErrDirectoryNotFound    ErrorKind = "directory_not_found"
	ErrNotADirectory        ErrorKind = "not_a_directory"
	ErrTranscriptNotFound   ErrorKind = "transcript_not_found"
	ErrTranscriptReadFailed ErrorKind = "transcript_read_failed"
)

// Word is one word-level timing entry extracted from a transcript.
type Word struct {
	Text       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Outcome is the immutable result of transcribing one file. Exactly one of
// Transcript (on success) and ErrorKind (on failure) is populated. Words is
// nil when the provider returned no usable word timings, which is distinct
// from an empty slice.
type Outcome struct {
	FilePath        string
	Status          Status
	Transcript      string
	Words           []Word
	DurationSeconds float64
	Accuracy        Accuracy
	Diarization     bool
	ErrorKind       ErrorKind
	ErrorDetail     string
	JobID           string
}

// Succeeded reports whether the outcome carries a transcript.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// UsageReport summarizes provider usage for the current UTC month.
// Monthly limit and remaining hours are not exposed by the provider API.
type UsageReport struct {
	HoursUsedThisMonth float64 `json:"hours_used_this_month"`
	JobsThisMonth      int     `json:"jobs_this_month"`
}
