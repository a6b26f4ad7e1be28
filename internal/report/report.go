// Package report folds batch outcomes into an aggregate summary.
package report

import (
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/models"
)

// FileReport is the per-file entry of a batch report.
type FileReport struct {
	File            string        `json:"file"`
	TranscriptPath  string        `json:"transcript_path,omitempty"`
	DurationSeconds float64       `json:"duration_seconds"`
	Status          models.Status `json:"status"`
	ErrorKind       string        `json:"error_kind,omitempty"`
	ErrorMessage    string        `json:"error_message,omitempty"`
}

// BatchReport summarizes one batch run.
type BatchReport struct {
	FilesProcessed       int          `json:"files_processed"`
	FilesFailed          int          `json:"files_failed"`
	Files                []FileReport `json:"transcripts"`
	TotalDurationSeconds float64      `json:"total_duration_seconds"`
}

// Summarize aggregates outcomes in their given order. transcriptPaths maps a
// file path to its persisted transcript, when one was written. Duration is
// summed over all outcomes: probing is independent of transcription success,
// so failed files still contribute their known duration.
func Summarize(outcomes []models.Outcome, transcriptPaths map[string]string) BatchReport {
	r := BatchReport{Files: make([]FileReport, 0, len(outcomes))}

	for _, outcome := range outcomes {
		entry := FileReport{
			File:            outcome.FilePath,
			DurationSeconds: outcome.DurationSeconds,
			Status:          outcome.Status,
		}
		if outcome.Succeeded() {
			r.FilesProcessed++
			entry.TranscriptPath = transcriptPaths[outcome.FilePath]
		} else {
			r.FilesFailed++
			entry.ErrorKind = string(outcome.ErrorKind)
			entry.ErrorMessage = outcome.ErrorDetail
		}
		r.TotalDurationSeconds += outcome.DurationSeconds
		r.Files = append(r.Files, entry)
	}
	return r
}
