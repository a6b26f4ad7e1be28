// Package transcript persists transcription outcomes to disk and reads them
// back. Two formats exist per media file: a plain-text document with a
// fixed four-line header, and a JSON document with word-level timings.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/models"
	"github.com/ArchieMcM234/speechmatics-claude-code-mcp/internal/observability/metrics"
)

// Transcript artifact suffixes, appended to the media file path.
const (
	TextSuffix = ".transcript.txt"
	JSONSuffix = ".transcript.json"
)

// ErrNotFound is returned when no transcript exists for a media file.
var ErrNotFound = errors.New("transcript not found")

// Path returns the transcript path for a media file in the given format.
func Path(mediaPath string, withTimestamps bool) string {
	if withTimestamps {
		return mediaPath + JSONSuffix
	}
	return mediaPath + TextSuffix
}

// Find locates an existing transcript for a media file, probing both format
// suffixes. The text variant wins when both exist.
func Find(mediaPath string) (string, error) {
	for _, suffix := range []string{TextSuffix, JSONSuffix} {
		candidate := mediaPath + suffix
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w for: %s", ErrNotFound, mediaPath)
}

// IsTranscriptPath reports whether path names a transcript artifact rather
// than a media file.
func IsTranscriptPath(path string) bool {
	return strings.HasSuffix(path, TextSuffix) || strings.HasSuffix(path, JSONSuffix)
}

// SourceMedia derives the media path a transcript artifact belongs to.
func SourceMedia(transcriptPath string) string {
	if strings.HasSuffix(transcriptPath, TextSuffix) {
		return strings.TrimSuffix(transcriptPath, TextSuffix)
	}
	return strings.TrimSuffix(transcriptPath, JSONSuffix)
}

// jsonDocument is the on-disk JSON transcript schema.
type jsonDocument struct {
	Metadata jsonMetadata  `json:"metadata"`
	Text     string        `json:"transcript"`
	Words    []models.Word `json:"words"`
}

type jsonMetadata struct {
	Source          string  `json:"source"`
	TranscribedAt   string  `json:"transcribed_at"`
	DurationSeconds float64 `json:"duration_seconds"`
	Accuracy        string  `json:"accuracy"`
}

// Write persists a successful outcome next to its media file and returns the
// transcript path. With timestamps the JSON format is used; otherwise the
// headered text format. Writes are atomic (temp file plus rename), so a
// reader never observes a partial transcript.
func Write(outcome models.Outcome, withTimestamps bool) (string, error) {
	outputPath := Path(outcome.FilePath, withTimestamps)
	source := filepath.Base(outcome.FilePath)
	transcribedAt := time.Now().UTC().Format(time.RFC3339)

	var content []byte
	if withTimestamps {
		doc := jsonDocument{
			Metadata: jsonMetadata{
				Source:          source,
				TranscribedAt:   transcribedAt,
				DurationSeconds: outcome.DurationSeconds,
				Accuracy:        string(outcome.Accuracy),
			},
			Text: outcome.Transcript,
			// Absent words normalize to an empty array on disk.
			Words: append([]models.Word{}, outcome.Words...),
		}
		var err error
		content, err = json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", err
		}
	} else {
		durationStr := "unknown"
		if outcome.DurationSeconds > 0 {
			durationStr = FormatDuration(outcome.DurationSeconds)
		}
		header := fmt.Sprintf("# Transcribed: %s\n# Source: %s\n# Duration: %s\n# Accuracy: %s\n\n",
			transcribedAt, source, durationStr, outcome.Accuracy)
		content = []byte(header + outcome.Transcript)
	}

	if err := writeAtomic(outputPath, content); err != nil {
		return "", err
	}

	format := "text"
	if withTimestamps {
		format = "json"
	}
	metrics.DefaultMetrics.RecordTranscriptWritten(format)
	return outputPath, nil
}

// writeAtomic writes content to a temp file in the target directory and
// renames it into place.
func writeAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Reading is a transcript read back from disk. DurationSeconds is nil when
// the artifact carries no parseable duration.
type Reading struct {
	Transcript      string
	DurationSeconds *float64
	HasTimestamps   bool
	WordCount       int
}

// Read loads a transcript artifact, sniffing the format by path suffix.
func Read(path string) (*Reading, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	if strings.HasSuffix(path, ".json") {
		var doc jsonDocument
		if err := json.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("parse transcript JSON: %w", err)
		}
		duration := doc.Metadata.DurationSeconds
		return &Reading{
			Transcript:      doc.Text,
			DurationSeconds: &duration,
			HasTimestamps:   true,
			WordCount:       len(doc.Words),
		}, nil
	}

	return readText(string(content)), nil
}

// readText parses the headered plain-text format: everything after the first
// blank line is transcript, trimmed once as a whole block. The duration is
// reparsed from the `# Duration:` header line when present.
func readText(content string) *Reading {
	lines := strings.Split(content, "\n")

	var transcriptLines []string
	pastHeader := false
	for _, line := range lines {
		if pastHeader {
			transcriptLines = append(transcriptLines, line)
		} else if line == "" {
			pastHeader = true
		}
	}

	reading := &Reading{
		Transcript: strings.TrimSpace(strings.Join(transcriptLines, "\n")),
	}

	for _, line := range lines[:min(len(lines), 5)] {
		if !strings.HasPrefix(line, "# Duration:") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, "# Duration:"))
		if seconds, ok := parseDuration(value); ok {
			reading.DurationSeconds = &seconds
		}
		break
	}
	return reading
}

// parseDuration accepts M:SS and H:MM:SS clock strings.
func parseDuration(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}

	values := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, false
		}
		values[i] = n
	}

	if len(values) == 2 {
		return float64(values[0]*60 + values[1]), true
	}
	return float64(values[0]*3600 + values[1]*60 + values[2]), true
}

// FormatDuration renders whole seconds as H:MM:SS when hours are present,
// else M:SS. Sub-second precision is discarded.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
