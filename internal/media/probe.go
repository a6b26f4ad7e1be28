// Package media locates media files on disk and probes their playback
// duration via ffprobe.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// DefaultProbeTimeout bounds one ffprobe invocation.
const DefaultProbeTimeout = 30 * time.Second

// commandRunner abstracts process execution for testability.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// execCommand runs a command via os/exec and returns its stdout.
func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, stderr.String())
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Probe determines media durations by invoking ffprobe with a bounded timeout.
type Probe struct {
	timeout time.Duration
	run     commandRunner
}

// NewProbe creates a probe that shells out to ffprobe. A non-positive
// timeout selects the default.
func NewProbe(timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Probe{timeout: timeout, run: execCommand}
}

// newProbeForTests creates a probe with an injected command runner.
func newProbeForTests(timeout time.Duration, run commandRunner) *Probe {
	return &Probe{timeout: timeout, run: run}
}

// ffprobeOutput matches the `-print_format json -show_format` schema.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the playback duration of path in seconds. It fails when
// ffprobe errors, times out, or its output carries no duration field.
func (p *Probe) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.run(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("ffprobe timed out after %s", p.timeout)
		}
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if parsed.Format.Duration == "" {
		return 0, errors.New("ffprobe output has no duration field")
	}

	seconds, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", parsed.Format.Duration, err)
	}
	return seconds, nil
}
