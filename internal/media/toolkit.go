// Package media wraps the ffmpeg and ffprobe binaries for the local video
// operations of the pipeline: probing durations, burning subtitles, applying
// watermarks, stitching segments, and branding.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"reelforge/internal/logging"
)

type commandRunner func(ctx context.Context, name string, args ...string) (string, error)

// Toolkit executes ffmpeg operations against local files.
type Toolkit struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
	run     commandRunner
}

// Option customizes a Toolkit.
type Option func(*Toolkit)

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(r commandRunner) Option {
	return func(t *Toolkit) {
		if r != nil {
			t.run = r
		}
	}
}

// NewToolkit constructs a media toolkit bound to the given binaries.
func NewToolkit(ffmpegBin, ffprobeBin string, logger *slog.Logger, opts ...Option) *Toolkit {
	toolkit := &Toolkit{
		ffmpeg:  strings.TrimSpace(ffmpegBin),
		ffprobe: strings.TrimSpace(ffprobeBin),
		logger:  logging.NewComponentLogger(logger, "media"),
		run:     defaultCommandRunner,
	}
	if toolkit.ffmpeg == "" {
		toolkit.ffmpeg = "ffmpeg"
	}
	if toolkit.ffprobe == "" {
		toolkit.ffprobe = "ffprobe"
	}
	for _, opt := range opts {
		opt(toolkit)
	}
	return toolkit
}

// SetLogger updates the toolkit's logging destination.
func (t *Toolkit) SetLogger(logger *slog.Logger) {
	if t == nil {
		return
	}
	t.logger = logging.NewComponentLogger(logger, "media")
}

func (t *Toolkit) runFFmpeg(ctx context.Context, args ...string) error {
	full := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	t.logger.Debug("running ffmpeg", logging.String("args", strings.Join(args, " ")))
	if _, err := t.run(ctx, t.ffmpeg, full...); err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}
