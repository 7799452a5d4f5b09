package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelforge/internal/logging"
)

// ConcatVideos stitches the segment files into one video. Segments from the
// same generation task share codecs, so the stream-copying concat demuxer is
// tried first; if it fails the segments are re-encoded through the concat
// filter instead.
func (t *Toolkit) ConcatVideos(ctx context.Context, segments []string, outputPath string) error {
	if len(segments) == 0 {
		return errors.New("concat: no segments")
	}
	for _, segment := range segments {
		if _, err := os.Stat(segment); err != nil {
			return fmt.Errorf("concat: segment: %w", err)
		}
	}
	if len(segments) == 1 {
		return t.runFFmpeg(ctx, "-i", segments[0], "-c", "copy", outputPath)
	}

	t.logger.Info("concatenating segments", logging.Int("count", len(segments)))
	if err := t.concatDemuxer(ctx, segments, outputPath); err != nil {
		t.logger.Warn("concat demuxer failed, re-encoding", logging.Error(err))
		return t.concatFilter(ctx, segments, outputPath)
	}
	return nil
}

func (t *Toolkit) concatDemuxer(ctx context.Context, segments []string, outputPath string) error {
	list, err := os.CreateTemp(filepath.Dir(outputPath), "concat-*.txt")
	if err != nil {
		return fmt.Errorf("concat: temp list: %w", err)
	}
	defer os.Remove(list.Name())
	for _, segment := range segments {
		abs, err := filepath.Abs(segment)
		if err != nil {
			list.Close()
			return fmt.Errorf("concat: resolve segment: %w", err)
		}
		fmt.Fprintf(list, "file '%s'\n", strings.ReplaceAll(abs, "'", "'\\''"))
	}
	if err := list.Close(); err != nil {
		return fmt.Errorf("concat: close list: %w", err)
	}
	return t.runFFmpeg(ctx,
		"-f", "concat", "-safe", "0",
		"-i", list.Name(),
		"-c", "copy",
		outputPath)
}

func (t *Toolkit) concatFilter(ctx context.Context, segments []string, outputPath string) error {
	// Generated segments are video-only; the voiceover track is muxed in a
	// later step, so the re-encode path concatenates video streams alone.
	args := make([]string, 0, len(segments)*2+6)
	var filter strings.Builder
	for i, segment := range segments {
		args = append(args, "-i", segment)
		fmt.Fprintf(&filter, "[%d:v]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=0[v]", len(segments))
	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[v]",
		outputPath)
	return t.runFFmpeg(ctx, args...)
}
