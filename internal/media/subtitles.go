package media

import (
	"context"
	"fmt"
	"os"
	"strings"

	"reelforge/internal/logging"
)

// subtitleStyles maps style names to libass force_style overrides. The
// netflix preset is the default for vertical shorts.
var subtitleStyles = map[string]string{
	"netflix": "FontName=Arial,FontSize=14,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000," +
		"BorderStyle=1,Outline=1,Shadow=1,Bold=1,Alignment=2,MarginV=60",
	"youtube": "FontName=Roboto,FontSize=13,PrimaryColour=&H00FFFFFF,BackColour=&H80000000," +
		"BorderStyle=4,Outline=0,Shadow=0,Alignment=2,MarginV=50",
	"minimal": "FontName=Helvetica,FontSize=11,PrimaryColour=&H00FFFFFF," +
		"BorderStyle=1,Outline=0,Shadow=0,Alignment=2,MarginV=40",
}

// SubtitleStyles lists the supported style names.
func SubtitleStyles() []string {
	return []string{"netflix", "youtube", "minimal"}
}

// BurnSubtitles renders the SRT file into the video frames using the named
// style preset and writes the result to outputPath.
func (t *Toolkit) BurnSubtitles(ctx context.Context, videoPath, srtPath, style, outputPath string) error {
	forceStyle, ok := subtitleStyles[strings.TrimSpace(style)]
	if !ok {
		return fmt.Errorf("burn subtitles: unknown style %q", style)
	}
	if _, err := os.Stat(srtPath); err != nil {
		return fmt.Errorf("burn subtitles: subtitle file: %w", err)
	}

	filter := fmt.Sprintf("subtitles=%s:force_style='%s'", escapeFilterPath(srtPath), forceStyle)
	t.logger.Info("burning subtitles",
		logging.String("style", style),
		logging.String("output", outputPath))
	return t.runFFmpeg(ctx,
		"-i", videoPath,
		"-vf", filter,
		"-c:a", "copy",
		outputPath)
}

// escapeFilterPath escapes the characters ffmpeg filter arguments treat
// specially. Colons show up in Windows-style paths and timestamps.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		":", "\\:",
		"'", "\\'",
		"[", "\\[",
		"]", "\\]",
		",", "\\,",
		";", "\\;",
	)
	return replacer.Replace(path)
}
