package media

import (
	"context"
	"fmt"
	"os"
)

// ExtractLastFrame writes the final frame of videoPath as a PNG. The frame
// seeds the next generation segment so chained clips stay continuous.
func (t *Toolkit) ExtractLastFrame(ctx context.Context, videoPath, outputPath string) error {
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("extract last frame: video: %w", err)
	}
	return t.runFFmpeg(ctx,
		"-sseof", "-0.1",
		"-i", videoPath,
		"-frames:v", "1",
		"-update", "1",
		"-q:v", "2",
		outputPath)
}

// MuxAudio replaces the video's audio track with audioPath, trimming to the
// shorter of the two streams.
func (t *Toolkit) MuxAudio(ctx context.Context, videoPath, audioPath, outputPath string) error {
	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("mux audio: audio: %w", err)
	}
	return t.runFFmpeg(ctx,
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outputPath)
}
