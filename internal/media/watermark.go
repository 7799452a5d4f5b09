package media

import (
	"context"
	"fmt"
	"os"
	"strings"

	"reelforge/internal/logging"
)

const watermarkMargin = 20

// watermark overlay coordinates keyed by position name. W/H are the frame
// dimensions, w/h the scaled logo dimensions.
var watermarkPositions = map[string]string{
	"top_left":     fmt.Sprintf("%d:%d", watermarkMargin, watermarkMargin),
	"top_right":    fmt.Sprintf("W-w-%d:%d", watermarkMargin, watermarkMargin),
	"bottom_left":  fmt.Sprintf("%d:H-h-%d", watermarkMargin, watermarkMargin),
	"bottom_right": fmt.Sprintf("W-w-%d:H-h-%d", watermarkMargin, watermarkMargin),
	"center":       "(W-w)/2:(H-h)/2",
}

// WatermarkPositions lists the supported position names.
func WatermarkPositions() []string {
	return []string{"top_left", "top_right", "bottom_left", "bottom_right", "center"}
}

// WatermarkSpec controls watermark placement and appearance.
type WatermarkSpec struct {
	LogoPath string
	Position string
	Opacity  float64 // 0..1
	Scale    float64 // logo width as a fraction of frame width
}

// ApplyWatermark overlays the logo onto every frame of videoPath.
func (t *Toolkit) ApplyWatermark(ctx context.Context, videoPath string, spec WatermarkSpec, outputPath string) error {
	overlay, ok := watermarkPositions[strings.TrimSpace(spec.Position)]
	if !ok {
		return fmt.Errorf("watermark: unknown position %q", spec.Position)
	}
	if spec.Opacity <= 0 || spec.Opacity > 1 {
		return fmt.Errorf("watermark: opacity %v out of range (0, 1]", spec.Opacity)
	}
	if spec.Scale <= 0 || spec.Scale > 1 {
		return fmt.Errorf("watermark: scale %v out of range (0, 1]", spec.Scale)
	}
	if _, err := os.Stat(spec.LogoPath); err != nil {
		return fmt.Errorf("watermark: logo: %w", err)
	}

	filter := fmt.Sprintf(
		"[1:v][0:v]scale2ref=w=main_w*%.3f:h=-1[logo][base];"+
			"[logo]format=rgba,colorchannelmixer=aa=%.3f[mark];[base][mark]overlay=%s",
		spec.Scale, spec.Opacity, overlay)
	t.logger.Info("applying watermark",
		logging.String("position", spec.Position),
		logging.Float64("opacity", spec.Opacity))
	return t.runFFmpeg(ctx,
		"-i", videoPath,
		"-i", spec.LogoPath,
		"-filter_complex", filter,
		"-c:a", "copy",
		outputPath)
}
