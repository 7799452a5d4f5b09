package media

import (
	"context"
	"fmt"
	"os"
	"strings"

	"reelforge/internal/logging"
)

// AddTitleOverlay draws the title text over the opening seconds of the video.
func (t *Toolkit) AddTitleOverlay(ctx context.Context, videoPath, title, outputPath string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title overlay: title required")
	}
	filter := fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=h/18:borderw=3:bordercolor=black:"+
			"x=(w-text_w)/2:y=h/8:enable='between(t,0.5,4.5)'",
		escapeDrawtext(title))
	t.logger.Info("adding title overlay", logging.String("title", title))
	return t.runFFmpeg(ctx,
		"-i", videoPath,
		"-vf", filter,
		"-c:a", "copy",
		outputPath)
}

// BrandingSpec names the optional intro and outro clips.
type BrandingSpec struct {
	IntroPath string
	OutroPath string
}

// ApplyBranding prepends the intro and appends the outro around the main
// video. Branding clips rarely share codecs with generated footage, so the
// stitch always re-encodes through the concat filter with every input scaled
// to the main video's dimensions.
func (t *Toolkit) ApplyBranding(ctx context.Context, videoPath string, spec BrandingSpec, outputPath string) error {
	inputs := make([]string, 0, 3)
	if spec.IntroPath != "" {
		if _, err := os.Stat(spec.IntroPath); err != nil {
			return fmt.Errorf("branding: intro: %w", err)
		}
		inputs = append(inputs, spec.IntroPath)
	}
	mainIndex := len(inputs)
	inputs = append(inputs, videoPath)
	if spec.OutroPath != "" {
		if _, err := os.Stat(spec.OutroPath); err != nil {
			return fmt.Errorf("branding: outro: %w", err)
		}
		inputs = append(inputs, spec.OutroPath)
	}
	if len(inputs) == 1 {
		return fmt.Errorf("branding: no intro or outro configured")
	}

	probe, err := t.Probe(ctx, videoPath)
	if err != nil {
		return err
	}
	width, height := probe.VideoDimensions()
	if width == 0 || height == 0 {
		return fmt.Errorf("branding: cannot determine dimensions of %s", videoPath)
	}

	args := make([]string, 0, len(inputs)*2+8)
	var filter strings.Builder
	for i := range inputs {
		args = append(args, "-i", inputs[i])
		fmt.Fprintf(&filter,
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=30[v%d];",
			i, width, height, width, height, i)
		fmt.Fprintf(&filter,
			"[%d:a]aresample=44100,aformat=channel_layouts=stereo[a%d];", i, i)
	}
	for i := range inputs {
		fmt.Fprintf(&filter, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=1[v][a]", len(inputs))

	t.logger.Info("applying branding",
		logging.Int("clips", len(inputs)),
		logging.Int("main_index", mainIndex))
	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[v]", "-map", "[a]",
		outputPath)
	return t.runFFmpeg(ctx, args...)
}

func escapeDrawtext(text string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"'", "’",
		":", "\\:",
		"%", "\\%",
	)
	return replacer.Replace(text)
}
