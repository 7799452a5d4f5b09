package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reelforge/internal/logging"
)

// imageClient is the slice of the image model client the builder needs.
type imageClient interface {
	Generate(ctx context.Context, prompt string, reference []byte) ([]byte, error)
}

// Builder renders artwork prompts into image files.
type Builder struct {
	images imageClient
	logger *slog.Logger
}

// NewBuilder constructs a Builder.
func NewBuilder(images imageClient, logger *slog.Logger) *Builder {
	return &Builder{
		images: images,
		logger: logging.NewComponentLogger(logger, "builder"),
	}
}

// Build generates the artwork for prompt and writes it to outputPath. The
// reference image, when present, is sent along so the model keeps the brand
// character consistent across runs.
func (b *Builder) Build(ctx context.Context, prompt string, reference []byte, outputPath string) error {
	if strings.TrimSpace(prompt) == "" {
		return errors.New("build artwork: prompt required")
	}
	image, err := b.images.Generate(ctx, prompt, reference)
	if err != nil {
		return fmt.Errorf("build artwork: %w", err)
	}
	if len(image) == 0 {
		return errors.New("build artwork: model returned empty image")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("build artwork: create dir: %w", err)
	}
	if err := os.WriteFile(outputPath, image, 0o644); err != nil {
		return fmt.Errorf("build artwork: write image: %w", err)
	}
	b.logger.Debug("artwork written",
		logging.String("path", outputPath),
		logging.Int("bytes", len(image)))
	return nil
}
