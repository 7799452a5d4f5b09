package pipeline

import (
	"context"
	"fmt"
	"os"

	"reelforge/internal/logging"
	"reelforge/internal/run"
	"reelforge/internal/services"
)

// stageArtworkDesign turns the idea into an image prompt, using the brand
// reference image when one is configured.
func (c *Controller) stageArtworkDesign(ctx context.Context, state *runState) error {
	var reference []byte
	if c.cfg.Assets.ReferenceImage != "" {
		data, err := os.ReadFile(c.cfg.ReferenceImagePath())
		if err != nil {
			state.logger.Warn("reference image unavailable, designing without it",
				logging.Error(err))
		} else {
			reference = data
		}
	}
	state.reference = reference
	prompt, err := c.deps.Designer.DesignPrompt(ctx, state.run.Idea, reference)
	if err != nil {
		return services.Wrap(services.ErrTransient, run.StageArtworkDesign, "design prompt", "", err)
	}
	state.run.Assets.ArtworkPrompt = run.StringPtr(prompt)
	return nil
}

// stageArtworkBuild generates artwork and gates it through the quality
// checker, up to the configured number of attempts. When every attempt fails
// the check, the last artifact on disk is kept; the stage only fails when no
// artwork was produced at all.
func (c *Controller) stageArtworkBuild(ctx context.Context, state *runState) error {
	prompt := stringOrEmpty(state.run.Assets.ArtworkPrompt)
	attempts := c.cfg.Workflow.ArtworkMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	artworkPath := state.project.Artwork()

	produced := false
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.deps.Builder.Build(ctx, prompt, state.reference, artworkPath); err != nil {
			lastErr = err
			state.run.Assets.ArtworkRetryCount++
			state.logger.Warn("artwork build attempt failed",
				logging.Int("attempt", attempt),
				logging.Error(err))
			continue
		}
		produced = true

		image, err := os.ReadFile(artworkPath)
		if err != nil {
			lastErr = err
			state.run.Assets.ArtworkRetryCount++
			state.logger.Warn("artwork unreadable after build", logging.Error(err))
			continue
		}
		verdict, err := c.deps.Checker.Check(ctx, image, state.run.Idea)
		if err != nil {
			state.run.Assets.ArtworkRetryCount++
			state.logger.Warn("artwork check errored, retrying",
				logging.Int("attempt", attempt),
				logging.Error(err))
			continue
		}
		if verdict.Passed {
			state.logger.Info("artwork passed quality gate",
				logging.Int("attempt", attempt))
			state.run.Assets.ArtworkPath = run.StringPtr(artworkPath)
			return nil
		}
		state.run.Assets.ArtworkRetryCount++
		state.logger.Warn("artwork failed quality gate",
			logging.Int("attempt", attempt),
			logging.String("feedback", verdict.Feedback))
	}

	if !produced {
		return services.Wrap(services.ErrTransient, run.StageArtworkBuild, "build artwork",
			fmt.Sprintf("no artwork after %d attempts", attempts), lastErr)
	}
	// The gate never passed; ship the last artifact anyway.
	state.logger.Warn("quality gate exhausted, keeping last artwork",
		logging.Int("attempts", attempts))
	state.run.Assets.ArtworkPath = run.StringPtr(artworkPath)
	return nil
}
