package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"reelforge/internal/fileutil"
	"reelforge/internal/logging"
	"reelforge/internal/run"
	"reelforge/internal/services"
	"reelforge/internal/services/kling"
)

// stageVideoGeneration dispatches on the scenario's provider. Kling renders
// remotely and hands back an HTTPS URL; Runway produces local segments that
// get chained and concatenated, recorded as a file:// URL.
func (c *Controller) stageVideoGeneration(ctx context.Context, state *runState) error {
	artwork, err := os.ReadFile(stringOrEmpty(state.run.Assets.ArtworkPath))
	if err != nil {
		return services.Wrap(services.ErrNotFound, run.StageVideoGeneration, "read artwork", "", err)
	}

	switch state.provider {
	case ProviderKling:
		return c.generateWithKling(ctx, state, artwork)
	case ProviderRunway:
		return c.generateWithRunway(ctx, state, artwork)
	default:
		return services.Wrap(services.ErrValidation, run.StageVideoGeneration, "dispatch",
			fmt.Sprintf("provider %q has no generator", state.provider), nil)
	}
}

func (c *Controller) generateWithKling(ctx context.Context, state *runState, artwork []byte) error {
	scenario := state.scenario
	result, err := c.deps.Kling.ImageToVideo(ctx, artwork,
		scenario.OpeningScene.Prompt, scenario.OpeningScene.Duration)
	if err != nil {
		return services.Wrap(classifyProviderError(err), run.StageVideoGeneration, "kling opening", "", err)
	}
	state.logger.Info("opening clip generated",
		logging.String(logging.FieldProvider, "kling"),
		logging.String("video_id", result.VideoID))

	for i, extension := range scenario.Extensions {
		extended, err := c.extendWithRetries(ctx, state, result.VideoID, extension.Prompt, i+1)
		if err != nil {
			// Keep the last successful video and stop extending.
			state.logger.Warn("extension attempts exhausted, keeping current video",
				logging.Int("extension", i+1),
				logging.Error(err))
			break
		}
		result = extended
	}

	rawPath := state.project.RawVideo()
	if err := fileutil.Download(ctx, c.httpClient, result.VideoURL, rawPath); err != nil {
		return services.Wrap(services.ErrTransient, run.StageVideoGeneration, "download video", "", err)
	}
	c.logDownloaded(state, rawPath)

	state.run.Assets.RawVideoURL = run.StringPtr(result.VideoURL)
	state.run.Assets.RawVideoPath = run.StringPtr(rawPath)
	return nil
}

func (c *Controller) extendWithRetries(ctx context.Context, state *runState, videoID, prompt string, index int) (result *kling.Result, err error) {
	attempts := c.cfg.Workflow.ExtensionMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := time.Duration(c.cfg.Workflow.ExtensionRetrySeconds) * time.Second

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = c.deps.Kling.ExtendVideo(ctx, videoID, prompt)
		if err == nil {
			state.logger.Info("extension generated",
				logging.Int("extension", index),
				logging.Int("attempt", attempt))
			return result, nil
		}
		state.logger.Warn("extension attempt failed",
			logging.Int("extension", index),
			logging.Int("attempt", attempt),
			logging.Error(err))
		if attempt < attempts {
			if sleepErr := c.sleeper(ctx, delay); sleepErr != nil {
				return nil, sleepErr
			}
		}
	}
	return nil, err
}

func (c *Controller) generateWithRunway(ctx context.Context, state *runState, artwork []byte) error {
	scenario := state.scenario
	aspect := scenario.GlobalSettings.AspectRatio
	if aspect == "" {
		aspect = "9:16"
	}
	if err := os.MkdirAll(state.project.Segments(), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, run.StageVideoGeneration, "create segments dir", "", err)
	}

	segment, err := c.deps.Runway.ImageToVideo(ctx, artwork, scenario.OpeningScene.Prompt, aspect, 10)
	if err != nil {
		return services.Wrap(classifyProviderError(err), run.StageVideoGeneration, "runway opening", "", err)
	}
	openingPath := state.project.Segment(0)
	if err := fileutil.Download(ctx, c.httpClient, segment.VideoURL, openingPath); err != nil {
		return services.Wrap(services.ErrTransient, run.StageVideoGeneration, "download segment", "", err)
	}
	segments := []string{openingPath}

	for i, extension := range scenario.Extensions {
		next, err := c.runwaySegmentWithRetries(ctx, state, segments[len(segments)-1], extension.Prompt, aspect, i+1)
		if err != nil {
			// Keep the segments produced so far and stop chaining.
			state.logger.Warn("segment attempts exhausted, keeping earlier segments",
				logging.Int("extension", i+1),
				logging.Error(err))
			break
		}
		segments = append(segments, next)
	}

	rawPath := state.project.RawVideo()
	if err := c.deps.Media.ConcatVideos(ctx, segments, rawPath); err != nil {
		return services.Wrap(services.ErrExternalTool, run.StageVideoGeneration, "concat segments", "", err)
	}
	c.logDownloaded(state, rawPath)

	state.run.Assets.RawVideoURL = run.StringPtr("file://" + rawPath)
	state.run.Assets.RawVideoPath = run.StringPtr(rawPath)
	return nil
}

func (c *Controller) runwaySegmentWithRetries(ctx context.Context, state *runState, previousSegment, prompt, aspect string, index int) (string, error) {
	framePath := state.project.SegmentFrame(index - 1)
	if err := c.deps.Media.ExtractLastFrame(ctx, previousSegment, framePath); err != nil {
		return "", fmt.Errorf("extract last frame: %w", err)
	}
	frame, err := os.ReadFile(framePath)
	if err != nil {
		return "", fmt.Errorf("read last frame: %w", err)
	}

	attempts := c.cfg.Workflow.ExtensionMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := time.Duration(c.cfg.Workflow.ExtensionRetrySeconds) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		segment, err := c.deps.Runway.ImageToVideo(ctx, frame, prompt, aspect, 10)
		if err == nil {
			segmentPath := state.project.Segment(index)
			if err := fileutil.Download(ctx, c.httpClient, segment.VideoURL, segmentPath); err != nil {
				return "", fmt.Errorf("download segment: %w", err)
			}
			state.logger.Info("segment generated",
				logging.Int("segment", index),
				logging.Int("attempt", attempt))
			return segmentPath, nil
		}
		lastErr = err
		state.logger.Warn("segment attempt failed",
			logging.Int("segment", index),
			logging.Int("attempt", attempt),
			logging.Error(err))
		if attempt < attempts {
			if sleepErr := c.sleeper(ctx, delay); sleepErr != nil {
				return "", sleepErr
			}
		}
	}
	return "", lastErr
}

func (c *Controller) logDownloaded(state *runState, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	state.logger.Info("raw video ready",
		logging.String("path", path),
		logging.Int64("bytes", info.Size()))
}

// classifyProviderError keeps poll-budget timeouts distinguishable from
// provider-reported task failures when stages wrap errors.
func classifyProviderError(err error) error {
	if services.IsTimeout(err) {
		return services.ErrTimeout
	}
	return services.ErrTransient
}
