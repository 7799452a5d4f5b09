package pipeline

import (
	"context"
	"os"
	"strings"

	"reelforge/internal/fileutil"
	"reelforge/internal/logging"
	"reelforge/internal/media"
	"reelforge/internal/run"
	"reelforge/internal/services"
	"reelforge/internal/textutil"
)

// stageLipsync aligns the raw video's mouth movement to the voiceover. The
// sync service needs public URLs, so local artifacts are uploaded first.
func (c *Controller) stageLipsync(ctx context.Context, state *runState) error {
	videoURL := stringOrEmpty(state.run.Assets.RawVideoURL)
	if strings.HasPrefix(videoURL, "file://") {
		uploaded, err := c.deps.Filehost.Upload(ctx, stringOrEmpty(state.run.Assets.RawVideoPath))
		if err != nil {
			return services.Wrap(services.ErrTransient, run.StageLipsync, "upload video", "", err)
		}
		state.logger.Info("local video uploaded for lip-sync",
			logging.String("url", uploaded))
		videoURL = uploaded
	}
	audioURL, err := c.deps.Filehost.Upload(ctx, stringOrEmpty(state.run.Assets.AudioPath))
	if err != nil {
		return services.Wrap(services.ErrTransient, run.StageLipsync, "upload audio", "", err)
	}

	outputURL, err := c.deps.Lipsync.Sync(ctx, videoURL, audioURL)
	if err != nil {
		return services.Wrap(classifyProviderError(err), run.StageLipsync, "sync", "", err)
	}
	syncedPath := state.project.Lipsynced()
	if err := fileutil.Download(ctx, c.httpClient, outputURL, syncedPath); err != nil {
		return services.Wrap(services.ErrTransient, run.StageLipsync, "download synced video", "", err)
	}

	state.run.Assets.LipsyncedPath = run.StringPtr(syncedPath)
	state.run.Assets.FinalVideoPath = run.StringPtr(syncedPath)
	return nil
}

// stageSubtitleBurn renders the subtitles into the frames. Skipped when no
// subtitle asset exists; on failure the prior final video stands.
func (c *Controller) stageSubtitleBurn(ctx context.Context, state *runState) error {
	if state.run.Assets.SubtitlePath == nil {
		state.logger.Info("no subtitles, skipping burn-in")
		return nil
	}
	outputPath := state.project.Subtitled()
	err := c.deps.Media.BurnSubtitles(ctx,
		stringOrEmpty(state.run.Assets.FinalVideoPath),
		*state.run.Assets.SubtitlePath,
		c.cfg.Workflow.SubtitleStyle,
		outputPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, run.StageSubtitleBurn, "burn", "", err)
	}
	state.run.Assets.SubtitledPath = run.StringPtr(outputPath)
	state.run.Assets.FinalVideoPath = run.StringPtr(outputPath)
	return nil
}

// stageWatermark overlays the brand logo. Skipped when no logo is
// configured or present.
func (c *Controller) stageWatermark(ctx context.Context, state *runState) error {
	if c.cfg.Assets.Logo == "" {
		state.logger.Info("no logo configured, skipping watermark")
		return nil
	}
	logoPath := c.cfg.LogoPath()
	if _, err := os.Stat(logoPath); err != nil {
		state.logger.Info("logo asset absent, skipping watermark",
			logging.String("path", logoPath))
		return nil
	}

	outputPath := state.project.Watermarked()
	err := c.deps.Media.ApplyWatermark(ctx,
		stringOrEmpty(state.run.Assets.FinalVideoPath),
		media.WatermarkSpec{
			LogoPath: logoPath,
			Position: c.cfg.Workflow.WatermarkPosition,
			Opacity:  c.cfg.Workflow.WatermarkOpacity,
			Scale:    c.cfg.Workflow.WatermarkScale,
		},
		outputPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, run.StageWatermark, "overlay", "", err)
	}
	state.run.Assets.WatermarkedPath = run.StringPtr(outputPath)
	state.run.Assets.FinalVideoPath = run.StringPtr(outputPath)
	return nil
}

// stageBranding titles the video and wraps it with the intro and outro
// clips. Skipped when neither clip is configured.
func (c *Controller) stageBranding(ctx context.Context, state *runState) error {
	intro, outro := c.brandClips(state)
	if intro == "" && outro == "" {
		state.logger.Info("no branding clips, skipping branding")
		return nil
	}

	title, err := c.deps.Writer.WriteTitle(ctx, state.run.Idea)
	if err != nil {
		title = textutil.DisplayTitle(state.run.Name)
		state.logger.Warn("title generation failed, using fallback",
			logging.String("title", title),
			logging.Error(err))
	}
	state.run.Assets.Title = run.StringPtr(title)

	current := stringOrEmpty(state.run.Assets.FinalVideoPath)
	titledPath := state.project.Branded() + ".titled.mp4"
	if err := c.deps.Media.AddTitleOverlay(ctx, current, title, titledPath); err != nil {
		return services.Wrap(services.ErrExternalTool, run.StageBranding, "title overlay", "", err)
	}
	defer os.Remove(titledPath)

	outputPath := state.project.Branded()
	err = c.deps.Media.ApplyBranding(ctx, titledPath,
		media.BrandingSpec{IntroPath: intro, OutroPath: outro},
		outputPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, run.StageBranding, "concat branding", "", err)
	}
	state.run.Assets.BrandedPath = run.StringPtr(outputPath)
	state.run.Assets.FinalVideoPath = run.StringPtr(outputPath)
	return nil
}

func (c *Controller) brandClips(state *runState) (intro, outro string) {
	if c.cfg.Assets.IntroVideo != "" {
		path := c.cfg.IntroPath()
		if _, err := os.Stat(path); err == nil {
			intro = path
		} else {
			state.logger.Info("intro asset absent", logging.String("path", path))
		}
	}
	if c.cfg.Assets.OutroVideo != "" {
		path := c.cfg.OutroPath()
		if _, err := os.Stat(path); err == nil {
			outro = path
		} else {
			state.logger.Info("outro asset absent", logging.String("path", path))
		}
	}
	return intro, outro
}
