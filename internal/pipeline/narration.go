package pipeline

import (
	"context"
	"os"

	"reelforge/internal/logging"
	"reelforge/internal/run"
	"reelforge/internal/services"
	"reelforge/internal/studio"
)

// stageScriptWriting writes the narration script and persists it alongside
// the other artifacts.
func (c *Controller) stageScriptWriting(ctx context.Context, state *runState) error {
	script, err := c.deps.Writer.WriteScript(ctx, state.run.Idea)
	if err != nil {
		return services.Wrap(services.ErrTransient, run.StageScriptWriting, "write script", "", err)
	}
	if err := os.WriteFile(state.project.Script(), []byte(script), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, run.StageScriptWriting, "persist script", "", err)
	}
	state.run.Assets.Script = run.StringPtr(script)
	return nil
}

// stageAudioSynthesis renders the voiceover and probes its duration, which
// later drives the extension schedule.
func (c *Controller) stageAudioSynthesis(ctx context.Context, state *runState) error {
	script := stringOrEmpty(state.run.Assets.Script)
	audioPath := state.project.Audio()
	if err := c.deps.Speech.Synthesize(ctx, script, audioPath); err != nil {
		return services.Wrap(services.ErrTransient, run.StageAudioSynthesis, "synthesize", "", err)
	}
	duration, err := c.deps.Media.AudioDuration(ctx, audioPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, run.StageAudioSynthesis, "probe duration", "", err)
	}
	state.run.Assets.AudioPath = run.StringPtr(audioPath)
	state.run.Assets.AudioDuration = run.Float64Ptr(duration)
	state.logger.Info("voiceover synthesized", logging.Float64("seconds", duration))
	return nil
}

// stageSubtitles transcribes the voiceover into SRT. The stage is optional:
// on failure the run continues with a null subtitle asset.
func (c *Controller) stageSubtitles(ctx context.Context, state *runState) error {
	srt, err := c.deps.Transcribe.TranscribeToSRT(ctx, stringOrEmpty(state.run.Assets.AudioPath))
	if err != nil {
		return services.Wrap(services.ErrTransient, run.StageSubtitles, "transcribe", "", err)
	}
	srtPath := state.project.Subtitles()
	if err := os.WriteFile(srtPath, []byte(srt), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, run.StageSubtitles, "persist subtitles", "", err)
	}
	state.run.Assets.SubtitlePath = run.StringPtr(srtPath)

	stats, err := run.ComputeSubtitleStats(srt)
	if err != nil {
		state.logger.Warn("subtitle stats unavailable", logging.Error(err))
		return nil
	}
	state.run.Assets.SubtitleStats = stats
	state.logger.Info("subtitles generated",
		logging.Int("cues", stats.CueCount),
		logging.Float64("chars_per_second", stats.CharsPerSecond))
	return nil
}

// stageScenario asks the producer for the generation plan, persists
// scenario.json, and resolves the provider from its global settings.
func (c *Controller) stageScenario(ctx context.Context, state *runState) error {
	var srt string
	if state.run.Assets.SubtitlePath != nil {
		data, err := os.ReadFile(*state.run.Assets.SubtitlePath)
		if err == nil {
			srt = string(data)
		}
	}

	templatePath := ""
	if c.cfg.Assets.ScenarioTemplate != "" {
		templatePath = c.cfg.ScenarioTemplatePath()
		if _, err := os.Stat(templatePath); err != nil {
			state.logger.Warn("scenario template missing, using built-in",
				logging.String("path", templatePath))
			templatePath = ""
		}
	}

	scenario, raw, err := c.deps.Producer.BuildScenario(ctx, studio.ScenarioInput{
		Idea:                 state.run.Idea,
		Script:               stringOrEmpty(state.run.Assets.Script),
		SubtitleSRT:          srt,
		AudioDurationSeconds: float64OrZero(state.run.Assets.AudioDuration),
		TemplatePath:         templatePath,
	})
	if err != nil {
		return services.Wrap(services.ErrValidation, run.StageScenario, "build scenario", "", err)
	}

	provider, err := ParseProvider(scenario.GlobalSettings.Provider)
	if err != nil {
		return services.Wrap(services.ErrValidation, run.StageScenario, "resolve provider", "", err)
	}
	scenarioPath := state.project.Scenario()
	if err := os.WriteFile(scenarioPath, raw, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, run.StageScenario, "persist scenario", "", err)
	}

	state.scenario = scenario
	state.provider = provider
	state.run.Provider = string(provider)
	state.run.Assets.ScenarioPath = run.StringPtr(scenarioPath)
	state.logger.Info("scenario assembled",
		logging.String(logging.FieldProvider, string(provider)),
		logging.Int("extensions", len(scenario.Extensions)))
	return nil
}

func float64OrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
