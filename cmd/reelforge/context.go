package main

import (
	"log/slog"
	"strings"
	"sync"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/media"
	"reelforge/internal/pipeline"
	"reelforge/internal/run"
	"reelforge/internal/services/filehost"
	"reelforge/internal/services/imagegen"
	"reelforge/internal/services/kling"
	"reelforge/internal/services/lipsync"
	"reelforge/internal/services/llm"
	"reelforge/internal/services/runway"
	"reelforge/internal/services/speech"
	"reelforge/internal/services/transcribe"
	"reelforge/internal/studio"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) buildLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
}

// buildController wires every service client from the config and hands the
// assembled dependency set to the stage controller.
func (c *commandContext) buildController(logger *slog.Logger) (*pipeline.Controller, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	chat := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	images := imagegen.NewClient(imagegen.Config{
		APIKey:         cfg.ImageGen.APIKey,
		BaseURL:        cfg.ImageGen.BaseURL,
		Model:          cfg.ImageGen.Model,
		TimeoutSeconds: cfg.ImageGen.TimeoutSeconds,
	})
	toolkit := media.NewToolkit(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger)

	deps := pipeline.Deps{
		Designer: studio.NewDesigner(chat, logger),
		Builder:  studio.NewBuilder(images, logger),
		Checker:  studio.NewChecker(chat, logger),
		Writer:   studio.NewScriptwriter(chat, logger),
		Producer: studio.NewProducer(chat, logger),
		Speech: speech.NewClient(speech.Config{
			APIKey:  cfg.Speech.APIKey,
			BaseURL: cfg.Speech.BaseURL,
			VoiceID: cfg.Speech.VoiceID,
			Model:   cfg.Speech.Model,
		}),
		Transcribe: transcribe.NewClient(transcribe.Config{
			APIKey:       cfg.Transcribe.APIKey,
			BaseURL:      cfg.Transcribe.BaseURL,
			Model:        cfg.Transcribe.Model,
			Language:     cfg.Transcribe.Language,
			MaxUploadMiB: cfg.Transcribe.MaxUploadMiB,
		}),
		Kling: kling.NewClient(kling.Config{
			AccessKey:           cfg.Kling.AccessKey,
			SecretKey:           cfg.Kling.SecretKey,
			BaseURL:             cfg.Kling.BaseURL,
			Model:               cfg.Kling.Model,
			PollIntervalSeconds: cfg.Kling.PollIntervalSeconds,
			MaxWaitSeconds:      cfg.Kling.MaxWaitSeconds,
		}),
		Runway: runway.NewClient(runway.Config{
			APIKey:              cfg.Runway.APIKey,
			BaseURL:             cfg.Runway.BaseURL,
			Model:               cfg.Runway.Model,
			PollIntervalSeconds: cfg.Runway.PollIntervalSeconds,
			MaxWaitSeconds:      cfg.Runway.MaxWaitSeconds,
		}),
		Lipsync: lipsync.NewClient(lipsync.Config{
			APIKey:              cfg.Lipsync.APIKey,
			BaseURL:             cfg.Lipsync.BaseURL,
			Model:               cfg.Lipsync.Model,
			SyncMode:            cfg.Lipsync.SyncMode,
			PollIntervalSeconds: cfg.Lipsync.PollIntervalSeconds,
			MaxWaitSeconds:      cfg.Lipsync.MaxWaitSeconds,
		}),
		Filehost: filehost.NewClient(filehost.Config{
			UploadURL:      cfg.Filehost.UploadURL,
			TimeoutSeconds: cfg.Filehost.TimeoutSeconds,
		}),
		Media: toolkit,
	}

	return pipeline.NewController(cfg, deps, logger), nil
}

// openStore opens the run history database. Callers own the returned store.
func (c *commandContext) openStore() (*run.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return run.OpenStore(cfg.Paths.StorageDir)
}
