// Package pipeline sequences the eleven stages that turn a content idea
// into a finished vertical video, and runs batches of ideas back to back.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/ideas"
	"reelforge/internal/logging"
	"reelforge/internal/media"
	"reelforge/internal/run"
	"reelforge/internal/services"
	"reelforge/internal/services/kling"
	"reelforge/internal/services/runway"
	"reelforge/internal/studio"
)

// Dependencies the controller needs from the studio roles.
type artworkDesigner interface {
	DesignPrompt(ctx context.Context, idea string, referenceImage []byte) (string, error)
}

type artworkBuilder interface {
	Build(ctx context.Context, prompt string, reference []byte, outputPath string) error
}

type artworkChecker interface {
	Check(ctx context.Context, imageBytes []byte, idea string) (studio.Verdict, error)
}

type scriptWriter interface {
	WriteScript(ctx context.Context, idea string) (string, error)
	WriteTitle(ctx context.Context, idea string) (string, error)
}

type scenarioProducer interface {
	BuildScenario(ctx context.Context, in studio.ScenarioInput) (*studio.Scenario, []byte, error)
}

// Dependencies on the provider clients.
type speechClient interface {
	Synthesize(ctx context.Context, text, outputPath string) error
}

type transcribeClient interface {
	TranscribeToSRT(ctx context.Context, audioPath string) (string, error)
}

type klingClient interface {
	ImageToVideo(ctx context.Context, imageBytes []byte, prompt string, durationSeconds int) (*kling.Result, error)
	ExtendVideo(ctx context.Context, videoID, prompt string) (*kling.Result, error)
}

type runwayClient interface {
	ImageToVideo(ctx context.Context, imageBytes []byte, prompt, aspect string, durationSeconds int) (*runway.Segment, error)
}

type lipsyncClient interface {
	Sync(ctx context.Context, videoURL, audioURL string) (string, error)
}

type uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// mediaToolkit is the slice of internal/media the stages use.
type mediaToolkit interface {
	AudioDuration(ctx context.Context, path string) (float64, error)
	BurnSubtitles(ctx context.Context, videoPath, srtPath, style, outputPath string) error
	ApplyWatermark(ctx context.Context, videoPath string, spec media.WatermarkSpec, outputPath string) error
	ConcatVideos(ctx context.Context, segments []string, outputPath string) error
	ExtractLastFrame(ctx context.Context, videoPath, outputPath string) error
	AddTitleOverlay(ctx context.Context, videoPath, title, outputPath string) error
	ApplyBranding(ctx context.Context, videoPath string, spec media.BrandingSpec, outputPath string) error
}

// Deps bundles everything the controller orchestrates.
type Deps struct {
	Designer   artworkDesigner
	Builder    artworkBuilder
	Checker    artworkChecker
	Writer     scriptWriter
	Producer   scenarioProducer
	Speech     speechClient
	Transcribe transcribeClient
	Kling      klingClient
	Runway     runwayClient
	Lipsync    lipsyncClient
	Filehost   uploader
	Media      mediaToolkit
}

// Controller executes the full stage sequence for one idea at a time.
type Controller struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger

	httpClient *http.Client
	sleeper    func(context.Context, time.Duration) error
	now        func() time.Time
}

// Option customizes a Controller.
type Option func(*Controller)

// WithHTTPClient overrides the client used to download remote artifacts.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how retry and inter-run sleeps are performed.
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(c *Controller) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

// WithClock overrides the time source (used by tests for stable dir names).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController constructs the stage controller.
func NewController(cfg *config.Config, deps Deps, logger *slog.Logger, opts ...Option) *Controller {
	controller := &Controller{
		cfg:        cfg,
		deps:       deps,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		now:        time.Now,
	}
	controller.sleeper = func(ctx context.Context, d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
	for _, opt := range opts {
		opt(controller)
	}
	return controller
}

// runState carries the mutable context a run's stages share.
type runState struct {
	run       *run.Run
	project   run.Project
	tracker   *run.Tracker
	scenario  *studio.Scenario
	provider  Provider
	reference []byte
	logger    *slog.Logger
}

// stageDef binds a stage name to its executor. Optional stages log their
// failure and let the run continue; required stages fail the run.
type stageDef struct {
	name     string
	optional bool
	execute  func(ctx context.Context, state *runState) error
}

func (c *Controller) stages() []stageDef {
	return []stageDef{
		{name: run.StageArtworkDesign, execute: c.stageArtworkDesign},
		{name: run.StageArtworkBuild, execute: c.stageArtworkBuild},
		{name: run.StageScriptWriting, execute: c.stageScriptWriting},
		{name: run.StageAudioSynthesis, execute: c.stageAudioSynthesis},
		{name: run.StageSubtitles, optional: true, execute: c.stageSubtitles},
		{name: run.StageScenario, execute: c.stageScenario},
		{name: run.StageVideoGeneration, execute: c.stageVideoGeneration},
		{name: run.StageLipsync, execute: c.stageLipsync},
		{name: run.StageSubtitleBurn, optional: true, execute: c.stageSubtitleBurn},
		{name: run.StageWatermark, optional: true, execute: c.stageWatermark},
		{name: run.StageBranding, optional: true, execute: c.stageBranding},
	}
}

// Execute runs every stage for one idea. The returned Run is always
// non-nil and finalized; the error mirrors the run's failure for callers
// that stop on first error.
func (c *Controller) Execute(ctx context.Context, idea ideas.Idea) (*run.Run, error) {
	r := run.NewRun(idea.Number, idea.Name, idea.Text)
	projectDir := filepath.Join(c.cfg.Paths.StorageDir, run.ProjectDirName(idea.Number, idea.Name, c.now()))
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		r.Fail("", fmt.Sprintf("create project dir: %v", err))
		return r, fmt.Errorf("create project dir: %w", err)
	}
	r.ProjectDir = projectDir

	state := &runState{
		run:     r,
		project: run.Project{Dir: projectDir},
		tracker: run.NewTracker(projectDir),
		logger: c.logger.With(
			logging.String(logging.FieldRunID, r.ID),
			logging.String(logging.FieldIdea, idea.Name)),
	}
	ctx = services.WithRunID(ctx, r.ID)

	state.logger.Info("run started",
		logging.Int("number", idea.Number),
		logging.String("project_dir", projectDir))

	for _, stage := range c.stages() {
		if err := ctx.Err(); err != nil {
			r.Fail(stage.name, fmt.Sprintf("canceled: %v", err))
			c.saveTracker(state)
			return r, err
		}
		r.MarkStage(stage.name)
		c.saveTracker(state)

		stageLogger := state.logger.With(logging.String(logging.FieldStage, stage.name))
		stageCtx := services.WithStage(ctx, stage.name)
		start := c.now()
		err := stage.execute(stageCtx, state)
		elapsed := c.now().Sub(start)

		switch {
		case err == nil:
			r.CompleteStage(stage.name)
			stageLogger.Info("stage complete", logging.Duration("elapsed", elapsed))
		case stage.optional:
			stageLogger.Warn("optional stage failed, continuing",
				logging.Error(err),
				logging.Duration("elapsed", elapsed))
		default:
			stageLogger.Error("required stage failed", logging.Error(err))
			r.Fail(stage.name, err.Error())
			c.saveTracker(state)
			return r, err
		}
		c.saveTracker(state)
	}

	r.CurrentStage = ""
	r.Succeed()
	c.saveTracker(state)
	state.logger.Info("run succeeded",
		logging.Duration("elapsed", r.Duration()),
		logging.String("final_video", stringOrEmpty(r.Assets.FinalVideoPath)))
	return r, nil
}

// saveTracker persists tracker.json; a write failure never fails the run.
func (c *Controller) saveTracker(state *runState) {
	if err := state.tracker.Save(state.run); err != nil {
		state.logger.Warn("tracker write failed", logging.Error(err))
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
