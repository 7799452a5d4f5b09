// Package run defines the Run record, the per-project stage tracker, and the
// run history store.
package run

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a Run.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
)

// Stage names in execution order.
const (
	StageArtworkDesign   = "artwork_design"
	StageArtworkBuild    = "artwork_build"
	StageScriptWriting   = "script_writing"
	StageAudioSynthesis  = "audio_synthesis"
	StageSubtitles       = "subtitle_generation"
	StageScenario        = "scenario_assembly"
	StageVideoGeneration = "video_generation"
	StageLipsync         = "lipsync"
	StageSubtitleBurn    = "subtitle_burn"
	StageWatermark       = "watermark"
	StageBranding        = "branding"
)

// StageOrder lists every stage in the order the controller executes them.
var StageOrder = []string{
	StageArtworkDesign,
	StageArtworkBuild,
	StageScriptWriting,
	StageAudioSynthesis,
	StageSubtitles,
	StageScenario,
	StageVideoGeneration,
	StageLipsync,
	StageSubtitleBurn,
	StageWatermark,
	StageBranding,
}

// SubtitleStats summarizes a generated subtitle file.
type SubtitleStats struct {
	CueCount       int     `json:"cue_count"`
	TotalSeconds   float64 `json:"total_seconds"`
	CharsPerSecond float64 `json:"chars_per_second"`
	CharacterCount int     `json:"character_count"`
}

// Assets records every artifact a run produced. Optional artifacts stay nil
// and serialize as null, so the tracker shows exactly what was skipped.
type Assets struct {
	ArtworkPrompt     *string        `json:"artwork_prompt"`
	ArtworkPath       *string        `json:"artwork_path"`
	ArtworkRetryCount int            `json:"artwork_retry_count"`
	Script            *string        `json:"script"`
	AudioPath         *string        `json:"audio_path"`
	AudioDuration     *float64       `json:"audio_duration_seconds"`
	SubtitlePath      *string        `json:"subtitle_path"`
	SubtitleStats     *SubtitleStats `json:"subtitle_stats"`
	ScenarioPath      *string        `json:"scenario_path"`
	RawVideoURL       *string        `json:"raw_video_url"`
	RawVideoPath      *string        `json:"raw_video_path"`
	LipsyncedPath     *string        `json:"lipsynced_path"`
	SubtitledPath     *string        `json:"subtitled_path"`
	WatermarkedPath   *string        `json:"watermarked_path"`
	Title             *string        `json:"title"`
	BrandedPath       *string        `json:"branded_path"`
	FinalVideoPath    *string        `json:"final_video_path"`
}

// Run is one pipeline execution for one idea.
type Run struct {
	ID              string     `json:"id"`
	Number          int        `json:"number"`
	Name            string     `json:"name"`
	Idea            string     `json:"idea"`
	ProjectDir      string     `json:"project_dir"`
	Provider        string     `json:"provider"`
	Status          Status     `json:"status"`
	CurrentStage    string     `json:"current_stage"`
	CompletedStages []string   `json:"completed_stages"`
	FailedStage     string     `json:"failed_stage,omitempty"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	Assets          Assets     `json:"assets"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at"`
}

// NewRun initializes an in-progress run for an idea.
func NewRun(number int, name, idea string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Number:    number,
		Name:      name,
		Idea:      idea,
		Status:    StatusInProgress,
		StartedAt: time.Now().UTC(),
	}
}

// MarkStage records the stage currently executing.
func (r *Run) MarkStage(stage string) {
	r.CurrentStage = stage
}

// CompleteStage appends stage to the completed list.
func (r *Run) CompleteStage(stage string) {
	r.CompletedStages = append(r.CompletedStages, stage)
}

// Fail finalizes the run as FAILED with the stage and reason as first-class
// fields.
func (r *Run) Fail(stage, reason string) {
	now := time.Now().UTC()
	r.Status = StatusFailed
	r.FailedStage = stage
	r.FailureReason = reason
	r.FinishedAt = &now
}

// Succeed finalizes the run as SUCCESS.
func (r *Run) Succeed() {
	now := time.Now().UTC()
	r.Status = StatusSuccess
	r.FinishedAt = &now
}

// Duration returns the elapsed run time, using the current time while the
// run is still open.
func (r *Run) Duration() time.Duration {
	end := time.Now().UTC()
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	return end.Sub(r.StartedAt)
}

// StringPtr is a convenience for populating optional assets.
func StringPtr(s string) *string { return &s }

// Float64Ptr is a convenience for populating optional assets.
func Float64Ptr(f float64) *float64 { return &f }
