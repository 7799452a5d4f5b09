package run

import (
	"fmt"
	"path/filepath"
	"time"

	"reelforge/internal/textutil"
)

// Artifact file names inside a project directory.
const (
	ArtworkFile     = "artwork.png"
	ScriptFile      = "script.txt"
	AudioFile       = "audio.mp3"
	SubtitleFile    = "subtitles.srt"
	ScenarioFile    = "scenario.json"
	RawVideoFile    = "raw_video.mp4"
	LipsyncedFile   = "final_video.mp4"
	SubtitledFile   = "final_video_subtitled.mp4"
	WatermarkedFile = "final_video_watermarked.mp4"
	BrandedFile     = "final_video_branded.mp4"
	TrackerFile     = "tracker.json"
	SegmentsDir     = "segments"
)

// ProjectDirName builds the directory name for one run:
// {number}_{sanitized name}_{YYYYMMDD}.
func ProjectDirName(number int, name string, when time.Time) string {
	return fmt.Sprintf("%d_%s_%s", number, textutil.SanitizeToken(name), when.Format("20060102"))
}

// Project resolves artifact paths inside one run's directory.
type Project struct {
	Dir string
}

func (p Project) Artwork() string     { return filepath.Join(p.Dir, ArtworkFile) }
func (p Project) Script() string      { return filepath.Join(p.Dir, ScriptFile) }
func (p Project) Audio() string       { return filepath.Join(p.Dir, AudioFile) }
func (p Project) Subtitles() string   { return filepath.Join(p.Dir, SubtitleFile) }
func (p Project) Scenario() string    { return filepath.Join(p.Dir, ScenarioFile) }
func (p Project) RawVideo() string    { return filepath.Join(p.Dir, RawVideoFile) }
func (p Project) Lipsynced() string   { return filepath.Join(p.Dir, LipsyncedFile) }
func (p Project) Subtitled() string   { return filepath.Join(p.Dir, SubtitledFile) }
func (p Project) Watermarked() string { return filepath.Join(p.Dir, WatermarkedFile) }
func (p Project) Branded() string     { return filepath.Join(p.Dir, BrandedFile) }
func (p Project) Tracker() string     { return filepath.Join(p.Dir, TrackerFile) }
func (p Project) Segments() string    { return filepath.Join(p.Dir, SegmentsDir) }

// Segment returns the path for the nth generated segment.
func (p Project) Segment(index int) string {
	return filepath.Join(p.Segments(), fmt.Sprintf("segment_%02d.mp4", index))
}

// SegmentFrame returns the path for the extracted last frame of segment n.
func (p Project) SegmentFrame(index int) string {
	return filepath.Join(p.Segments(), fmt.Sprintf("segment_%02d_last_frame.png", index))
}
