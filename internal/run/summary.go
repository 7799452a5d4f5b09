package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SummaryItem is one run's line in the batch summary.
type SummaryItem struct {
	Number        int     `json:"number"`
	Name          string  `json:"name"`
	Status        Status  `json:"status"`
	FailedStage   string  `json:"failed_stage,omitempty"`
	FailureReason string  `json:"failure_reason,omitempty"`
	ProjectDir    string  `json:"project_dir"`
	Seconds       float64 `json:"seconds"`
}

// BatchSummary reports the outcome of a whole batch invocation. The tallies
// and Items feed the CLI table; only the full run records are persisted.
type BatchSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Failed     int
	Items      []SummaryItem

	runs []*Run
}

// Add appends a finished run to the summary tallies.
func (b *BatchSummary) Add(r *Run) {
	item := SummaryItem{
		Number:        r.Number,
		Name:          r.Name,
		Status:        r.Status,
		FailedStage:   r.FailedStage,
		FailureReason: r.FailureReason,
		ProjectDir:    r.ProjectDir,
		Seconds:       r.Duration().Seconds(),
	}
	b.Items = append(b.Items, item)
	b.runs = append(b.runs, r)
	b.Total++
	if r.Status == StatusSuccess {
		b.Succeeded++
	} else {
		b.Failed++
	}
}

// Write persists the summary as run_summary_<timestamp>.json under dir and
// returns the file path. The file is a JSON array with one full run record
// per processed idea.
func (b *BatchSummary) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("summary write: ensure dir: %w", err)
	}
	runs := b.runs
	if runs == nil {
		runs = []*Run{}
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("summary write: encode: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("run_summary_%s.json", b.FinishedAt.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("summary write: %w", err)
	}
	return path, nil
}
