package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Tracker persists the run state as tracker.json inside the project
// directory. The file is overwritten after every stage mutation so a crash
// leaves an accurate picture of how far the run got. It is diagnostic
// output only; nothing reads it back during a run.
type Tracker struct {
	path string
}

// NewTracker builds a tracker for the given project directory.
func NewTracker(projectDir string) *Tracker {
	return &Tracker{path: filepath.Join(projectDir, TrackerFile)}
}

// Path returns the tracker file location.
func (t *Tracker) Path() string {
	return t.path
}

// Save overwrites tracker.json with the current run state. The write goes
// through a temp file and rename so readers never see a torn document.
func (t *Tracker) Save(r *Run) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("tracker save: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(t.path), ".tracker-*.json")
	if err != nil {
		return fmt.Errorf("tracker save: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("tracker save: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("tracker save: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("tracker save: rename: %w", err)
	}
	return nil
}
