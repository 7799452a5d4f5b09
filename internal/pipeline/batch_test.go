package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"reelforge/internal/ideas"
	"reelforge/internal/logging"
	"reelforge/internal/run"
	"reelforge/internal/services"
)

type fakeHistory struct {
	runs []*run.Run
	err  error
}

func (f *fakeHistory) Record(_ context.Context, r *run.Run) error {
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, r)
	return nil
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

type fakeNotifier struct {
	started   []string
	completed []string
	failed    []string
	batches   int
}

func (f *fakeNotifier) NotifyRunStarted(_ context.Context, _ int, name string) error {
	f.started = append(f.started, name)
	return nil
}

func (f *fakeNotifier) NotifyRunCompleted(_ context.Context, name string, _ time.Duration) error {
	f.completed = append(f.completed, name)
	return nil
}

func (f *fakeNotifier) NotifyRunFailed(_ context.Context, name, _, _ string) error {
	f.failed = append(f.failed, name)
	return nil
}

func (f *fakeNotifier) NotifyBatchCompleted(_ context.Context, _, _ int, _ time.Duration) error {
	f.batches++
	return nil
}

func (f *fakeNotifier) NotifyError(_ context.Context, _ error, _ string) error { return nil }
func (f *fakeNotifier) TestNotification(_ context.Context) error               { return nil }

func batchIdeas() []ideas.Idea {
	return []ideas.Idea{
		{Number: 1, Name: "lighthouse", Text: "A haunted lighthouse story"},
		{Number: 2, Name: "submarine", Text: "A lost submarine story"},
	}
}

func TestBatchRunsAllIdeasWithDelay(t *testing.T) {
	h := newHarness(t, klingScenario())
	h.media.duration = 8
	h.cfg.Workflow.InterRunDelaySeconds = 5
	history := &fakeHistory{}
	sleeps := &sleepRecorder{}

	batch := NewBatch(h.cfg, h.controller(), history, logging.NewNop(),
		WithBatchSleeper(sleeps.sleep))
	summary, err := batch.Execute(context.Background(), batchIdeas())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if summary.Total != 2 || summary.Succeeded != 2 || summary.Failed != 0 {
		t.Errorf("summary = %d/%d/%d", summary.Total, summary.Succeeded, summary.Failed)
	}
	if len(history.runs) != 2 {
		t.Errorf("history records = %d", len(history.runs))
	}
	// One delay between two runs, none after the last.
	if len(sleeps.delays) != 1 || sleeps.delays[0] != 5*time.Second {
		t.Errorf("delays = %v", sleeps.delays)
	}
	matches, err := filepath.Glob(filepath.Join(h.cfg.Paths.StorageDir, "run_summary_*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("summary files = %v (%v)", matches, err)
	}
	raw, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var records []run.Run
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("summary file should decode as an array of run records: %v", err)
	}
	if len(records) != 2 || records[0].Status != run.StatusSuccess {
		t.Errorf("summary records = %+v", records)
	}
}

func TestBatchContinuesAfterFailedRun(t *testing.T) {
	h := newHarness(t, nil)
	h.producer.err = errors.New("scenario model returned prose")
	history := &fakeHistory{}

	batch := NewBatch(h.cfg, h.controller(), history, logging.NewNop(),
		WithBatchSleeper(noSleep))
	summary, err := batch.Execute(context.Background(), batchIdeas())
	if err != nil {
		t.Fatalf("a failed run must not fail the batch: %v", err)
	}
	if summary.Total != 2 || summary.Failed != 2 {
		t.Errorf("summary = %d total, %d failed", summary.Total, summary.Failed)
	}
	for _, item := range summary.Items {
		if item.FailedStage != run.StageScenario {
			t.Errorf("item failed stage = %q", item.FailedStage)
		}
	}
	if len(history.runs) != 2 {
		t.Errorf("failed runs should still be recorded, got %d", len(history.runs))
	}
}

func TestBatchRejectsEmptyIdeaList(t *testing.T) {
	h := newHarness(t, klingScenario())
	batch := NewBatch(h.cfg, h.controller(), nil, logging.NewNop())
	if _, err := batch.Execute(context.Background(), nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestBatchHistoryFailureDoesNotFailBatch(t *testing.T) {
	h := newHarness(t, klingScenario())
	h.media.duration = 8
	history := &fakeHistory{err: errors.New("database locked")}

	batch := NewBatch(h.cfg, h.controller(), history, logging.NewNop(),
		WithBatchSleeper(noSleep))
	summary, err := batch.Execute(context.Background(), batchIdeas()[:1])
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Errorf("succeeded = %d", summary.Succeeded)
	}
}

func TestBatchNotifiesRunAndBatchOutcomes(t *testing.T) {
	h := newHarness(t, klingScenario())
	h.media.duration = 8
	notifier := &fakeNotifier{}

	batch := NewBatch(h.cfg, h.controller(), nil, logging.NewNop(),
		WithBatchSleeper(noSleep), WithBatchNotifier(notifier))
	if _, err := batch.Execute(context.Background(), batchIdeas()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(notifier.started) != 2 {
		t.Errorf("start notifications = %d", len(notifier.started))
	}
	if len(notifier.completed) != 2 || len(notifier.failed) != 0 {
		t.Errorf("notifications = %d completed, %d failed", len(notifier.completed), len(notifier.failed))
	}
	if notifier.batches != 1 {
		t.Errorf("batch notifications = %d", notifier.batches)
	}
}

func TestBatchRefusesWhenStorageLockHeld(t *testing.T) {
	h := newHarness(t, klingScenario())
	holder := flock.New(filepath.Join(h.cfg.Paths.StorageDir, "reelforge.lock"))
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer holder.Unlock()

	batch := NewBatch(h.cfg, h.controller(), nil, logging.NewNop())
	if _, err := batch.Execute(context.Background(), batchIdeas()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
}
