package run

import (
	"math"
	"testing"
)

const statsSRT = `1
00:00:00,000 --> 00:00:02,000
Hello there.

2
00:00:02,500 --> 00:00:05,500
The lighthouse keeper waited.
`

func TestComputeSubtitleStats(t *testing.T) {
	stats, err := ComputeSubtitleStats(statsSRT)
	if err != nil {
		t.Fatalf("ComputeSubtitleStats: %v", err)
	}
	if stats.CueCount != 2 {
		t.Errorf("cues = %d", stats.CueCount)
	}
	if stats.TotalSeconds != 5.5 {
		t.Errorf("total seconds = %v", stats.TotalSeconds)
	}
	wantChars := len("Hello there.") + len("The lighthouse keeper waited.")
	if stats.CharacterCount != wantChars {
		t.Errorf("characters = %d, want %d", stats.CharacterCount, wantChars)
	}
	wantRate := float64(wantChars) / 5.0
	if math.Abs(stats.CharsPerSecond-wantRate) > 1e-9 {
		t.Errorf("chars/sec = %v, want %v", stats.CharsPerSecond, wantRate)
	}
}

func TestComputeSubtitleStatsRejectsEmpty(t *testing.T) {
	if _, err := ComputeSubtitleStats("no cues here"); err == nil {
		t.Error("expected error for cueless input")
	}
}

func TestComputeSubtitleStatsRejectsBackwardsCue(t *testing.T) {
	bad := "1\n00:00:05,000 --> 00:00:01,000\nOops.\n"
	if _, err := ComputeSubtitleStats(bad); err == nil {
		t.Error("expected error for backwards cue")
	}
}
