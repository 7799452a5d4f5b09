package run

import (
	"fmt"
	"strings"
	"time"
)

// ComputeSubtitleStats parses an SRT document and summarizes it for the
// asset map.
func ComputeSubtitleStats(srt string) (*SubtitleStats, error) {
	stats := &SubtitleStats{}
	var spoken time.Duration

	blocks := strings.Split(strings.ReplaceAll(srt, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		timing := lines[1]
		if !strings.Contains(timing, "-->") {
			continue
		}
		parts := strings.SplitN(timing, "-->", 2)
		start, err := parseSRTTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("subtitle stats: %w", err)
		}
		end, err := parseSRTTimestamp(parts[1])
		if err != nil {
			return nil, fmt.Errorf("subtitle stats: %w", err)
		}
		if end < start {
			return nil, fmt.Errorf("subtitle stats: cue ends before it starts: %q", timing)
		}

		stats.CueCount++
		spoken += end - start
		if end.Seconds() > stats.TotalSeconds {
			stats.TotalSeconds = end.Seconds()
		}
		for _, text := range lines[2:] {
			stats.CharacterCount += len(strings.TrimSpace(text))
		}
	}
	if stats.CueCount == 0 {
		return nil, fmt.Errorf("subtitle stats: no cues found")
	}
	if spoken > 0 {
		stats.CharsPerSecond = float64(stats.CharacterCount) / spoken.Seconds()
	}
	return stats, nil
}

func parseSRTTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	var hours, minutes, seconds, millis int
	if _, err := fmt.Sscanf(value, "%d:%d:%d,%d", &hours, &minutes, &seconds, &millis); err != nil {
		return 0, fmt.Errorf("bad timestamp %q", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}
