package main

import (
	"fmt"
	"time"
)

const durationPrecision = time.Second

func formatSeconds(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	if d < time.Second {
		return "<1s"
	}
	return d.Round(durationPrecision).String()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// sectionLabel pairs a display name with its value for config show output.
type sectionLabel struct {
	name  string
	value string
}

func formatLabels(labels []sectionLabel) []string {
	lines := make([]string, 0, len(labels))
	for _, label := range labels {
		lines = append(lines, fmt.Sprintf("  %-24s %s", label.name+":", label.value))
	}
	return lines
}
