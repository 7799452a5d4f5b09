package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes a leading ```json (or bare ```) fence and the
// trailing fence from a model response. Models wrap JSON payloads in markdown
// fences often enough that every structured call goes through this.
func StripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// DecodeModelJSON parses a model response into out, tolerating markdown fences.
func DecodeModelJSON(content string, out any) error {
	payload := StripCodeFences(content)
	if payload == "" {
		return fmt.Errorf("decode model json: empty payload")
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}
