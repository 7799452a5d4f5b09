package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"reelforge/internal/logging"
	"reelforge/internal/services/llm"
)

// Scriptwriter produces narration scripts and titles from ideas.
type Scriptwriter struct {
	chat   chatClient
	logger *slog.Logger
}

// NewScriptwriter constructs a Scriptwriter.
func NewScriptwriter(chat chatClient, logger *slog.Logger) *Scriptwriter {
	return &Scriptwriter{
		chat:   chat,
		logger: logging.NewComponentLogger(logger, "scriptwriter"),
	}
}

// WriteScript asks the text model for the voiceover script.
func (s *Scriptwriter) WriteScript(ctx context.Context, idea string) (string, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return "", errors.New("write script: idea required")
	}
	script, err := s.chat.Complete(ctx, llm.Request{
		SystemPrompt: scriptwriterSystemPrompt,
		UserPrompt:   fmt.Sprintf("Content idea: %s", idea),
	})
	if err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}
	script = strings.TrimSpace(script)
	if script == "" {
		return "", errors.New("write script: model returned empty script")
	}
	s.logger.Debug("script written", logging.Int("words", len(strings.Fields(script))))
	return script, nil
}

// WriteTitle asks the text model for a short display title.
func (s *Scriptwriter) WriteTitle(ctx context.Context, idea string) (string, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return "", errors.New("write title: idea required")
	}
	title, err := s.chat.Complete(ctx, llm.Request{
		SystemPrompt: titleSystemPrompt,
		UserPrompt:   fmt.Sprintf("Content idea: %s", idea),
	})
	if err != nil {
		return "", fmt.Errorf("write title: %w", err)
	}
	title = strings.Trim(strings.TrimSpace(title), `"'`)
	if title == "" {
		return "", errors.New("write title: model returned empty title")
	}
	return title, nil
}
