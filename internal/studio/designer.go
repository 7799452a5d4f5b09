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

// chatClient is the slice of the text model client the studio needs.
type chatClient interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, imageBytes []byte) (string, error)
}

// Designer turns an idea into an image generation prompt.
type Designer struct {
	chat   chatClient
	logger *slog.Logger
}

// NewDesigner constructs a Designer.
func NewDesigner(chat chatClient, logger *slog.Logger) *Designer {
	return &Designer{
		chat:   chat,
		logger: logging.NewComponentLogger(logger, "designer"),
	}
}

// DesignPrompt asks the text model for an artwork prompt. referenceImage is
// optional; when present the model is asked to match its style.
func (d *Designer) DesignPrompt(ctx context.Context, idea string, referenceImage []byte) (string, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return "", errors.New("design prompt: idea required")
	}

	userPrompt := fmt.Sprintf("Content idea: %s", idea)
	if len(referenceImage) > 0 {
		userPrompt += "\nA brand reference image is attached. Match its style."
	}
	prompt, err := d.chat.Complete(ctx, llm.Request{
		SystemPrompt: designerSystemPrompt,
		UserPrompt:   userPrompt,
		ImageBytes:   referenceImage,
	})
	if err != nil {
		return "", fmt.Errorf("design prompt: %w", err)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("design prompt: model returned empty prompt")
	}
	d.logger.Debug("artwork prompt designed", logging.Int("length", len(prompt)))
	return prompt, nil
}
