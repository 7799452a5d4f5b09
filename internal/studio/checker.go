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

// Verdict is the outcome of one artwork quality check.
type Verdict struct {
	Passed   bool
	Feedback string
}

// Checker judges generated artwork against the idea it illustrates.
type Checker struct {
	chat   chatClient
	logger *slog.Logger
}

// NewChecker constructs a Checker.
func NewChecker(chat chatClient, logger *slog.Logger) *Checker {
	return &Checker{
		chat:   chat,
		logger: logging.NewComponentLogger(logger, "checker"),
	}
}

// Check submits the image to the vision model and parses its Pass/Fail
// verdict. A malformed or unrecognized verdict is an error, not a Fail.
func (c *Checker) Check(ctx context.Context, imageBytes []byte, idea string) (Verdict, error) {
	if len(imageBytes) == 0 {
		return Verdict{}, errors.New("check artwork: image required")
	}
	payload, err := c.chat.CompleteJSON(ctx, checkerSystemPrompt,
		fmt.Sprintf("Content idea: %s\nJudge the attached image.", strings.TrimSpace(idea)),
		imageBytes)
	if err != nil {
		return Verdict{}, fmt.Errorf("check artwork: %w", err)
	}

	var decoded struct {
		Result   string `json:"result"`
		Feedback string `json:"feedback"`
	}
	if err := llm.DecodeModelJSON(payload, &decoded); err != nil {
		return Verdict{}, fmt.Errorf("check artwork: %w", err)
	}
	verdict := Verdict{Feedback: strings.TrimSpace(decoded.Feedback)}
	switch strings.ToLower(strings.TrimSpace(decoded.Result)) {
	case "pass":
		verdict.Passed = true
	case "fail":
		verdict.Passed = false
	default:
		return Verdict{}, fmt.Errorf("check artwork: unrecognized verdict %q", decoded.Result)
	}
	c.logger.Debug("artwork checked",
		logging.Bool("passed", verdict.Passed),
		logging.String("feedback", verdict.Feedback))
	return verdict, nil
}
