package studio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"reelforge/internal/logging"
	"reelforge/internal/services/llm"
)

const (
	openingSceneSeconds   = 10
	extensionSceneSeconds = 8
)

// Producer plans the video generation scenario from the narration assets.
type Producer struct {
	chat   chatClient
	logger *slog.Logger
}

// NewProducer constructs a Producer.
func NewProducer(chat chatClient, logger *slog.Logger) *Producer {
	return &Producer{
		chat:   chat,
		logger: logging.NewComponentLogger(logger, "producer"),
	}
}

// ExtensionCount returns how many 8-second extension clips are needed after
// the 10-second opening to cover the voiceover duration.
func ExtensionCount(audioDurationSeconds float64) int {
	remaining := audioDurationSeconds - openingSceneSeconds
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining / extensionSceneSeconds))
}

// ScenarioInput carries the assets the producer plans from.
type ScenarioInput struct {
	Idea                 string
	Script               string
	SubtitleSRT          string
	AudioDurationSeconds float64
	TemplatePath         string
}

// BuildScenario asks the text model to fill the scenario template and
// validates the result. The returned raw bytes are the exact document that
// gets persisted as scenario.json.
func (p *Producer) BuildScenario(ctx context.Context, in ScenarioInput) (*Scenario, []byte, error) {
	if strings.TrimSpace(in.Idea) == "" {
		return nil, nil, errors.New("build scenario: idea required")
	}
	if strings.TrimSpace(in.Script) == "" {
		return nil, nil, errors.New("build scenario: script required")
	}
	if in.AudioDurationSeconds <= 0 {
		return nil, nil, errors.New("build scenario: audio duration required")
	}

	template, err := p.loadTemplate(in.TemplatePath)
	if err != nil {
		return nil, nil, err
	}
	extensions := ExtensionCount(in.AudioDurationSeconds)

	var user strings.Builder
	fmt.Fprintf(&user, "Content idea: %s\n\n", strings.TrimSpace(in.Idea))
	fmt.Fprintf(&user, "Narration script:\n%s\n\n", strings.TrimSpace(in.Script))
	if srt := strings.TrimSpace(in.SubtitleSRT); srt != "" {
		fmt.Fprintf(&user, "Subtitle timing (SRT):\n%s\n\n", srt)
	}
	fmt.Fprintf(&user, "Voiceover duration: %.1f seconds.\n", in.AudioDurationSeconds)
	fmt.Fprintf(&user, "Required extensions: exactly %d.\n\n", extensions)
	fmt.Fprintf(&user, "Scenario template:\n%s", template)

	payload, err := p.chat.CompleteJSON(ctx, producerSystemPrompt, user.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build scenario: %w", err)
	}

	var scenario Scenario
	if err := llm.DecodeModelJSON(payload, &scenario); err != nil {
		return nil, nil, fmt.Errorf("build scenario: %w", err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, nil, fmt.Errorf("build scenario: %w", err)
	}
	if len(scenario.Extensions) < extensions {
		return nil, nil, fmt.Errorf("build scenario: model planned %d extensions, need %d",
			len(scenario.Extensions), extensions)
	}
	if len(scenario.Extensions) > extensions {
		p.logger.Warn("model planned extra extensions, truncating",
			logging.Int("planned", len(scenario.Extensions)),
			logging.Int("needed", extensions))
		scenario.Extensions = scenario.Extensions[:extensions]
	}
	if scenario.OpeningScene.Duration == 0 {
		scenario.OpeningScene.Duration = openingSceneSeconds
	}

	raw, err := json.MarshalIndent(&scenario, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("build scenario: encode: %w", err)
	}
	p.logger.Info("scenario produced",
		logging.String("provider", scenario.GlobalSettings.Provider),
		logging.Int("extensions", len(scenario.Extensions)))
	return &scenario, raw, nil
}

func (p *Producer) loadTemplate(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return defaultScenarioTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("build scenario: read template: %w", err)
	}
	return string(data), nil
}

const defaultScenarioTemplate = `{
  "global_settings": {
    "provider": "kling",
    "model_name": "",
    "aspect_ratio": "9:16",
    "mode": "std"
  },
  "opening_scene": {
    "type": "image_to_video",
    "image_source": "artwork.png",
    "prompt": "<motion prompt animating the artwork>",
    "duration": 10
  },
  "extensions": [
    "<motion prompt continuing the previous scene>"
  ]
}`
