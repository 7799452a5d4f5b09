package studio

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Scenario is the generation plan the producer fills in. Its structure
// mirrors the scenario template document.
type Scenario struct {
	GlobalSettings GlobalSettings `json:"global_settings"`
	OpeningScene   OpeningScene   `json:"opening_scene"`
	Extensions     []Extension    `json:"extensions"`
}

// GlobalSettings selects the generation provider and its parameters.
type GlobalSettings struct {
	Provider    string `json:"provider"`
	ModelName   string `json:"model_name"`
	AspectRatio string `json:"aspect_ratio"`
	Mode        string `json:"mode"`
}

// OpeningScene animates the artwork into the first clip.
type OpeningScene struct {
	Type        string `json:"type"`
	ImageSource string `json:"image_source"`
	Prompt      string `json:"prompt"`
	Duration    int    `json:"duration"`
}

// Extension is one continuation prompt. Template authors write extensions
// either as bare strings or as {"prompt": ...} objects, so both decode.
type Extension struct {
	Prompt string `json:"prompt"`
}

// UnmarshalJSON accepts both the string and the object form.
func (e *Extension) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var prompt string
		if err := json.Unmarshal(data, &prompt); err != nil {
			return err
		}
		e.Prompt = prompt
		return nil
	}
	var object struct {
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(data, &object); err != nil {
		return err
	}
	e.Prompt = object.Prompt
	return nil
}

// Validate checks the invariants the pipeline depends on.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.OpeningScene.Prompt) == "" {
		return fmt.Errorf("scenario: opening scene prompt is empty")
	}
	if s.OpeningScene.Type != "" && s.OpeningScene.Type != "image_to_video" {
		return fmt.Errorf("scenario: unsupported opening scene type %q", s.OpeningScene.Type)
	}
	for i, extension := range s.Extensions {
		if strings.TrimSpace(extension.Prompt) == "" {
			return fmt.Errorf("scenario: extension %d has an empty prompt", i+1)
		}
	}
	return nil
}
