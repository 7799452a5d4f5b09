package pipeline

import (
	"fmt"
	"strings"

	"reelforge/internal/services"
)

// Provider selects which video generation backend a scenario uses.
type Provider string

const (
	ProviderKling  Provider = "kling"
	ProviderRunway Provider = "runway"
)

// ParseProvider normalizes the provider value from a scenario. An empty
// value defaults to kling; anything unrecognized is a validation error.
func ParseProvider(value string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ProviderKling):
		return ProviderKling, nil
	case string(ProviderRunway):
		return ProviderRunway, nil
	default:
		return "", fmt.Errorf("unknown provider %q: %w", value, services.ErrValidation)
	}
}
