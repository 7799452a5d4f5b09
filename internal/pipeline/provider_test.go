package pipeline

import (
	"errors"
	"testing"

	"reelforge/internal/services"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		value   string
		want    Provider
		wantErr bool
	}{
		{value: "", want: ProviderKling},
		{value: "kling", want: ProviderKling},
		{value: "Kling", want: ProviderKling},
		{value: "  runway  ", want: ProviderRunway},
		{value: "RUNWAY", want: ProviderRunway},
		{value: "sora", wantErr: true},
		{value: "kling2", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.value)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseProvider(%q): expected error", tt.value)
			} else if !errors.Is(err, services.ErrValidation) {
				t.Errorf("ParseProvider(%q): error %v is not a validation error", tt.value, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseProvider(%q): %v", tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
