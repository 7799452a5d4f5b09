package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrConfiguration, "audio", "synthesize", "api key required", nil)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "audio: synthesize: api key required") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrTransient, "lipsync", "submit", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause not preserved: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected generic detail, got %v", err)
	}
}

func TestIsTimeout(t *testing.T) {
	err := Wrap(ErrTimeout, "video", "poll", "wait budget exhausted", nil)
	if !IsTimeout(err) {
		t.Fatalf("expected timeout classification for %v", err)
	}
	if IsTimeout(Wrap(ErrExternalTool, "video", "poll", "task failed", nil)) {
		t.Fatal("external tool error misclassified as timeout")
	}
}
