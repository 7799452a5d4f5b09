package testsupport

import (
	"path/filepath"
	"testing"

	"reelforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StorageDir = filepath.Join(base, "storage")
	cfg.Paths.InputsDir = filepath.Join(base, "inputs")
	cfg.Paths.SchemasDir = filepath.Join(base, "schemas")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.LLM.APIKey = "test"
	cfg.ImageGen.APIKey = "test"
	cfg.Speech.APIKey = "test"
	cfg.Transcribe.APIKey = "test"
	cfg.Kling.AccessKey = "test-access"
	cfg.Kling.SecretKey = "test-secret"
	cfg.Runway.APIKey = "test"
	cfg.Lipsync.APIKey = "test"
	cfg.Assets.ReferenceImage = ""
	cfg.Assets.Logo = ""
	cfg.Assets.IntroVideo = ""
	cfg.Assets.OutroVideo = ""
	cfg.Assets.ScenarioTemplate = ""
	cfg.Workflow.InterRunDelaySeconds = 0
	cfg.Workflow.ExtensionRetrySeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithLogo configures the watermark logo file name.
func WithLogo(name string) ConfigOption {
	return func(c *config.Config) {
		c.Assets.Logo = name
	}
}

// WithBrandClips configures the intro and outro video file names.
func WithBrandClips(intro, outro string) ConfigOption {
	return func(c *config.Config) {
		c.Assets.IntroVideo = intro
		c.Assets.OutroVideo = outro
	}
}

// WithSubtitleStyle overrides the burn-in style.
func WithSubtitleStyle(style string) ConfigOption {
	return func(c *config.Config) {
		c.Workflow.SubtitleStyle = style
	}
}
