package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StorageDir string `toml:"storage_dir"`
	InputsDir  string `toml:"inputs_dir"`
	SchemasDir string `toml:"schemas_dir"`
	LogDir     string `toml:"log_dir"`
}

// LLM contains shared text/vision model connection settings used by the
// artwork designer, artwork checker, script writer, scenario producer, and
// title generator.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ImageGen contains configuration for the image generation endpoint.
type ImageGen struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Speech contains configuration for the text-to-speech provider.
type Speech struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	VoiceID string `toml:"voice_id"`
	Model   string `toml:"model"`
}

// Transcribe contains configuration for audio transcription (subtitles).
type Transcribe struct {
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
	Model        string `toml:"model"`
	Language     string `toml:"language"`
	MaxUploadMiB int    `toml:"max_upload_mib"`
}

// Kling contains configuration for the Kling video generation provider.
type Kling struct {
	AccessKey           string `toml:"access_key"`
	SecretKey           string `toml:"secret_key"`
	BaseURL             string `toml:"base_url"`
	Model               string `toml:"model"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	MaxWaitSeconds      int    `toml:"max_wait_seconds"`
}

// Runway contains configuration for the Runway video generation provider.
type Runway struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	Model               string `toml:"model"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	MaxWaitSeconds      int    `toml:"max_wait_seconds"`
}

// Lipsync contains configuration for the lip-sync provider.
type Lipsync struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	Model               string `toml:"model"`
	SyncMode            string `toml:"sync_mode"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	MaxWaitSeconds      int    `toml:"max_wait_seconds"`
}

// Filehost contains configuration for the public file hosting endpoint used
// to expose local videos to URL-only providers.
type Filehost struct {
	UploadURL      string `toml:"upload_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// BrandAssets names the optional branding inputs expected under inputs_dir
// and the scenario template under schemas_dir.
type BrandAssets struct {
	ReferenceImage   string `toml:"reference_image"`
	Logo             string `toml:"logo"`
	IntroVideo       string `toml:"intro_video"`
	OutroVideo       string `toml:"outro_video"`
	ScenarioTemplate string `toml:"scenario_template"`
}

// Workflow contains pipeline timing and retry knobs.
type Workflow struct {
	ArtworkMaxAttempts    int     `toml:"artwork_max_attempts"`
	ExtensionMaxAttempts  int     `toml:"extension_max_attempts"`
	ExtensionRetrySeconds int     `toml:"extension_retry_seconds"`
	InterRunDelaySeconds  int     `toml:"inter_run_delay_seconds"`
	SubtitleStyle         string  `toml:"subtitle_style"`
	WatermarkPosition     string  `toml:"watermark_position"`
	WatermarkOpacity      float64 `toml:"watermark_opacity"`
	WatermarkScale        float64 `toml:"watermark_scale"`
}

// Notifications contains settings for push notifications delivered over ntfy.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelforge.
//
// Configuration sections by subsystem:
//   - Paths: storage, inputs, schemas, and log directories
//   - LLM: shared text/vision model settings for creative stages
//   - ImageGen: artwork image generation endpoint
//   - Speech: text-to-speech synthesis
//   - Transcribe: audio transcription for subtitles
//   - Kling / Runway: the two supported raw-video providers
//   - Lipsync: lip-sync job submission and polling
//   - Filehost: public URL hosting for local artifacts
//   - Assets: optional branding inputs and the scenario template
//   - Workflow: retry budgets, delays, and post-processing styles
//   - Notifications: optional ntfy push notifications
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	ImageGen      ImageGen      `toml:"imagegen"`
	Speech        Speech        `toml:"speech"`
	Transcribe    Transcribe    `toml:"transcribe"`
	Kling         Kling         `toml:"kling"`
	Runway        Runway        `toml:"runway"`
	Lipsync       Lipsync       `toml:"lipsync"`
	Filehost      Filehost      `toml:"filehost"`
	Assets        BrandAssets   `toml:"assets"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelforge/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to the given path.
func CreateSample(path string) error {
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StorageDir, c.Paths.InputsDir, c.Paths.SchemasDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ReferenceImagePath returns the absolute path of the reference character image.
func (c *Config) ReferenceImagePath() string {
	return filepath.Join(c.Paths.InputsDir, c.Assets.ReferenceImage)
}

// LogoPath returns the absolute path of the optional watermark logo.
func (c *Config) LogoPath() string {
	return filepath.Join(c.Paths.InputsDir, c.Assets.Logo)
}

// IntroPath returns the absolute path of the optional branding intro video.
func (c *Config) IntroPath() string {
	return filepath.Join(c.Paths.InputsDir, c.Assets.IntroVideo)
}

// OutroPath returns the absolute path of the optional branding outro video.
func (c *Config) OutroPath() string {
	return filepath.Join(c.Paths.InputsDir, c.Assets.OutroVideo)
}

// ScenarioTemplatePath returns the absolute path of the scenario JSON template.
func (c *Config) ScenarioTemplatePath() string {
	return filepath.Join(c.Paths.SchemasDir, c.Assets.ScenarioTemplate)
}

// FFmpegBinary returns the ffmpeg executable name used for post-processing.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
