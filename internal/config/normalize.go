package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCredentials()
	c.normalizeEndpoints()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	if c.Paths.InputsDir, err = expandPath(c.Paths.InputsDir); err != nil {
		return fmt.Errorf("paths.inputs_dir: %w", err)
	}
	if c.Paths.SchemasDir, err = expandPath(c.Paths.SchemasDir); err != nil {
		return fmt.Errorf("paths.schemas_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// normalizeCredentials applies environment fallbacks for every provider key
// so a bare config file still works when credentials live in the process
// environment (or a .env file loaded at startup).
func (c *Config) normalizeCredentials() {
	fallback(&c.LLM.APIKey, "OPENAI_API_KEY")
	if c.ImageGen.APIKey == "" {
		c.ImageGen.APIKey = c.LLM.APIKey
	}
	if c.Transcribe.APIKey == "" {
		c.Transcribe.APIKey = c.LLM.APIKey
	}
	fallback(&c.Speech.APIKey, "ELEVENLABS_API_KEY")
	fallback(&c.Kling.AccessKey, "KLING_ACCESS_KEY")
	fallback(&c.Kling.SecretKey, "KLING_SECRET_KEY")
	fallback(&c.Runway.APIKey, "RUNWAY_API_KEY")
	fallback(&c.Lipsync.APIKey, "SYNC_API_KEY")
}

func (c *Config) normalizeEndpoints() {
	trimDefault(&c.LLM.BaseURL, defaultLLMBaseURL)
	trimDefault(&c.LLM.Model, defaultLLMModel)
	trimDefault(&c.ImageGen.BaseURL, defaultImageBaseURL)
	trimDefault(&c.ImageGen.Model, defaultImageModel)
	trimDefault(&c.Speech.BaseURL, defaultSpeechBaseURL)
	trimDefault(&c.Speech.VoiceID, defaultSpeechVoiceID)
	trimDefault(&c.Speech.Model, defaultSpeechModel)
	trimDefault(&c.Transcribe.BaseURL, defaultTranscribeBaseURL)
	trimDefault(&c.Transcribe.Model, defaultTranscribeModel)
	trimDefault(&c.Transcribe.Language, defaultTranscribeLang)
	trimDefault(&c.Kling.BaseURL, defaultKlingBaseURL)
	trimDefault(&c.Kling.Model, defaultKlingModel)
	trimDefault(&c.Runway.BaseURL, defaultRunwayBaseURL)
	trimDefault(&c.Runway.Model, defaultRunwayModel)
	trimDefault(&c.Lipsync.BaseURL, defaultLipsyncBaseURL)
	trimDefault(&c.Lipsync.Model, defaultLipsyncModel)
	c.Lipsync.SyncMode = strings.ToLower(strings.TrimSpace(c.Lipsync.SyncMode))
	if c.Lipsync.SyncMode == "" {
		c.Lipsync.SyncMode = defaultLipsyncSyncMode
	}
	trimDefault(&c.Filehost.UploadURL, defaultFilehostUploadURL)

	if c.Transcribe.MaxUploadMiB <= 0 {
		c.Transcribe.MaxUploadMiB = defaultTranscribeMaxMiB
	}
	if c.Filehost.TimeoutSeconds <= 0 {
		c.Filehost.TimeoutSeconds = defaultFilehostTimeout
	}
	for _, poll := range []*int{&c.Kling.PollIntervalSeconds, &c.Runway.PollIntervalSeconds, &c.Lipsync.PollIntervalSeconds} {
		if *poll <= 0 {
			*poll = defaultPollIntervalSeconds
		}
	}
	for _, wait := range []*int{&c.Kling.MaxWaitSeconds, &c.Runway.MaxWaitSeconds, &c.Lipsync.MaxWaitSeconds} {
		if *wait <= 0 {
			*wait = defaultMaxWaitSeconds
		}
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.ArtworkMaxAttempts <= 0 {
		c.Workflow.ArtworkMaxAttempts = defaultArtworkMaxAttempts
	}
	if c.Workflow.ExtensionMaxAttempts <= 0 {
		c.Workflow.ExtensionMaxAttempts = defaultExtensionMaxAttempts
	}
	if c.Workflow.ExtensionRetrySeconds <= 0 {
		c.Workflow.ExtensionRetrySeconds = defaultExtensionRetrySeconds
	}
	if c.Workflow.InterRunDelaySeconds < 0 {
		c.Workflow.InterRunDelaySeconds = defaultInterRunDelaySeconds
	}
	c.Workflow.SubtitleStyle = strings.ToLower(strings.TrimSpace(c.Workflow.SubtitleStyle))
	if c.Workflow.SubtitleStyle == "" {
		c.Workflow.SubtitleStyle = defaultSubtitleStyle
	}
	c.Workflow.WatermarkPosition = strings.ToLower(strings.TrimSpace(c.Workflow.WatermarkPosition))
	if c.Workflow.WatermarkPosition == "" {
		c.Workflow.WatermarkPosition = defaultWatermarkPosition
	}
	if c.Workflow.WatermarkOpacity <= 0 || c.Workflow.WatermarkOpacity > 1 {
		c.Workflow.WatermarkOpacity = defaultWatermarkOpacity
	}
	if c.Workflow.WatermarkScale <= 0 || c.Workflow.WatermarkScale > 1 {
		c.Workflow.WatermarkScale = defaultWatermarkScale
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func fallback(target *string, envKey string) {
	*target = strings.TrimSpace(*target)
	if *target != "" {
		return
	}
	if value, ok := os.LookupEnv(envKey); ok {
		*target = strings.TrimSpace(value)
	}
}

func trimDefault(target *string, def string) {
	*target = strings.TrimSpace(*target)
	if *target == "" {
		*target = def
	}
}
