package config

const (
	defaultStorageDir = "~/.local/share/reelforge/storage"
	defaultInputsDir  = "~/.local/share/reelforge/inputs"
	defaultSchemasDir = "~/.local/share/reelforge/schemas"
	defaultLogDir     = "~/.local/share/reelforge/logs"

	defaultLLMBaseURL    = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel      = "gpt-4o"
	defaultLLMTimeout    = 120
	defaultImageBaseURL  = "https://api.openai.com/v1/images/generations"
	defaultImageModel    = "gpt-image-1"
	defaultImageTimeout  = 300
	defaultSpeechBaseURL = "https://api.elevenlabs.io/v1"
	defaultSpeechVoiceID = "xZVrOjUURog02K298cjt"
	defaultSpeechModel   = "eleven_multilingual_v2"

	defaultTranscribeBaseURL = "https://api.openai.com/v1/audio/transcriptions"
	defaultTranscribeModel   = "whisper-1"
	defaultTranscribeLang    = "en"
	defaultTranscribeMaxMiB  = 25

	defaultKlingBaseURL  = "https://api-singapore.klingai.com/v1"
	defaultKlingModel    = "kling-v1"
	defaultRunwayBaseURL = "https://api.dev.runwayml.com/v1"
	defaultRunwayModel   = "gen4_turbo"

	defaultLipsyncBaseURL  = "https://api.sync.so/v2"
	defaultLipsyncModel    = "lipsync-2"
	defaultLipsyncSyncMode = "cut_off"

	defaultFilehostUploadURL = "https://uguu.se/upload"
	defaultFilehostTimeout   = 60

	defaultReferenceImage   = "hero.png"
	defaultLogoName         = "logo.png"
	defaultIntroName        = "intro.mp4"
	defaultOutroName        = "outro.mp4"
	defaultScenarioTemplate = "runway_scenario_template.json"

	defaultArtworkMaxAttempts    = 3
	defaultExtensionMaxAttempts  = 3
	defaultExtensionRetrySeconds = 10
	defaultInterRunDelaySeconds  = 5
	defaultPollIntervalSeconds   = 10
	defaultMaxWaitSeconds        = 1800
	defaultSubtitleStyle         = "netflix"
	defaultWatermarkPosition     = "bottom_right"
	defaultWatermarkOpacity      = 0.7
	defaultWatermarkScale        = 0.12

	defaultNtfyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			InputsDir:  defaultInputsDir,
			SchemasDir: defaultSchemasDir,
			LogDir:     defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeout,
		},
		ImageGen: ImageGen{
			BaseURL:        defaultImageBaseURL,
			Model:          defaultImageModel,
			TimeoutSeconds: defaultImageTimeout,
		},
		Speech: Speech{
			BaseURL: defaultSpeechBaseURL,
			VoiceID: defaultSpeechVoiceID,
			Model:   defaultSpeechModel,
		},
		Transcribe: Transcribe{
			BaseURL:      defaultTranscribeBaseURL,
			Model:        defaultTranscribeModel,
			Language:     defaultTranscribeLang,
			MaxUploadMiB: defaultTranscribeMaxMiB,
		},
		Kling: Kling{
			BaseURL:             defaultKlingBaseURL,
			Model:               defaultKlingModel,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MaxWaitSeconds:      defaultMaxWaitSeconds,
		},
		Runway: Runway{
			BaseURL:             defaultRunwayBaseURL,
			Model:               defaultRunwayModel,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MaxWaitSeconds:      defaultMaxWaitSeconds,
		},
		Lipsync: Lipsync{
			BaseURL:             defaultLipsyncBaseURL,
			Model:               defaultLipsyncModel,
			SyncMode:            defaultLipsyncSyncMode,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MaxWaitSeconds:      defaultMaxWaitSeconds,
		},
		Filehost: Filehost{
			UploadURL:      defaultFilehostUploadURL,
			TimeoutSeconds: defaultFilehostTimeout,
		},
		Assets: BrandAssets{
			ReferenceImage:   defaultReferenceImage,
			Logo:             defaultLogoName,
			IntroVideo:       defaultIntroName,
			OutroVideo:       defaultOutroName,
			ScenarioTemplate: defaultScenarioTemplate,
		},
		Workflow: Workflow{
			ArtworkMaxAttempts:    defaultArtworkMaxAttempts,
			ExtensionMaxAttempts:  defaultExtensionMaxAttempts,
			ExtensionRetrySeconds: defaultExtensionRetrySeconds,
			InterRunDelaySeconds:  defaultInterRunDelaySeconds,
			SubtitleStyle:         defaultSubtitleStyle,
			WatermarkPosition:     defaultWatermarkPosition,
			WatermarkOpacity:      defaultWatermarkOpacity,
			WatermarkScale:        defaultWatermarkScale,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
