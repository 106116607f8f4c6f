package config

const (
	defaultWorkspaceDir       = "~/.local/share/cocreator/workspace"
	defaultLogDir             = "~/.local/share/cocreator/logs"
	defaultPublicBaseURL      = "https://storage.googleapis.com/cocreator-file-uploads"
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMTimeoutSeconds  = 60
	defaultImageModel         = "imagen-3.0-fast-generate-001"
	defaultImageAspectRatio   = "16:9"
	defaultImageTimeout       = 120
	defaultSpeechChunkLimit   = 4500
	defaultSpeechTimeout      = 120
	defaultFFmpegBinary       = "ffmpeg"
	defaultVideoFPS           = 24
	defaultMinSegments        = 8
	defaultMaxSegments        = 12
	defaultStageRetries       = 3
	defaultProgressBuffer     = 64
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultNotifyTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
		},
		Artifacts: Artifacts{
			PublicBaseURL: defaultPublicBaseURL,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Image: Image{
			Model:          defaultImageModel,
			AspectRatio:    defaultImageAspectRatio,
			TimeoutSeconds: defaultImageTimeout,
		},
		Speech: Speech{
			ChunkLimit:     defaultSpeechChunkLimit,
			TimeoutSeconds: defaultSpeechTimeout,
		},
		Video: Video{
			FFmpegBinary: defaultFFmpegBinary,
			FPS:          defaultVideoFPS,
		},
		Pipeline: Pipeline{
			MinSegments:    defaultMinSegments,
			MaxSegments:    defaultMaxSegments,
			StageRetries:   defaultStageRetries,
			ProgressBuffer: defaultProgressBuffer,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Pipeline:       true,
			Report:         true,
			Errors:         true,
		},
	}
}
