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
	c.normalizeServices()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServices() {
	c.Artifacts.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Artifacts.PublicBaseURL), "/")
	if c.Artifacts.PublicBaseURL == "" {
		c.Artifacts.PublicBaseURL = defaultPublicBaseURL
	}

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("COCREATOR_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}

	c.Image.APIKey = strings.TrimSpace(c.Image.APIKey)
	if c.Image.APIKey == "" {
		if value, ok := os.LookupEnv("COCREATOR_IMAGE_API_KEY"); ok {
			c.Image.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Image.APIKey == "" {
		c.Image.APIKey = c.LLM.APIKey
	}
	if strings.TrimSpace(c.Image.Model) == "" {
		c.Image.Model = defaultImageModel
	}
	if strings.TrimSpace(c.Image.AspectRatio) == "" {
		c.Image.AspectRatio = defaultImageAspectRatio
	}
	if c.Image.TimeoutSeconds <= 0 {
		c.Image.TimeoutSeconds = defaultImageTimeout
	}

	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	if c.Speech.APIKey == "" {
		if value, ok := os.LookupEnv("COCREATOR_SPEECH_API_KEY"); ok {
			c.Speech.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Speech.APIKey == "" {
		c.Speech.APIKey = c.LLM.APIKey
	}
	if c.Speech.ChunkLimit <= 0 {
		c.Speech.ChunkLimit = defaultSpeechChunkLimit
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeout
	}

	if strings.TrimSpace(c.Video.FFmpegBinary) == "" {
		c.Video.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = defaultVideoFPS
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.MinSegments <= 0 {
		c.Pipeline.MinSegments = defaultMinSegments
	}
	if c.Pipeline.MaxSegments <= 0 {
		c.Pipeline.MaxSegments = defaultMaxSegments
	}
	if c.Pipeline.StageRetries <= 0 {
		c.Pipeline.StageRetries = defaultStageRetries
	}
	if c.Pipeline.ProgressBuffer <= 0 {
		c.Pipeline.ProgressBuffer = defaultProgressBuffer
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
