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
	// WorkspaceDir is the root under which per-session artifact layouts are
	// created (sessions/<id>/{audio,image,text,video}).
	WorkspaceDir string `toml:"workspace_dir"`
	LogDir       string `toml:"log_dir"`
}

// Artifacts contains configuration for durable artifact addressing.
type Artifacts struct {
	// PublicBaseURL is the root used to resolve report links as
	// <base>/<session_id>/<category>/<filename>.
	PublicBaseURL string `toml:"public_base_url"`
}

// LLM contains connection settings for the text completion service.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Image contains connection settings for the image generation service.
type Image struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	AspectRatio    string `toml:"aspect_ratio"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Speech contains connection settings for the text-to-speech service.
type Speech struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Voice          string `toml:"voice"`
	ChunkLimit     int    `toml:"chunk_limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Video contains settings for video muxing.
type Video struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	FPS          int    `toml:"fps"`
}

// Pipeline contains settings for pipeline composition and segmentation.
type Pipeline struct {
	// NumVideos fixes the segment count; 0 lets the producer decide within
	// [MinSegments, MaxSegments].
	NumVideos   int `toml:"num_videos"`
	MinSegments int `toml:"min_segments"`
	MaxSegments int `toml:"max_segments"`
	// StageRetries bounds local retries of transient external-call failures
	// before a stage escalates.
	StageRetries int `toml:"stage_retries"`
	// ProgressBuffer sizes the bounded progress event queue.
	ProgressBuffer int `toml:"progress_buffer"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Pipeline       bool   `toml:"pipeline"`
	Report         bool   `toml:"report"`
	Errors         bool   `toml:"errors"`
}

// Config encapsulates all configuration values for the content pipeline.
//
// Configuration sections by subsystem:
//   - Paths: workspace and log directories
//   - Artifacts: public URL base for report links
//   - LLM: text completion service connection
//   - Image: image generation service connection
//   - Speech: text-to-speech service connection and chunking
//   - Video: ffmpeg muxing settings
//   - Pipeline: segmentation bounds and retry budget
//   - Logging: log format and level
//   - Notifications: ntfy push notification settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Artifacts     Artifacts     `toml:"artifacts"`
	LLM           LLM           `toml:"llm"`
	Image         Image         `toml:"image"`
	Speech        Speech        `toml:"speech"`
	Video         Video         `toml:"video"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cocreator/config.toml")
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

	projectPath, err := filepath.Abs("cocreator.toml")
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

// EnsureDirectories creates the directories the pipeline needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspaceDir, c.Paths.LogDir, c.ScratchDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SessionsDir returns the root holding per-session layouts.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.Paths.WorkspaceDir, "sessions")
}

// ScratchDir returns the staging area external services write into before
// artifacts are relocated into a session layout.
func (c *Config) ScratchDir() string {
	return filepath.Join(c.Paths.WorkspaceDir, "scratch")
}

// CreateSample writes the embedded sample configuration to the target path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
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
