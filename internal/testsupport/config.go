package testsupport

import (
	"path/filepath"
	"testing"

	"cocreator/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Artifacts.PublicBaseURL = "https://assets.example.com"
	cfgVal.LLM.APIKey = "test"
	cfgVal.Image.APIKey = "test"
	cfgVal.Speech.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPublicBaseURL overrides the artifact URL base on the test config.
func WithPublicBaseURL(base string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Artifacts.PublicBaseURL = base
	}
}

// WithNumVideos pins the segment count on the test config.
func WithNumVideos(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.NumVideos = n
	}
}

// WithNtfyTopic points notifications at the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}
