package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateArtifacts(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	return nil
}

func (c *Config) validateArtifacts() error {
	parsed, err := url.Parse(c.Artifacts.PublicBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("artifacts.public_base_url must be an absolute URL, got %q", c.Artifacts.PublicBaseURL)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.NumVideos < 0 {
		return errors.New("pipeline.num_videos must not be negative")
	}
	if c.Pipeline.MinSegments > c.Pipeline.MaxSegments {
		return fmt.Errorf("pipeline.min_segments (%d) must not exceed pipeline.max_segments (%d)",
			c.Pipeline.MinSegments, c.Pipeline.MaxSegments)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must not be negative")
	}
	return nil
}
