// Package imagegen provides the image generation client used by the
// multimedia stage to illustrate article segments.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cocreator/internal/config"
	"cocreator/internal/services"
)

const defaultHTTPTimeout = 120 * time.Second

// Config captures the runtime settings required to talk to the image API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	AspectRatio    string
	TimeoutSeconds int
}

// ConfigFromApp maps the application configuration onto client settings.
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		APIKey:         cfg.Image.APIKey,
		BaseURL:        cfg.Image.BaseURL,
		Model:          cfg.Image.Model,
		AspectRatio:    cfg.Image.AspectRatio,
		TimeoutSeconds: cfg.Image.TimeoutSeconds,
	}
}

// Client wraps an OpenAI-compatible image generation API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an image client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			AspectRatio:    strings.TrimSpace(cfg.AspectRatio),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.AspectRatio == "" {
		client.cfg.AspectRatio = "9:16"
	}
	return client
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	AspectRatio    string `json:"aspect_ratio"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate renders the prompt into PNG bytes.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	const op = "generate image"
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("imagegen: prompt required")
	}
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", op, "api key required", nil)
	}
	if c.cfg.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", op, "base url required", nil)
	}

	encoded, err := json.Marshal(imageRequest{
		Model:          c.cfg.Model,
		Prompt:         prompt,
		AspectRatio:    c.cfg.AspectRatio,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, fmt.Errorf("imagegen: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("imagegen: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("imagegen: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(op, resp.StatusCode, body)
	}

	var decoded imageResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("imagegen: decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("imagegen: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	if len(decoded.Data) == 0 || strings.TrimSpace(decoded.Data[0].B64JSON) == "" {
		return nil, services.Wrap(services.ErrTransient, "", op, "image service returned no image data", nil)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(decoded.Data[0].B64JSON))
	if err != nil {
		return nil, fmt.Errorf("imagegen: decode image data: %w", err)
	}
	return raw, nil
}

func classifyStatus(op string, status int, body []byte) error {
	detail := fmt.Errorf("imagegen: http %d: %s", status, strings.TrimSpace(string(body)))
	switch {
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "", op, "image service rate limited the request", detail)
	case status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrUnavailable, "", op, "image service returned a server error", detail)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "", op, "image service rejected the credentials", detail)
	default:
		return detail
	}
}

func classifyTransportError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return services.Wrap(services.ErrUnavailable, "", op, "image service is unreachable", err)
	}
	return fmt.Errorf("imagegen: http error: %w", err)
}
