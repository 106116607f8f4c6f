// Package speech provides the text-to-speech client used to narrate
// article segments.
//
// Long transcripts are split into fixed-size chunks below the synthesis
// request limit, each chunk is synthesized separately, and the resulting
// MP3 byte streams are concatenated in order.
package speech

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

const (
	// DefaultChunkLimit is the maximum rune count sent in one synthesis
	// request.
	DefaultChunkLimit = 4500

	defaultHTTPTimeout  = 120 * time.Second
	perChunkAttempts    = 3
	perChunkRetryDelay  = time.Second
	defaultVoiceMissing = "en-US-Neural2-D"
)

// Config captures the runtime settings required to talk to the speech API.
type Config struct {
	APIKey         string
	BaseURL        string
	Voice          string
	ChunkLimit     int
	TimeoutSeconds int
}

// ConfigFromApp maps the application configuration onto client settings.
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		APIKey:         cfg.Speech.APIKey,
		BaseURL:        cfg.Speech.BaseURL,
		Voice:          cfg.Speech.Voice,
		ChunkLimit:     cfg.Speech.ChunkLimit,
		TimeoutSeconds: cfg.Speech.TimeoutSeconds,
	}
}

// Client wraps a Google-style text-to-speech REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleeper    func(time.Duration)
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

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a speech client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Voice:          strings.TrimSpace(cfg.Voice),
			ChunkLimit:     cfg.ChunkLimit,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.ChunkLimit <= 0 {
		client.cfg.ChunkLimit = DefaultChunkLimit
	}
	return client
}

// SplitChunks breaks text into consecutive rune slices of at most limit
// runes. The chunks concatenate back to the original text exactly.
func SplitChunks(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultChunkLimit
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

type synthesisRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"language_code"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audio_encoding"`
	} `json:"audio_config"`
}

type synthesisResponse struct {
	AudioContent string `json:"audio_content"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Synthesize converts text to a single MP3 byte stream using the given
// voice. An empty voice falls back to the configured voice, then to a
// fixed default.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	const op = "synthesize speech"
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("speech: text required")
	}
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", op, "api key required", nil)
	}
	if c.cfg.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", op, "base url required", nil)
	}
	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = c.cfg.Voice
	}
	if voice == "" {
		voice = defaultVoiceMissing
	}

	var combined bytes.Buffer
	for i, chunk := range SplitChunks(text, c.cfg.ChunkLimit) {
		audio, err := c.synthesizeChunkWithRetry(ctx, chunk, voice)
		if err != nil {
			return nil, services.Wrap(services.ErrStage, "", op, fmt.Sprintf("chunk %d failed", i+1), err)
		}
		combined.Write(audio)
	}
	return combined.Bytes(), nil
}

func (c *Client) synthesizeChunkWithRetry(ctx context.Context, chunk, voice string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= perChunkAttempts; attempt++ {
		audio, err := c.synthesizeOnce(ctx, chunk, voice)
		if err == nil {
			return audio, nil
		}
		lastErr = err
		if !services.Retryable(err) || attempt == perChunkAttempts {
			return nil, err
		}
		if err := c.sleep(ctx, perChunkRetryDelay*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) synthesizeOnce(ctx context.Context, chunk, voice string) ([]byte, error) {
	const op = "synthesize speech"
	var payload synthesisRequest
	payload.Input.Text = chunk
	payload.Voice.LanguageCode = languageCode(voice)
	payload.Voice.Name = voice
	payload.AudioConfig.AudioEncoding = "MP3"

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("speech: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("speech: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		var netErr net.Error
		var urlErr *url.Error
		if errors.As(err, &netErr) || errors.As(err, &urlErr) {
			return nil, services.Wrap(services.ErrUnavailable, "", op, "speech service is unreachable", err)
		}
		return nil, fmt.Errorf("speech: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := fmt.Errorf("speech: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, services.Wrap(services.ErrRateLimited, "", op, "speech service rate limited the request", detail)
		case resp.StatusCode >= http.StatusInternalServerError:
			return nil, services.Wrap(services.ErrUnavailable, "", op, "speech service returned a server error", detail)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, services.Wrap(services.ErrConfiguration, "", op, "speech service rejected the credentials", detail)
		default:
			return nil, detail
		}
	}

	var decoded synthesisResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("speech: decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("speech: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	if strings.TrimSpace(decoded.AudioContent) == "" {
		return nil, services.Wrap(services.ErrTransient, "", op, "speech service returned no audio", nil)
	}
	audio, err := base64.StdEncoding.DecodeString(strings.TrimSpace(decoded.AudioContent))
	if err != nil {
		return nil, fmt.Errorf("speech: decode audio data: %w", err)
	}
	return audio, nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// languageCode derives the language from voice names like en-US-Neural2-D.
func languageCode(voice string) string {
	parts := strings.Split(voice, "-")
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return "en-US"
}
