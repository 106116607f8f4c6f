package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cocreator/internal/config"
)

const userAgent = "Cocreator-Go/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyPipelineStarted(ctx context.Context, sessionID, topic string) error
	NotifyPipelineCompleted(ctx context.Context, sessionID, title string, segments int, duration time.Duration) error
	NotifyPipelineFailed(ctx context.Context, sessionID, stage string, cause error) error
	NotifyReportReady(ctx context.Context, sessionID string, units int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		sendPipeline:   cfg.Notifications.Pipeline,
		sendReport:     cfg.Notifications.Report,
		sendErrors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	sendPipeline bool
	sendReport   bool
	sendErrors   bool
}

func (n *ntfyService) NotifyPipelineStarted(ctx context.Context, sessionID, topic string) error {
	if !n.sendPipeline {
		return nil
	}
	data := payload{
		title:   "Cocreator - Pipeline Started",
		message: fmt.Sprintf("Started generating content for %q (session %s)", strings.TrimSpace(topic), shortSession(sessionID)),
		tags:    []string{"cocreator", "pipeline", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPipelineCompleted(ctx context.Context, sessionID, title string, segments int, duration time.Duration) error {
	if !n.sendPipeline {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title:    "Cocreator - Pipeline Complete",
		message:  fmt.Sprintf("Finished %q: %d segments in %s (session %s)", strings.TrimSpace(title), segments, duration, shortSession(sessionID)),
		tags:     []string{"cocreator", "pipeline", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPipelineFailed(ctx context.Context, sessionID, stage string, cause error) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Pipeline failed")
	if stage = strings.TrimSpace(stage); stage != "" {
		builder.WriteString(" at stage ")
		builder.WriteString(stage)
	}
	builder.WriteString(": ")
	if cause != nil {
		builder.WriteString(strings.TrimSpace(cause.Error()))
	} else {
		builder.WriteString("unknown")
	}
	builder.WriteString(fmt.Sprintf(" (session %s)", shortSession(sessionID)))

	data := payload{
		title:    "Cocreator - Pipeline Failed",
		message:  builder.String(),
		tags:     []string{"cocreator", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReportReady(ctx context.Context, sessionID string, units int) error {
	if !n.sendReport {
		return nil
	}
	data := payload{
		title:   "Cocreator - Report Ready",
		message: fmt.Sprintf("Report assembled with %d units (session %s)", units, shortSession(sessionID)),
		tags:    []string{"cocreator", "report", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Cocreator - Test",
		message:  "Notification system test",
		tags:     []string{"cocreator", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func shortSession(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if len(sessionID) > 8 {
		return sessionID[:8]
	}
	return sessionID
}

type noopService struct{}

func (noopService) NotifyPipelineStarted(context.Context, string, string) error { return nil }
func (noopService) NotifyPipelineCompleted(context.Context, string, string, int, time.Duration) error {
	return nil
}
func (noopService) NotifyPipelineFailed(context.Context, string, string, error) error { return nil }
func (noopService) NotifyReportReady(context.Context, string, int) error              { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }
