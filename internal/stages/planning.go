package stages

import (
	"context"
	"log/slog"
	"strings"

	"cocreator/internal/logging"
	"cocreator/internal/pipeline"
	"cocreator/internal/services"
	"cocreator/internal/services/llm"
	"cocreator/internal/session"
	"cocreator/internal/workspace"
)

// Planner turns the session topic into a structured content outline.
type Planner struct {
	completion CompletionService
	workspace  *workspace.Manager
	logger     *slog.Logger
}

// NewPlanner constructs the planning stage handler.
func NewPlanner(deps Deps) *Planner {
	return &Planner{
		completion: deps.Completion,
		workspace:  deps.Workspace,
		logger:     stageLogger(deps.Logger, "planner"),
	}
}

// Descriptor declares the planning stage.
func (p *Planner) Descriptor() pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:         StagePlan,
		InputKeys:    []string{session.KeyTopic},
		OutputKeys:   []string{session.KeyContentOutline},
		Capabilities: []pipeline.Capability{pipeline.CapabilityCompletion},
		Handler:      p,
	}
}

// Execute implements pipeline.Handler.
func (p *Planner) Execute(ctx context.Context, sess *session.Session) error {
	topic, ok := sess.State.String(session.KeyTopic)
	if !ok || strings.TrimSpace(topic) == "" {
		return services.Wrap(services.ErrStage, StagePlan, "read topic", "topic must be a non-empty string", nil)
	}

	pipeline.EmitTrace(ctx, "Analyzing the topic for coverage angles")
	pipeline.EmitTrace(ctx, "Creating the content outline")

	raw, err := p.completion.CompleteJSON(ctx, planningSystemPrompt, topic)
	if err != nil {
		return services.Wrap(services.ErrStage, StagePlan, "request outline", "outline completion failed", err)
	}
	var outline session.Outline
	if err := llm.DecodeLLMJSON(raw, &outline); err != nil {
		return services.Wrap(services.ErrStage, StagePlan, "parse outline", "outline payload is not valid JSON", err)
	}
	if strings.TrimSpace(outline.Title) == "" || len(outline.Sections) == 0 {
		return services.Wrap(services.ErrStage, StagePlan, "validate outline", "outline is missing a title or sections", nil)
	}

	sess.State.Set(session.KeyContentOutline, outline)
	if p.logger != nil {
		logging.WithContext(ctx, p.logger).Info(
			"outline produced",
			logging.String("title", outline.Title),
			logging.Int("sections", len(outline.Sections)),
		)
	}
	return p.workspace.PersistIndex(ctx, sess.ID, map[string]any{
		"topic":           topic,
		"content_outline": outline,
	})
}

func stageLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(logging.String(logging.FieldComponent, component))
}
