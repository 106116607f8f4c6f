package stages

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"cocreator/internal/logging"
	"cocreator/internal/pipeline"
	"cocreator/internal/services"
	"cocreator/internal/session"
	"cocreator/internal/workspace"
)

// Writer expands the content outline into the draft article.
type Writer struct {
	completion CompletionService
	workspace  *workspace.Manager
	logger     *slog.Logger
}

// NewWriter constructs the article writing stage handler.
func NewWriter(deps Deps) *Writer {
	return &Writer{
		completion: deps.Completion,
		workspace:  deps.Workspace,
		logger:     stageLogger(deps.Logger, "writer"),
	}
}

// Descriptor declares the writing stage.
func (w *Writer) Descriptor() pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:         StageWrite,
		InputKeys:    []string{session.KeyContentOutline},
		OutputKeys:   []string{session.KeyDraftArticle},
		Capabilities: []pipeline.Capability{pipeline.CapabilityCompletion},
		Handler:      w,
	}
}

// Execute implements pipeline.Handler.
func (w *Writer) Execute(ctx context.Context, sess *session.Session) error {
	outline, ok := sess.State.OutlineValue()
	if !ok {
		return services.Wrap(services.ErrStage, StageWrite, "read outline", "content outline has an unexpected type", nil)
	}
	encoded, err := json.Marshal(outline)
	if err != nil {
		return services.Wrap(services.ErrStage, StageWrite, "encode outline", "outline could not be serialized", err)
	}

	pipeline.EmitTrace(ctx, "Writing the draft article from the outline")

	article, err := w.completion.Complete(ctx, writerSystemPrompt, string(encoded))
	if err != nil {
		return services.Wrap(services.ErrStage, StageWrite, "request article", "article completion failed", err)
	}
	article = strings.TrimSpace(article)
	if article == "" {
		return services.Wrap(services.ErrStage, StageWrite, "validate article", "completion returned an empty article", nil)
	}

	sess.State.Set(session.KeyDraftArticle, article)
	if _, err := w.workspace.SaveText(ctx, sess.ID, "draft_article.txt", article); err != nil {
		return err
	}
	if w.logger != nil {
		logging.WithContext(ctx, w.logger).Info("draft article written", logging.Int("length", len(article)))
	}
	return w.workspace.PersistIndex(ctx, sess.ID, map[string]any{
		"draft_article": article,
	})
}
