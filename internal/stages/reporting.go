package stages

import (
	"context"
	"log/slog"

	"cocreator/internal/logging"
	"cocreator/internal/pipeline"
	"cocreator/internal/report"
	"cocreator/internal/services"
	"cocreator/internal/session"
	"cocreator/internal/workspace"
)

// Reporter assembles the final report document from the session's text
// artifacts and persists it to the session index.
type Reporter struct {
	assembler *report.Assembler
	workspace *workspace.Manager
	logger    *slog.Logger
}

// NewReporter constructs the reporting stage handler.
func NewReporter(deps Deps) *Reporter {
	return &Reporter{
		assembler: deps.Assembler,
		workspace: deps.Workspace,
		logger:    stageLogger(deps.Logger, "reporter"),
	}
}

// Descriptor declares the reporting stage.
func (r *Reporter) Descriptor() pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:       StageReport,
		InputKeys:  []string{session.KeyMultimediaAssets},
		OutputKeys: []string{session.KeyReport},
		Handler:    r,
	}
}

// Execute implements pipeline.Handler.
func (r *Reporter) Execute(ctx context.Context, sess *session.Session) error {
	if r.assembler == nil {
		return services.Wrap(services.ErrConfiguration, StageReport, "assemble report", "report assembler is not configured", nil)
	}

	pipeline.EmitTrace(ctx, "Reading session artifacts for the report")
	doc, err := r.assembler.Assemble(ctx, sess.ID)
	if err != nil {
		return err
	}

	sess.State.Set(session.KeyReport, doc)
	if r.logger != nil {
		logging.WithContext(ctx, r.logger).Info("report assembled", logging.Int("units", len(doc.Units)))
	}
	return r.workspace.PersistIndex(ctx, sess.ID, map[string]any{
		"report": doc,
	})
}
