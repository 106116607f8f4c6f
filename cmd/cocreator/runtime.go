package main

import (
	"log/slog"

	"cocreator/internal/artifacts"
	"cocreator/internal/config"
	"cocreator/internal/docstore"
	"cocreator/internal/logging"
	"cocreator/internal/notifications"
	"cocreator/internal/report"
	"cocreator/internal/services/imagegen"
	"cocreator/internal/services/llm"
	"cocreator/internal/services/speech"
	"cocreator/internal/services/videomux"
	"cocreator/internal/stages"
	"cocreator/internal/workspace"
)

// runtime holds the wired collaborators a command needs to touch sessions:
// the logger, the session index, the workspace, and the pipeline services.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	docs      *docstore.Store
	workspace *workspace.Manager
	assembler *report.Assembler
	notifier  notifications.Service
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	docs, err := docstore.Open(cfg)
	if err != nil {
		return nil, err
	}

	ws := workspace.NewManager(cfg, docs, logger)
	resolver := artifacts.NewResolver(cfg.Artifacts.PublicBaseURL)

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		docs:      docs,
		workspace: ws,
		assembler: report.NewAssembler(ws, resolver, logger),
		notifier:  notifications.NewService(cfg),
	}, nil
}

func (r *runtime) Close() {
	if r.docs != nil {
		_ = r.docs.Close()
	}
}

// stageDeps builds the dependency set for pipeline stages, connecting the
// external completion, image, speech and muxing services.
func (r *runtime) stageDeps() stages.Deps {
	return stages.Deps{
		Config:     r.cfg,
		Logger:     r.logger,
		Workspace:  r.workspace,
		Completion: llm.NewClient(llm.ConfigFromApp(r.cfg)),
		Images:     imagegen.NewClient(imagegen.ConfigFromApp(r.cfg)),
		Speech:     speech.NewClient(speech.ConfigFromApp(r.cfg)),
		Video:      videomux.NewMuxer(r.cfg),
		Assembler:  r.assembler,
	}
}
