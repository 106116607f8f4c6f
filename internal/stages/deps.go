// Package stages implements the content generation pipeline stages:
// planning, article writing, multimedia production, full-video assembly,
// and report generation.
package stages

import (
	"context"
	"log/slog"

	"cocreator/internal/config"
	"cocreator/internal/report"
	"cocreator/internal/services/videomux"
	"cocreator/internal/workspace"
)

// CompletionService produces text and structured JSON completions.
type CompletionService interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ImageService renders a prompt into image bytes.
type ImageService interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// SpeechService converts text into a single audio byte stream.
type SpeechService interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// VideoService builds video clips from paired stills and narration.
type VideoService interface {
	MuxSegment(ctx context.Context, pair videomux.Pair, outputPath string) error
	Concat(ctx context.Context, segmentPaths []string, outputPath string) error
}

// Deps carries the collaborators stage handlers are built from.
type Deps struct {
	Config     *config.Config
	Logger     *slog.Logger
	Workspace  *workspace.Manager
	Completion CompletionService
	Images     ImageService
	Speech     SpeechService
	Video      VideoService
	Assembler  *report.Assembler
}
