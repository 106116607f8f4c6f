// Package pipeline sequences content generation stages over a shared
// session state bag.
//
// Stages run strictly in declared order, one at a time. Each stage names
// the state keys it consumes and produces; the pipeline refuses to start
// a stage whose inputs are missing and fails the run if a stage exits
// without writing its declared outputs. The first stage failure halts the
// run, preserving the partial state bag for diagnostics.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cocreator/internal/logging"
	"cocreator/internal/services"
	"cocreator/internal/session"
)

// Handler executes one stage's work against the session.
type Handler interface {
	Execute(ctx context.Context, sess *session.Session) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, sess *session.Session) error

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, sess *session.Session) error {
	return f(ctx, sess)
}

// Capability names an external service a stage depends on.
type Capability string

const (
	CapabilityCompletion Capability = "text-completion"
	CapabilityImage      Capability = "image-generation"
	CapabilitySpeech     Capability = "text-to-speech"
	CapabilityVideo      Capability = "video-muxing"
)

// Descriptor declares one stage: its name, the state keys it consumes and
// produces, the capabilities it requires, and the handler that does the work.
type Descriptor struct {
	Name         string
	InputKeys    []string
	OutputKeys   []string
	Capabilities []Capability
	Handler      Handler
}

// Outcome is the terminal result of a pipeline run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Result reports how a run ended. On failure the state bag retains every
// key written before the failing stage.
type Result struct {
	Outcome     Outcome
	FailedStage string
	Err         error
}

// Pipeline drives an ordered list of stages.
type Pipeline struct {
	stages   []Descriptor
	reporter *Reporter
	logger   *slog.Logger
}

// New validates the stage list and constructs a pipeline. The reporter may
// be nil when no progress observation is needed.
func New(stages []Descriptor, reporter *Reporter, logger *slog.Logger) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "", "build pipeline", "at least one stage is required", nil)
	}
	seen := make(map[string]struct{}, len(stages))
	for _, stage := range stages {
		name := strings.TrimSpace(stage.Name)
		if name == "" {
			return nil, services.Wrap(services.ErrConfiguration, "", "build pipeline", "stage name is required", nil)
		}
		if _, dup := seen[name]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "", "build pipeline", fmt.Sprintf("duplicate stage name %q", name), nil)
		}
		seen[name] = struct{}{}
		if stage.Handler == nil {
			return nil, services.Wrap(services.ErrConfiguration, "", "build pipeline", fmt.Sprintf("stage %q has no handler", name), nil)
		}
	}
	pipelineLogger := logger
	if pipelineLogger != nil {
		pipelineLogger = pipelineLogger.With(logging.String(logging.FieldComponent, "pipeline"))
	}
	return &Pipeline{stages: stages, reporter: reporter, logger: pipelineLogger}, nil
}

// StageCount returns the fixed number of stages in the run.
func (p *Pipeline) StageCount() int {
	return len(p.stages)
}

// Run executes every stage in order against the session. Cancellation is
// honored at stage boundaries: once ctx is done no further stage starts,
// but a stage already running is left to observe ctx itself.
func (p *Pipeline) Run(ctx context.Context, sess *session.Session) Result {
	total := len(p.stages)
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return p.fail(ctx, sess, stage.Name, services.Wrap(services.ErrStage, stage.Name, "start stage", "pipeline cancelled", err))
		}
		if missing := sess.State.Missing(stage.InputKeys...); len(missing) > 0 {
			err := services.Wrap(
				services.ErrStage,
				stage.Name,
				"validate inputs",
				fmt.Sprintf("missing state keys: %s", strings.Join(missing, ", ")),
				nil,
			)
			return p.fail(ctx, sess, stage.Name, err)
		}

		stageCtx := services.WithStage(ctx, stage.Name)
		p.report(ProgressEvent{Step: i + 1, Total: total, Phase: PhaseStarted, Message: fmt.Sprintf("Running %s", stage.Name)})
		if p.logger != nil {
			logging.WithContext(stageCtx, p.logger).Info(
				"stage started",
				logging.String(logging.FieldStage, stage.Name),
				logging.Int(logging.FieldStep, i+1),
				logging.Int("total", total),
			)
		}

		if err := stage.Handler.Execute(stageCtx, sess); err != nil {
			wrapped := err
			if !services.IsTagged(err) {
				wrapped = services.Wrap(services.ErrStage, stage.Name, "execute stage", "stage execution failed", err)
			}
			return p.fail(ctx, sess, stage.Name, wrapped)
		}
		if missing := sess.State.Missing(stage.OutputKeys...); len(missing) > 0 {
			err := services.Wrap(
				services.ErrStage,
				stage.Name,
				"validate outputs",
				fmt.Sprintf("stage completed without writing: %s", strings.Join(missing, ", ")),
				nil,
			)
			return p.fail(ctx, sess, stage.Name, err)
		}

		p.report(ProgressEvent{Step: i + 1, Total: total, Phase: PhaseFinished, Message: fmt.Sprintf("Finished %s", stage.Name)})
		if p.logger != nil {
			logging.WithContext(stageCtx, p.logger).Info("stage finished", logging.String(logging.FieldStage, stage.Name))
		}
	}
	return Result{Outcome: OutcomeCompleted}
}

func (p *Pipeline) fail(ctx context.Context, sess *session.Session, stageName string, err error) Result {
	if p.logger != nil {
		logging.WithContext(ctx, p.logger).Error(
			"pipeline failed",
			logging.String(logging.FieldStage, stageName),
			logging.Error(err),
		)
	}
	return Result{Outcome: OutcomeFailed, FailedStage: stageName, Err: err}
}

func (p *Pipeline) report(event ProgressEvent) {
	if p.reporter != nil {
		p.reporter.publish(event)
	}
}
