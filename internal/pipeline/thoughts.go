package pipeline

import (
	"context"
	"strings"

	"cocreator/internal/session"
)

// ThoughtCategory is the fixed taxonomy reasoning trace fragments are
// classified into for UI consumption.
type ThoughtCategory string

const (
	ThoughtSearch          ThoughtCategory = "search"
	ThoughtWriting         ThoughtCategory = "writing"
	ThoughtGeneratingImage ThoughtCategory = "generating_image"
	ThoughtAnalyzing       ThoughtCategory = "analyzing"
	ThoughtUnknown         ThoughtCategory = "unknown"
)

// imageToolName is the literal tool invocation that marks image work.
// Classification rules run in priority order, so fragments describing
// image generation must name the tool rather than say "generating".
const imageToolName = "generate_image"

// Classify buckets a trace fragment by case-insensitive substring match,
// first rule wins.
func Classify(fragment string) ThoughtCategory {
	lowered := strings.ToLower(fragment)
	switch {
	case strings.Contains(lowered, "search") || strings.Contains(lowered, "browsing"):
		return ThoughtSearch
	case strings.Contains(lowered, "writing") || strings.Contains(lowered, "generating") || strings.Contains(lowered, "creating"):
		return ThoughtWriting
	case strings.Contains(lowered, imageToolName):
		return ThoughtGeneratingImage
	case strings.Contains(lowered, "analyzing") || strings.Contains(lowered, "reading") || strings.Contains(lowered, "extracting"):
		return ThoughtAnalyzing
	default:
		return ThoughtUnknown
	}
}

// Thought is a classified trace fragment. Thoughts are metadata only and
// never enter the session state bag.
type Thought struct {
	Stage    ThoughtCategory
	Fragment string
}

// ThoughtSink receives classified thoughts as a stage works.
type ThoughtSink func(Thought)

type traceKey struct{}

type traceFunc func(fragment string)

// withTraceFn installs a trace receiver into the context.
func withTraceFn(ctx context.Context, fn traceFunc) context.Context {
	return context.WithValue(ctx, traceKey{}, fn)
}

// EmitTrace publishes one reasoning trace fragment. Fragments are dropped
// silently when no classifier is installed.
func EmitTrace(ctx context.Context, fragment string) {
	if fn, ok := ctx.Value(traceKey{}).(traceFunc); ok && fn != nil {
		fn(fragment)
	}
}

// WithThoughtClassifier wraps a stage so its trace fragments are classified
// and forwarded to sink. The wrapped descriptor keeps the stage's name,
// keys, and capabilities unchanged.
func WithThoughtClassifier(stage Descriptor, sink ThoughtSink) Descriptor {
	if sink == nil {
		return stage
	}
	inner := stage.Handler
	stage.Handler = HandlerFunc(func(ctx context.Context, sess *session.Session) error {
		ctx = withTraceFn(ctx, func(fragment string) {
			sink(Thought{Stage: Classify(fragment), Fragment: fragment})
		})
		return inner.Execute(ctx, sess)
	})
	return stage
}
