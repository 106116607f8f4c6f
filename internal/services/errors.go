package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStage marks a stage whose external generation call failed or returned
	// an unusable result. A stage error halts the pipeline.
	ErrStage = errors.New("stage failure")
	// ErrWorkspace marks a session layout or filesystem operation failure.
	ErrWorkspace = errors.New("workspace error")
	// ErrNotFound marks a missing session, artifact, or source file. Callers
	// may retry with corrected input.
	ErrNotFound = errors.New("not found")
	// ErrReport marks report assembly that produced zero usable units.
	ErrReport = errors.New("report error")
	// ErrRateLimited marks an external generation service rejecting requests
	// due to quota exhaustion.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable marks an external generation service that cannot be
	// reached or answered with a server-side failure.
	ErrUnavailable = errors.New("service unavailable")
	// ErrTransient marks failures that may succeed on a bounded local retry.
	ErrTransient = errors.New("transient failure")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the error is worth a bounded local retry before
// escalating to a stage failure.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

// IsTagged reports whether the error already carries one of the exported
// sentinel markers.
func IsTagged(err error) bool {
	for _, marker := range []error{
		ErrStage,
		ErrWorkspace,
		ErrNotFound,
		ErrReport,
		ErrRateLimited,
		ErrUnavailable,
		ErrTransient,
		ErrConfiguration,
	} {
		if errors.Is(err, marker) {
			return true
		}
	}
	return false
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
