package services_test

import (
	"errors"
	"strings"
	"testing"

	"cocreator/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("disk full")
	err := services.Wrap(services.ErrWorkspace, "multimedia", "relocate artifact", "move failed", cause)
	if !errors.Is(err, services.ErrWorkspace) {
		t.Fatalf("expected workspace marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	for _, fragment := range []string{"multimedia", "relocate artifact", "move failed", "disk full"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in error message %q", fragment, err.Error())
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected generic detail, got %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", services.Wrap(services.ErrRateLimited, "speech", "synthesize", "", nil), true},
		{"unavailable", services.Wrap(services.ErrUnavailable, "planning", "complete", "", nil), true},
		{"transient", services.ErrTransient, true},
		{"stage", services.Wrap(services.ErrStage, "writer", "complete", "", nil), false},
		{"not found", services.ErrNotFound, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := services.Retryable(tc.err); got != tc.want {
			t.Errorf("%s: Retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
