package main

import (
	"context"
	"testing"

	"cocreator/internal/session"
	"cocreator/internal/testsupport"
)

func TestSessionsListsRecordedRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	store := testsupport.MustOpenDocStore(t, env.cfg)
	ctx := context.Background()
	if err := store.Merge(ctx, "sess-alpha", map[string]any{
		session.KeyTopic:     "deep sea exploration",
		session.KeyNumVideos: 9,
		session.KeyVideoPath: "/tmp/final_video.mp4",
	}); err != nil {
		t.Fatalf("merge alpha: %v", err)
	}
	if err := store.Merge(ctx, "sess-beta", map[string]any{
		session.KeyTopic: "urban beekeeping",
	}); err != nil {
		t.Fatalf("merge beta: %v", err)
	}
	store.Close()

	out, _, err := runCLI(t, []string{"sessions"}, env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "sess-alpha")
	requireContains(t, out, "deep sea exploration")
	requireContains(t, out, "sess-beta")
	requireContains(t, out, "urban beekeeping")
	requireContains(t, out, "SESSION")
}

func TestSessionsEmptyWorkspace(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"sessions"}, env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "No sessions recorded yet")
}
