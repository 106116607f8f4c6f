package main

import (
	"context"
	"testing"

	"cocreator/internal/logging"
	"cocreator/internal/testsupport"
	"cocreator/internal/workspace"
)

func TestReportAssemblesExistingSession(t *testing.T) {
	env := setupCLITestEnv(t)

	store := testsupport.MustOpenDocStore(t, env.cfg)
	ws := workspace.NewManager(env.cfg, store, logging.NewNop())
	ctx := context.Background()

	const sessionID = "sess-report"
	if err := ws.EnsureLayout(ctx, sessionID); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	files := map[string]string{
		"title_1.txt":       "Tide Pool Wonders",
		"description_1.txt": "A short tour of the intertidal zone.",
		"hashtags_1.txt":    "tidepools ocean",
		"transcript_1.txt":  "The tide pools teem with life.",
	}
	for name, content := range files {
		if _, err := ws.SaveText(ctx, sessionID, name, content); err != nil {
			t.Fatalf("SaveText %s: %v", name, err)
		}
	}
	store.Close()

	out, _, err := runCLI(t, []string{"report", sessionID}, env.configPath)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	requireContains(t, out, "Tide Pool Wonders")
	requireContains(t, out, "#tidepools")
	requireContains(t, out, "https://assets.example.com/sess-report/video/video_1.mp4")
}

func TestReportUnknownSession(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"report", "no-such-session"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func TestRunRequiresTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err == nil {
		t.Fatal("expected error when no topic is given")
	}
}
