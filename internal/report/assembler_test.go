package report

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cocreator/internal/artifacts"
	"cocreator/internal/docstore"
	"cocreator/internal/logging"
	"cocreator/internal/services"
	"cocreator/internal/testsupport"
	"cocreator/internal/workspace"
)

func newTestAssembler(t *testing.T) (*Assembler, *workspace.Manager) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := docstore.OpenPath(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open docstore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	manager := workspace.NewManager(cfg, store, logging.NewNop())
	resolver := artifacts.NewResolver(cfg.Artifacts.PublicBaseURL)
	return NewAssembler(manager, resolver, logging.NewNop()), manager
}

func saveTexts(t *testing.T, manager *workspace.Manager, sessionID string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if _, err := manager.SaveText(context.Background(), sessionID, name, content); err != nil {
			t.Fatalf("SaveText %s: %v", name, err)
		}
	}
}

func TestAssembleGroupsByUnitSuffix(t *testing.T) {
	assembler, manager := newTestAssembler(t)
	saveTexts(t, manager, "sess-1", map[string]string{
		"title_1.txt":       "First Segment",
		"description_1.txt": "Opening description",
		"title_2.txt":       "Second Segment",
	})

	doc, err := assembler.Assemble(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(doc.Units) != 2 {
		t.Fatalf("units = %d, want 2", len(doc.Units))
	}
	if doc.Units[0].Number != 1 || doc.Units[1].Number != 2 {
		t.Errorf("unit order = [%d, %d]", doc.Units[0].Number, doc.Units[1].Number)
	}
	if doc.Units[0].Description != "Opening description" {
		t.Errorf("unit 1 description = %q", doc.Units[0].Description)
	}
	if doc.Units[1].Description != "" {
		t.Errorf("unit 2 description = %q, want empty default", doc.Units[1].Description)
	}
}

func TestAssembleResolvesDeterministicURLs(t *testing.T) {
	assembler, manager := newTestAssembler(t)
	saveTexts(t, manager, "sess-9", map[string]string{
		"title_3.txt": "Third",
	})

	doc, err := assembler.Assemble(context.Background(), "sess-9")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	unit := doc.Units[0]
	if unit.VideoURL != "https://assets.example.com/sess-9/video/video_3.mp4" {
		t.Errorf("video url = %q", unit.VideoURL)
	}
	if unit.ImageURL != "https://assets.example.com/sess-9/image/image_3.png" {
		t.Errorf("image url = %q", unit.ImageURL)
	}
	if unit.AudioURL != "https://assets.example.com/sess-9/audio/audio_3.mp3" {
		t.Errorf("audio url = %q", unit.AudioURL)
	}
}

func TestAssembleParsesAllFields(t *testing.T) {
	assembler, manager := newTestAssembler(t)
	saveTexts(t, manager, "sess-2", map[string]string{
		"title_1.txt":        "Kelp Forests",
		"description_1.txt":  "How kelp sustains coastal life",
		"hashtags_1.txt":     "#ocean kelp #nature",
		"image_prompt_1.txt": "A sunlit underwater kelp forest",
		"transcript_1.txt":   "Beneath the surface, kelp towers...",
	})

	doc, err := assembler.Assemble(context.Background(), "sess-2")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	unit := doc.Units[0]
	if unit.ImagePrompt != "A sunlit underwater kelp forest" {
		t.Errorf("image prompt = %q", unit.ImagePrompt)
	}
	if unit.Transcript != "Beneath the surface, kelp towers..." {
		t.Errorf("transcript = %q", unit.Transcript)
	}
	want := []string{"#ocean", "#kelp", "#nature"}
	if len(unit.Hashtags) != len(want) {
		t.Fatalf("hashtags = %v", unit.Hashtags)
	}
	for i := range want {
		if unit.Hashtags[i] != want[i] {
			t.Errorf("hashtags[%d] = %q, want %q", i, unit.Hashtags[i], want[i])
		}
	}
}

func TestAssembleSkipsMalformedFilenames(t *testing.T) {
	assembler, manager := newTestAssembler(t)
	saveTexts(t, manager, "sess-3", map[string]string{
		"title_1.txt":  "Valid",
		"notes.txt":    "no unit suffix",
		"title_x.txt":  "non-numeric suffix",
		"scratch_2.md": "wrong extension",
		"draft_2.txt":  "unrecognized field",
	})

	doc, err := assembler.Assemble(context.Background(), "sess-3")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(doc.Units) != 1 || doc.Units[0].Number != 1 {
		t.Errorf("units = %+v", doc.Units)
	}
}

func TestAssembleFallsBackToTranscriptTitle(t *testing.T) {
	assembler, manager := newTestAssembler(t)
	saveTexts(t, manager, "sess-4", map[string]string{
		"transcript_1.txt": "the tide pools teem with unexpected life every morning",
	})

	doc, err := assembler.Assemble(context.Background(), "sess-4")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if doc.Units[0].Title != "The Tide Pools Teem With Unexpected" {
		t.Errorf("fallback title = %q", doc.Units[0].Title)
	}
}

func TestAssembleZeroUnitsIsReportError(t *testing.T) {
	assembler, manager := newTestAssembler(t)
	saveTexts(t, manager, "sess-5", map[string]string{
		"notes.txt": "nothing groupable",
	})

	_, err := assembler.Assemble(context.Background(), "sess-5")
	if !errors.Is(err, services.ErrReport) {
		t.Fatalf("err = %v, want report sentinel", err)
	}
}

func TestAssembleUnknownSession(t *testing.T) {
	assembler, _ := newTestAssembler(t)
	_, err := assembler.Assemble(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want not-found sentinel", err)
	}
}
