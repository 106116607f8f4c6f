package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"cocreator/internal/artifacts"
	"cocreator/internal/config"
	"cocreator/internal/docstore"
	"cocreator/internal/logging"
	"cocreator/internal/report"
	"cocreator/internal/services/videomux"
	"cocreator/internal/testsupport"
	"cocreator/internal/workspace"
)

type fakeCompletion struct {
	completeErr error
	jsonErr     error
	outlineJSON string
	article     string
}

func (f *fakeCompletion) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if f.completeErr != nil {
		return "", f.completeErr
	}
	switch systemPrompt {
	case writerSystemPrompt:
		return f.article, nil
	case imagePromptSystemPrompt:
		return "A sweeping aerial view of " + firstWords(userPrompt), nil
	}
	return "generic completion", nil
}

func (f *fakeCompletion) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if f.jsonErr != nil {
		return "", f.jsonErr
	}
	switch systemPrompt {
	case planningSystemPrompt:
		return f.outlineJSON, nil
	case socialPostSystemPrompt:
		return fmt.Sprintf(
			`{"title":"Post about %s","description":"A short description.","hashtags":["nature","science"]}`,
			firstWords(userPrompt),
		), nil
	}
	return "{}", nil
}

func firstWords(text string) string {
	if len(text) > 12 {
		return text[:12]
	}
	return text
}

type fakeImages struct {
	err   error
	calls int
	// failuresBeforeSuccess makes the first N calls return err, then succeed.
	failuresBeforeSuccess int
}

func (f *fakeImages) Generate(ctx context.Context, prompt string) ([]byte, error) {
	f.calls++
	if f.err != nil && (f.failuresBeforeSuccess == 0 || f.calls <= f.failuresBeforeSuccess) {
		return nil, f.err
	}
	return []byte("png:" + prompt), nil
}

type fakeSpeech struct {
	err error
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3:" + voice), nil
}

type fakeVideo struct {
	muxErr    error
	concatErr error
	concats   [][]string
}

func (f *fakeVideo) MuxSegment(ctx context.Context, pair videomux.Pair, outputPath string) error {
	if f.muxErr != nil {
		return f.muxErr
	}
	return os.WriteFile(outputPath, []byte("mp4"), 0o644)
}

func (f *fakeVideo) Concat(ctx context.Context, segmentPaths []string, outputPath string) error {
	if f.concatErr != nil {
		return f.concatErr
	}
	f.concats = append(f.concats, segmentPaths)
	return os.WriteFile(outputPath, []byte("full-mp4"), 0o644)
}

const testOutlineJSON = `{
  "title": "The Hidden Life of Tide Pools",
  "tone": "curious",
  "sections": [
    {"heading": "Miniature Oceans", "key_points": ["isolation at low tide", "extreme conditions"]},
    {"heading": "Residents", "key_points": ["anemones", "hermit crabs"]}
  ]
}`

const testArticle = "Tide pools form when the ocean retreats.\n\nTheir residents survive wild swings in temperature.\n\nEach pool is a self-contained world."

type testEnv struct {
	cfg        *config.Config
	deps       Deps
	store      *docstore.Store
	workspace  *workspace.Manager
	completion *fakeCompletion
	images     *fakeImages
	speech     *fakeSpeech
	video      *fakeVideo
}

func newTestEnv(t *testing.T, opts ...testsupport.ConfigOption) *testEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenDocStore(t, cfg)
	manager := workspace.NewManager(cfg, store, logging.NewNop())
	resolver := artifacts.NewResolver(cfg.Artifacts.PublicBaseURL)
	assembler := report.NewAssembler(manager, resolver, logging.NewNop())

	env := &testEnv{
		cfg:        cfg,
		store:      store,
		workspace:  manager,
		completion: &fakeCompletion{outlineJSON: testOutlineJSON, article: testArticle},
		images:     &fakeImages{},
		speech:     &fakeSpeech{},
		video:      &fakeVideo{},
	}
	env.deps = Deps{
		Config:     cfg,
		Logger:     logging.NewNop(),
		Workspace:  manager,
		Completion: env.completion,
		Images:     env.images,
		Speech:     env.speech,
		Video:      env.video,
		Assembler:  assembler,
	}
	return env
}

func mustExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file %s: %v", path, err)
	}
}

func categoryPath(env *testEnv, sessionID string, category artifacts.Category, filename string) string {
	return filepath.Join(env.workspace.CategoryDir(sessionID, category), filename)
}
