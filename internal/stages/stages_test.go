package stages

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cocreator/internal/artifacts"
	"cocreator/internal/logging"
	"cocreator/internal/pipeline"
	"cocreator/internal/report"
	"cocreator/internal/services"
	"cocreator/internal/session"
	"cocreator/internal/testsupport"
)

func TestPlannerProducesOutline(t *testing.T) {
	env := newTestEnv(t)
	planner := NewPlanner(env.deps)

	sess := session.New()
	sess.State.Set(session.KeyTopic, "tide pools")
	if err := planner.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	outline, ok := sess.State.OutlineValue()
	if !ok {
		t.Fatal("outline missing from state")
	}
	if outline.Title != "The Hidden Life of Tide Pools" || len(outline.Sections) != 2 {
		t.Errorf("outline = %+v", outline)
	}

	doc, err := env.store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("index missing: %v", err)
	}
	if doc["topic"] != "tide pools" {
		t.Errorf("indexed topic = %v", doc["topic"])
	}
}

func TestPlannerRejectsMalformedOutline(t *testing.T) {
	env := newTestEnv(t)
	env.completion.outlineJSON = `{"title":"","sections":[]}`
	planner := NewPlanner(env.deps)

	sess := session.New()
	sess.State.Set(session.KeyTopic, "tide pools")
	err := planner.Execute(context.Background(), sess)
	if !errors.Is(err, services.ErrStage) {
		t.Fatalf("err = %v, want stage sentinel", err)
	}
}

func TestWriterProducesArticle(t *testing.T) {
	env := newTestEnv(t)
	writer := NewWriter(env.deps)

	sess := session.New()
	sess.State.Set(session.KeyContentOutline, session.Outline{
		Title:    "Tide Pools",
		Tone:     "curious",
		Sections: []session.Section{{Heading: "Intro", KeyPoints: []string{"scope"}}},
	})
	if err := writer.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	article, ok := sess.State.String(session.KeyDraftArticle)
	if !ok || article != testArticle {
		t.Errorf("article = %q", article)
	}
	saved, err := env.workspace.ReadText(context.Background(), sess.ID, "draft_article.txt")
	if err != nil || saved != testArticle {
		t.Errorf("saved draft = %q err = %v", saved, err)
	}
}

func TestMultimediaProducesSegments(t *testing.T) {
	env := newTestEnv(t, testsupport.WithNumVideos(2))
	producer := NewMultimediaProducer(env.deps)

	sess := session.New()
	sess.State.Set(session.KeyDraftArticle, testArticle)
	if err := producer.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	assets, ok := sess.State.Assets()
	if !ok || len(assets) != 2 {
		t.Fatalf("assets = %+v", assets)
	}
	if n, _ := sess.State.Int(session.KeyNumVideos); n != 2 {
		t.Errorf("num_videos = %d", n)
	}

	for i := 1; i <= 2; i++ {
		mustExist(t, categoryPath(env, sess.ID, artifacts.CategoryImage, artifacts.SegmentImageName(i)))
		mustExist(t, categoryPath(env, sess.ID, artifacts.CategoryAudio, artifacts.SegmentAudioName(i)))
		mustExist(t, categoryPath(env, sess.ID, artifacts.CategoryVideo, artifacts.SegmentVideoName(i)))
	}

	names, err := env.workspace.ListText(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("ListText: %v", err)
	}
	for _, want := range []string{"transcript_1.txt", "image_prompt_1.txt", "title_2.txt", "description_2.txt", "hashtags_2.txt"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("text artifact %s missing from %v", want, names)
		}
	}

	joined := strings.Join(func() []string {
		var transcripts []string
		for _, asset := range assets {
			transcripts = append(transcripts, asset.Transcript)
		}
		return transcripts
	}(), "\n\n")
	if joined != testArticle {
		t.Errorf("segment transcripts do not reassemble the article:\n%s", joined)
	}
}

func TestMultimediaDefaultsSegmentCountToParagraphs(t *testing.T) {
	env := newTestEnv(t)
	producer := NewMultimediaProducer(env.deps)

	sess := session.New()
	sess.State.Set(session.KeyDraftArticle, testArticle)
	if err := producer.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// Three paragraphs cap the segment count below the configured minimum.
	if n, _ := sess.State.Int(session.KeyNumVideos); n != 3 {
		t.Errorf("num_videos = %d, want 3", n)
	}
}

func TestMultimediaRetriesTransientImageFailures(t *testing.T) {
	env := newTestEnv(t, testsupport.WithNumVideos(1))
	env.images.err = services.Wrap(services.ErrUnavailable, "", "generate image", "flaky", nil)
	env.images.failuresBeforeSuccess = 1
	producer := NewMultimediaProducer(env.deps)

	sess := session.New()
	sess.State.Set(session.KeyDraftArticle, testArticle)
	if err := producer.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if env.images.calls != 2 {
		t.Errorf("image calls = %d, want 2", env.images.calls)
	}
}

func TestMultimediaFailsFastOnSpeechError(t *testing.T) {
	env := newTestEnv(t, testsupport.WithNumVideos(1))
	env.speech.err = services.Wrap(services.ErrRateLimited, "", "synthesize speech", "quota", nil)
	producer := NewMultimediaProducer(env.deps)

	sess := session.New()
	sess.State.Set(session.KeyDraftArticle, testArticle)
	err := producer.Execute(context.Background(), sess)
	if !errors.Is(err, services.ErrStage) {
		t.Fatalf("err = %v, want stage sentinel", err)
	}
	if !errors.Is(err, services.ErrRateLimited) {
		t.Errorf("err = %v, want underlying rate-limit cause preserved", err)
	}
}

func TestVideoProducerAssemblesFullVideo(t *testing.T) {
	env := newTestEnv(t, testsupport.WithNumVideos(2))
	sess := session.New()
	sess.State.Set(session.KeyDraftArticle, testArticle)
	if err := NewMultimediaProducer(env.deps).Execute(context.Background(), sess); err != nil {
		t.Fatalf("multimedia: %v", err)
	}

	if err := NewVideoProducer(env.deps).Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	videoPath, ok := sess.State.String(session.KeyVideoPath)
	if !ok {
		t.Fatal("video_path missing")
	}
	mustExist(t, videoPath)
	if len(env.video.concats) != 1 || len(env.video.concats[0]) != 2 {
		t.Errorf("concat calls = %+v", env.video.concats)
	}

	doc, err := env.store.Get(context.Background(), sess.ID)
	if err != nil || doc["video_path"] != videoPath {
		t.Errorf("indexed video_path = %v err = %v", doc["video_path"], err)
	}
}

func TestVideoProducerRequiresAssets(t *testing.T) {
	env := newTestEnv(t)
	sess := session.New()
	sess.State.Set(session.KeyMultimediaAssets, []session.Asset{})
	err := NewVideoProducer(env.deps).Execute(context.Background(), sess)
	if !errors.Is(err, services.ErrStage) {
		t.Fatalf("err = %v, want stage sentinel", err)
	}
}

func TestReporterStoresDocument(t *testing.T) {
	env := newTestEnv(t)
	sess := session.New()
	for name, content := range map[string]string{
		"title_1.txt":      "Segment One",
		"transcript_1.txt": "The first transcript.",
	} {
		if _, err := env.workspace.SaveText(context.Background(), sess.ID, name, content); err != nil {
			t.Fatalf("SaveText: %v", err)
		}
	}
	sess.State.Set(session.KeyMultimediaAssets, []session.Asset{{Index: 1}})

	if err := NewReporter(env.deps).Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	value, ok := sess.State.Get(session.KeyReport)
	if !ok {
		t.Fatal("report missing from state")
	}
	doc, ok := value.(*report.Document)
	if !ok || len(doc.Units) != 1 || doc.Units[0].Title != "Segment One" {
		t.Errorf("report = %+v", value)
	}
}

func TestBuildRejectsUnknownStage(t *testing.T) {
	env := newTestEnv(t)
	_, err := Build([]string{"plan", "nonexistent"}, env.deps)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration sentinel", err)
	}
}

func TestDefaultPipelineEndToEnd(t *testing.T) {
	env := newTestEnv(t, testsupport.WithNumVideos(2))
	descriptors, err := DefaultStages(env.deps)
	if err != nil {
		t.Fatalf("DefaultStages: %v", err)
	}

	var thoughts []pipeline.Thought
	for i := range descriptors {
		descriptors[i] = pipeline.WithThoughtClassifier(descriptors[i], func(th pipeline.Thought) {
			thoughts = append(thoughts, th)
		})
	}

	reporter := pipeline.NewReporter(env.cfg.Pipeline.ProgressBuffer)
	p, err := pipeline.New(descriptors, reporter, logging.NewNop())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	sess := session.New()
	sess.State.Set(session.KeyTopic, "tide pools")
	result := p.Run(context.Background(), sess)
	if result.Outcome != pipeline.OutcomeCompleted {
		t.Fatalf("outcome = %s, stage = %s, err = %v", result.Outcome, result.FailedStage, result.Err)
	}

	value, ok := sess.State.Get(session.KeyReport)
	if !ok {
		t.Fatal("report missing after full run")
	}
	doc := value.(*report.Document)
	if len(doc.Units) != 2 {
		t.Errorf("report units = %d, want 2", len(doc.Units))
	}

	sawImageThought := false
	for _, th := range thoughts {
		if th.Stage == pipeline.ThoughtGeneratingImage {
			sawImageThought = true
		}
	}
	if !sawImageThought {
		t.Error("no generating_image thought observed during the run")
	}

	indexDoc, err := env.store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	for _, key := range []string{"topic", "draft_article", "num_videos", "video_path", "report"} {
		if _, ok := indexDoc[key]; !ok {
			t.Errorf("index missing %s", key)
		}
	}
}
