package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cocreator/internal/artifacts"
	"cocreator/internal/config"
	"cocreator/internal/logging"
	"cocreator/internal/pipeline"
	"cocreator/internal/services"
	"cocreator/internal/services/llm"
	"cocreator/internal/services/speech"
	"cocreator/internal/services/videomux"
	"cocreator/internal/session"
	"cocreator/internal/workspace"
)

// MultimediaProducer turns the draft article into per-segment images,
// narration audio, social copy, and short video clips.
type MultimediaProducer struct {
	cfg        *config.Config
	completion CompletionService
	images     ImageService
	speech     SpeechService
	video      VideoService
	workspace  *workspace.Manager
	logger     *slog.Logger
}

// NewMultimediaProducer constructs the multimedia stage handler.
func NewMultimediaProducer(deps Deps) *MultimediaProducer {
	return &MultimediaProducer{
		cfg:        deps.Config,
		completion: deps.Completion,
		images:     deps.Images,
		speech:     deps.Speech,
		video:      deps.Video,
		workspace:  deps.Workspace,
		logger:     stageLogger(deps.Logger, "multimedia"),
	}
}

// Descriptor declares the multimedia stage.
func (m *MultimediaProducer) Descriptor() pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:       StageMultimedia,
		InputKeys:  []string{session.KeyDraftArticle},
		OutputKeys: []string{session.KeyMultimediaAssets, session.KeyNumVideos},
		Capabilities: []pipeline.Capability{
			pipeline.CapabilityCompletion,
			pipeline.CapabilityImage,
			pipeline.CapabilitySpeech,
			pipeline.CapabilityVideo,
		},
		Handler: m,
	}
}

type socialPost struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

// Execute implements pipeline.Handler.
func (m *MultimediaProducer) Execute(ctx context.Context, sess *session.Session) error {
	article, ok := sess.State.String(session.KeyDraftArticle)
	if !ok || strings.TrimSpace(article) == "" {
		return services.Wrap(services.ErrStage, StageMultimedia, "read article", "draft article must be a non-empty string", nil)
	}

	requested, _ := sess.State.Int(session.KeyNumVideos)
	if requested <= 0 {
		requested = m.cfg.Pipeline.NumVideos
	}
	count := decideSegmentCount(article, requested, m.cfg.Pipeline.MinSegments, m.cfg.Pipeline.MaxSegments)
	segments := SplitSegments(article, count)
	if len(segments) == 0 {
		return services.Wrap(services.ErrStage, StageMultimedia, "segment article", "article produced no segments", nil)
	}

	scratch := filepath.Join(m.cfg.ScratchDir(), sess.ID)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return services.Wrap(services.ErrWorkspace, StageMultimedia, "prepare scratch", "create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	voice := speech.RandomVoice()
	if configured := strings.TrimSpace(m.cfg.Speech.Voice); configured != "" {
		voice = configured
	}

	assets := make([]session.Asset, 0, len(segments))
	for i, transcript := range segments {
		n := i + 1
		asset, err := m.produceSegment(ctx, sess, scratch, n, transcript, voice)
		if err != nil {
			return err
		}
		assets = append(assets, asset)
	}

	sess.State.Set(session.KeyMultimediaAssets, assets)
	sess.State.Set(session.KeyNumVideos, len(assets))

	summary := make([]map[string]any, 0, len(assets))
	for _, asset := range assets {
		summary = append(summary, map[string]any{
			"index":      asset.Index,
			"image_path": asset.ImagePath,
			"audio_path": asset.AudioPath,
			"video_path": asset.VideoPath,
		})
	}
	return m.workspace.PersistIndex(ctx, sess.ID, map[string]any{
		"num_videos":        len(assets),
		"multimedia_assets": summary,
	})
}

func (m *MultimediaProducer) produceSegment(ctx context.Context, sess *session.Session, scratch string, n int, transcript, voice string) (session.Asset, error) {
	var asset session.Asset
	logger := logging.WithContext(ctx, m.logger)

	prompt, err := m.imagePromptFor(ctx, transcript)
	if err != nil {
		return asset, err
	}

	pipeline.EmitTrace(ctx, fmt.Sprintf("Calling generate_image for segment %d", n))
	imageBytes, err := m.generateImageWithRetry(ctx, prompt)
	if err != nil {
		return asset, services.Wrap(services.ErrStage, StageMultimedia, "generate image", fmt.Sprintf("segment %d image failed", n), err)
	}
	imagePath, err := m.placeArtifact(ctx, sess.ID, scratch, artifacts.SegmentImageName(n), imageBytes, artifacts.CategoryImage)
	if err != nil {
		return asset, err
	}

	pipeline.EmitTrace(ctx, fmt.Sprintf("Synthesizing narration for segment %d", n))
	audioBytes, err := m.speech.Synthesize(ctx, transcript, voice)
	if err != nil {
		return asset, services.Wrap(services.ErrStage, StageMultimedia, "synthesize narration", fmt.Sprintf("segment %d narration failed", n), err)
	}
	audioPath, err := m.placeArtifact(ctx, sess.ID, scratch, artifacts.SegmentAudioName(n), audioBytes, artifacts.CategoryAudio)
	if err != nil {
		return asset, err
	}

	videoScratch := filepath.Join(scratch, artifacts.SegmentVideoName(n))
	if err := m.video.MuxSegment(ctx, videomux.Pair{ImagePath: imagePath, AudioPath: audioPath}, videoScratch); err != nil {
		return asset, services.Wrap(services.ErrStage, StageMultimedia, "mux segment", fmt.Sprintf("segment %d clip failed", n), err)
	}
	videoPath, err := m.workspace.Relocate(ctx, sess.ID, artifacts.CategoryVideo, videoScratch)
	if err != nil {
		return asset, err
	}

	post, err := m.socialPostFor(ctx, transcript)
	if err != nil {
		return asset, err
	}
	texts := map[string]string{
		fmt.Sprintf("transcript_%d.txt", n):   transcript,
		fmt.Sprintf("image_prompt_%d.txt", n): prompt,
		fmt.Sprintf("title_%d.txt", n):        post.Title,
		fmt.Sprintf("description_%d.txt", n):  post.Description,
		fmt.Sprintf("hashtags_%d.txt", n):     strings.Join(post.Hashtags, " "),
	}
	for name, content := range texts {
		if _, err := m.workspace.SaveText(ctx, sess.ID, name, content); err != nil {
			return asset, err
		}
	}

	if logger != nil {
		logger.Info(
			"segment produced",
			logging.Int("segment", n),
			logging.String("image", filepath.Base(imagePath)),
			logging.String("audio", filepath.Base(audioPath)),
			logging.String("video", filepath.Base(videoPath)),
		)
	}
	return session.Asset{
		Index:       n,
		ImagePath:   imagePath,
		AudioPath:   audioPath,
		VideoPath:   videoPath,
		Transcript:  transcript,
		ImagePrompt: prompt,
	}, nil
}

func (m *MultimediaProducer) imagePromptFor(ctx context.Context, transcript string) (string, error) {
	prompt, err := m.completion.Complete(ctx, imagePromptSystemPrompt, transcript)
	if err != nil {
		return "", services.Wrap(services.ErrStage, StageMultimedia, "compose image prompt", "image prompt completion failed", err)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", services.Wrap(services.ErrStage, StageMultimedia, "compose image prompt", "completion returned an empty prompt", nil)
	}
	return prompt, nil
}

func (m *MultimediaProducer) socialPostFor(ctx context.Context, transcript string) (socialPost, error) {
	pipeline.EmitTrace(ctx, "I am now generating the social media post")
	var post socialPost
	raw, err := m.completion.CompleteJSON(ctx, socialPostSystemPrompt, transcript)
	if err != nil {
		return post, services.Wrap(services.ErrStage, StageMultimedia, "compose social post", "social post completion failed", err)
	}
	if err := llm.DecodeLLMJSON(raw, &post); err != nil {
		return post, services.Wrap(services.ErrStage, StageMultimedia, "parse social post", "social post payload is not valid JSON", err)
	}
	return post, nil
}

// generateImageWithRetry retries transient image failures up to the
// configured stage retry budget.
func (m *MultimediaProducer) generateImageWithRetry(ctx context.Context, prompt string) ([]byte, error) {
	attempts := m.cfg.Pipeline.StageRetries
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := m.images.Generate(ctx, prompt)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !services.Retryable(err) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// placeArtifact writes bytes to scratch under a deterministic name and
// relocates them into the session category directory.
func (m *MultimediaProducer) placeArtifact(ctx context.Context, sessionID, scratch, filename string, data []byte, category artifacts.Category) (string, error) {
	scratchPath := filepath.Join(scratch, filename)
	if err := os.WriteFile(scratchPath, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrWorkspace, StageMultimedia, "write scratch artifact", filename, err)
	}
	return m.workspace.Relocate(ctx, sessionID, category, scratchPath)
}
