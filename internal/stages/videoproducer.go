package stages

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"cocreator/internal/artifacts"
	"cocreator/internal/config"
	"cocreator/internal/logging"
	"cocreator/internal/pipeline"
	"cocreator/internal/services"
	"cocreator/internal/services/videomux"
	"cocreator/internal/session"
	"cocreator/internal/workspace"
)

// VideoProducer joins the per-segment clips into the full-length video.
type VideoProducer struct {
	cfg       *config.Config
	video     VideoService
	workspace *workspace.Manager
	logger    *slog.Logger
}

// NewVideoProducer constructs the full-video stage handler.
func NewVideoProducer(deps Deps) *VideoProducer {
	return &VideoProducer{
		cfg:       deps.Config,
		video:     deps.Video,
		workspace: deps.Workspace,
		logger:    stageLogger(deps.Logger, "videoproducer"),
	}
}

// Descriptor declares the full-video stage.
func (v *VideoProducer) Descriptor() pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:         StageVideo,
		InputKeys:    []string{session.KeyMultimediaAssets},
		OutputKeys:   []string{session.KeyVideoPath},
		Capabilities: []pipeline.Capability{pipeline.CapabilityVideo},
		Handler:      v,
	}
}

// Execute implements pipeline.Handler.
func (v *VideoProducer) Execute(ctx context.Context, sess *session.Session) error {
	assets, ok := sess.State.Assets()
	if !ok || len(assets) == 0 {
		return services.Wrap(services.ErrStage, StageVideo, "read assets", "no multimedia assets to assemble", nil)
	}

	imagePaths := make([]string, 0, len(assets))
	audioPaths := make([]string, 0, len(assets))
	segmentClips := make([]string, 0, len(assets))
	for _, asset := range assets {
		imagePaths = append(imagePaths, asset.ImagePath)
		audioPaths = append(audioPaths, asset.AudioPath)
		segmentClips = append(segmentClips, asset.VideoPath)
	}
	if _, err := videomux.ValidatePairs(imagePaths, audioPaths); err != nil {
		return err
	}

	scratch := filepath.Join(v.cfg.ScratchDir(), sess.ID)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return services.Wrap(services.ErrWorkspace, StageVideo, "prepare scratch", "create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	pipeline.EmitTrace(ctx, "Concatenating segment clips into the full video")
	scratchVideo := filepath.Join(scratch, artifacts.FinalVideoName)
	if err := v.video.Concat(ctx, segmentClips, scratchVideo); err != nil {
		return services.Wrap(services.ErrStage, StageVideo, "concat clips", "full video assembly failed", err)
	}

	finalPath, err := v.workspace.Relocate(ctx, sess.ID, artifacts.CategoryVideo, scratchVideo)
	if err != nil {
		return err
	}
	sess.State.Set(session.KeyVideoPath, finalPath)

	if v.logger != nil {
		logging.WithContext(ctx, v.logger).Info(
			"full video assembled",
			logging.Int("segments", len(assets)),
			logging.String("path", finalPath),
		)
	}
	return v.workspace.PersistIndex(ctx, sess.ID, map[string]any{
		"video_path": finalPath,
	})
}
