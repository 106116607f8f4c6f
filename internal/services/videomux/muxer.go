// Package videomux assembles narrated video clips with ffmpeg.
//
// Each segment pairs one still image with one narration track: the image
// is held on screen for the duration of the audio. Segment clips are then
// joined into the full video with the concat demuxer.
package videomux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"cocreator/internal/config"
	"cocreator/internal/services"
)

const defaultFPS = 24

// Muxer drives ffmpeg to build video artifacts.
type Muxer struct {
	binary string
	fps    int

	// runCommand is swapped in tests to avoid invoking ffmpeg.
	runCommand func(ctx context.Context, name string, args []string) error
}

// NewMuxer constructs a muxer from the application configuration.
func NewMuxer(cfg *config.Config) *Muxer {
	binary := strings.TrimSpace(cfg.Video.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	fps := cfg.Video.FPS
	if fps <= 0 {
		fps = defaultFPS
	}
	m := &Muxer{binary: binary, fps: fps}
	m.runCommand = m.execute
	return m
}

// Pair is one still image with its narration track.
type Pair struct {
	ImagePath string
	AudioPath string
}

// ValidatePairs checks that images and audio tracks line up one to one.
func ValidatePairs(imagePaths, audioPaths []string) ([]Pair, error) {
	if len(imagePaths) == 0 {
		return nil, services.Wrap(services.ErrStage, "", "validate media pairs", "no images to mux", nil)
	}
	if len(imagePaths) != len(audioPaths) {
		return nil, services.Wrap(
			services.ErrStage,
			"",
			"validate media pairs",
			fmt.Sprintf("%d images but %d audio tracks", len(imagePaths), len(audioPaths)),
			nil,
		)
	}
	pairs := make([]Pair, len(imagePaths))
	for i := range imagePaths {
		if strings.TrimSpace(imagePaths[i]) == "" || strings.TrimSpace(audioPaths[i]) == "" {
			return nil, services.Wrap(services.ErrStage, "", "validate media pairs", fmt.Sprintf("pair %d has an empty path", i+1), nil)
		}
		pairs[i] = Pair{ImagePath: imagePaths[i], AudioPath: audioPaths[i]}
	}
	return pairs, nil
}

// MuxSegment renders one image+audio pair into a clip at outputPath.
func (m *Muxer) MuxSegment(ctx context.Context, pair Pair, outputPath string) error {
	args := m.segmentArgs(pair, outputPath)
	if err := m.runCommand(ctx, m.binary, args); err != nil {
		return classifyExecError("mux segment", err)
	}
	return nil
}

// Concat joins segment clips in order into the full video at outputPath.
// It writes a concat list file next to the output.
func (m *Muxer) Concat(ctx context.Context, segmentPaths []string, outputPath string) error {
	if len(segmentPaths) == 0 {
		return services.Wrap(services.ErrStage, "", "concat segments", "no segment clips to join", nil)
	}
	listPath := outputPath + ".concat.txt"
	if err := os.WriteFile(listPath, []byte(ConcatList(segmentPaths)), 0o644); err != nil {
		return services.Wrap(services.ErrWorkspace, "", "concat segments", "write concat list", err)
	}
	defer os.Remove(listPath)

	args := m.concatArgs(listPath, outputPath)
	if err := m.runCommand(ctx, m.binary, args); err != nil {
		return classifyExecError("concat segments", err)
	}
	return nil
}

// ConcatList renders the concat demuxer input listing the given clips.
func ConcatList(segmentPaths []string) string {
	var b strings.Builder
	for _, path := range segmentPaths {
		abs := path
		if resolved, err := filepath.Abs(path); err == nil {
			abs = resolved
		}
		escaped := strings.ReplaceAll(abs, "'", "'\\''")
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return b.String()
}

func (m *Muxer) segmentArgs(pair Pair, outputPath string) []string {
	return []string{
		"-y",
		"-loop", "1",
		"-i", pair.ImagePath,
		"-i", pair.AudioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(m.fps),
		"-shortest",
		outputPath,
	}
}

func (m *Muxer) concatArgs(listPath, outputPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	}
}

func (m *Muxer) execute(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tailLines(string(output), 5))
	}
	return nil
}

func classifyExecError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, exec.ErrNotFound) {
		return services.Wrap(services.ErrConfiguration, "", op, "ffmpeg binary not found", err)
	}
	return services.Wrap(services.ErrStage, "", op, "ffmpeg failed", err)
}

func tailLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
