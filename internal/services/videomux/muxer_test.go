package videomux

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cocreator/internal/config"
	"cocreator/internal/services"
)

func newTestMuxer(run func(ctx context.Context, name string, args []string) error) *Muxer {
	cfg := config.Default()
	cfg.Video.FFmpegBinary = "ffmpeg-test"
	cfg.Video.FPS = 30
	m := NewMuxer(&cfg)
	if run != nil {
		m.runCommand = run
	}
	return m
}

func TestValidatePairs(t *testing.T) {
	pairs, err := ValidatePairs(
		[]string{"image_1.png", "image_2.png"},
		[]string{"audio_1.mp3", "audio_2.mp3"},
	)
	if err != nil {
		t.Fatalf("ValidatePairs: %v", err)
	}
	if len(pairs) != 2 || pairs[1].AudioPath != "audio_2.mp3" {
		t.Errorf("pairs = %+v", pairs)
	}
}

func TestValidatePairsMismatch(t *testing.T) {
	_, err := ValidatePairs([]string{"a.png"}, []string{"a.mp3", "b.mp3"})
	if !errors.Is(err, services.ErrStage) {
		t.Fatalf("error = %v, want stage sentinel", err)
	}
}

func TestValidatePairsEmpty(t *testing.T) {
	if _, err := ValidatePairs(nil, nil); !errors.Is(err, services.ErrStage) {
		t.Fatalf("error = %v, want stage sentinel", err)
	}
}

func TestMuxSegmentArgs(t *testing.T) {
	var gotName string
	var gotArgs []string
	m := newTestMuxer(func(ctx context.Context, name string, args []string) error {
		gotName = name
		gotArgs = args
		return nil
	})

	pair := Pair{ImagePath: "/tmp/image_1.png", AudioPath: "/tmp/audio_1.mp3"}
	if err := m.MuxSegment(context.Background(), pair, "/tmp/video_1.mp4"); err != nil {
		t.Fatalf("MuxSegment: %v", err)
	}
	if gotName != "ffmpeg-test" {
		t.Errorf("binary = %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{
		"-loop 1",
		"-i /tmp/image_1.png",
		"-i /tmp/audio_1.mp3",
		"-r 30",
		"-shortest",
		"/tmp/video_1.mp4",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestConcatWritesListAndArgs(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "final_video.mp4")

	var gotArgs []string
	var listContent string
	m := newTestMuxer(func(ctx context.Context, name string, args []string) error {
		gotArgs = args
		data, err := os.ReadFile(output + ".concat.txt")
		if err != nil {
			t.Errorf("concat list missing during run: %v", err)
		}
		listContent = string(data)
		return nil
	})

	segments := []string{filepath.Join(dir, "video_1.mp4"), filepath.Join(dir, "video_2.mp4")}
	if err := m.Concat(context.Background(), segments, output); err != nil {
		t.Fatalf("Concat: %v", err)
	}

	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "-f concat") || !strings.Contains(joined, "-c copy") {
		t.Errorf("args = %s", joined)
	}
	if !strings.Contains(listContent, "video_1.mp4") || !strings.Contains(listContent, "video_2.mp4") {
		t.Errorf("concat list = %q", listContent)
	}
	if idx1, idx2 := strings.Index(listContent, "video_1"), strings.Index(listContent, "video_2"); idx1 > idx2 {
		t.Error("concat list out of order")
	}
	if _, err := os.Stat(output + ".concat.txt"); !os.IsNotExist(err) {
		t.Error("concat list not cleaned up")
	}
}

func TestConcatRequiresSegments(t *testing.T) {
	m := newTestMuxer(nil)
	if err := m.Concat(context.Background(), nil, "/tmp/out.mp4"); !errors.Is(err, services.ErrStage) {
		t.Fatalf("error = %v, want stage sentinel", err)
	}
}

func TestConcatListEscapesQuotes(t *testing.T) {
	list := ConcatList([]string{"/tmp/it's.mp4"})
	if !strings.Contains(list, `'\''`) {
		t.Errorf("quote not escaped: %q", list)
	}
}

func TestClassifyExecErrorCancellation(t *testing.T) {
	m := newTestMuxer(func(ctx context.Context, name string, args []string) error {
		return context.Canceled
	})
	err := m.MuxSegment(context.Background(), Pair{ImagePath: "a", AudioPath: "b"}, "c")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled passthrough", err)
	}
}
