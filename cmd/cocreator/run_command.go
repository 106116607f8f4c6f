package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cocreator/internal/pipeline"
	"cocreator/internal/report"
	"cocreator/internal/session"
	"cocreator/internal/stages"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var numVideos int
	var showThoughts bool

	cmd := &cobra.Command{
		Use:   "run <topic>",
		Short: "Generate a full content package for a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			topic := strings.TrimSpace(strings.Join(args, " "))
			if topic == "" {
				return fmt.Errorf("topic must not be empty")
			}

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			// One pipeline run at a time per workspace; concurrent runs
			// would race on the scratch directory and the ffmpeg budget.
			runLock := flock.New(filepath.Join(cfg.Paths.LogDir, "cocreator.lock"))
			locked, err := runLock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another cocreator run is already in progress")
			}
			defer func() { _ = runLock.Unlock() }()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return executeRun(runCtx, cmd.OutOrStdout(), rt, topic, numVideos, showThoughts)
		},
	}

	cmd.Flags().IntVar(&numVideos, "num-videos", 0, "Fixed segment count (0 derives it from the article)")
	cmd.Flags().BoolVar(&showThoughts, "thoughts", true, "Print classified model activity while stages run")
	return cmd
}

func executeRun(ctx context.Context, out io.Writer, rt *runtime, topic string, numVideos int, showThoughts bool) error {
	sess := session.New()
	sess.State.Set(session.KeyTopic, topic)
	if numVideos > 0 {
		sess.State.Set(session.KeyNumVideos, numVideos)
	}

	if err := rt.workspace.EnsureLayout(ctx, sess.ID); err != nil {
		return err
	}

	descriptors, err := stages.DefaultStages(rt.stageDeps())
	if err != nil {
		return err
	}

	var sink pipeline.ThoughtSink
	if showThoughts {
		var mu sync.Mutex
		sink = func(thought pipeline.Thought) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "  %s %s\n", thoughtLabel(thought.Stage), thought.Fragment)
		}
	}
	for i := range descriptors {
		descriptors[i] = pipeline.WithThoughtClassifier(descriptors[i], sink)
	}

	reporter := pipeline.NewReporter(rt.cfg.Pipeline.ProgressBuffer)
	pipe, err := pipeline.New(descriptors, reporter, rt.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Session %s\n", sess.ID)
	fmt.Fprintf(out, "Topic: %s\n", topic)

	done := make(chan struct{})
	go func() {
		defer close(done)
		printProgress(out, reporter.Events())
	}()

	_ = rt.notifier.NotifyPipelineStarted(ctx, sess.ID, topic)

	start := time.Now()
	result := pipe.Run(ctx, sess)
	reporter.Close()
	<-done

	if result.Outcome != pipeline.OutcomeCompleted {
		_ = rt.notifier.NotifyPipelineFailed(context.WithoutCancel(ctx), sess.ID, result.FailedStage, result.Err)
		return fmt.Errorf("pipeline failed at %s: %w", result.FailedStage, result.Err)
	}

	duration := time.Since(start).Round(time.Second)
	title := topic
	if outline, ok := sess.State.OutlineValue(); ok && strings.TrimSpace(outline.Title) != "" {
		title = outline.Title
	}
	segments, _ := sess.State.Int(session.KeyNumVideos)
	_ = rt.notifier.NotifyPipelineCompleted(ctx, sess.ID, title, segments, duration)

	fmt.Fprintln(out, colorize(out, ansiGreen, fmt.Sprintf("Completed in %s", duration)))
	if videoPath, ok := sess.State.String(session.KeyVideoPath); ok {
		fmt.Fprintf(out, "Final video: %s\n", videoPath)
	}

	if value, ok := sess.State.Get(session.KeyReport); ok {
		if doc, ok := value.(*report.Document); ok {
			_ = rt.notifier.NotifyReportReady(ctx, sess.ID, len(doc.Units))
			if err := printReport(out, doc); err != nil {
				return err
			}
		}
	}
	return nil
}

func printProgress(out io.Writer, events <-chan pipeline.ProgressEvent) {
	for event := range events {
		fmt.Fprintf(out, "[%d/%d] %s\n", event.Step, event.Total, event.Message)
	}
}

func printReport(out io.Writer, doc *report.Document) error {
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Fprintln(out, string(encoded))
	return nil
}

func thoughtLabel(category pipeline.ThoughtCategory) string {
	return "(" + string(category) + ")"
}
