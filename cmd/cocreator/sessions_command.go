package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cocreator/internal/docstore"
	"cocreator/internal/session"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List known sessions, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			entries, err := rt.docs.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No sessions recorded yet")
				return nil
			}

			headers := []string{"SESSION", "UPDATED", "TOPIC", "SEGMENTS", "VIDEO"}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, sessionRow(entry))
			}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func sessionRow(entry docstore.Entry) []string {
	topic := documentString(entry.Document, session.KeyTopic)
	segments := ""
	if value, ok := documentInt(entry.Document, session.KeyNumVideos); ok {
		segments = strconv.Itoa(value)
	}
	hasVideo := documentString(entry.Document, session.KeyVideoPath) != ""
	return []string{
		entry.SessionID,
		entry.UpdatedAt.Local().Format("2006-01-02 15:04"),
		truncate(topic, 48),
		segments,
		yesNo(hasVideo),
	}
}

func documentString(doc map[string]any, key string) string {
	if doc == nil {
		return ""
	}
	if value, ok := doc[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func documentInt(doc map[string]any, key string) (int, bool) {
	if doc == nil {
		return 0, false
	}
	switch value := doc[key].(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	case float64:
		return int(value), true
	default:
		return 0, false
	}
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}
