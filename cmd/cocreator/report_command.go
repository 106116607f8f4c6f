package main

import (
	"strings"

	"github.com/spf13/cobra"

	"cocreator/internal/session"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report <session-id>",
		Short: "Assemble and print the report for an existing session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			sessionID := strings.TrimSpace(args[0])
			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			doc, err := rt.assembler.Assemble(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			if err := rt.workspace.PersistIndex(cmd.Context(), sessionID, map[string]any{
				session.KeyReport: doc,
			}); err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), doc)
		},
	}
}
