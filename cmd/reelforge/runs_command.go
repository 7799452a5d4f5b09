package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/run"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					fmt.Sprintf("%d", entry.Number),
					entry.Name,
					entry.Provider,
					string(entry.Status),
					runDetail(entry),
					entry.StartedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"#", "Name", "Provider", "Status", "Detail", "Started"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

func runDetail(entry run.HistoryEntry) string {
	if entry.FailedStage != "" {
		return fmt.Sprintf("%s: %s", entry.FailedStage, entry.FailureReason)
	}
	if entry.FinishedAt != nil {
		return entry.FinishedAt.Sub(entry.StartedAt).Round(time.Second).String()
	}
	return ""
}
