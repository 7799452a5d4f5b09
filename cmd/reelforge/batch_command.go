package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reelforge/internal/ideas"
	"reelforge/internal/pipeline"
	"reelforge/internal/run"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <ideas.csv>",
		Short: "Produce videos for every idea in a CSV file",
		Long: `Reads a CSV with columns number,name,idea and runs the full pipeline
for each row in order. A failed run is reported and the batch moves on;
the summary at the end tallies both outcomes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := ideas.LoadCSV(args[0])
			if err != nil {
				return err
			}

			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}
			controller, err := ctx.buildController(logger)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var history *run.Store
			if store, err := ctx.openStore(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warn: run history unavailable: %v\n", err)
			} else {
				defer store.Close()
				history = store
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			batch := pipeline.NewBatch(cfg, controller, historyOrNil(history), logger)
			summary, batchErr := batch.Execute(signalCtx, list)
			if summary != nil {
				printBatchSummary(cmd, summary)
			}
			return batchErr
		},
	}
}

// historyOrNil keeps a typed nil *run.Store from sneaking into the batch's
// interface field.
func historyOrNil(store *run.Store) pipeline.HistoryRecorder {
	if store == nil {
		return nil
	}
	return store
}

func printBatchSummary(cmd *cobra.Command, summary *run.BatchSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nBatch finished: %d total, %d succeeded, %d failed\n",
		summary.Total, summary.Succeeded, summary.Failed)

	rows := make([][]string, 0, len(summary.Items))
	for _, item := range summary.Items {
		detail := ""
		if item.FailedStage != "" {
			detail = fmt.Sprintf("%s: %s", item.FailedStage, item.FailureReason)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.Number),
			item.Name,
			string(item.Status),
			formatSeconds(item.Seconds),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"#", "Name", "Status", "Duration", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))
}
