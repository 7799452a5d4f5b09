package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"reelforge/internal/ideas"
	"reelforge/internal/notifications"
	"reelforge/internal/run"
	"reelforge/internal/textutil"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var number int
	var name string

	cmd := &cobra.Command{
		Use:   "run <idea text>",
		Short: "Produce one video from an idea",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("idea text is required")
			}
			if name == "" {
				name = textutil.SanitizeToken(textutil.Truncate(text, 40))
			}

			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}
			controller, err := ctx.buildController(logger)
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			idea := ideas.Idea{Number: number, Name: name, Text: text}
			r, runErr := controller.Execute(signalCtx, idea)
			recordRun(ctx, cmd, r)
			notifyRunOutcome(ctx, cmd, r, runErr)
			printRunOutcome(cmd, r)
			return runErr
		},
	}

	cmd.Flags().IntVarP(&number, "number", "n", 1, "Run number used in the project directory name")
	cmd.Flags().StringVar(&name, "name", "", "Short name for the idea (defaults to a slug of the text)")
	return cmd
}

func recordRun(ctx *commandContext, cmd *cobra.Command, r *run.Run) {
	store, err := ctx.openStore()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: run history unavailable: %v\n", err)
		return
	}
	defer store.Close()
	if err := store.Record(cmd.Context(), r); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: record run history: %v\n", err)
	}
}

func notifyRunOutcome(ctx *commandContext, cmd *cobra.Command, r *run.Run, runErr error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return
	}
	notifier := notifications.NewService(cfg)
	var notifyErr error
	if runErr != nil {
		notifyErr = notifier.NotifyRunFailed(cmd.Context(), r.Name, r.FailedStage, r.FailureReason)
	} else {
		notifyErr = notifier.NotifyRunCompleted(cmd.Context(), r.Name, r.Duration())
	}
	if notifyErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: notification failed: %v\n", notifyErr)
	}
}

func printRunOutcome(cmd *cobra.Command, r *run.Run) {
	out := cmd.OutOrStdout()
	switch r.Status {
	case run.StatusSuccess:
		fmt.Fprintf(out, "Run %d (%s) succeeded in %s\n", r.Number, r.Name, r.Duration().Round(durationPrecision))
		if r.Assets.FinalVideoPath != nil {
			fmt.Fprintf(out, "Final video: %s\n", *r.Assets.FinalVideoPath)
		}
	default:
		fmt.Fprintf(out, "Run %d (%s) failed at %s: %s\n", r.Number, r.Name, r.FailedStage, r.FailureReason)
		fmt.Fprintf(out, "Partial artifacts: %s\n", r.ProjectDir)
	}
}
