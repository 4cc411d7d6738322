package main

import (
	"context"
	"errors"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/usecase"
	"github.com/spf13/cobra"
)

func newScheduleCmd(build builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect and control the deadline briefing schedule",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the schedule, its cron description and recent runs",
		Args:  cobra.NoArgs,
		RunE: withDeps(build, func(cmd *cobra.Command, d *deps, _ []string) error {
			return showView(cmd, d.schedule.Refresh)
		}),
	}

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the schedule",
		Args:  cobra.NoArgs,
		RunE: withDeps(build, func(cmd *cobra.Command, d *deps, _ []string) error {
			return showView(cmd, d.schedule.Pause)
		}),
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume the schedule",
		Args:  cobra.NoArgs,
		RunE: withDeps(build, func(cmd *cobra.Command, d *deps, _ []string) error {
			return showView(cmd, d.schedule.Resume)
		}),
	}

	var (
		wait    bool
		timeout time.Duration
	)
	triggerCmd := &cobra.Command{
		Use:   "trigger",
		Short: "Run the scheduled agent now",
		Args:  cobra.NoArgs,
		RunE: withDeps(build, func(cmd *cobra.Command, d *deps, _ []string) error {
			return runTrigger(cmd, d, wait, timeout)
		}),
	}
	triggerCmd.Flags().BoolVar(&wait, "wait", false, "wait until the triggered run is recorded")
	triggerCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "how long --wait waits")

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent execution logs, most recent first",
		Args:  cobra.NoArgs,
		RunE: withDeps(build, func(cmd *cobra.Command, d *deps, _ []string) error {
			n := limit
			if n == 0 {
				n = d.historyLimit
			}
			logs, err := d.schedule.History(cmd.Context(), n)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"executions": logs})
		}),
	}
	historyCmd.Flags().IntVar(&limit, "limit", 0, "number of executions to show (default HISTORY_LIMIT)")

	cmd.AddCommand(statusCmd, pauseCmd, resumeCmd, triggerCmd, historyCmd)
	return cmd
}

func showView(cmd *cobra.Command, op func(context.Context, usecase.ScheduleView) (usecase.ScheduleView, error)) error {
	view, err := op(cmd.Context(), usecase.ScheduleView{})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), view)
}

type triggerOutput struct {
	TriggeredAt time.Time             `json:"triggered_at"`
	Completed   bool                  `json:"completed"`
	Schedule    *usecase.ScheduleView `json:"schedule,omitempty"`
}

func runTrigger(cmd *cobra.Command, d *deps, wait bool, timeout time.Duration) error {
	ctx := cmd.Context()
	receipt, err := d.schedule.TriggerNow(ctx, usecase.ScheduleView{})
	if err != nil {
		return err
	}
	out := triggerOutput{TriggeredAt: receipt.TriggeredAt}
	if !wait {
		cmd.PrintErrf("Trigger sent, check back in %s.\n", receipt.PollAfter)
		return printJSON(cmd.OutOrStdout(), out)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	view, err := d.schedule.AwaitRun(waitCtx, receipt, usecase.ScheduleView{})
	switch {
	case err == nil:
		out.Completed = true
	case errors.Is(err, domain.ErrRunPending):
		cmd.PrintErrln("Run not recorded yet, showing the latest state.")
	default:
		return err
	}
	out.Schedule = &view
	return printJSON(cmd.OutOrStdout(), out)
}
