package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/ErlanBelekov/agent-dashboard/config"
	"github.com/ErlanBelekov/agent-dashboard/internal/app"
	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	ctxlog "github.com/ErlanBelekov/agent-dashboard/internal/log"
	"github.com/ErlanBelekov/agent-dashboard/internal/usecase"
	"github.com/spf13/cobra"
)

type scheduleController interface {
	Refresh(ctx context.Context, prior usecase.ScheduleView) (usecase.ScheduleView, error)
	Pause(ctx context.Context, prior usecase.ScheduleView) (usecase.ScheduleView, error)
	Resume(ctx context.Context, prior usecase.ScheduleView) (usecase.ScheduleView, error)
	TriggerNow(ctx context.Context, prior usecase.ScheduleView) (usecase.TriggerReceipt, error)
	AwaitRun(ctx context.Context, receipt usecase.TriggerReceipt, prior usecase.ScheduleView) (usecase.ScheduleView, error)
	History(ctx context.Context, limit int) ([]domain.ExecutionLog, error)
}

type agentRunner interface {
	Agents() []domain.Agent
	Invoke(ctx context.Context, kind domain.AgentKind, instruction string) (domain.Record, error)
}

// deps is what the commands talk to. close releases whatever build opened.
type deps struct {
	schedule     scheduleController
	agents       agentRunner
	historyLimit int
	close        func()
}

type builder func() (*deps, error)

func buildFromEnv() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// stdout carries the JSON output
	logger := ctxlog.New(os.Stderr, cfg.Env, cfg.SlogLevel())

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &deps{
		schedule:     a.Schedule,
		agents:       a.Agents,
		historyLimit: cfg.HistoryLimit,
		close:        a.Close,
	}, nil
}

func newRootCmd(build builder) *cobra.Command {
	root := &cobra.Command{
		Use:   "dashctl",
		Short: "Operate the agent dashboard's schedule and agents from the terminal",
		Long: `dashctl talks to the same agent and scheduler services as the dashboard
server, configured through the same environment variables.`,
		SilenceUsage: true,
	}

	root.AddCommand(newScheduleCmd(build))
	root.AddCommand(newAgentCmd(build))
	return root
}

// withDeps builds the dependencies for one command run and releases them
// afterwards.
func withDeps(build builder, fn func(cmd *cobra.Command, d *deps, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		d, err := build()
		if err != nil {
			return err
		}
		if d.close != nil {
			defer d.close()
		}
		return fn(cmd, d, args)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
