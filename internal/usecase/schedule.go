package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/metrics"
	"github.com/ErlanBelekov/agent-dashboard/internal/repository"
)

// ScheduleView is what the dashboard knows about the reminder schedule.
// Controllers take the prior view and return the next one; on error the
// prior view comes back unchanged.
type ScheduleView struct {
	Schedule        *domain.Schedule      `json:"schedule"`
	CronDescription string                `json:"cron_description"`
	History         []domain.ExecutionLog `json:"history"`
	RefreshedAt     time.Time             `json:"refreshed_at"`
}

// TriggerReceipt acknowledges a manual run. PollAfter is how long the run
// usually takes to show up in the history. LastSeenRun is the newest
// execution the service had recorded before the trigger, on the service's
// clock; the zero time means the history was empty.
type TriggerReceipt struct {
	TriggeredAt time.Time     `json:"triggered_at"`
	PollAfter   time.Duration `json:"poll_after"`
	LastSeenRun time.Time     `json:"last_seen_run"`
}

// maxClockSkew bounds how far the service clock may trail ours when no
// history snapshot could be taken before a trigger.
const maxClockSkew = 2 * time.Minute

type ScheduleOptions struct {
	ScheduleID   string
	HistoryLimit int
	PollAfter    time.Duration
	PollInterval time.Duration
}

type ScheduleController struct {
	svc    repository.SchedulerService
	logs   *ExecutionLogStore
	opts   ScheduleOptions
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduleController(svc repository.SchedulerService, opts ScheduleOptions, logger *slog.Logger) *ScheduleController {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &ScheduleController{
		svc:    svc,
		logs:   NewExecutionLogStore(svc, opts.ScheduleID),
		opts:   opts,
		logger: logger.With("component", "schedule_controller", "schedule_id", opts.ScheduleID),
		now:    time.Now,
	}
}

// Refresh reloads the schedule and its recent history.
func (c *ScheduleController) Refresh(ctx context.Context, prior ScheduleView) (view ScheduleView, err error) {
	defer observe("refresh", &err)

	s, err := c.svc.GetSchedule(ctx, c.opts.ScheduleID)
	if err != nil {
		return prior, fmt.Errorf("get schedule: %w", serviceError(err))
	}
	return c.build(ctx, prior, s)
}

// Pause stops future runs. Pausing a paused schedule succeeds without
// calling the service.
func (c *ScheduleController) Pause(ctx context.Context, prior ScheduleView) (view ScheduleView, err error) {
	defer observe("pause", &err)

	if prior.Schedule != nil && prior.Schedule.State() == domain.StatePaused {
		return prior, nil
	}

	if err := c.svc.PauseSchedule(ctx, c.opts.ScheduleID); err != nil {
		if !errors.Is(err, domain.ErrScheduleAlreadyPaused) {
			c.logger.WarnContext(ctx, "pause rejected", "error", err)
			return prior, fmt.Errorf("pause schedule: %w", serviceError(err))
		}
		c.logger.InfoContext(ctx, "schedule was already paused")
	}

	view, err = c.reconcile(ctx, prior)
	if err != nil {
		return prior, fmt.Errorf("pause schedule: %w", err)
	}
	c.logger.InfoContext(ctx, "schedule paused")
	return view, nil
}

// Resume re-enables a paused schedule. Resuming an active schedule succeeds
// without calling the service.
func (c *ScheduleController) Resume(ctx context.Context, prior ScheduleView) (view ScheduleView, err error) {
	defer observe("resume", &err)

	if prior.Schedule != nil && prior.Schedule.State() == domain.StateActive {
		return prior, nil
	}

	if err := c.svc.ResumeSchedule(ctx, c.opts.ScheduleID); err != nil {
		if !errors.Is(err, domain.ErrScheduleNotPaused) {
			c.logger.WarnContext(ctx, "resume rejected", "error", err)
			return prior, fmt.Errorf("resume schedule: %w", serviceError(err))
		}
		c.logger.InfoContext(ctx, "schedule was already active")
	}

	view, err = c.reconcile(ctx, prior)
	if err != nil {
		return prior, fmt.Errorf("resume schedule: %w", err)
	}
	c.logger.InfoContext(ctx, "schedule resumed", "next_run_time", view.Schedule.NextRunTime)
	return view, nil
}

// TriggerNow asks the service for one immediate run. The schedule's
// active flag is not touched; use AwaitRun to see the outcome.
func (c *ScheduleController) TriggerNow(ctx context.Context, _ ScheduleView) (receipt TriggerReceipt, err error) {
	defer observe("trigger", &err)

	triggeredAt := c.now()
	lastSeen := c.lastSeenRun(ctx, triggeredAt)
	if err := c.svc.TriggerScheduleNow(ctx, c.opts.ScheduleID); err != nil {
		c.logger.WarnContext(ctx, "trigger rejected", "error", err)
		return TriggerReceipt{}, fmt.Errorf("trigger schedule: %w", serviceError(err))
	}

	c.logger.InfoContext(ctx, "schedule triggered")
	return TriggerReceipt{TriggeredAt: triggeredAt, PollAfter: c.opts.PollAfter, LastSeenRun: lastSeen}, nil
}

func (c *ScheduleController) lastSeenRun(ctx context.Context, triggeredAt time.Time) time.Time {
	history, err := c.logs.Recent(ctx, c.opts.HistoryLimit)
	if err != nil {
		c.logger.WarnContext(ctx, "history snapshot before trigger failed", "error", err)
		return triggeredAt.Add(-maxClockSkew)
	}
	if len(history) == 0 {
		return time.Time{}
	}
	return history[0].ExecutedAt
}

// AwaitRun polls the history until an execution newer than
// receipt.LastSeenRun has finished (succeeded or used its last attempt). When ctx ends first it returns the
// latest view it saw together with ErrRunPending.
func (c *ScheduleController) AwaitRun(ctx context.Context, receipt TriggerReceipt, prior ScheduleView) (ScheduleView, error) {
	latest := prior
	timer := time.NewTimer(receipt.PollAfter)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return latest, fmt.Errorf("await run: %w", domain.ErrRunPending)
		case <-timer.C:
		}

		view, err := c.Refresh(ctx, latest)
		if err != nil {
			c.logger.WarnContext(ctx, "poll after trigger failed", "error", err)
		} else {
			latest = view
			if runFinished(view.History, receipt.LastSeenRun) {
				return view, nil
			}
		}
		timer.Reset(c.opts.PollInterval)
	}
}

// History returns up to limit recent executions.
func (c *ScheduleController) History(ctx context.Context, limit int) ([]domain.ExecutionLog, error) {
	return c.logs.Recent(ctx, limit)
}

// reconcile re-reads the schedule from the service listing after a toggle.
func (c *ScheduleController) reconcile(ctx context.Context, prior ScheduleView) (ScheduleView, error) {
	list, err := c.svc.ListSchedules(ctx)
	if err != nil {
		return prior, fmt.Errorf("list schedules: %w", serviceError(err))
	}
	for _, s := range list {
		if s.ID == c.opts.ScheduleID {
			return c.build(ctx, prior, s)
		}
	}
	return prior, fmt.Errorf("list schedules: %w", serviceError(domain.ErrScheduleNotFound))
}

func (c *ScheduleController) build(ctx context.Context, prior ScheduleView, s *domain.Schedule) (ScheduleView, error) {
	history, err := c.logs.Recent(ctx, c.opts.HistoryLimit)
	if err != nil {
		return prior, err
	}

	now := c.now()
	s.Normalize(now)
	return ScheduleView{
		Schedule:        s,
		CronDescription: c.svc.CronToHuman(s.CronExpression),
		History:         history,
		RefreshedAt:     now,
	}, nil
}

func runFinished(history []domain.ExecutionLog, lastSeen time.Time) bool {
	for _, l := range history {
		if l.ExecutedAt.After(lastSeen) && l.Terminal() {
			return true
		}
	}
	return false
}

// serviceError files a scheduler service error under ErrTransportFailure
// or ErrScheduleOperationFailed, keeping the original in the chain.
func serviceError(err error) error {
	if errors.Is(err, domain.ErrTransportFailure) || errors.Is(err, domain.ErrScheduleOperationFailed) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTransportFailure, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrScheduleOperationFailed, err)
}

func observe(op string, err *error) {
	metrics.ScheduleOperationsTotal.WithLabelValues(op, metrics.Outcome(*err)).Inc()
}
