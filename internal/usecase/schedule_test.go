package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/usecase"
)

// ---- fakes ----

type fakeScheduler struct {
	getSchedule     func(ctx context.Context, id string) (*domain.Schedule, error)
	listSchedules   func(ctx context.Context) ([]*domain.Schedule, error)
	pauseSchedule   func(ctx context.Context, id string) error
	resumeSchedule  func(ctx context.Context, id string) error
	triggerSchedule func(ctx context.Context, id string) error
	getLogs         func(ctx context.Context, id string, limit int) ([]domain.ExecutionLog, error)
}

func (f *fakeScheduler) GetSchedule(ctx context.Context, id string) (*domain.Schedule, error) {
	return f.getSchedule(ctx, id)
}

func (f *fakeScheduler) ListSchedules(ctx context.Context) ([]*domain.Schedule, error) {
	return f.listSchedules(ctx)
}

func (f *fakeScheduler) PauseSchedule(ctx context.Context, id string) error {
	return f.pauseSchedule(ctx, id)
}

func (f *fakeScheduler) ResumeSchedule(ctx context.Context, id string) error {
	return f.resumeSchedule(ctx, id)
}

func (f *fakeScheduler) TriggerScheduleNow(ctx context.Context, id string) error {
	return f.triggerSchedule(ctx, id)
}

func (f *fakeScheduler) GetScheduleLogs(ctx context.Context, id string, limit int) ([]domain.ExecutionLog, error) {
	return f.getLogs(ctx, id, limit)
}

func (f *fakeScheduler) CronToHuman(expr string) string { return "At 08:00 (" + expr + ")" }

// ---- helpers ----

const scheduleID = "699961b7399dfadeac37e2b2"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func ptr[T any](v T) *T { return &v }

func activeSchedule() *domain.Schedule {
	return &domain.Schedule{
		ID:             scheduleID,
		CronExpression: "0 8 * * *",
		Timezone:       "America/New_York",
		IsActive:       true,
		NextRunTime:    ptr(time.Date(2026, 2, 22, 13, 0, 0, 0, time.UTC)),
	}
}

func pausedSchedule() *domain.Schedule {
	s := activeSchedule()
	s.IsActive = false
	s.NextRunTime = nil
	return s
}

func noLogs(context.Context, string, int) ([]domain.ExecutionLog, error) { return nil, nil }

func unexpected(t *testing.T, name string) func(context.Context, string) error {
	return func(context.Context, string) error {
		t.Errorf("%s should not be called", name)
		return nil
	}
}

func newController(svc *fakeScheduler) *usecase.ScheduleController {
	return usecase.NewScheduleController(svc, usecase.ScheduleOptions{
		ScheduleID:   scheduleID,
		HistoryLimit: 5,
		PollAfter:    5 * time.Second,
		PollInterval: time.Millisecond,
	}, discard)
}

// ---- Refresh ----

func TestRefresh_BuildsView(t *testing.T) {
	svc := &fakeScheduler{
		getSchedule: func(_ context.Context, id string) (*domain.Schedule, error) {
			if id != scheduleID {
				t.Errorf("unexpected id %q", id)
			}
			return activeSchedule(), nil
		},
		getLogs: func(_ context.Context, _ string, limit int) ([]domain.ExecutionLog, error) {
			if limit != 5 {
				t.Errorf("expected limit 5, got %d", limit)
			}
			return []domain.ExecutionLog{{ExecutedAt: time.Now(), Success: true, Attempt: 1, MaxAttempts: 1}}, nil
		},
	}

	view, err := newController(svc).Refresh(context.Background(), usecase.ScheduleView{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.Schedule.IsActive || view.Schedule.NextRunTime == nil {
		t.Fatalf("expected active schedule with next run, got %+v", view.Schedule)
	}
	if view.CronDescription != "At 08:00 (0 8 * * *)" {
		t.Errorf("unexpected description %q", view.CronDescription)
	}
	if len(view.History) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(view.History))
	}
	if view.RefreshedAt.IsZero() {
		t.Error("expected RefreshedAt to be set")
	}
}

func TestRefresh_ClearsNextRunOfPausedSchedule(t *testing.T) {
	svc := &fakeScheduler{
		getSchedule: func(context.Context, string) (*domain.Schedule, error) {
			s := activeSchedule()
			s.IsActive = false // service left a stale next run behind
			return s, nil
		},
		getLogs: noLogs,
	}

	view, err := newController(svc).Refresh(context.Background(), usecase.ScheduleView{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Schedule.NextRunTime != nil {
		t.Fatalf("expected nil next run for paused schedule, got %v", view.Schedule.NextRunTime)
	}
}

func TestRefresh_NotFound(t *testing.T) {
	prior := usecase.ScheduleView{Schedule: activeSchedule(), CronDescription: "old"}
	svc := &fakeScheduler{
		getSchedule: func(context.Context, string) (*domain.Schedule, error) {
			return nil, domain.ErrScheduleNotFound
		},
	}

	view, err := newController(svc).Refresh(context.Background(), prior)
	if !errors.Is(err, domain.ErrScheduleNotFound) || !errors.Is(err, domain.ErrScheduleOperationFailed) {
		t.Fatalf("expected not found operation failure, got %v", err)
	}
	if view.CronDescription != "old" || view.Schedule != prior.Schedule {
		t.Fatal("expected prior view on error")
	}
}

// ---- Pause / Resume ----

func TestPause_ActiveToPaused(t *testing.T) {
	var paused atomic.Bool
	svc := &fakeScheduler{
		pauseSchedule: func(_ context.Context, id string) error {
			if id != scheduleID {
				t.Errorf("unexpected id %q", id)
			}
			paused.Store(true)
			return nil
		},
		listSchedules: func(context.Context) ([]*domain.Schedule, error) {
			if !paused.Load() {
				t.Error("listed before pause")
			}
			return []*domain.Schedule{{ID: "other", IsActive: true}, pausedSchedule()}, nil
		},
		getLogs: noLogs,
	}
	prior := usecase.ScheduleView{Schedule: activeSchedule()}

	view, err := newController(svc).Pause(context.Background(), prior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Schedule.IsActive {
		t.Fatal("expected schedule to be paused")
	}
	if view.Schedule.NextRunTime != nil {
		t.Fatalf("expected nil next run, got %v", view.Schedule.NextRunTime)
	}
	if !prior.Schedule.IsActive {
		t.Fatal("prior view must not be mutated")
	}
}

func TestPause_AlreadyPausedIsNoop(t *testing.T) {
	svc := &fakeScheduler{pauseSchedule: unexpected(t, "PauseSchedule")}
	prior := usecase.ScheduleView{Schedule: pausedSchedule(), CronDescription: "kept"}

	view, err := newController(svc).Pause(context.Background(), prior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.CronDescription != "kept" || view.Schedule != prior.Schedule {
		t.Fatal("expected the prior view back")
	}
}

func TestPause_ServiceReportsAlreadyPaused(t *testing.T) {
	svc := &fakeScheduler{
		pauseSchedule: func(context.Context, string) error { return domain.ErrScheduleAlreadyPaused },
		listSchedules: func(context.Context) ([]*domain.Schedule, error) {
			return []*domain.Schedule{pausedSchedule()}, nil
		},
		getLogs: noLogs,
	}

	view, err := newController(svc).Pause(context.Background(), usecase.ScheduleView{Schedule: activeSchedule()})
	if err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
	if view.Schedule.IsActive {
		t.Fatal("expected reconciled paused schedule")
	}
}

func TestPause_RejectedLeavesViewUnchanged(t *testing.T) {
	svc := &fakeScheduler{
		pauseSchedule: func(context.Context, string) error {
			return fmt.Errorf("%w: quota exceeded", domain.ErrScheduleOperationFailed)
		},
		listSchedules: func(context.Context) ([]*domain.Schedule, error) {
			t.Error("ListSchedules should not be called after a rejection")
			return nil, nil
		},
	}
	prior := usecase.ScheduleView{Schedule: activeSchedule()}

	view, err := newController(svc).Pause(context.Background(), prior)
	if !errors.Is(err, domain.ErrScheduleOperationFailed) {
		t.Fatalf("expected ErrScheduleOperationFailed, got %v", err)
	}
	if view.Schedule != prior.Schedule || !view.Schedule.IsActive {
		t.Fatal("expected prior view, still active")
	}
}

func TestPause_RefreshFailsAfterPause(t *testing.T) {
	svc := &fakeScheduler{
		pauseSchedule: func(context.Context, string) error { return nil },
		listSchedules: func(context.Context) ([]*domain.Schedule, error) {
			return nil, fmt.Errorf("%w: connection reset", domain.ErrTransportFailure)
		},
	}
	prior := usecase.ScheduleView{Schedule: activeSchedule()}

	view, err := newController(svc).Pause(context.Background(), prior)
	if !errors.Is(err, domain.ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure, got %v", err)
	}
	if view.Schedule != prior.Schedule {
		t.Fatal("expected prior view")
	}
}

func TestResume_PausedToActive(t *testing.T) {
	svc := &fakeScheduler{
		resumeSchedule: func(context.Context, string) error { return nil },
		listSchedules: func(context.Context) ([]*domain.Schedule, error) {
			return []*domain.Schedule{activeSchedule()}, nil
		},
		getLogs: noLogs,
	}

	view, err := newController(svc).Resume(context.Background(), usecase.ScheduleView{Schedule: pausedSchedule()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.Schedule.IsActive || view.Schedule.NextRunTime == nil {
		t.Fatalf("expected active schedule with next run, got %+v", view.Schedule)
	}
}

func TestResume_AlreadyActiveIsNoop(t *testing.T) {
	svc := &fakeScheduler{resumeSchedule: unexpected(t, "ResumeSchedule")}
	prior := usecase.ScheduleView{Schedule: activeSchedule()}

	view, err := newController(svc).Resume(context.Background(), prior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Schedule != prior.Schedule {
		t.Fatal("expected the prior view back")
	}
}

func TestResume_ServiceReportsNotPaused(t *testing.T) {
	svc := &fakeScheduler{
		resumeSchedule: func(context.Context, string) error { return domain.ErrScheduleNotPaused },
		listSchedules: func(context.Context) ([]*domain.Schedule, error) {
			return []*domain.Schedule{activeSchedule()}, nil
		},
		getLogs: noLogs,
	}

	if _, err := newController(svc).Resume(context.Background(), usecase.ScheduleView{Schedule: pausedSchedule()}); err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
}

func TestRefresh_ComputesMissingNextRun(t *testing.T) {
	s := activeSchedule()
	s.NextRunTime = nil
	svc := &fakeScheduler{
		getSchedule: func(context.Context, string) (*domain.Schedule, error) { return s, nil },
		getLogs:     noLogs,
	}

	before := time.Now()
	view, err := newController(svc).Refresh(context.Background(), usecase.ScheduleView{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := view.Schedule.NextRunTime
	if next == nil {
		t.Fatal("expected a next run computed from the cron expression")
	}
	ny, _ := time.LoadLocation("America/New_York")
	local := next.In(ny)
	if local.Hour() != 8 || local.Minute() != 0 || !next.After(before) || next.Sub(before) > 25*time.Hour {
		t.Errorf("expected the next 08:00 New York activation after %v, got %v", before, local)
	}
}

func TestRefresh_InvalidCronLeavesNextRunNil(t *testing.T) {
	s := activeSchedule()
	s.NextRunTime = nil
	s.CronExpression = "not a cron"
	svc := &fakeScheduler{
		getSchedule: func(context.Context, string) (*domain.Schedule, error) { return s, nil },
		getLogs:     noLogs,
	}

	view, err := newController(svc).Refresh(context.Background(), usecase.ScheduleView{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Schedule.NextRunTime != nil {
		t.Errorf("expected nil next run, got %v", view.Schedule.NextRunTime)
	}
	if !view.Schedule.IsActive {
		t.Error("schedule should stay active")
	}
}

// ---- Trigger ----

func TestTriggerNow_DoesNotTouchState(t *testing.T) {
	svc := &fakeScheduler{
		triggerSchedule: func(context.Context, string) error { return nil },
		pauseSchedule:   unexpected(t, "PauseSchedule"),
		resumeSchedule:  unexpected(t, "ResumeSchedule"),
		getLogs:         noLogs,
	}
	prior := usecase.ScheduleView{Schedule: pausedSchedule()}

	before := time.Now()
	receipt, err := newController(svc).TriggerNow(context.Background(), prior)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.TriggeredAt.Before(before) {
		t.Errorf("triggered at %v is before %v", receipt.TriggeredAt, before)
	}
	if receipt.PollAfter != 5*time.Second {
		t.Errorf("expected poll after 5s, got %v", receipt.PollAfter)
	}
	if !receipt.LastSeenRun.IsZero() {
		t.Errorf("expected no last seen run for an empty history, got %v", receipt.LastSeenRun)
	}
	if prior.Schedule.IsActive {
		t.Fatal("trigger must not resume the schedule")
	}
}

func TestTriggerNow_Unreachable(t *testing.T) {
	svc := &fakeScheduler{
		triggerSchedule: func(context.Context, string) error {
			return fmt.Errorf("%w: dial tcp", domain.ErrTransportFailure)
		},
		getLogs: noLogs,
	}

	_, err := newController(svc).TriggerNow(context.Background(), usecase.ScheduleView{})
	if !errors.Is(err, domain.ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure, got %v", err)
	}
	if got := domain.UserMessage(err, "schedule"); got != "Network error occurred. Please try again." {
		t.Errorf("unexpected user message %q", got)
	}
}

func TestAwaitRun_ReturnsOnceRunFinishes(t *testing.T) {
	var polls atomic.Int32
	old := domain.ExecutionLog{ExecutedAt: time.Now().Add(-24 * time.Hour), Success: true, Attempt: 1, MaxAttempts: 3}
	svc := &fakeScheduler{
		getSchedule: func(context.Context, string) (*domain.Schedule, error) { return activeSchedule(), nil },
		getLogs: func(context.Context, string, int) ([]domain.ExecutionLog, error) {
			switch polls.Add(1) {
			case 1:
				return []domain.ExecutionLog{old}, nil
			case 2:
				return []domain.ExecutionLog{{ExecutedAt: time.Now(), Success: false, Attempt: 1, MaxAttempts: 3}, old}, nil
			default:
				ran := time.Now()
				return []domain.ExecutionLog{
					{ExecutedAt: ran.Add(-time.Millisecond), Success: false, Attempt: 1, MaxAttempts: 3},
					old,
					{ExecutedAt: ran, Success: true, Attempt: 2, MaxAttempts: 3},
				}, nil
			}
		},
	}
	c := newController(svc)

	receipt := usecase.TriggerReceipt{TriggeredAt: time.Now().Add(-time.Second), LastSeenRun: old.ExecutedAt}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	view, err := c.AwaitRun(ctx, receipt, usecase.ScheduleView{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := polls.Load(); got != 3 {
		t.Errorf("expected 3 polls, got %d", got)
	}
	if !view.History[0].Success || view.History[0].Attempt != 2 {
		t.Errorf("expected the successful retry first, got %+v", view.History[0])
	}
}

func TestAwaitRun_ServiceClockBehind(t *testing.T) {
	previous := time.Date(2026, 2, 20, 13, 0, 0, 0, time.UTC)
	var triggered atomic.Bool
	var triggeredAt time.Time

	svc := &fakeScheduler{
		getSchedule:     func(context.Context, string) (*domain.Schedule, error) { return activeSchedule(), nil },
		triggerSchedule: func(context.Context, string) error { triggered.Store(true); return nil },
		getLogs: func(context.Context, string, int) ([]domain.ExecutionLog, error) {
			old := domain.ExecutionLog{ExecutedAt: previous, Success: true, Attempt: 1, MaxAttempts: 1}
			if !triggered.Load() {
				return []domain.ExecutionLog{old}, nil
			}
			// whole seconds, and a clock running behind ours
			ran := triggeredAt.Truncate(time.Second).Add(-3 * time.Second)
			return []domain.ExecutionLog{{ExecutedAt: ran, Success: true, Attempt: 1, MaxAttempts: 1}, old}, nil
		},
	}
	c := usecase.NewScheduleController(svc, usecase.ScheduleOptions{
		ScheduleID:   scheduleID,
		HistoryLimit: 5,
		PollInterval: time.Millisecond,
	}, discard)

	receipt, err := c.TriggerNow(context.Background(), usecase.ScheduleView{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	triggeredAt = receipt.TriggeredAt
	if !receipt.LastSeenRun.Equal(previous) {
		t.Fatalf("expected last seen run %v, got %v", previous, receipt.LastSeenRun)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	view, err := c.AwaitRun(ctx, receipt, usecase.ScheduleView{})
	if err != nil {
		t.Fatalf("expected the run to be recognised, got %v", err)
	}
	if !view.History[0].Success {
		t.Errorf("expected the new run first, got %+v", view.History[0])
	}
}

func TestTriggerNow_SnapshotFailureFallsBackToSkewWindow(t *testing.T) {
	svc := &fakeScheduler{
		triggerSchedule: func(context.Context, string) error { return nil },
		getLogs: func(context.Context, string, int) ([]domain.ExecutionLog, error) {
			return nil, fmt.Errorf("%w: timeout", domain.ErrTransportFailure)
		},
	}

	receipt, err := newController(svc).TriggerNow(context.Background(), usecase.ScheduleView{})
	if err != nil {
		t.Fatalf("a failed snapshot must not fail the trigger: %v", err)
	}
	if !receipt.LastSeenRun.Before(receipt.TriggeredAt) || receipt.TriggeredAt.Sub(receipt.LastSeenRun) > 5*time.Minute {
		t.Errorf("expected a bounded window before %v, got %v", receipt.TriggeredAt, receipt.LastSeenRun)
	}
}

func TestAwaitRun_PendingWhenContextEnds(t *testing.T) {
	svc := &fakeScheduler{
		getSchedule: func(context.Context, string) (*domain.Schedule, error) { return activeSchedule(), nil },
		getLogs:     noLogs,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	view, err := newController(svc).AwaitRun(ctx, usecase.TriggerReceipt{TriggeredAt: time.Now()}, usecase.ScheduleView{})
	if !errors.Is(err, domain.ErrRunPending) {
		t.Fatalf("expected ErrRunPending, got %v", err)
	}
	if view.Schedule == nil {
		t.Fatal("expected the latest polled view")
	}
}

// ---- ExecutionLogStore ----

func TestRecent_SortsMostRecentFirst(t *testing.T) {
	t1 := time.Date(2026, 2, 20, 13, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)
	svc := &fakeScheduler{
		getLogs: func(context.Context, string, int) ([]domain.ExecutionLog, error) {
			return []domain.ExecutionLog{
				{ExecutedAt: t1, Success: true, Attempt: 1, MaxAttempts: 1},
				{ExecutedAt: t2, Success: false, Attempt: 1, MaxAttempts: 1, Error: ptr("timeout")},
			}, nil
		},
	}

	logs, err := usecase.NewExecutionLogStore(svc, scheduleID).Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(logs))
	}
	if !logs[0].ExecutedAt.Equal(t2) || !logs[1].ExecutedAt.Equal(t1) {
		t.Fatalf("expected most recent first, got %v then %v", logs[0].ExecutedAt, logs[1].ExecutedAt)
	}
}

func TestRecent_TruncatesToLimit(t *testing.T) {
	base := time.Date(2026, 2, 20, 13, 0, 0, 0, time.UTC)
	svc := &fakeScheduler{
		getLogs: func(context.Context, string, int) ([]domain.ExecutionLog, error) {
			out := make([]domain.ExecutionLog, 4)
			for i := range out {
				out[i] = domain.ExecutionLog{ExecutedAt: base.Add(time.Duration(i) * time.Hour), Attempt: 1, MaxAttempts: 1}
			}
			return out, nil
		},
	}

	logs, err := usecase.NewExecutionLogStore(svc, scheduleID).Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 2 || !logs[0].ExecutedAt.Equal(base.Add(3*time.Hour)) {
		t.Fatalf("expected the 2 latest entries, got %+v", logs)
	}
}

func TestRecent_RejectsNonPositiveLimit(t *testing.T) {
	svc := &fakeScheduler{
		getLogs: func(context.Context, string, int) ([]domain.ExecutionLog, error) {
			t.Error("service should not be called")
			return nil, nil
		},
	}
	for _, limit := range []int{0, -1} {
		if _, err := usecase.NewExecutionLogStore(svc, scheduleID).Recent(context.Background(), limit); !errors.Is(err, domain.ErrInvalidLimit) {
			t.Errorf("limit %d: expected ErrInvalidLimit, got %v", limit, err)
		}
	}
}
