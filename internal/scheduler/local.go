// Package scheduler is an in-process stand-in for the scheduler service.
// It keeps schedules and their execution history in memory, fires due runs
// from a Dispatcher and retries failed attempts with backoff.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/crondesc"
	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
)

const defaultMaxLogs = 500

type entry struct {
	schedule    domain.Schedule
	maxAttempts int
	logs        []domain.ExecutionLog
	running     bool
}

type Local struct {
	mu        sync.Mutex
	schedules map[string]*entry

	job     Job
	logger  *slog.Logger
	now     func() time.Time
	backoff func(attempt int) time.Duration
	maxLogs int

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Local)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Local) { l.now = now }
}

// WithBackoff replaces the delay between failed attempts.
func WithBackoff(backoff func(attempt int) time.Duration) Option {
	return func(l *Local) { l.backoff = backoff }
}

// WithMaxLogs bounds the history kept per schedule.
func WithMaxLogs(n int) Option {
	return func(l *Local) { l.maxLogs = n }
}

func NewLocal(job Job, logger *slog.Logger, opts ...Option) *Local {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Local{
		schedules: make(map[string]*entry),
		job:       job,
		logger:    logger.With("component", "local_scheduler"),
		now:       time.Now,
		backoff:   retryDelay,
		maxLogs:   defaultMaxLogs,
		runCtx:    ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add registers an active schedule.
func (l *Local) Add(id, cronExpr, timezone string, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	next, err := domain.NextRun(cronExpr, timezone, l.now())
	if err != nil {
		return fmt.Errorf("add schedule: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.schedules[id] = &entry{
		schedule: domain.Schedule{
			ID:             id,
			CronExpression: cronExpr,
			Timezone:       timezone,
			IsActive:       true,
			NextRunTime:    &next,
		},
		maxAttempts: maxAttempts,
	}
	return nil
}

func (l *Local) GetSchedule(_ context.Context, id string) (*domain.Schedule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.schedules[id]
	if !ok {
		return nil, domain.ErrScheduleNotFound
	}
	return copySchedule(e.schedule), nil
}

func (l *Local) ListSchedules(_ context.Context) ([]*domain.Schedule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*domain.Schedule, 0, len(l.schedules))
	for _, e := range l.schedules {
		out = append(out, copySchedule(e.schedule))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *Local) PauseSchedule(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.schedules[id]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	if !e.schedule.IsActive {
		return domain.ErrScheduleAlreadyPaused
	}
	e.schedule.IsActive = false
	e.schedule.NextRunTime = nil
	l.logger.Info("schedule paused", "schedule_id", id)
	return nil
}

func (l *Local) ResumeSchedule(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.schedules[id]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	if e.schedule.IsActive {
		return domain.ErrScheduleNotPaused
	}
	next, err := domain.NextRun(e.schedule.CronExpression, e.schedule.Timezone, l.now())
	if err != nil {
		return fmt.Errorf("resume schedule: %w", err)
	}
	e.schedule.IsActive = true
	e.schedule.NextRunTime = &next
	l.logger.Info("schedule resumed", "schedule_id", id, "next_run_time", next)
	return nil
}

// TriggerScheduleNow starts one out-of-band run. The schedule's state and
// next run are left alone.
func (l *Local) TriggerScheduleNow(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.schedules[id]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	if e.running {
		return fmt.Errorf("%w: a run is already in progress", domain.ErrScheduleOperationFailed)
	}
	l.startLocked(id, e)
	return nil
}

// GetScheduleLogs returns up to limit executions, most recent first.
func (l *Local) GetScheduleLogs(_ context.Context, id string, limit int) ([]domain.ExecutionLog, error) {
	if limit < 1 {
		return nil, domain.ErrInvalidLimit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.schedules[id]
	if !ok {
		return nil, domain.ErrScheduleNotFound
	}
	out := make([]domain.ExecutionLog, 0, min(limit, len(e.logs)))
	for i := len(e.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, e.logs[i])
	}
	return out, nil
}

func (l *Local) CronToHuman(expr string) string {
	return crondesc.Describe(expr)
}

func (l *Local) Ping(context.Context) error { return nil }

// FireDue starts a run for every active, idle schedule whose next run has
// passed, and advances its next run past now. Missed runs are skipped.
func (l *Local) FireDue() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	fired := 0
	for id, e := range l.schedules {
		s := &e.schedule
		if !s.IsActive || s.NextRunTime == nil || s.NextRunTime.After(now) {
			continue
		}

		next, err := domain.NextRun(s.CronExpression, s.Timezone, now)
		if err != nil {
			l.logger.Error("invalid cron expression in schedule", "schedule_id", id, "cron_expr", s.CronExpression, "error", err)
			next = now.Add(time.Hour)
		}
		s.NextRunTime = &next

		if e.running {
			l.logger.Warn("previous run still in progress, skipping", "schedule_id", id)
			continue
		}
		l.startLocked(id, e)
		fired++
	}
	return fired
}

// Prune drops execution logs older than cutoff.
func (l *Local) Prune(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	pruned := 0
	for _, e := range l.schedules {
		before := len(e.logs)
		e.logs = slices.DeleteFunc(e.logs, func(x domain.ExecutionLog) bool {
			return x.ExecutedAt.Before(cutoff)
		})
		pruned += before - len(e.logs)
	}
	return pruned
}

// Wait blocks until in-flight runs finish.
func (l *Local) Wait() {
	l.wg.Wait()
}

// Close abandons pending retries and waits for in-flight attempts.
func (l *Local) Close() {
	l.cancel()
	l.wg.Wait()
}

func (l *Local) startLocked(id string, e *entry) {
	e.running = true
	l.wg.Add(1)
	go l.run(l.runCtx, id, e.maxAttempts)
}

func (l *Local) record(id string, log domain.ExecutionLog) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.schedules[id]
	if !ok {
		return
	}
	e.logs = append(e.logs, log)
	if over := len(e.logs) - l.maxLogs; l.maxLogs > 0 && over > 0 {
		e.logs = slices.Delete(e.logs, 0, over)
	}
}

func (l *Local) complete(id string, startedAt time.Time, success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.schedules[id]; ok {
		e.schedule.LastRunAt = &startedAt
		e.schedule.LastRunSuccess = &success
	}
}

func (l *Local) finish(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.schedules[id]; ok {
		e.running = false
	}
}

func copySchedule(s domain.Schedule) *domain.Schedule {
	out := s
	if s.NextRunTime != nil {
		t := *s.NextRunTime
		out.NextRunTime = &t
	}
	if s.LastRunAt != nil {
		t := *s.LastRunAt
		out.LastRunAt = &t
	}
	if s.LastRunSuccess != nil {
		b := *s.LastRunSuccess
		out.LastRunSuccess = &b
	}
	return &out
}
