package repository

import (
	"context"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
)

// SchedulerService is the external scheduler that owns the reminder
// schedule and its execution history. Usecases depend on this interface so
// the remote client and the in-process scheduler are interchangeable.
//
// Implementations report domain.ErrScheduleNotFound for unknown ids,
// domain.ErrScheduleAlreadyPaused / domain.ErrScheduleNotPaused when a
// toggle finds the schedule already in the requested state, and wrap
// domain.ErrTransportFailure when the service cannot be reached.
type SchedulerService interface {
	GetSchedule(ctx context.Context, id string) (*domain.Schedule, error)
	ListSchedules(ctx context.Context) ([]*domain.Schedule, error)
	PauseSchedule(ctx context.Context, id string) error
	ResumeSchedule(ctx context.Context, id string) error
	TriggerScheduleNow(ctx context.Context, id string) error

	// GetScheduleLogs returns at most limit executions; ordering is not
	// guaranteed, callers sort.
	GetScheduleLogs(ctx context.Context, id string, limit int) ([]domain.ExecutionLog, error)

	// CronToHuman renders a cron expression for display. It falls back to
	// the expression itself when it cannot be described.
	CronToHuman(expr string) string
}
