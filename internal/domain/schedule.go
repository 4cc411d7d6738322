package domain

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrInvalidCronExpr       = errors.New("invalid cron expression")
	ErrScheduleAlreadyPaused = errors.New("schedule is already paused")
	ErrScheduleNotPaused     = errors.New("schedule is not paused")
)

type ScheduleState string

const (
	StateActive ScheduleState = "active"
	StatePaused ScheduleState = "paused"
)

// Schedule is a read-through view of the recurring reminder job. The
// scheduler service owns it; nothing here is authoritative.
type Schedule struct {
	ID             string     `json:"id"`
	CronExpression string     `json:"cron_expression"`
	Timezone       string     `json:"timezone"`
	IsActive       bool       `json:"is_active"`
	NextRunTime    *time.Time `json:"next_run_time"` // nil while paused
	LastRunAt      *time.Time `json:"last_run_at"`
	LastRunSuccess *bool      `json:"last_run_success"` // nil until a run has completed
}

func (s *Schedule) State() ScheduleState {
	if s.IsActive {
		return StateActive
	}
	return StatePaused
}

// Normalize enforces NextRunTime != nil iff IsActive. An active schedule the
// service reported without a next run gets one computed from its cron
// expression; if that fails it is left nil.
func (s *Schedule) Normalize(now time.Time) {
	if !s.IsActive {
		s.NextRunTime = nil
		return
	}
	if s.NextRunTime != nil {
		return
	}
	next, err := NextRun(s.CronExpression, s.Timezone, now)
	if err != nil {
		return
	}
	s.NextRunTime = &next
}

// NextRun returns the first activation of expr strictly after now,
// evaluated in the IANA zone tz (UTC when empty).
func NextRun(expr, tz string, now time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, ErrInvalidCronExpr
	}
	loc := time.UTC
	if tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return time.Time{}, err
		}
	}
	return sched.Next(now.In(loc)), nil
}

// ExecutionLog is one attempt of one run of the schedule.
type ExecutionLog struct {
	ExecutedAt  time.Time `json:"executed_at"`
	Success     bool      `json:"success"`
	Attempt     int       `json:"attempt"`
	MaxAttempts int       `json:"max_attempts"`
	Error       *string   `json:"error,omitempty"` // set only when Success is false
}

// Terminal reports whether no further attempt follows this one.
func (l ExecutionLog) Terminal() bool {
	return l.Success || l.Attempt >= l.MaxAttempts
}
