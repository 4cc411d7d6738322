package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/repository"
)

// ExecutionLogStore reads the execution history of one schedule.
type ExecutionLogStore struct {
	svc        repository.SchedulerService
	scheduleID string
}

func NewExecutionLogStore(svc repository.SchedulerService, scheduleID string) *ExecutionLogStore {
	return &ExecutionLogStore{svc: svc, scheduleID: scheduleID}
}

// Recent returns at most limit executions, most recent first, whatever
// order the service used.
func (s *ExecutionLogStore) Recent(ctx context.Context, limit int) ([]domain.ExecutionLog, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidLimit
	}

	logs, err := s.svc.GetScheduleLogs(ctx, s.scheduleID, limit)
	if err != nil {
		return nil, fmt.Errorf("get schedule logs: %w", serviceError(err))
	}

	out := make([]domain.ExecutionLog, len(logs))
	copy(out, logs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExecutedAt.After(out[j].ExecutedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
