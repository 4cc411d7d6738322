package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/normalize"
	"github.com/ErlanBelekov/agent-dashboard/internal/repository"
	"github.com/ErlanBelekov/agent-dashboard/internal/reqctx"
)

// Job is one attempt of a scheduled run.
type Job interface {
	Run(ctx context.Context) ExecutionResult
}

// Executor runs the deadline reminder agent. An attempt succeeds when the
// agent answers with a record the normalizer accepts.
type Executor struct {
	invoker repository.AgentInvoker
	agentID string
	timeout time.Duration
	now     func() time.Time
}

func NewExecutor(invoker repository.AgentInvoker, agentID string, timeout time.Duration) *Executor {
	return &Executor{
		invoker: invoker,
		agentID: agentID,
		timeout: timeout,
		now:     time.Now,
	}
}

type ExecutionResult struct {
	Err      error
	Duration time.Duration
}

func (e *Executor) Run(ctx context.Context) ExecutionResult {
	start := time.Now()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	ctx = reqctx.WithAgentID(ctx, e.agentID)

	res := e.invoker.Invoke(ctx, domain.DeadlinesInstruction(e.now()), e.agentID)
	if _, err := normalize.Normalize(res); err != nil {
		return ExecutionResult{Err: fmt.Errorf("reminder agent: %w", err), Duration: time.Since(start)}
	}
	return ExecutionResult{Duration: time.Since(start)}
}
