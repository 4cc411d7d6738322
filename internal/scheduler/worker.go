package scheduler

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/metrics"
)

// run executes up to maxAttempts attempts of the schedule's job, recording
// one execution log per attempt. It stops at the first success.
func (l *Local) run(ctx context.Context, id string, maxAttempts int) {
	defer l.wg.Done()
	defer l.finish(id)

	logger := l.logger.With("schedule_id", id)
	startedAt := l.now()
	logger.Info("run started", "max_attempts", maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		executedAt := l.now()
		result := l.job.Run(ctx)

		entry := domain.ExecutionLog{
			ExecutedAt:  executedAt,
			Success:     result.Err == nil,
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
		}
		if result.Err != nil {
			msg := result.Err.Error()
			entry.Error = &msg
		}
		l.record(id, entry)
		metrics.LocalRunAttemptsTotal.WithLabelValues(metrics.Outcome(result.Err)).Inc()

		if result.Err == nil {
			l.complete(id, startedAt, true)
			logger.Info("run succeeded", "attempt", attempt, "duration", result.Duration)
			return
		}

		if attempt == maxAttempts {
			l.complete(id, startedAt, false)
			logger.Warn("run permanently failed", "attempts", attempt, "error", result.Err)
			return
		}

		delay := l.backoff(attempt)
		logger.Warn("attempt failed, will retry",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", result.Err,
			"retry_in", delay,
		)

		select {
		case <-ctx.Done():
			logger.Info("run abandoned on shutdown", "attempt", attempt)
			return
		case <-time.After(delay):
		}
	}
}

// retryDelay is exponential from 30s with +/-25% jitter, capped at an hour.
func retryDelay(attempt int) time.Duration {
	base := 30 * time.Second
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	delay = min(delay, time.Hour)
	jitter := time.Duration(rand.Int63n(int64(delay/2))) - delay/4
	return delay + jitter
}
