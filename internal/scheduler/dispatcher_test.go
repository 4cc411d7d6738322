package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_FiresDueSchedule(t *testing.T) {
	clk := &clock{t: start}
	l := newLocal(t, failTimes(0), clk)
	clk.Set(time.Date(2026, 2, 21, 13, 0, 1, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.NewDispatcher(l, discard, 5*time.Millisecond).Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		logs, _ := l.GetScheduleLogs(context.Background(), "s1", 5)
		return len(logs) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	l.Wait()

	s, err := l.GetSchedule(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, s.LastRunSuccess)
	assert.True(t, *s.LastRunSuccess)
}

func TestReaper_PrunesOldLogs(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: start}
	l := newLocal(t, failTimes(0), clk)

	require.NoError(t, l.TriggerScheduleNow(ctx, "s1"))
	l.Wait()
	clk.Set(start.Add(48 * time.Hour))

	reapCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go scheduler.NewReaper(l, discard, 5*time.Millisecond, 24*time.Hour).Start(reapCtx)

	require.Eventually(t, func() bool {
		logs, _ := l.GetScheduleLogs(ctx, "s1", 5)
		return len(logs) == 0
	}, time.Second, 5*time.Millisecond)
}
