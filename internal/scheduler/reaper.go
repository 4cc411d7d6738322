package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Reaper drops execution logs older than the retention window.
type Reaper struct {
	local     *Local
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
}

func NewReaper(local *Local, logger *slog.Logger, interval, retention time.Duration) *Reaper {
	return &Reaper{
		local:     local,
		logger:    logger.With("component", "reaper"),
		interval:  interval,
		retention: retention,
	}
}

func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reaper started", "interval", r.interval, "retention", r.retention)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper shut down")
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

func (r *Reaper) reap() {
	if pruned := r.local.Prune(r.local.now().Add(-r.retention)); pruned > 0 {
		r.logger.Info("pruned execution logs", "count", pruned)
	}
}
