package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher starts runs of active schedules whose next run is due.
type Dispatcher struct {
	local    *Local
	logger   *slog.Logger
	interval time.Duration
}

func NewDispatcher(local *Local, logger *slog.Logger, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		local:    local,
		logger:   logger.With("component", "dispatcher"),
		interval: interval,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("dispatcher started", "interval", d.interval)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher shut down")
			return
		case <-ticker.C:
			d.dispatch()
		}
	}
}

func (d *Dispatcher) dispatch() {
	if fired := d.local.FireDue(); fired > 0 {
		d.logger.Info("dispatcher fired runs", "count", fired)
	}
}
