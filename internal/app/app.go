// Package app builds the dashboard's components from configuration. The
// server and the CLI share it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/config"
	"github.com/ErlanBelekov/agent-dashboard/internal/cache"
	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/health"
	"github.com/ErlanBelekov/agent-dashboard/internal/infrastructure/agentapi"
	"github.com/ErlanBelekov/agent-dashboard/internal/infrastructure/schedulerapi"
	"github.com/ErlanBelekov/agent-dashboard/internal/repository"
	"github.com/ErlanBelekov/agent-dashboard/internal/scheduler"
	"github.com/ErlanBelekov/agent-dashboard/internal/usecase"
)

const (
	dispatchInterval = 15 * time.Second
	reapInterval     = time.Hour
	logRetention     = 30 * 24 * time.Hour
	cacheTTL         = 24 * time.Hour
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Catalog  domain.Catalog
	Agents   *usecase.AgentUsecase
	Schedule *usecase.ScheduleController
	Sessions *usecase.SessionUsecase // nil without JWT_SECRET
	Store    *cache.Store
	Pingers  map[string]health.Pinger

	local *scheduler.Local
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	catalog, err := cfg.Agents()
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}

	store, err := cache.New(cfg.CacheMaxCostBytes, cacheTTL)
	if err != nil {
		return nil, err
	}

	if cfg.AgentServiceURL == "" {
		logger.Warn("AGENT_SERVICE_URL is not set, agent calls will fail")
	}
	agents := agentapi.NewClient(cfg.AgentServiceURL, cfg.AgentAPIKey, cfg.HTTPTimeout(), logger)

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Catalog: catalog,
		Agents:  usecase.NewAgentUsecase(agents, catalog, logger),
		Store:   store,
		Pingers: map[string]health.Pinger{"agents": agents},
	}

	var svc repository.SchedulerService
	if cfg.UseLocalScheduler() {
		deadline, err := catalog.Lookup(domain.AgentDeadlines)
		if err != nil {
			return nil, fmt.Errorf("local scheduler: %w", err)
		}
		a.local = scheduler.NewLocal(scheduler.NewExecutor(agents, deadline.ID, cfg.HTTPTimeout()), logger)
		if err := a.local.Add(cfg.ScheduleID, cfg.ScheduleCron, cfg.ScheduleTimezone, cfg.ScheduleMaxAttempts); err != nil {
			return nil, fmt.Errorf("local scheduler: %w", err)
		}
		svc = a.local
		a.Pingers["scheduler"] = a.local
		logger.Info("using in-process scheduler", "schedule_id", cfg.ScheduleID, "cron", cfg.ScheduleCron)
	} else {
		client := schedulerapi.NewClient(cfg.SchedulerServiceURL, cfg.SchedulerAPIKey, cfg.HTTPTimeout(), logger)
		svc = client
		a.Pingers["scheduler"] = client
	}

	a.Schedule = usecase.NewScheduleController(svc, usecase.ScheduleOptions{
		ScheduleID:   cfg.ScheduleID,
		HistoryLimit: cfg.HistoryLimit,
		PollAfter:    cfg.TriggerPollDelay(),
		PollInterval: cfg.TriggerPollInterval(),
	}, logger)

	if cfg.JWTSecret != "" {
		a.Sessions = usecase.NewSessionUsecase([]byte(cfg.JWTSecret))
	}
	return a, nil
}

// Start runs the in-process scheduler's dispatcher and reaper until ctx
// ends. It does nothing when a remote scheduler is configured.
func (a *App) Start(ctx context.Context) {
	if a.local == nil {
		return
	}
	go scheduler.NewDispatcher(a.local, a.Logger, dispatchInterval).Start(ctx)
	go scheduler.NewReaper(a.local, a.Logger, reapInterval, logRetention).Start(ctx)
}

// Local returns the in-process scheduler, or nil.
func (a *App) Local() *scheduler.Local {
	return a.local
}

func (a *App) Close() {
	if a.local != nil {
		a.local.Close()
	}
	a.Store.Close()
}
