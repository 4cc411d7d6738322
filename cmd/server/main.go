package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/config"
	"github.com/ErlanBelekov/agent-dashboard/internal/app"
	"github.com/ErlanBelekov/agent-dashboard/internal/health"
	ctxlog "github.com/ErlanBelekov/agent-dashboard/internal/log"
	"github.com/ErlanBelekov/agent-dashboard/internal/metrics"
	httptransport "github.com/ErlanBelekov/agent-dashboard/internal/transport/http"
	"github.com/ErlanBelekov/agent-dashboard/internal/transport/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a, err := app.New(cfg, logger)
	if err != nil {
		stop()
		log.Fatalf("app: %v", err)
	}
	defer a.Close()

	a.Start(ctx)

	agentHandler := handler.NewAgentHandler(a.Agents, a.Store, logger)
	scheduleHandler := handler.NewScheduleHandler(a.Schedule, a.Store, cfg.TriggerWaitTimeout(), logger)

	metrics.Register()
	checker := health.NewChecker(a.Pingers, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, agentHandler, scheduleHandler, a.Sessions),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "sessions", a.Sessions != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}
