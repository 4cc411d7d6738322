package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/agent-dashboard/internal/transport/http/handler"
	"github.com/ErlanBelekov/agent-dashboard/internal/transport/http/middleware"
	"github.com/ErlanBelekov/agent-dashboard/internal/usecase"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
)

// NewRouter wires the dashboard API. When sessions is nil the API is open
// and requests are scoped by the X-Session-ID header instead of a token.
func NewRouter(
	logger *slog.Logger,
	agentHandler *handler.AgentHandler,
	scheduleHandler *handler.ScheduleHandler,
	sessions *usecase.SessionUsecase,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	sessionMW := middleware.Session()
	if sessions != nil {
		sessionHandler := handler.NewSessionHandler(sessions, logger)
		r.POST("/sessions", sessionHandler.Start)
		sessionMW = middleware.Auth(sessions)
	}

	agents := r.Group("/agents", sessionMW)
	agents.GET("", agentHandler.List)
	agents.POST("/study-plan", agentHandler.StudyPlan)
	agents.POST("/repository", agentHandler.Repository)
	agents.POST("/deadlines", agentHandler.Deadlines)
	agents.POST("/resources", agentHandler.Resources)

	r.GET("/records/:kind", sessionMW, agentHandler.Record)

	schedule := r.Group("/schedule", sessionMW)
	schedule.GET("", scheduleHandler.Get)
	schedule.POST("/pause", scheduleHandler.Pause)
	schedule.POST("/resume", scheduleHandler.Resume)
	schedule.POST("/trigger", scheduleHandler.Trigger)
	schedule.GET("/history", scheduleHandler.History)

	return r
}
