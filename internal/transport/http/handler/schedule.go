package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/cache"
	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/reqctx"
	"github.com/ErlanBelekov/agent-dashboard/internal/usecase"
	"github.com/gin-gonic/gin"
)

type scheduleController interface {
	Refresh(ctx context.Context, prior usecase.ScheduleView) (usecase.ScheduleView, error)
	Pause(ctx context.Context, prior usecase.ScheduleView) (usecase.ScheduleView, error)
	Resume(ctx context.Context, prior usecase.ScheduleView) (usecase.ScheduleView, error)
	TriggerNow(ctx context.Context, prior usecase.ScheduleView) (usecase.TriggerReceipt, error)
	AwaitRun(ctx context.Context, receipt usecase.TriggerReceipt, prior usecase.ScheduleView) (usecase.ScheduleView, error)
	History(ctx context.Context, limit int) ([]domain.ExecutionLog, error)
}

type ScheduleHandler struct {
	ctl         scheduleController
	store       *cache.Store
	waitTimeout time.Duration
	logger      *slog.Logger
}

func NewScheduleHandler(ctl scheduleController, store *cache.Store, waitTimeout time.Duration, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		ctl:         ctl,
		store:       store,
		waitTimeout: waitTimeout,
		logger:      logger.With("component", "schedule_handler"),
	}
}

type triggerQuery struct {
	Wait bool `form:"wait"`
}

type historyQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type triggerResponse struct {
	TriggeredAt      time.Time            `json:"triggered_at"`
	PollAfterSeconds float64              `json:"poll_after_seconds"`
	Completed        bool                 `json:"completed"`
	Message          string               `json:"message"`
	Schedule         usecase.ScheduleView `json:"schedule"`
}

func (h *ScheduleHandler) Get(ctx *gin.Context) {
	h.apply(ctx, "refresh schedule", h.ctl.Refresh)
}

func (h *ScheduleHandler) Pause(ctx *gin.Context) {
	h.apply(ctx, "pause schedule", h.ctl.Pause)
}

func (h *ScheduleHandler) Resume(ctx *gin.Context) {
	h.apply(ctx, "resume schedule", h.ctl.Resume)
}

// Trigger starts a run now. With ?wait=true it also waits, up to the
// configured timeout, for the run to show up as finished in the history.
func (h *ScheduleHandler) Trigger(ctx *gin.Context) {
	var q triggerQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reqCtx := ctx.Request.Context()
	key := cache.ScheduleKey(reqctx.SessionID(reqCtx))
	prior, _ := cache.Load[usecase.ScheduleView](h.store, key)

	receipt, err := h.ctl.TriggerNow(reqCtx, prior)
	if err != nil {
		h.fail(ctx, "trigger schedule", err, prior)
		return
	}

	resp := triggerResponse{
		TriggeredAt:      receipt.TriggeredAt,
		PollAfterSeconds: receipt.PollAfter.Seconds(),
		Message:          domain.UserMessage(domain.ErrRunPending, ""),
		Schedule:         prior,
	}
	if !q.Wait {
		ctx.JSON(http.StatusAccepted, resp)
		return
	}

	waitCtx, cancel := context.WithTimeout(reqCtx, receipt.PollAfter+h.waitTimeout)
	defer cancel()

	view, err := h.ctl.AwaitRun(waitCtx, receipt, prior)
	resp.Schedule = view
	h.save(reqCtx, key, view)
	if errors.Is(err, domain.ErrRunPending) {
		ctx.JSON(http.StatusAccepted, resp)
		return
	}
	if err != nil {
		h.fail(ctx, "await run", err, view)
		return
	}

	resp.Completed = true
	resp.Message = "Run finished."
	ctx.JSON(http.StatusOK, resp)
}

func (h *ScheduleHandler) History(ctx *gin.Context) {
	q := historyQuery{Limit: 5}
	if err := ctx.ShouldBindQuery(&q); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logs, err := h.ctl.History(ctx.Request.Context(), q.Limit)
	if err != nil {
		h.logger.WarnContext(ctx.Request.Context(), "schedule history", "error", err)
		ctx.JSON(statusFor(err), gin.H{"error": domain.UserMessage(err, "schedule")})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"executions": logs})
}

// apply runs one controller operation against the session's cached view.
func (h *ScheduleHandler) apply(ctx *gin.Context, op string, fn func(context.Context, usecase.ScheduleView) (usecase.ScheduleView, error)) {
	reqCtx := ctx.Request.Context()
	key := cache.ScheduleKey(reqctx.SessionID(reqCtx))
	prior, _ := cache.Load[usecase.ScheduleView](h.store, key)

	view, err := fn(reqCtx, prior)
	if err != nil {
		h.fail(ctx, op, err, prior)
		return
	}

	h.save(reqCtx, key, view)
	ctx.JSON(http.StatusOK, gin.H{"schedule": view})
}

func (h *ScheduleHandler) fail(ctx *gin.Context, op string, err error, view usecase.ScheduleView) {
	h.logger.WarnContext(ctx.Request.Context(), op, "error", err)
	ctx.JSON(statusFor(err), gin.H{
		"error":    domain.UserMessage(err, "schedule"),
		"schedule": view,
	})
}

func (h *ScheduleHandler) save(ctx context.Context, key string, view usecase.ScheduleView) {
	if err := cache.Save(h.store, key, view); err != nil {
		h.logger.ErrorContext(ctx, "cache schedule view", "error", err)
	}
}
