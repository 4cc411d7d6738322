package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/agent-dashboard/internal/cache"
	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/reqctx"
	"github.com/ErlanBelekov/agent-dashboard/internal/usecase"
	"github.com/gin-gonic/gin"
)

type agentRunner interface {
	Agents() []domain.Agent
	StudyPlan(ctx context.Context, in usecase.StudyPlanInput, prior domain.StudyPlan) (domain.StudyPlan, error)
	RepositoryStatus(ctx context.Context, repo string, prior domain.RepositoryStatus) (domain.RepositoryStatus, error)
	Deadlines(ctx context.Context, prior domain.DeadlineSet) (domain.DeadlineSet, error)
	Resources(ctx context.Context, subjects, gaps string, prior domain.ResourceSet) (domain.ResourceSet, error)
}

type AgentHandler struct {
	uc     agentRunner
	store  *cache.Store
	logger *slog.Logger
}

func NewAgentHandler(uc agentRunner, store *cache.Store, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{uc: uc, store: store, logger: logger.With("component", "agent_handler")}
}

type courseRequest struct {
	Name        string `json:"name"        binding:"required,max=200"`
	ExamDate    string `json:"exam_date"   binding:"omitempty,max=40"`
	Difficulty  int    `json:"difficulty"  binding:"omitempty,min=1,max=5"`
	Performance string `json:"performance" binding:"omitempty,max=40"`
}

type studyPlanRequest struct {
	Courses            []courseRequest `json:"courses"             binding:"required,min=1,max=20,dive"`
	ProjectCommitments string          `json:"project_commitments" binding:"max=2000"`
	AvailableHours     string          `json:"available_hours"     binding:"max=10"`
}

type repositoryRequest struct {
	Repository string `json:"repository" binding:"required,max=200"`
}

type resourcesRequest struct {
	Subjects string `json:"subjects" binding:"required,max=1000"`
	Gaps     string `json:"gaps"     binding:"max=1000"`
}

func (h *AgentHandler) List(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"agents": h.uc.Agents()})
}

func (h *AgentHandler) StudyPlan(ctx *gin.Context) {
	var req studyPlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := usecase.StudyPlanInput{
		ProjectCommitments: req.ProjectCommitments,
		AvailableHours:     req.AvailableHours,
	}
	for _, c := range req.Courses {
		in.Courses = append(in.Courses, domain.Course(c))
	}

	serveRecord(h, ctx, domain.AgentStudyPlan, "study plan", func(c context.Context, prior domain.StudyPlan) (domain.StudyPlan, error) {
		return h.uc.StudyPlan(c, in, prior)
	})
}

func (h *AgentHandler) Repository(ctx *gin.Context) {
	var req repositoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	serveRecord(h, ctx, domain.AgentRepository, "GitHub", func(c context.Context, prior domain.RepositoryStatus) (domain.RepositoryStatus, error) {
		return h.uc.RepositoryStatus(c, req.Repository, prior)
	})
}

func (h *AgentHandler) Deadlines(ctx *gin.Context) {
	serveRecord(h, ctx, domain.AgentDeadlines, "deadline", func(c context.Context, prior domain.DeadlineSet) (domain.DeadlineSet, error) {
		return h.uc.Deadlines(c, prior)
	})
}

func (h *AgentHandler) Resources(ctx *gin.Context) {
	var req resourcesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	serveRecord(h, ctx, domain.AgentResources, "resource", func(c context.Context, prior domain.ResourceSet) (domain.ResourceSet, error) {
		return h.uc.Resources(c, req.Subjects, req.Gaps, prior)
	})
}

// Record returns the last good record the session received from an agent.
func (h *AgentHandler) Record(ctx *gin.Context) {
	kind := domain.AgentKind(ctx.Param("kind"))
	known := false
	for _, k := range domain.AgentKinds {
		known = known || k == kind
	}
	if !known {
		ctx.JSON(http.StatusNotFound, gin.H{"error": errUnknownAgent})
		return
	}

	session := reqctx.SessionID(ctx.Request.Context())
	rec, ok := cache.Load[json.RawMessage](h.store, cache.RecordKey(session, kind))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": errNoRecord})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"record": rec})
}

// serveRecord runs one agent pipeline against the session's last good
// record. On failure the previous record is sent back with the error.
func serveRecord[T any](h *AgentHandler, ctx *gin.Context, kind domain.AgentKind, subject string, run func(context.Context, T) (T, error)) {
	reqCtx := ctx.Request.Context()
	key := cache.RecordKey(reqctx.SessionID(reqCtx), kind)

	prior, hasPrior := cache.Load[T](h.store, key)

	rec, err := run(reqCtx, prior)
	if err != nil {
		h.logger.WarnContext(reqCtx, "agent request failed", "agent", kind, "error", err)
		body := gin.H{"error": domain.UserMessage(err, subject), "record": nil}
		if hasPrior {
			body["record"] = prior
		}
		ctx.JSON(statusFor(err), body)
		return
	}

	if err := cache.Save(h.store, key, rec); err != nil {
		h.logger.ErrorContext(reqCtx, "cache record", "agent", kind, "error", err)
	}
	ctx.JSON(http.StatusOK, gin.H{"record": rec})
}
