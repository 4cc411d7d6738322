package handler

import (
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/agent-dashboard/internal/usecase"
	"github.com/gin-gonic/gin"
)

type sessionStarter interface {
	Start() (usecase.Session, error)
}

type SessionHandler struct {
	uc     sessionStarter
	logger *slog.Logger
}

func NewSessionHandler(uc sessionStarter, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{uc: uc, logger: logger.With("component", "session_handler")}
}

// Start opens a dashboard session and returns its bearer token.
func (h *SessionHandler) Start(ctx *gin.Context) {
	s, err := h.uc.Start()
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "start session", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	ctx.JSON(http.StatusCreated, s)
}
