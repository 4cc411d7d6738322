package handler

import (
	"errors"
	"net/http"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
)

const (
	errInternalServer = "Internal server error"
	errNoRecord       = "No result yet for this agent"
	errUnknownAgent   = "Unknown agent"
)

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidLimit):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownAgent), errors.Is(err, domain.ErrScheduleNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRunPending):
		return http.StatusAccepted
	case errors.Is(err, domain.ErrTransportFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrScheduleOperationFailed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAgentInvocationFailed), errors.Is(err, domain.ErrUnparsableResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
