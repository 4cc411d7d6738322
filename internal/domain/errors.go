package domain

import (
	"errors"
)

// Failure taxonomy surfaced to callers of the core.
var (
	ErrTransportFailure        = errors.New("collaborator unreachable")
	ErrAgentInvocationFailed   = errors.New("agent invocation failed")
	ErrUnparsableResponse      = errors.New("agent response could not be parsed")
	ErrScheduleOperationFailed = errors.New("schedule operation failed")
)

var (
	ErrUnknownAgent = errors.New("unknown agent")
	ErrInvalidLimit = errors.New("limit must be positive")
	ErrRunPending   = errors.New("triggered run has not completed yet")
	ErrTokenInvalid = errors.New("invalid or expired token")
)

// UserMessage turns an error returned by the core into a short message fit
// for display. subject names what was requested, e.g. "study plan".
func UserMessage(err error, subject string) string {
	if subject == "" {
		subject = "agent"
	}

	var agentErr *AgentError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &agentErr) && agentErr.Message != "":
		return agentErr.Message
	case errors.Is(err, ErrAgentInvocationFailed):
		return "Failed to get " + subject + "."
	case errors.Is(err, ErrUnparsableResponse):
		return "Could not parse " + subject + " response."
	case errors.Is(err, ErrScheduleNotFound):
		return "Schedule not found."
	case errors.Is(err, ErrRunPending):
		return "Trigger sent! The reminder agent will run shortly."
	case errors.Is(err, ErrScheduleOperationFailed):
		return "Schedule operation was rejected."
	case errors.Is(err, ErrTransportFailure):
		return "Network error occurred. Please try again."
	case errors.Is(err, ErrInvalidLimit):
		return "Limit must be a positive number."
	case errors.Is(err, ErrUnknownAgent):
		return "Unknown agent."
	default:
		return "Something went wrong."
	}
}

// AgentError carries the message an agent reported alongside its failure.
type AgentError struct {
	Message string
}

func (e *AgentError) Error() string {
	if e.Message == "" {
		return ErrAgentInvocationFailed.Error()
	}
	return ErrAgentInvocationFailed.Error() + ": " + e.Message
}

func (e *AgentError) Unwrap() error { return ErrAgentInvocationFailed }
