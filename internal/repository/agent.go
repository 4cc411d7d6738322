package repository

import (
	"context"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
)

// AgentInvoker sends one instruction to one agent. It never returns a Go
// error: transport and agent failures both come back as Success=false with
// Error set. No retries happen behind this interface.
type AgentInvoker interface {
	Invoke(ctx context.Context, instruction, agentID string) domain.AgentInvocationResult
}
