// Package reqctx carries per-request identifiers through context.Context so
// logs and outbound calls can be correlated.
package reqctx

import (
	"context"

	"github.com/google/uuid"
)

type (
	requestIDKey struct{}
	sessionIDKey struct{}
	agentIDKey   struct{}
)

// NewID generates a random UUID v4.
func NewID() string {
	return uuid.NewString()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns "" if absent.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithSessionID attaches the dashboard session the request belongs to.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// WithAgentID marks ctx as running on behalf of the given agent.
func WithAgentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, agentIDKey{}, id)
}

func AgentID(ctx context.Context) string {
	id, _ := ctx.Value(agentIDKey{}).(string)
	return id
}
