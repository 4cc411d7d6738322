package middleware

import (
	"github.com/ErlanBelekov/agent-dashboard/internal/reqctx"
	"github.com/gin-gonic/gin"
)

const anonymousSession = "anonymous"

// RequestID injects a request ID into the context and response header.
// If the incoming request already carries X-Request-ID, it is preserved;
// otherwise a new UUID v4 is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = reqctx.NewID()
		}

		ctx := reqctx.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Session scopes unauthenticated requests by the X-Session-ID header.
// Requests without one share the anonymous session.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Session-ID")
		if id == "" || len(id) > 128 {
			id = anonymousSession
		}
		setSession(c, id)
		c.Next()
	}
}

func setSession(c *gin.Context, id string) {
	c.Set("sessionID", id)
	c.Request = c.Request.WithContext(reqctx.WithSessionID(c.Request.Context(), id))
}
