package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ErlanBelekov/agent-dashboard/internal/cache"
	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeInvoker replays queued results in order; the last one repeats.
type fakeInvoker struct {
	mu      sync.Mutex
	results []domain.AgentInvocationResult
	calls   []string
}

func (f *fakeInvoker) Invoke(_ context.Context, instruction, _ string) domain.AgentInvocationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, instruction)
	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return res
}

func raw(s string) *string { return &s }

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.New(1<<20, 0)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Session())
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "test-session")
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return v
}
