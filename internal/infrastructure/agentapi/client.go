// Package agentapi invokes pre-provisioned agents over the agent service's
// HTTP API.
package agentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
)

const maxBodyBytes = 4 << 20

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient builds a client for the agent service at baseURL. A zero timeout
// leaves deadlines to the caller's context.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("component", "agentapi"),
	}
}

type invokeRequest struct {
	Message string `json:"message"`
	AgentID string `json:"agent_id"`
}

// Invoke sends one instruction to one agent. Every failure is reported in
// the result; Invoke never retries.
func (c *Client) Invoke(ctx context.Context, instruction, agentID string) domain.AgentInvocationResult {
	start := time.Now()

	res, err := c.invoke(ctx, instruction, agentID)
	if err != nil {
		c.logger.WarnContext(ctx, "agent invocation failed",
			"agent_id", agentID,
			"duration", time.Since(start),
			"error", err,
		)
		return domain.AgentInvocationResult{Success: false, Error: err.Error()}
	}

	if !res.Success && res.Error == "" {
		res.Error = "agent invocation failed"
	}
	c.logger.DebugContext(ctx, "agent invoked",
		"agent_id", agentID,
		"success", res.Success,
		"duration", time.Since(start),
	)
	return res
}

func (c *Client) invoke(ctx context.Context, instruction, agentID string) (domain.AgentInvocationResult, error) {
	var res domain.AgentInvocationResult

	body, err := json.Marshal(invokeRequest{Message: instruction, AgentID: agentID})
	if err != nil {
		return res, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/agents/invoke", bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return res, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			return res, fmt.Errorf("agent service: status %d: %s", resp.StatusCode, envelope.Error)
		}
		return res, fmt.Errorf("agent service: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, &res); err != nil {
		return res, fmt.Errorf("decode response: %w", err)
	}
	return res, nil
}

// Ping checks that the agent service answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransportFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("agent service health: status %d", resp.StatusCode)
	}
	return nil
}
