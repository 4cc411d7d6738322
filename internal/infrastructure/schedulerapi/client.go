// Package schedulerapi talks to the external scheduler service that owns
// the reminder schedule and its execution history.
package schedulerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/crondesc"
	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
)

const maxBodyBytes = 1 << 20

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("component", "schedulerapi"),
	}
}

type scheduleDTO struct {
	ID             string     `json:"id"`
	CronExpression string     `json:"cron_expression"`
	Timezone       string     `json:"timezone"`
	IsActive       bool       `json:"is_active"`
	NextRunTime    *time.Time `json:"next_run_time"`
	LastRunAt      *time.Time `json:"last_run_at"`
	LastRunSuccess *bool      `json:"last_run_success"`
}

func (d scheduleDTO) toDomain() *domain.Schedule {
	return &domain.Schedule{
		ID:             d.ID,
		CronExpression: d.CronExpression,
		Timezone:       d.Timezone,
		IsActive:       d.IsActive,
		NextRunTime:    d.NextRunTime,
		LastRunAt:      d.LastRunAt,
		LastRunSuccess: d.LastRunSuccess,
	}
}

type executionDTO struct {
	ExecutedAt  time.Time `json:"executed_at"`
	Success     bool      `json:"success"`
	Attempt     *int      `json:"attempt"`
	MaxAttempts *int      `json:"max_attempts"`
	Error       *string   `json:"error"`
}

func (d executionDTO) toDomain() domain.ExecutionLog {
	l := domain.ExecutionLog{
		ExecutedAt:  d.ExecutedAt,
		Success:     d.Success,
		Attempt:     1,
		MaxAttempts: 1,
	}
	if d.Attempt != nil && *d.Attempt > 0 {
		l.Attempt = *d.Attempt
	}
	if d.MaxAttempts != nil && *d.MaxAttempts > 0 {
		l.MaxAttempts = *d.MaxAttempts
	}
	if l.MaxAttempts < l.Attempt {
		l.MaxAttempts = l.Attempt
	}
	if !d.Success && d.Error != nil {
		l.Error = d.Error
	}
	return l
}

type envelope struct {
	Success    *bool           `json:"success"`
	Error      string          `json:"error"`
	Schedule   *scheduleDTO    `json:"schedule"`
	Schedules  []scheduleDTO   `json:"schedules"`
	Executions []executionDTO  `json:"executions"`
	Raw        json.RawMessage `json:"-"`
}

func (c *Client) GetSchedule(ctx context.Context, id string) (*domain.Schedule, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/schedules/"+url.PathEscape(id), &env); err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if env.Schedule != nil {
		return env.Schedule.toDomain(), nil
	}

	// some deployments return the bare schedule object
	var dto scheduleDTO
	if err := json.Unmarshal(env.Raw, &dto); err != nil || dto.ID == "" {
		return nil, fmt.Errorf("get schedule: %w", domain.ErrScheduleNotFound)
	}
	return dto.toDomain(), nil
}

func (c *Client) ListSchedules(ctx context.Context) ([]*domain.Schedule, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/schedules", &env); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	out := make([]*domain.Schedule, 0, len(env.Schedules))
	for _, s := range env.Schedules {
		out = append(out, s.toDomain())
	}
	return out, nil
}

func (c *Client) PauseSchedule(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/schedules/"+url.PathEscape(id)+"/pause", nil); err != nil {
		return fmt.Errorf("pause schedule: %w", err)
	}
	return nil
}

func (c *Client) ResumeSchedule(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/schedules/"+url.PathEscape(id)+"/resume", nil); err != nil {
		return fmt.Errorf("resume schedule: %w", err)
	}
	return nil
}

func (c *Client) TriggerScheduleNow(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/schedules/"+url.PathEscape(id)+"/trigger", nil); err != nil {
		return fmt.Errorf("trigger schedule: %w", err)
	}
	return nil
}

func (c *Client) GetScheduleLogs(ctx context.Context, id string, limit int) ([]domain.ExecutionLog, error) {
	path := "/schedules/" + url.PathEscape(id) + "/logs?limit=" + strconv.Itoa(limit)

	var env envelope
	if err := c.do(ctx, http.MethodGet, path, &env); err != nil {
		return nil, fmt.Errorf("get schedule logs: %w", err)
	}
	out := make([]domain.ExecutionLog, 0, len(env.Executions))
	for _, e := range env.Executions {
		out = append(out, e.toDomain())
	}
	return out, nil
}

func (c *Client) CronToHuman(expr string) string {
	return crondesc.Describe(expr)
}

// Ping checks that the scheduler service answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListSchedules(ctx)
	return err
}

// do sends one request and decodes the {success, error} envelope into out
// (when non-nil). Unreachable service, 5xx and undecodable bodies wrap
// ErrTransportFailure; rejections wrap ErrScheduleOperationFailed or a
// more specific schedule sentinel.
func (c *Client) do(ctx context.Context, method, path string, out *envelope) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransportFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrTransportFailure, err)
	}

	c.logger.DebugContext(ctx, "scheduler call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	env.Raw = raw

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, env.Error)
	}
	if decodeErr != nil && len(strings.TrimSpace(string(raw))) > 0 {
		return fmt.Errorf("%w: decode response: %w", domain.ErrTransportFailure, decodeErr)
	}
	if env.Success != nil && !*env.Success {
		return rejection(env.Error)
	}
	if out != nil {
		*out = env
	}
	return nil
}

func statusError(status int, msg string) error {
	switch {
	case status == http.StatusNotFound:
		return domain.ErrScheduleNotFound
	case status >= 500:
		if msg == "" {
			msg = http.StatusText(status)
		}
		return fmt.Errorf("%w: status %d: %s", domain.ErrTransportFailure, status, msg)
	default:
		return rejection(msg)
	}
}

func rejection(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "not paused"):
		return domain.ErrScheduleNotPaused
	case strings.Contains(lower, "already paused"):
		return domain.ErrScheduleAlreadyPaused
	case strings.Contains(lower, "not found"):
		return domain.ErrScheduleNotFound
	case msg == "":
		return domain.ErrScheduleOperationFailed
	default:
		return fmt.Errorf("%w: %s", domain.ErrScheduleOperationFailed, msg)
	}
}
