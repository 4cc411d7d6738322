package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV"       envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT"      envDefault:"8080"  validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"  validate:"oneof=debug info warn error"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	AgentServiceURL     string `env:"AGENT_SERVICE_URL"     validate:"omitempty,url"`
	AgentAPIKey         string `env:"AGENT_API_KEY"`
	SchedulerServiceURL string `env:"SCHEDULER_SERVICE_URL" validate:"omitempty,url"`
	SchedulerAPIKey     string `env:"SCHEDULER_API_KEY"`
	HTTPTimeoutSec      int    `env:"HTTP_TIMEOUT_SEC"      envDefault:"0" validate:"min=0,max=600"`
	LocalScheduler      bool   `env:"LOCAL_SCHEDULER"       envDefault:"false"`

	ScheduleID          string `env:"SCHEDULE_ID"           envDefault:"699961b7399dfadeac37e2b2" validate:"required"`
	ScheduleCron        string `env:"SCHEDULE_CRON"         envDefault:"0 8 * * *"                validate:"required"`
	ScheduleTimezone    string `env:"SCHEDULE_TIMEZONE"     envDefault:"America/New_York"         validate:"required"`
	ScheduleMaxAttempts int    `env:"SCHEDULE_MAX_ATTEMPTS" envDefault:"3"                        validate:"min=1,max=10"`

	StudyPlanAgentID  string `env:"STUDY_PLAN_AGENT_ID" envDefault:"6999619fc066ed107671ac69"`
	RepositoryAgentID string `env:"REPOSITORY_AGENT_ID" envDefault:"699961ca72a2e3b0eaab977e"`
	DeadlineAgentID   string `env:"DEADLINE_AGENT_ID"   envDefault:"699961a0730bbd74d53e8a0b"`
	ResourceAgentID   string `env:"RESOURCE_AGENT_ID"   envDefault:"699961a0a63b170a3b8170f5"`
	AgentsFile        string `env:"AGENTS_FILE"`

	HistoryLimit           int `env:"HISTORY_LIMIT"             envDefault:"5"  validate:"min=1,max=100"`
	TriggerPollDelaySec    int `env:"TRIGGER_POLL_DELAY_SEC"    envDefault:"5"  validate:"min=0,max=300"`
	TriggerPollIntervalSec int `env:"TRIGGER_POLL_INTERVAL_SEC" envDefault:"2"  validate:"min=1,max=60"`
	TriggerWaitTimeoutSec  int `env:"TRIGGER_WAIT_TIMEOUT_SEC"  envDefault:"60" validate:"min=1,max=3600"`

	JWTSecret         string `env:"JWT_SECRET"           validate:"omitempty,min=32"`
	CacheMaxCostBytes int64  `env:"CACHE_MAX_COST_BYTES" envDefault:"16777216" validate:"min=1024"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Env != "local" && c.AgentServiceURL == "" {
		return errors.New("AGENT_SERVICE_URL is required outside local")
	}
	if !c.LocalScheduler && c.Env != "local" && c.SchedulerServiceURL == "" {
		return errors.New("SCHEDULER_SERVICE_URL is required unless LOCAL_SCHEDULER is set")
	}
	if _, err := time.LoadLocation(c.ScheduleTimezone); err != nil {
		return fmt.Errorf("SCHEDULE_TIMEZONE: %w", err)
	}
	return nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// UseLocalScheduler reports whether the in-process scheduler stands in for
// the scheduler service.
func (c *Config) UseLocalScheduler() bool {
	return c.LocalScheduler || c.SchedulerServiceURL == ""
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

func (c *Config) TriggerPollDelay() time.Duration {
	return time.Duration(c.TriggerPollDelaySec) * time.Second
}

func (c *Config) TriggerPollInterval() time.Duration {
	return time.Duration(c.TriggerPollIntervalSec) * time.Second
}

func (c *Config) TriggerWaitTimeout() time.Duration {
	return time.Duration(c.TriggerWaitTimeoutSec) * time.Second
}
