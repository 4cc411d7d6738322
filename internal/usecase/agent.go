package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/mapper"
	"github.com/ErlanBelekov/agent-dashboard/internal/metrics"
	"github.com/ErlanBelekov/agent-dashboard/internal/normalize"
	"github.com/ErlanBelekov/agent-dashboard/internal/repository"
	"github.com/ErlanBelekov/agent-dashboard/internal/reqctx"
)

// AgentUsecase runs the invoke, normalize and map pipeline for each agent.
// Every typed operation takes the record currently shown and returns it
// unchanged alongside any error.
type AgentUsecase struct {
	invoker repository.AgentInvoker
	catalog domain.Catalog
	logger  *slog.Logger
	now     func() time.Time
}

func NewAgentUsecase(invoker repository.AgentInvoker, catalog domain.Catalog, logger *slog.Logger) *AgentUsecase {
	return &AgentUsecase{
		invoker: invoker,
		catalog: catalog,
		logger:  logger.With("component", "agents"),
		now:     time.Now,
	}
}

func (u *AgentUsecase) Agents() []domain.Agent {
	return u.catalog.List()
}

// Invoke sends instruction to the agent of the given kind and returns the
// normalized record.
func (u *AgentUsecase) Invoke(ctx context.Context, kind domain.AgentKind, instruction string) (domain.Record, error) {
	agent, err := u.catalog.Lookup(kind)
	if err != nil {
		return nil, fmt.Errorf("lookup agent %q: %w", kind, err)
	}

	ctx = reqctx.WithAgentID(ctx, agent.ID)
	label := string(kind)

	inFlight := metrics.AgentsInFlight.WithLabelValues(label)
	inFlight.Inc()
	start := time.Now()
	res := u.invoker.Invoke(ctx, instruction, agent.ID)
	elapsed := time.Since(start)
	inFlight.Dec()

	metrics.AgentInvocationDuration.WithLabelValues(label).Observe(elapsed.Seconds())

	rec, channel, err := normalize.Classify(res)
	metrics.AgentInvocationsTotal.WithLabelValues(label, metrics.Outcome(err)).Inc()
	metrics.NormalizationsTotal.WithLabelValues(string(channel), metrics.Outcome(err)).Inc()

	if err != nil {
		u.logger.WarnContext(ctx, "agent reply rejected",
			"agent", label,
			"duration", elapsed,
			"error", err,
		)
		return nil, fmt.Errorf("invoke %s agent: %w", kind, err)
	}

	u.logger.InfoContext(ctx, "agent reply accepted",
		"agent", label,
		"channel", channel,
		"duration", elapsed,
	)
	return rec, nil
}

type StudyPlanInput struct {
	Courses            []domain.Course
	ProjectCommitments string
	AvailableHours     string
}

func (u *AgentUsecase) StudyPlan(ctx context.Context, in StudyPlanInput, prior domain.StudyPlan) (domain.StudyPlan, error) {
	return pipeline(ctx, u, domain.AgentStudyPlan,
		domain.StudyPlanInstruction(in.Courses, in.ProjectCommitments, in.AvailableHours),
		prior, mapper.ToStudyPlan)
}

func (u *AgentUsecase) RepositoryStatus(ctx context.Context, repo string, prior domain.RepositoryStatus) (domain.RepositoryStatus, error) {
	return pipeline(ctx, u, domain.AgentRepository,
		domain.RepositoryInstruction(repo),
		prior, mapper.ToRepositoryStatus)
}

func (u *AgentUsecase) Deadlines(ctx context.Context, prior domain.DeadlineSet) (domain.DeadlineSet, error) {
	return pipeline(ctx, u, domain.AgentDeadlines,
		domain.DeadlinesInstruction(u.now()),
		prior, mapper.ToDeadlineSet)
}

func (u *AgentUsecase) Resources(ctx context.Context, subjects, gaps string, prior domain.ResourceSet) (domain.ResourceSet, error) {
	return pipeline(ctx, u, domain.AgentResources,
		domain.ResourcesInstruction(subjects, gaps),
		prior, mapper.ToResourceSet)
}

func pipeline[T any](ctx context.Context, u *AgentUsecase, kind domain.AgentKind, instruction string, prior T, toTyped func(domain.Record) T) (T, error) {
	rec, err := u.Invoke(ctx, kind, instruction)
	if err != nil {
		return prior, err
	}
	return toTyped(rec), nil
}
