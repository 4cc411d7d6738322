package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/ErlanBelekov/agent-dashboard/internal/reqctx"
	"github.com/ErlanBelekov/agent-dashboard/internal/usecase"
)

type fakeInvoker struct {
	invoke func(ctx context.Context, instruction, agentID string) domain.AgentInvocationResult
}

func (f *fakeInvoker) Invoke(ctx context.Context, instruction, agentID string) domain.AgentInvocationResult {
	return f.invoke(ctx, instruction, agentID)
}

var catalog = domain.Catalog{
	domain.AgentStudyPlan:  {Kind: domain.AgentStudyPlan, ID: "study-1", Name: "Study Plan Agent"},
	domain.AgentRepository: {Kind: domain.AgentRepository, ID: "github-1", Name: "GitHub Monitor Agent"},
	domain.AgentDeadlines:  {Kind: domain.AgentDeadlines, ID: "deadline-1", Name: "Deadline Reminder Agent"},
	domain.AgentResources:  {Kind: domain.AgentResources, ID: "resource-1", Name: "Resource Recommender Agent"},
}

func returning(res domain.AgentInvocationResult) *fakeInvoker {
	return &fakeInvoker{invoke: func(context.Context, string, string) domain.AgentInvocationResult { return res }}
}

func TestStudyPlan_FencedRawResponse(t *testing.T) {
	raw := "Here is your plan:\n```json\n{\"summary\":\"ok\",\"weekly_plan\":[]}\n```"
	inv := &fakeInvoker{invoke: func(ctx context.Context, instruction, agentID string) domain.AgentInvocationResult {
		if agentID != "study-1" {
			t.Errorf("unexpected agent %q", agentID)
		}
		if reqctx.AgentID(ctx) != "study-1" {
			t.Error("agent id missing from context")
		}
		if !strings.HasPrefix(instruction, "Generate a weekly study plan for these courses: Linear Algebra") {
			t.Errorf("unexpected instruction %q", instruction)
		}
		return domain.AgentInvocationResult{Success: true, RawResponse: &raw}
	}}
	u := usecase.NewAgentUsecase(inv, catalog, discard)

	plan, err := u.StudyPlan(context.Background(), usecase.StudyPlanInput{
		Courses: []domain.Course{{Name: "Linear Algebra", Difficulty: 4}},
	}, domain.StudyPlan{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Summary != "ok" || plan.WeeklyPlan == nil || len(plan.WeeklyPlan) != 0 || plan.TotalStudyHours != 0 {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestStudyPlan_AgentFailureKeepsPrior(t *testing.T) {
	prior := domain.StudyPlan{Summary: "last week's plan"}
	u := usecase.NewAgentUsecase(returning(domain.AgentInvocationResult{Success: false, Error: "Agent is busy"}), catalog, discard)

	plan, err := u.StudyPlan(context.Background(), usecase.StudyPlanInput{}, prior)
	if !errors.Is(err, domain.ErrAgentInvocationFailed) {
		t.Fatalf("expected ErrAgentInvocationFailed, got %v", err)
	}
	if plan.Summary != prior.Summary {
		t.Fatalf("expected prior plan, got %+v", plan)
	}
	if got := domain.UserMessage(err, "study plan"); got != "Agent is busy" {
		t.Errorf("unexpected user message %q", got)
	}
}

func TestRepositoryStatus_UnparsableKeepsPrior(t *testing.T) {
	raw := "I could not reach GitHub today."
	prior := domain.RepositoryStatus{RepositoryName: "acme/ml"}
	u := usecase.NewAgentUsecase(returning(domain.AgentInvocationResult{Success: true, RawResponse: &raw}), catalog, discard)

	status, err := u.RepositoryStatus(context.Background(), "acme/ml", prior)
	if !errors.Is(err, domain.ErrUnparsableResponse) {
		t.Fatalf("expected ErrUnparsableResponse, got %v", err)
	}
	if status.RepositoryName != "acme/ml" {
		t.Fatalf("expected prior status, got %+v", status)
	}
	if got := domain.UserMessage(err, "GitHub"); got != "Could not parse GitHub response." {
		t.Errorf("unexpected user message %q", got)
	}
}

func TestDeadlines_TrustedResult(t *testing.T) {
	u := usecase.NewAgentUsecase(returning(domain.AgentInvocationResult{
		Success:  true,
		Response: &domain.AgentResponse{Status: "success", Result: map[string]any{"urgent_count": 2.0, "total_deadlines": 5.0}},
	}), catalog, discard)

	set, err := u.Deadlines(context.Background(), domain.DeadlineSet{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.UrgentCount != 2 || set.TotalDeadlines != 5 || set.Reminders == nil {
		t.Fatalf("unexpected deadlines %+v", set)
	}
}

func TestResources_UnknownAgent(t *testing.T) {
	inv := &fakeInvoker{invoke: func(context.Context, string, string) domain.AgentInvocationResult {
		t.Error("invoker should not be called")
		return domain.AgentInvocationResult{}
	}}
	u := usecase.NewAgentUsecase(inv, domain.Catalog{}, discard)

	prior := domain.ResourceSet{Summary: "cached"}
	set, err := u.Resources(context.Background(), "Physics", "", prior)
	if !errors.Is(err, domain.ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
	if set.Summary != "cached" {
		t.Fatal("expected prior resources")
	}
}
