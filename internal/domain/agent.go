package domain

// AgentKind names the purpose of one of the four pre-provisioned agents.
type AgentKind string

const (
	AgentStudyPlan  AgentKind = "study-plan"
	AgentRepository AgentKind = "repository"
	AgentDeadlines  AgentKind = "deadlines"
	AgentResources  AgentKind = "resources"
)

var AgentKinds = []AgentKind{AgentStudyPlan, AgentRepository, AgentDeadlines, AgentResources}

type Agent struct {
	Kind    AgentKind `json:"kind"    yaml:"kind"`
	ID      string    `json:"id"      yaml:"id"`
	Name    string    `json:"name"    yaml:"name"`
	Purpose string    `json:"purpose" yaml:"purpose"`
}

// Catalog maps each agent kind to its provisioned agent.
type Catalog map[AgentKind]Agent

func (c Catalog) Lookup(kind AgentKind) (Agent, error) {
	a, ok := c[kind]
	if !ok || a.ID == "" {
		return Agent{}, ErrUnknownAgent
	}
	return a, nil
}

// List returns the agents in their canonical order.
func (c Catalog) List() []Agent {
	out := make([]Agent, 0, len(c))
	for _, k := range AgentKinds {
		if a, ok := c[k]; ok {
			out = append(out, a)
		}
	}
	return out
}

// AgentResponse is the structured part of an agent reply.
type AgentResponse struct {
	Status  string `json:"status,omitempty"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// AgentInvocationResult is the outcome of one agent call. Exactly one of
// Response.Result, RawResponse or Error carries the payload.
type AgentInvocationResult struct {
	Success     bool           `json:"success"`
	Response    *AgentResponse `json:"response,omitempty"`
	RawResponse *string        `json:"raw_response,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Record is a validated, non-empty generic agent payload.
type Record map[string]any
