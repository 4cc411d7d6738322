package config

import (
	"fmt"
	"os"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"gopkg.in/yaml.v3"
)

// agentsFile is the layout of AGENTS_FILE:
//
//	agents:
//	  study-plan:
//	    id: 6999619fc066ed107671ac69
//	    name: Study Plan Agent
type agentsFile struct {
	Agents map[domain.AgentKind]struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		Purpose string `yaml:"purpose"`
	} `yaml:"agents"`
}

func (c *Config) defaultAgents() domain.Catalog {
	return domain.Catalog{
		domain.AgentStudyPlan: {
			Kind:    domain.AgentStudyPlan,
			ID:      c.StudyPlanAgentID,
			Name:    "Study Plan Agent",
			Purpose: "Generates personalized weekly study plans with time-blocking",
		},
		domain.AgentRepository: {
			Kind:    domain.AgentRepository,
			ID:      c.RepositoryAgentID,
			Name:    "GitHub Monitor Agent",
			Purpose: "Fetches project milestones and open issues from GitHub",
		},
		domain.AgentDeadlines: {
			Kind:    domain.AgentDeadlines,
			ID:      c.DeadlineAgentID,
			Name:    "Deadline Reminder Agent",
			Purpose: "Daily prioritized reminders with preparation actions",
		},
		domain.AgentResources: {
			Kind:    domain.AgentResources,
			ID:      c.ResourceAgentID,
			Name:    "Resource Recommender Agent",
			Purpose: "Recommends learning resources based on subjects and gaps",
		},
	}
}

// Agents returns the agent catalog: env defaults, overridden per kind by
// AGENTS_FILE when set.
func (c *Config) Agents() (domain.Catalog, error) {
	catalog := c.defaultAgents()
	if c.AgentsFile == "" {
		return catalog, nil
	}

	b, err := os.ReadFile(c.AgentsFile)
	if err != nil {
		return nil, fmt.Errorf("read agents file: %w", err)
	}

	var f agentsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse agents file: %w", err)
	}

	for kind, override := range f.Agents {
		agent, ok := catalog[kind]
		if !ok {
			return nil, fmt.Errorf("agents file: %q: %w", kind, domain.ErrUnknownAgent)
		}
		if override.ID != "" {
			agent.ID = override.ID
		}
		if override.Name != "" {
			agent.Name = override.Name
		}
		if override.Purpose != "" {
			agent.Purpose = override.Purpose
		}
		catalog[kind] = agent
	}
	return catalog, nil
}
