package domain

import (
	"fmt"
	"strings"
	"time"
)

// Course is one course the study plan agent schedules around.
type Course struct {
	Name        string `json:"name"`
	ExamDate    string `json:"exam_date"`
	Difficulty  int    `json:"difficulty"`
	Performance string `json:"performance"`
}

func StudyPlanInstruction(courses []Course, projectCommitments, availableHours string) string {
	details := make([]string, 0, len(courses))
	for _, c := range courses {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		details = append(details, fmt.Sprintf("%s (exam: %s, difficulty: %d/5, performance: %s)",
			name,
			orDefault(c.ExamDate, "not set"),
			c.difficulty(),
			orDefault(c.Performance, "average"),
		))
	}
	return fmt.Sprintf(
		"Generate a weekly study plan for these courses: %s. Project commitments: %s. Available hours per day: %s. Include time-blocked schedule, conflict resolutions, and summary.",
		strings.Join(details, "; "),
		orDefault(projectCommitments, "none"),
		orDefault(availableHours, "6"),
	)
}

func (c Course) difficulty() int {
	if c.Difficulty < 1 || c.Difficulty > 5 {
		return 3
	}
	return c.Difficulty
}

func RepositoryInstruction(repository string) string {
	return "Fetch milestones, issues, and deadlines from GitHub repository: " + strings.TrimSpace(repository)
}

func ResourcesInstruction(subjects, gaps string) string {
	return fmt.Sprintf(
		"Recommend learning resources for these subjects: %s. Knowledge gaps: %s. Include video courses and tutorials from YouTube, Udemy, and Coursera.",
		strings.TrimSpace(subjects),
		orDefault(gaps, "general review"),
	)
}

// DeadlinesInstruction is also what the reminder schedule sends on each run.
func DeadlinesInstruction(now time.Time) string {
	return fmt.Sprintf(
		"Prepare today's deadline briefing for %s. List upcoming academic and project deadlines with days remaining, priority, and preparation actions.",
		now.Format("2006-01-02"),
	)
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
