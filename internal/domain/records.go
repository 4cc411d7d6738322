package domain

// Typed records rendered by the dashboard. List fields are never nil so they
// encode as [] rather than null.

type TimeBlock struct {
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Subject      string `json:"subject"`
	ActivityType string `json:"activity_type"`
	Priority     string `json:"priority"`
	Description  string `json:"description"`
}

type DayPlan struct {
	Day        string      `json:"day"`
	TimeBlocks []TimeBlock `json:"time_blocks"`
}

type ConflictResolution struct {
	Conflict   string `json:"conflict"`
	Resolution string `json:"resolution"`
	Reasoning  string `json:"reasoning"`
}

type StudyPlan struct {
	WeeklyPlan          []DayPlan            `json:"weekly_plan"`
	ConflictResolutions []ConflictResolution `json:"conflict_resolutions"`
	Summary             string               `json:"summary"`
	TotalStudyHours     float64              `json:"total_study_hours"`
	TotalProjectHours   float64              `json:"total_project_hours"`
}

type Milestone struct {
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	DueDate            string  `json:"due_date"`
	ProgressPercentage float64 `json:"progress_percentage"`
	OpenIssues         int     `json:"open_issues"`
	ClosedIssues       int     `json:"closed_issues"`
}

type OpenIssue struct {
	Title     string `json:"title"`
	Labels    string `json:"labels"`
	CreatedAt string `json:"created_at"`
	Priority  string `json:"priority"`
}

type UpcomingDeadline struct {
	Item    string `json:"item"`
	DueDate string `json:"due_date"`
	Type    string `json:"type"`
}

// RepositoryStatus aggregates are advisory: TotalOpenIssues is reported by
// the agent and never recomputed from OpenIssues.
type RepositoryStatus struct {
	RepositoryName    string             `json:"repository_name"`
	Milestones        []Milestone        `json:"milestones"`
	OpenIssues        []OpenIssue        `json:"open_issues"`
	Summary           string             `json:"summary"`
	TotalOpenIssues   int                `json:"total_open_issues"`
	UpcomingDeadlines []UpcomingDeadline `json:"upcoming_deadlines"`
}

type Reminder struct {
	Item               string   `json:"item"`
	Category           string   `json:"category"`
	DueDate            string   `json:"due_date"`
	DaysRemaining      int      `json:"days_remaining"`
	Priority           string   `json:"priority"`
	PreparationActions []string `json:"preparation_actions"`
}

type DeadlineSet struct {
	DailyBriefing  string     `json:"daily_briefing"`
	Reminders      []Reminder `json:"reminders"`
	UrgentCount    int        `json:"urgent_count"`
	TotalDeadlines int        `json:"total_deadlines"`
	Date           string     `json:"date"`
}

type Resource struct {
	Subject        string  `json:"subject"`
	Title          string  `json:"title"`
	Platform       string  `json:"platform"`
	Duration       string  `json:"duration"`
	RelevanceScore float64 `json:"relevance_score"`
	Description    string  `json:"description"`
	URL            string  `json:"url"`
}

type ResourceSet struct {
	Recommendations []Resource `json:"recommendations"`
	Summary         string     `json:"summary"`
	TotalResources  int        `json:"total_resources"`
}
