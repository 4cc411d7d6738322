package mapper

import (
	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
)

func ToStudyPlan(rec domain.Record) domain.StudyPlan {
	f := newFields(rec)

	plan := domain.StudyPlan{
		WeeklyPlan:          []domain.DayPlan{},
		ConflictResolutions: []domain.ConflictResolution{},
		Summary:             f.str("summary"),
		TotalStudyHours:     f.num("total_study_hours"),
		TotalProjectHours:   f.num("total_project_hours"),
	}

	for _, d := range f.objects("weekly_plan") {
		day := domain.DayPlan{Day: d.str("day"), TimeBlocks: []domain.TimeBlock{}}
		for _, b := range d.objects("time_blocks") {
			day.TimeBlocks = append(day.TimeBlocks, domain.TimeBlock{
				StartTime:    b.str("start_time"),
				EndTime:      b.str("end_time"),
				Subject:      b.str("subject"),
				ActivityType: b.str("activity_type"),
				Priority:     b.str("priority"),
				Description:  b.str("description"),
			})
		}
		plan.WeeklyPlan = append(plan.WeeklyPlan, day)
	}

	for _, c := range f.objects("conflict_resolutions") {
		plan.ConflictResolutions = append(plan.ConflictResolutions, domain.ConflictResolution{
			Conflict:   c.str("conflict"),
			Resolution: c.str("resolution"),
			Reasoning:  c.str("reasoning"),
		})
	}
	return plan
}

func ToRepositoryStatus(rec domain.Record) domain.RepositoryStatus {
	f := newFields(rec)

	status := domain.RepositoryStatus{
		RepositoryName:    f.str("repository_name", "repository"),
		Milestones:        []domain.Milestone{},
		OpenIssues:        []domain.OpenIssue{},
		Summary:           f.str("summary"),
		TotalOpenIssues:   f.integer("total_open_issues"),
		UpcomingDeadlines: []domain.UpcomingDeadline{},
	}

	for _, m := range f.objects("milestones") {
		status.Milestones = append(status.Milestones, domain.Milestone{
			Title:              m.str("title"),
			Description:        m.str("description"),
			DueDate:            m.str("due_date"),
			ProgressPercentage: m.num("progress_percentage", "progress"),
			OpenIssues:         m.integer("open_issues"),
			ClosedIssues:       m.integer("closed_issues"),
		})
	}

	for _, i := range f.objects("open_issues") {
		status.OpenIssues = append(status.OpenIssues, domain.OpenIssue{
			Title:     i.str("title"),
			Labels:    i.str("labels"),
			CreatedAt: i.str("created_at"),
			Priority:  i.str("priority"),
		})
	}

	for _, d := range f.objects("upcoming_deadlines") {
		status.UpcomingDeadlines = append(status.UpcomingDeadlines, domain.UpcomingDeadline{
			Item:    d.str("item"),
			DueDate: d.str("due_date"),
			Type:    d.str("type"),
		})
	}
	return status
}

func ToDeadlineSet(rec domain.Record) domain.DeadlineSet {
	f := newFields(rec)

	set := domain.DeadlineSet{
		DailyBriefing:  f.str("daily_briefing"),
		Reminders:      []domain.Reminder{},
		UrgentCount:    f.integer("urgent_count"),
		TotalDeadlines: f.integer("total_deadlines"),
		Date:           f.str("date"),
	}

	for _, r := range f.objects("reminders") {
		set.Reminders = append(set.Reminders, domain.Reminder{
			Item:               r.str("item"),
			Category:           r.str("category"),
			DueDate:            r.str("due_date"),
			DaysRemaining:      r.integer("days_remaining"),
			Priority:           r.str("priority"),
			PreparationActions: r.strs("preparation_actions"),
		})
	}
	return set
}

func ToResourceSet(rec domain.Record) domain.ResourceSet {
	f := newFields(rec)

	set := domain.ResourceSet{
		Recommendations: []domain.Resource{},
		Summary:         f.str("summary"),
		TotalResources:  f.integer("total_resources"),
	}

	for _, r := range f.objects("recommendations") {
		set.Recommendations = append(set.Recommendations, domain.Resource{
			Subject:        r.str("subject"),
			Title:          r.str("title"),
			Platform:       r.str("platform"),
			Duration:       r.str("duration"),
			RelevanceScore: r.num("relevance_score"),
			Description:    r.str("description"),
			URL:            r.str("url"),
		})
	}
	return set
}
