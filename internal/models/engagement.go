package models

import (
	"fmt"
	"time"
)

// EngagementRecord is one day of classroom activity for an account.
type EngagementRecord struct {
	AccountKey          AccountKey `json:"account_key"`
	UTCDate             time.Time  `json:"utc_date"`
	NumCoursesVisited   int        `json:"num_courses_visited"`
	TotalMinutesVisited float64    `json:"total_minutes_visited"`
	LessonsCompleted    int        `json:"lessons_completed"`
	ProjectsCompleted   int        `json:"projects_completed"`
}

// EngagementColumn names a numeric engagement column that can be aggregated.
type EngagementColumn string

const (
	ColumnNumCoursesVisited   EngagementColumn = "num_courses_visited"
	ColumnTotalMinutesVisited EngagementColumn = "total_minutes_visited"
	ColumnLessonsCompleted    EngagementColumn = "lessons_completed"
	ColumnProjectsCompleted   EngagementColumn = "projects_completed"
	// ColumnDaysVisited is derived: 1 for a day with any minutes in the classroom, else 0.
	ColumnDaysVisited EngagementColumn = "days_visited"
)

// Value extracts the column from a record.
func (c EngagementColumn) Value(r EngagementRecord) (float64, error) {
	switch c {
	case ColumnNumCoursesVisited:
		return float64(r.NumCoursesVisited), nil
	case ColumnTotalMinutesVisited:
		return r.TotalMinutesVisited, nil
	case ColumnLessonsCompleted:
		return float64(r.LessonsCompleted), nil
	case ColumnProjectsCompleted:
		return float64(r.ProjectsCompleted), nil
	case ColumnDaysVisited:
		if r.TotalMinutesVisited > 0 {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown engagement column %q", string(c))
	}
}

// Label is the human readable name used in chart titles.
func (c EngagementColumn) Label() string {
	switch c {
	case ColumnNumCoursesVisited:
		return "courses visited"
	case ColumnTotalMinutesVisited:
		return "total minutes visited"
	case ColumnLessonsCompleted:
		return "lessons completed"
	case ColumnProjectsCompleted:
		return "projects completed"
	case ColumnDaysVisited:
		return "days visited"
	default:
		return string(c)
	}
}
