package models

import "github.com/terra-clan/progress-engine/internal/clock"

// CalendarDay is one dense cell of a calendar view
type CalendarDay struct {
	Date             clock.Day `json:"date"`
	HasActivity      bool      `json:"has_activity"`
	LessonsCompleted int       `json:"lessons_completed"`
	CoursesCompleted int       `json:"courses_completed"`
	StudyHours       float64   `json:"study_hours"`
}

// TwoWeekWindow is the 14-day period containing "today", anchored on the join day
type TwoWeekWindow struct {
	Start clock.Day     `json:"start"`
	End   clock.Day     `json:"end"`
	Days  []CalendarDay `json:"days"`
}

// CalendarMonth aggregates one month of a yearly grid
type CalendarMonth struct {
	Month            int           `json:"month"`
	Name             string        `json:"name"`
	Days             []CalendarDay `json:"days"`
	ActiveDays       int           `json:"active_days"`
	LessonsCompleted int           `json:"lessons_completed"`
	CoursesCompleted int           `json:"courses_completed"`
	StudyHours       float64       `json:"study_hours"`
}

// YearCalendar is the response shape of the yearly grid endpoint
type YearCalendar struct {
	Year             int             `json:"year"`
	Months           []CalendarMonth `json:"months"`
	HasPriorYearData bool            `json:"has_prior_year_data"`
}
