package models

import (
	"sort"
	"time"

	"github.com/terra-clan/progress-engine/internal/clock"
)

// AchievementKind identifies a one-time badge
type AchievementKind string

const (
	SevenDayStreak        AchievementKind = "7DayStreak"
	ThirtyDayStreak       AchievementKind = "30DayStreak"
	FiftyLessonsCompleted AchievementKind = "50LessonsCompleted"
	FiveCoursesCompleted  AchievementKind = "5CoursesCompleted"
	HundredStudyHours     AchievementKind = "100StudyHours"
)

// StreakLedger is the per-learner engagement record
type StreakLedger struct {
	LearnerID             string          `json:"learner_id"`
	CurrentStreak         int             `json:"current_streak"`
	LongestStreak         int             `json:"longest_streak"`
	LastActivityDay       *clock.Day      `json:"last_activity_date"`
	JoinedOn              clock.Day       `json:"joined_on"`
	TotalLessonsCompleted int             `json:"total_lessons_completed"`
	TotalCoursesCompleted int             `json:"total_courses_completed"`
	TotalStudyHours       float64         `json:"total_study_hours"`
	DailyActivities       []DailyActivity `json:"daily_activities"`
	Achievements          []Achievement   `json:"achievements"`
	Version               int64           `json:"-"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// DailyActivity accumulates one calendar day's activity.
// DailyActivities holds at most one entry per day, sorted by Day.
type DailyActivity struct {
	Day              clock.Day `json:"date"`
	LessonsCompleted int       `json:"lessons_completed"`
	CoursesCompleted int       `json:"courses_completed"`
	StudyHours       float64   `json:"study_hours"`
}

// Achievement is a granted badge
type Achievement struct {
	Kind         AchievementKind `json:"type"`
	AchievedDate time.Time       `json:"achieved_date"`
}

// NewStreakLedger creates an empty ledger for a learner who joined on day
func NewStreakLedger(learnerID string, joinedOn clock.Day, now time.Time) *StreakLedger {
	return &StreakLedger{
		LearnerID:       learnerID,
		JoinedOn:        joinedOn,
		DailyActivities: []DailyActivity{},
		Achievements:    []Achievement{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Activity returns the entry for day, or nil
func (l *StreakLedger) Activity(day clock.Day) *DailyActivity {
	i := l.activityIndex(day)
	if i < len(l.DailyActivities) && l.DailyActivities[i].Day == day {
		return &l.DailyActivities[i]
	}
	return nil
}

// AddActivity inserts an empty entry for day keeping the list sorted and
// returns it. An existing entry is returned unchanged.
func (l *StreakLedger) AddActivity(day clock.Day) *DailyActivity {
	i := l.activityIndex(day)
	if i < len(l.DailyActivities) && l.DailyActivities[i].Day == day {
		return &l.DailyActivities[i]
	}
	l.DailyActivities = append(l.DailyActivities, DailyActivity{})
	copy(l.DailyActivities[i+1:], l.DailyActivities[i:])
	l.DailyActivities[i] = DailyActivity{Day: day}
	return &l.DailyActivities[i]
}

// ActivitiesBetween returns entries with from <= Day < to
func (l *StreakLedger) ActivitiesBetween(from, to clock.Day) []DailyActivity {
	lo := l.activityIndex(from)
	hi := l.activityIndex(to)
	if lo >= hi {
		return nil
	}
	return l.DailyActivities[lo:hi]
}

func (l *StreakLedger) activityIndex(day clock.Day) int {
	return sort.Search(len(l.DailyActivities), func(i int) bool {
		return l.DailyActivities[i].Day >= day
	})
}

// HasAchievement reports whether kind has already been granted
func (l *StreakLedger) HasAchievement(kind AchievementKind) bool {
	for _, a := range l.Achievements {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the ledger
func (l *StreakLedger) Clone() *StreakLedger {
	if l == nil {
		return nil
	}
	c := *l
	if l.LastActivityDay != nil {
		d := *l.LastActivityDay
		c.LastActivityDay = &d
	}
	c.DailyActivities = append(make([]DailyActivity, 0, len(l.DailyActivities)), l.DailyActivities...)
	c.Achievements = append(make([]Achievement, 0, len(l.Achievements)), l.Achievements...)
	return &c
}

// ActivityRequest is the dashboard's study-activity event
type ActivityRequest struct {
	Date             string  `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	LessonsCompleted int     `json:"lessons_completed"`
	CoursesCompleted int     `json:"courses_completed"`
	StudyHours       float64 `json:"study_hours"`
}
