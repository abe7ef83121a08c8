// Package streak keeps the per-learner daily activity ledger: streak counters,
// cumulative totals, achievements and the calendar views built from them.
package streak

import (
	"math"
	"time"

	"github.com/terra-clan/progress-engine/internal/clock"
	"github.com/terra-clan/progress-engine/internal/models"
)

// Delta is the study activity added by one event
type Delta struct {
	LessonsCompleted int
	CoursesCompleted int
	StudyHours       float64
}

// MaxCount bounds the lesson and course totals of a ledger. Totals are
// stored as 32-bit integers.
const MaxCount = math.MaxInt32

func (d Delta) valid() bool {
	return d.LessonsCompleted >= 0 && d.CoursesCompleted >= 0 &&
		d.StudyHours >= 0 && !math.IsInf(d.StudyHours, 0)
}

// fits reports whether adding d keeps every total of l in range. Daily
// entries never exceed the totals they are summed into.
func (d Delta) fits(l *models.StreakLedger) bool {
	return d.LessonsCompleted <= MaxCount-l.TotalLessonsCompleted &&
		d.CoursesCompleted <= MaxCount-l.TotalCoursesCompleted &&
		!math.IsInf(l.TotalStudyHours+d.StudyHours, 0)
}

// Apply records activity on day and returns the updated ledger together with
// the achievements granted by this event. The input ledger is not modified.
//
// The first activity of a day extends the streak when it directly follows the
// last active day and restarts it after a gap. The last active day never moves
// backwards: activity for an earlier day is merged into the history and the
// streak ending at the last active day is recounted.
func Apply(l *models.StreakLedger, day clock.Day, d Delta, now time.Time) (*models.StreakLedger, []models.Achievement, error) {
	if !d.valid() || !d.fits(l) {
		return nil, nil, ErrInvalidDelta
	}

	next := l.Clone()

	entry := next.Activity(day)
	firstOfDay := entry == nil
	if firstOfDay {
		entry = next.AddActivity(day)
	}
	entry.LessonsCompleted += d.LessonsCompleted
	entry.CoursesCompleted += d.CoursesCompleted
	entry.StudyHours += d.StudyHours

	if firstOfDay {
		switch last := next.LastActivityDay; {
		case last == nil:
			next.CurrentStreak = 1
			next.LastActivityDay = &day
		case day > *last:
			if day.Sub(*last) == 1 {
				next.CurrentStreak++
			} else {
				next.CurrentStreak = 1
			}
			next.LastActivityDay = &day
		default:
			next.CurrentStreak = runEndingAt(next, *last)
			if run := runThrough(next, day); run > next.LongestStreak {
				next.LongestStreak = run
			}
		}
		if next.CurrentStreak > next.LongestStreak {
			next.LongestStreak = next.CurrentStreak
		}
	}

	next.TotalLessonsCompleted += d.LessonsCompleted
	next.TotalCoursesCompleted += d.CoursesCompleted
	next.TotalStudyHours += d.StudyHours

	var granted []models.Achievement
	for _, kind := range Evaluate(next) {
		a := models.Achievement{Kind: kind, AchievedDate: now}
		next.Achievements = append(next.Achievements, a)
		granted = append(granted, a)
	}

	next.UpdatedAt = now
	return next, granted, nil
}

// runEndingAt counts consecutive active days ending at day
func runEndingAt(l *models.StreakLedger, day clock.Day) int {
	n := 0
	for l.Activity(day.AddDays(-n)) != nil {
		n++
	}
	return n
}

// runThrough returns the length of the consecutive run containing day
func runThrough(l *models.StreakLedger, day clock.Day) int {
	if l.Activity(day) == nil {
		return 0
	}
	after := 0
	for l.Activity(day.AddDays(after+1)) != nil {
		after++
	}
	return runEndingAt(l, day) + after
}
