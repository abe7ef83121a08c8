package streak

import "github.com/terra-clan/progress-engine/internal/models"

type rule struct {
	kind models.AchievementKind
	met  func(l *models.StreakLedger) bool
}

// rules are evaluated in this order
var rules = []rule{
	{models.SevenDayStreak, func(l *models.StreakLedger) bool { return l.CurrentStreak >= 7 }},
	{models.ThirtyDayStreak, func(l *models.StreakLedger) bool { return l.CurrentStreak >= 30 }},
	{models.FiftyLessonsCompleted, func(l *models.StreakLedger) bool { return l.TotalLessonsCompleted >= 50 }},
	{models.FiveCoursesCompleted, func(l *models.StreakLedger) bool { return l.TotalCoursesCompleted >= 5 }},
	{models.HundredStudyHours, func(l *models.StreakLedger) bool { return l.TotalStudyHours >= 100 }},
}

// Evaluate returns the achievement kinds the ledger qualifies for but does
// not hold yet
func Evaluate(l *models.StreakLedger) []models.AchievementKind {
	var earned []models.AchievementKind
	for _, r := range rules {
		if r.met(l) && !l.HasAchievement(r.kind) {
			earned = append(earned, r.kind)
		}
	}
	return earned
}
