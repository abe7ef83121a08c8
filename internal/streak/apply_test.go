package streak

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/progress-engine/internal/apperr"
	"github.com/terra-clan/progress-engine/internal/clock"
	"github.com/terra-clan/progress-engine/internal/models"
)

var (
	baseDay = clock.DateOf(2024, time.March, 4)
	baseNow = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
)

func newLedger() *models.StreakLedger {
	return models.NewStreakLedger("u1", baseDay, baseNow)
}

func apply(t *testing.T, l *models.StreakLedger, day clock.Day, d Delta) *models.StreakLedger {
	t.Helper()
	next, _, err := Apply(l, day, d, baseNow)
	require.NoError(t, err)
	return next
}

func lesson() Delta { return Delta{LessonsCompleted: 1} }

func TestApply_ConsecutiveDays(t *testing.T) {
	for _, n := range []int{1, 2, 7, 31} {
		l := newLedger()
		for i := 0; i < n; i++ {
			l = apply(t, l, baseDay.AddDays(i), lesson())
		}
		assert.Equal(t, n, l.CurrentStreak)
		assert.GreaterOrEqual(t, l.LongestStreak, n)
		assert.Equal(t, n, l.TotalLessonsCompleted)
		require.NotNil(t, l.LastActivityDay)
		assert.Equal(t, baseDay.AddDays(n-1), *l.LastActivityDay)
	}
}

func TestApply_GapResets(t *testing.T) {
	// D, D+1, D+3
	l := newLedger()
	l = apply(t, l, baseDay, lesson())
	assert.Equal(t, 1, l.CurrentStreak)
	l = apply(t, l, baseDay.AddDays(1), lesson())
	assert.Equal(t, 2, l.CurrentStreak)
	l = apply(t, l, baseDay.AddDays(3), lesson())
	assert.Equal(t, 1, l.CurrentStreak)
	assert.Equal(t, 2, l.LongestStreak)
}

func TestApply_SameDay(t *testing.T) {
	l := newLedger()
	l = apply(t, l, baseDay, Delta{LessonsCompleted: 2, StudyHours: 1.5})
	l = apply(t, l, baseDay, Delta{LessonsCompleted: 3, CoursesCompleted: 1, StudyHours: 0.5})

	assert.Equal(t, 1, l.CurrentStreak)
	assert.Equal(t, 1, l.LongestStreak)
	require.Len(t, l.DailyActivities, 1)
	entry := l.DailyActivities[0]
	assert.Equal(t, 5, entry.LessonsCompleted)
	assert.Equal(t, 1, entry.CoursesCompleted)
	assert.InDelta(t, 2.0, entry.StudyHours, 1e-9)
	assert.Equal(t, 5, l.TotalLessonsCompleted)
	assert.Equal(t, 1, l.TotalCoursesCompleted)
	assert.InDelta(t, 2.0, l.TotalStudyHours, 1e-9)
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	l := newLedger()
	_ = apply(t, l, baseDay, lesson())
	assert.Empty(t, l.DailyActivities)
	assert.Zero(t, l.CurrentStreak)
	assert.Nil(t, l.LastActivityDay)
}

func TestApply_Backdated(t *testing.T) {
	// active on D, D+2, D+3; then D+1 arrives late
	l := newLedger()
	l = apply(t, l, baseDay, lesson())
	l = apply(t, l, baseDay.AddDays(2), lesson())
	l = apply(t, l, baseDay.AddDays(3), lesson())
	require.Equal(t, 2, l.CurrentStreak)

	l = apply(t, l, baseDay.AddDays(1), lesson())
	assert.Equal(t, baseDay.AddDays(3), *l.LastActivityDay, "last active day never moves back")
	assert.Equal(t, 4, l.CurrentStreak, "backfill bridges the gap")
	assert.Equal(t, 4, l.LongestStreak)
	assert.Equal(t, 4, l.TotalLessonsCompleted)

	days := make([]clock.Day, 0, len(l.DailyActivities))
	for _, a := range l.DailyActivities {
		days = append(days, a.Day)
	}
	assert.Equal(t, []clock.Day{baseDay, baseDay.AddDays(1), baseDay.AddDays(2), baseDay.AddDays(3)}, days)
}

func TestApply_BackdatedOutsideCurrentRun(t *testing.T) {
	// an old run of 3 filled in after the current streak started
	l := newLedger()
	l = apply(t, l, baseDay.AddDays(10), lesson())
	l = apply(t, l, baseDay, lesson())
	l = apply(t, l, baseDay.AddDays(2), lesson())
	l = apply(t, l, baseDay.AddDays(1), lesson())

	assert.Equal(t, 1, l.CurrentStreak)
	assert.Equal(t, 3, l.LongestStreak)
	assert.Equal(t, baseDay.AddDays(10), *l.LastActivityDay)
}

func TestApply_NegativeDelta(t *testing.T) {
	for _, d := range []Delta{{LessonsCompleted: -1}, {CoursesCompleted: -1}, {StudyHours: -0.5}} {
		_, _, err := Apply(newLedger(), baseDay, d, baseNow)
		assert.ErrorIs(t, err, ErrInvalidDelta)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
}

func TestApply_NonFiniteHours(t *testing.T) {
	for _, hours := range []float64{math.Inf(1), math.NaN()} {
		_, _, err := Apply(newLedger(), baseDay, Delta{StudyHours: hours}, baseNow)
		assert.ErrorIs(t, err, ErrInvalidDelta)
	}
}

func TestApply_TotalsStayInRange(t *testing.T) {
	tests := []struct {
		name  string
		first Delta
		next  Delta
	}{
		{"lessons", Delta{LessonsCompleted: MaxCount}, Delta{LessonsCompleted: 1}},
		{"courses", Delta{CoursesCompleted: MaxCount}, Delta{CoursesCompleted: 1}},
		{"hours", Delta{StudyHours: 1e308}, Delta{StudyHours: 1e308}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := apply(t, newLedger(), baseDay, tt.first)

			next, granted, err := Apply(l, baseDay, tt.next, baseNow)
			assert.ErrorIs(t, err, ErrInvalidDelta)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Nil(t, next)
			assert.Nil(t, granted)
		})
	}

	_, _, err := Apply(newLedger(), baseDay, Delta{LessonsCompleted: math.MaxInt}, baseNow)
	assert.ErrorIs(t, err, ErrInvalidDelta)
}

func TestApply_TotalsReachLimit(t *testing.T) {
	l := apply(t, newLedger(), baseDay, Delta{LessonsCompleted: MaxCount - 1})
	l = apply(t, l, baseDay.AddDays(1), lesson())
	assert.Equal(t, MaxCount, l.TotalLessonsCompleted)
	assert.Equal(t, MaxCount-1, l.Activity(baseDay).LessonsCompleted)

	_, _, err := Apply(l, baseDay.AddDays(2), lesson(), baseNow)
	assert.ErrorIs(t, err, ErrInvalidDelta)
}

func TestApply_FiftyLessonsGrantedOnce(t *testing.T) {
	l := newLedger()
	l = apply(t, l, baseDay, Delta{LessonsCompleted: 20})

	next, granted, err := Apply(l, baseDay.AddDays(1), Delta{LessonsCompleted: 30}, baseNow)
	require.NoError(t, err)
	require.Len(t, granted, 1)
	assert.Equal(t, models.FiftyLessonsCompleted, granted[0].Kind)
	assert.Equal(t, baseNow, granted[0].AchievedDate)
	assert.Equal(t, 50, next.TotalLessonsCompleted)

	assert.Empty(t, Evaluate(next), "evaluating again grants nothing")

	next, granted, err = Apply(next, baseDay.AddDays(2), Delta{}, baseNow)
	require.NoError(t, err)
	assert.Empty(t, granted)
	assert.Len(t, next.Achievements, 1)
}

func TestApply_AchievementsUnique(t *testing.T) {
	l := newLedger()
	for i := 0; i < 40; i++ {
		l = apply(t, l, baseDay.AddDays(i), Delta{LessonsCompleted: 2, CoursesCompleted: 1, StudyHours: 3})
		l = apply(t, l, baseDay.AddDays(i), Delta{StudyHours: 0.5})
	}

	seen := map[models.AchievementKind]int{}
	for _, a := range l.Achievements {
		seen[a.Kind]++
	}
	for kind, n := range seen {
		assert.Equal(t, 1, n, "kind %s", kind)
	}
	assert.Len(t, seen, 5)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		ledger models.StreakLedger
		want   []models.AchievementKind
	}{
		{"nothing", models.StreakLedger{}, nil},
		{"seven day streak", models.StreakLedger{CurrentStreak: 7}, []models.AchievementKind{models.SevenDayStreak}},
		{"thirty day streak", models.StreakLedger{CurrentStreak: 30}, []models.AchievementKind{models.SevenDayStreak, models.ThirtyDayStreak}},
		{"courses", models.StreakLedger{TotalCoursesCompleted: 5}, []models.AchievementKind{models.FiveCoursesCompleted}},
		{"hours", models.StreakLedger{TotalStudyHours: 100}, []models.AchievementKind{models.HundredStudyHours}},
		{"below thresholds", models.StreakLedger{CurrentStreak: 6, TotalLessonsCompleted: 49, TotalCoursesCompleted: 4, TotalStudyHours: 99.9}, nil},
		{
			"held kinds excluded",
			models.StreakLedger{CurrentStreak: 8, Achievements: []models.Achievement{{Kind: models.SevenDayStreak}}},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(&tt.ledger))
		})
	}
}
