package streak

import (
	"time"

	"github.com/terra-clan/progress-engine/internal/clock"
	"github.com/terra-clan/progress-engine/internal/models"
)

// PeriodDays is the length of the rolling streak window
const PeriodDays = 14

// TwoWeekWindow returns the 14-day period containing today. Periods are laid
// end to end starting on the join day; before the join day the first period
// is returned.
func TwoWeekWindow(l *models.StreakLedger, join, today clock.Day) models.TwoWeekWindow {
	start := join
	if elapsed := today.Sub(join); elapsed > 0 {
		start = join.AddDays(PeriodDays * (elapsed / PeriodDays))
	}
	end := start.AddDays(PeriodDays - 1)

	return models.TwoWeekWindow{
		Start: start,
		End:   end,
		Days:  cells(l, start, end),
	}
}

// YearGrid builds the month-by-month activity grid of year. Only days from
// the join day up to today get a cell.
func YearGrid(l *models.StreakLedger, year int, join, today clock.Day) models.YearCalendar {
	cal := models.YearCalendar{
		Year:             year,
		Months:           make([]models.CalendarMonth, 0, 12),
		HasPriorYearData: HasPriorYearData(l, year),
	}

	for m := time.January; m <= time.December; m++ {
		first, last := clock.MonthBounds(year, m)
		if join > first {
			first = join
		}
		if today < last {
			last = today
		}

		month := models.CalendarMonth{
			Month: int(m),
			Name:  m.String(),
			Days:  cells(l, first, last),
		}
		for _, c := range month.Days {
			if c.HasActivity {
				month.ActiveDays++
			}
			month.LessonsCompleted += c.LessonsCompleted
			month.CoursesCompleted += c.CoursesCompleted
			month.StudyHours += c.StudyHours
		}
		cal.Months = append(cal.Months, month)
	}
	return cal
}

// HasPriorYearData reports whether any activity was recorded in year-1
func HasPriorYearData(l *models.StreakLedger, year int) bool {
	from := clock.DateOf(year-1, time.January, 1)
	to := clock.DateOf(year, time.January, 1)
	return len(l.ActivitiesBetween(from, to)) > 0
}

// cells returns one dense cell per day in [from, to]
func cells(l *models.StreakLedger, from, to clock.Day) []models.CalendarDay {
	if to < from {
		return []models.CalendarDay{}
	}

	days := make([]models.CalendarDay, 0, to.Sub(from)+1)
	for d := from; d <= to; d++ {
		c := models.CalendarDay{Date: d}
		if a := l.Activity(d); a != nil {
			c.HasActivity = true
			c.LessonsCompleted = a.LessonsCompleted
			c.CoursesCompleted = a.CoursesCompleted
			c.StudyHours = a.StudyHours
		}
		days = append(days, c)
	}
	return days
}
