package progress

import (
	"math"
	"time"

	"github.com/terra-clan/progress-engine/internal/models"
)

// Pure enrollment transitions. Each returns a new Enrollment and leaves the
// input untouched; persisting the result is the caller's job.

// NewEnrollment builds a fresh enrollment with the chain start seeded as an
// open, incomplete lesson
func NewEnrollment(id, learnerID string, c *models.Curriculum, now time.Time) *models.Enrollment {
	e := &models.Enrollment{
		ID:        id,
		LearnerID: learnerID,
		CourseID:  c.CourseID,
		StartDate: now,
		Lessons:   []models.LessonRecord{},
		UpdatedAt: now,
	}
	materializeUnlocked(e, c)
	return e
}

// ApplyCompletion marks lessonID completed. Completing a lesson that is
// neither open nor already completed fails with ErrLessonLocked.
func ApplyCompletion(e *models.Enrollment, c *models.Curriculum, lessonID string, now time.Time) (*models.Enrollment, error) {
	if !c.HasLesson(lessonID) {
		return nil, ErrLessonNotInCourse
	}

	next := e.Clone()
	rec := next.Lesson(lessonID)
	if rec == nil || !rec.Completed {
		if !IsAccessible(c, next.CompletedSet(), lessonID) {
			return nil, ErrLessonLocked
		}
	}

	rec = ensureRecord(next, lessonID)
	rec.Completed = true
	rec.Progress = 100
	rec.LastAccessDate = timePtr(now)

	Recompute(next, c, now)
	return next, nil
}

// ApplyLessonProgress records in-lesson progress. A nil progress leaves the
// lesson-local value unchanged; completed forces it to 100. Completion is
// sticky: a completed lesson stays completed.
func ApplyLessonProgress(e *models.Enrollment, c *models.Curriculum, lessonID string, completed bool, progress *int, now time.Time) (*models.Enrollment, error) {
	if progress != nil && (*progress < 0 || *progress > 100) {
		return nil, ErrInvalidProgress
	}
	if !c.HasLesson(lessonID) {
		return nil, ErrLessonNotInCourse
	}

	next := e.Clone()
	rec := next.Lesson(lessonID)
	// An existing record means the lesson was opened at some point
	if rec == nil && !IsAccessible(c, next.CompletedSet(), lessonID) {
		return nil, ErrLessonLocked
	}

	rec = ensureRecord(next, lessonID)
	switch {
	case completed || rec.Completed:
		rec.Completed = true
		rec.Progress = 100
	case progress != nil:
		rec.Progress = *progress
	}
	rec.LastAccessDate = timePtr(now)

	Recompute(next, c, now)
	return next, nil
}

// ApplyQuizCompletion flags the quiz of an already recorded lesson.
// Course progress is not affected.
func ApplyQuizCompletion(e *models.Enrollment, lessonID string, now time.Time) (*models.Enrollment, error) {
	next := e.Clone()
	rec := next.Lesson(lessonID)
	if rec == nil {
		return nil, ErrLessonNotFound
	}
	rec.QuizCompleted = true
	rec.LastAccessDate = timePtr(now)
	next.UpdatedAt = now
	return next, nil
}

// Recompute derives course progress from the completed lessons, materializes
// placeholders for newly opened lessons and stamps the completion date once.
func Recompute(e *models.Enrollment, c *models.Curriculum, now time.Time) {
	e.Progress = CourseProgress(e, c)
	materializeUnlocked(e, c)
	if e.Progress == 100 && e.CompletionDate == nil {
		e.CompletionDate = timePtr(now)
	}
	e.UpdatedAt = now
}

// CourseProgress returns round(100 * completed / total), 0 for an empty course
func CourseProgress(e *models.Enrollment, c *models.Curriculum) int {
	total := c.TotalLessons()
	if total == 0 {
		return 0
	}
	done := 0
	for _, l := range e.Lessons {
		if l.Completed && c.HasLesson(l.LessonID) {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

func materializeUnlocked(e *models.Enrollment, c *models.Curriculum) {
	for _, lessonID := range AccessibleLessons(c, e.CompletedSet()) {
		ensureRecord(e, lessonID)
	}
}

func ensureRecord(e *models.Enrollment, lessonID string) *models.LessonRecord {
	if rec := e.Lesson(lessonID); rec != nil {
		return rec
	}
	e.Lessons = append(e.Lessons, models.LessonRecord{LessonID: lessonID})
	return &e.Lessons[len(e.Lessons)-1]
}

func timePtr(t time.Time) *time.Time {
	return &t
}
