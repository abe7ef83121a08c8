package progress

import "github.com/terra-clan/progress-engine/internal/apperr"

// Progress errors
var (
	ErrAlreadyEnrolled   = apperr.New("progress", apperr.ErrConflict, "learner is already enrolled in this course")
	ErrNotEnrolled       = apperr.New("progress", apperr.ErrNotFound, "learner is not enrolled in this course")
	ErrCourseNotFound    = apperr.New("progress", apperr.ErrNotFound, "course not found")
	ErrLessonNotInCourse = apperr.New("progress", apperr.ErrNotFound, "lesson is not part of this course")
	ErrLessonNotFound    = apperr.New("progress", apperr.ErrNotFound, "lesson has no progress record")
	ErrLessonLocked      = apperr.New("progress", apperr.ErrConflict, "lesson is locked until the previous lesson is completed")
	ErrInvalidProgress   = apperr.New("progress", apperr.ErrValidation, "progress must be between 0 and 100")
)
