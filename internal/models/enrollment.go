package models

import (
	"time"
)

// Enrollment binds one learner to one course and tracks their progress through it
type Enrollment struct {
	ID             string         `json:"id"`
	LearnerID      string         `json:"learner_id"`
	CourseID       string         `json:"course_id"`
	Progress       int            `json:"progress"`
	StartDate      time.Time      `json:"start_date"`
	CompletionDate *time.Time     `json:"completion_date,omitempty"`
	Lessons        []LessonRecord `json:"lessons"`
	Version        int64          `json:"-"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// LessonRecord is one learner's state for a single lesson of the course.
// A record with Completed=false marks a lesson that has been unlocked.
type LessonRecord struct {
	LessonID       string     `json:"lesson_id"`
	Completed      bool       `json:"completed"`
	QuizCompleted  bool       `json:"quiz_completed"`
	Progress       int        `json:"progress"`
	LastAccessDate *time.Time `json:"last_access_date,omitempty"`
}

// Lesson returns the record for lessonID, or nil
func (e *Enrollment) Lesson(lessonID string) *LessonRecord {
	for i := range e.Lessons {
		if e.Lessons[i].LessonID == lessonID {
			return &e.Lessons[i]
		}
	}
	return nil
}

// CompletedSet returns the IDs of all completed lessons
func (e *Enrollment) CompletedSet() map[string]bool {
	set := make(map[string]bool, len(e.Lessons))
	for _, l := range e.Lessons {
		if l.Completed {
			set[l.LessonID] = true
		}
	}
	return set
}

// CompletedCount returns the number of completed lessons
func (e *Enrollment) CompletedCount() int {
	n := 0
	for _, l := range e.Lessons {
		if l.Completed {
			n++
		}
	}
	return n
}

// IsCompleted reports whether the course has been finished
func (e *Enrollment) IsCompleted() bool {
	return e.CompletionDate != nil
}

// Clone returns a deep copy so pure transitions never alias stored state
func (e *Enrollment) Clone() *Enrollment {
	if e == nil {
		return nil
	}
	c := *e
	if e.CompletionDate != nil {
		t := *e.CompletionDate
		c.CompletionDate = &t
	}
	c.Lessons = make([]LessonRecord, len(e.Lessons))
	for i, l := range e.Lessons {
		c.Lessons[i] = l
		if l.LastAccessDate != nil {
			t := *l.LastAccessDate
			c.Lessons[i].LastAccessDate = &t
		}
	}
	return &c
}

// EnrollmentView is the read model returned to the course-delivery surface
type EnrollmentView struct {
	*Enrollment
	AccessibleLessons []string `json:"accessible_lessons"`
	TotalLessons      int      `json:"total_lessons"`
}

// EnrollRequest represents a request to enroll into a course
type EnrollRequest struct {
	CourseID string `json:"course_id"`
}

// LessonProgressRequest represents a partial progress update for a lesson
type LessonProgressRequest struct {
	Completed bool `json:"completed"`
	Progress  *int `json:"progress"`
}
