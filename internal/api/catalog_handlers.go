package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/progress-engine/internal/models"
)

// Course handlers: read-only curriculum browsing

type courseDetail struct {
	*models.Curriculum
	TotalLessons int   `json:"total_lessons"`
	Enrolled     int64 `json:"students_enrolled"`
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	curricula := s.catalog.List()

	courses := make([]models.CourseSummary, 0, len(curricula))
	for _, c := range curricula {
		courses = append(courses, models.CourseSummary{
			CourseID:     c.CourseID,
			Title:        c.Title,
			Difficulty:   c.Difficulty,
			TopicsCount:  len(c.Topics),
			LessonsCount: c.TotalLessons(),
			Enrolled:     s.enrolledCount(r, c.CourseID),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
		"total":   len(courses),
	})
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	c, err := s.catalog.Curriculum(r.Context(), courseID)
	if err != nil {
		respondDomainError(w, r, err, "get course")
		return
	}
	if c == nil {
		respondError(w, http.StatusNotFound, "course_not_found", "course not found")
		return
	}

	respondJSON(w, http.StatusOK, courseDetail{
		Curriculum:   c,
		TotalLessons: c.TotalLessons(),
		Enrolled:     s.enrolledCount(r, courseID),
	})
}

// enrolledCount reads the enrollment counter; a counter outage reports zero
func (s *Server) enrolledCount(r *http.Request, courseID string) int64 {
	if s.counter == nil {
		return 0
	}
	n, err := s.counter.Count(r.Context(), courseID)
	if err != nil {
		slog.Warn("failed to read enrollment count", "course_id", courseID, "error", err)
		return 0
	}
	return n
}
