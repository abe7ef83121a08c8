package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/progress-engine/internal/models"
)

// Enrollment handlers

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req models.EnrollRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req.CourseID = strings.TrimSpace(req.CourseID)
	if req.CourseID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "course_id is required")
		return
	}

	view, err := s.tracker.Enroll(r.Context(), LearnerFromContext(r.Context()), req.CourseID)
	if err != nil {
		respondDomainError(w, r, err, "enroll")
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	views, err := s.tracker.ListForLearner(r.Context(), LearnerFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, r, err, "list enrollments")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"enrollments": views,
		"total":       len(views),
	})
}

func (s *Server) handleGetEnrollment(w http.ResponseWriter, r *http.Request) {
	view, err := s.tracker.Get(r.Context(), LearnerFromContext(r.Context()), chi.URLParam(r, "courseID"))
	if err != nil {
		respondDomainError(w, r, err, "get enrollment")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// Lesson handlers

func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	view, err := s.tracker.CompleteLesson(r.Context(),
		LearnerFromContext(r.Context()),
		chi.URLParam(r, "courseID"),
		chi.URLParam(r, "lessonID"),
	)
	if err != nil {
		respondDomainError(w, r, err, "complete lesson")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateLessonProgress(w http.ResponseWriter, r *http.Request) {
	var req models.LessonProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	view, err := s.tracker.UpdateLessonProgress(r.Context(),
		LearnerFromContext(r.Context()),
		chi.URLParam(r, "courseID"),
		chi.URLParam(r, "lessonID"),
		req.Completed,
		req.Progress,
	)
	if err != nil {
		respondDomainError(w, r, err, "update lesson progress")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleCompleteQuiz(w http.ResponseWriter, r *http.Request) {
	view, err := s.tracker.CompleteQuiz(r.Context(),
		LearnerFromContext(r.Context()),
		chi.URLParam(r, "courseID"),
		chi.URLParam(r, "lessonID"),
	)
	if err != nil {
		respondDomainError(w, r, err, "complete quiz")
		return
	}

	respondJSON(w, http.StatusOK, view)
}
