package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/progress-engine/internal/apperr"
	"github.com/terra-clan/progress-engine/internal/lock"
	"github.com/terra-clan/progress-engine/internal/progress"
	"github.com/terra-clan/progress-engine/internal/streak"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// errorCodes names the domain errors callers are expected to branch on
var errorCodes = []struct {
	err  error
	code string
}{
	{progress.ErrAlreadyEnrolled, "already_enrolled"},
	{progress.ErrNotEnrolled, "not_enrolled"},
	{progress.ErrCourseNotFound, "course_not_found"},
	{progress.ErrLessonNotInCourse, "lesson_not_in_course"},
	{progress.ErrLessonNotFound, "lesson_not_found"},
	{progress.ErrLessonLocked, "lesson_locked"},
	{progress.ErrInvalidProgress, "invalid_progress"},
	{streak.ErrInvalidDelta, "invalid_delta"},
	{streak.ErrFutureDay, "future_date"},
}

// respondDomainError maps an error from the progress core to a status by kind
func respondDomainError(w http.ResponseWriter, r *http.Request, err error, action string) {
	code := ""
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			code = c.code
			break
		}
	}

	message := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	switch kind := apperr.KindOf(err); {
	case errors.Is(err, lock.ErrNotAcquired):
		slog.Warn("lock wait exceeded", "action", action, "error", err)
		respondError(w, http.StatusServiceUnavailable, "busy", "resource is busy, retry later")
	case kind == apperr.ErrValidation:
		respondError(w, http.StatusBadRequest, orDefault(code, "validation_error"), message)
	case kind == apperr.ErrNotFound:
		respondError(w, http.StatusNotFound, orDefault(code, "not_found"), message)
	case kind == apperr.ErrConflict:
		respondError(w, http.StatusConflict, orDefault(code, "conflict"), message)
	case kind == apperr.ErrConcurrency:
		slog.Warn("concurrent modification not resolved", "action", action, "error", err)
		respondError(w, http.StatusConflict, "concurrent_modification", "the record was modified concurrently, retry the request")
	default:
		slog.Error("request failed", "action", action, "error", err,
			"path", r.URL.Path, "learner_id", LearnerFromContext(r.Context()))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}

func orDefault(code, fallback string) string {
	if code == "" {
		return fallback
	}
	return code
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.registry.HealthCheckAll(r.Context())

	checks := make(map[string]string, len(results))
	ready := true
	for name, err := range results {
		if err != nil {
			ready = false
			checks[name] = err.Error()
			slog.Warn("readiness check failed", "service", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}
