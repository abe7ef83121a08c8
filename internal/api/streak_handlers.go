package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/progress-engine/internal/clock"
	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/streak"
)

// Streak handlers

func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.recorder.Get(r.Context(), LearnerFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, r, err, "get streak")
		return
	}

	respondJSON(w, http.StatusOK, ledger)
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var req models.ActivityRequest
	// An empty body records a visit for today with no deltas
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	day := s.recorder.Today()
	if req.Date != "" {
		parsed, err := clock.ParseDay(req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", "date must be formatted as YYYY-MM-DD")
			return
		}
		day = parsed
	}

	ledger, err := s.recorder.RecordActivity(r.Context(), LearnerFromContext(r.Context()), day, streak.Delta{
		LessonsCompleted: req.LessonsCompleted,
		CoursesCompleted: req.CoursesCompleted,
		StudyHours:       req.StudyHours,
	})
	if err != nil {
		respondDomainError(w, r, err, "record activity")
		return
	}

	respondJSON(w, http.StatusOK, ledger)
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := s.recorder.Achievements(r.Context(), LearnerFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, r, err, "list achievements")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": achievements,
		"total":        len(achievements),
	})
}

// Calendar handlers

func (s *Server) handleTwoWeekCalendar(w http.ResponseWriter, r *http.Request) {
	window, err := s.recorder.TwoWeeks(r.Context(), LearnerFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, r, err, "build two-week calendar")
		return
	}

	respondJSON(w, http.StatusOK, window)
}

func (s *Server) handleYearCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "year must be a number")
		return
	}

	cal, err := s.recorder.Year(r.Context(), LearnerFromContext(r.Context()), year)
	if err != nil {
		respondDomainError(w, r, err, "build year calendar")
		return
	}

	respondJSON(w, http.StatusOK, cal)
}
