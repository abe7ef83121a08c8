package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/progress-engine/internal/catalog"
	"github.com/terra-clan/progress-engine/internal/config"
	"github.com/terra-clan/progress-engine/internal/progress"
	"github.com/terra-clan/progress-engine/internal/services"
	"github.com/terra-clan/progress-engine/internal/storage"
	"github.com/terra-clan/progress-engine/internal/streak"
)

// Permissions
const (
	PermProgressRead  = "progress:read"
	PermProgressWrite = "progress:write"
	PermStreakRead    = "streak:read"
	PermStreakWrite   = "streak:write"
	PermCatalogRead   = "catalog:read"
)

// Dependencies are the collaborators the HTTP layer serves
type Dependencies struct {
	Tracker  progress.Service
	Recorder streak.Service
	Catalog  *catalog.Loader
	Counter  catalog.Counter
	Clients  storage.ClientStore
	Registry *services.Registry
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	tracker        progress.Service
	recorder       streak.Service
	catalog        *catalog.Loader
	counter        catalog.Counter
	registry       *services.Registry
	authMiddleware *AuthMiddleware
	rateLimiter    *RateLimiter
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	s := &Server{
		config:         cfg,
		tracker:        deps.Tracker,
		recorder:       deps.Recorder,
		catalog:        deps.Catalog,
		counter:        deps.Counter,
		registry:       deps.Registry,
		authMiddleware: NewAuthMiddleware(deps.Clients),
		rateLimiter:    NewRateLimiter(cfg.RateLimitPerMinute),
	}
	if s.registry == nil {
		s.registry = services.NewRegistry()
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID", LearnerHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)
		if s.rateLimiter != nil {
			r.Use(s.rateLimiter.Limit)
		}

		// Courses (catalog, not learner-scoped)
		r.Route("/courses", func(r chi.Router) {
			r.Use(s.authMiddleware.RequirePermission(PermCatalogRead))
			r.Get("/", s.handleListCourses)
			r.Get("/{courseID}", s.handleGetCourse)
		})

		// Learner-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(RequireLearner)

			r.Route("/enrollments", func(r chi.Router) {
				read := r.With(s.authMiddleware.RequirePermission(PermProgressRead))
				write := r.With(s.authMiddleware.RequirePermission(PermProgressWrite))

				read.Get("/", s.handleListEnrollments)
				write.Post("/", s.handleEnroll)
				read.Get("/{courseID}", s.handleGetEnrollment)
				write.Post("/{courseID}/lessons/{lessonID}/complete", s.handleCompleteLesson)
				write.Put("/{courseID}/lessons/{lessonID}/progress", s.handleUpdateLessonProgress)
				write.Post("/{courseID}/lessons/{lessonID}/quiz/complete", s.handleCompleteQuiz)
			})

			r.Route("/streak", func(r chi.Router) {
				read := r.With(s.authMiddleware.RequirePermission(PermStreakRead))
				write := r.With(s.authMiddleware.RequirePermission(PermStreakWrite))

				read.Get("/", s.handleGetStreak)
				write.Post("/activity", s.handleRecordActivity)
				read.Get("/achievements", s.handleListAchievements)
				read.Get("/calendar/two-weeks", s.handleTwoWeekCalendar)
				read.Get("/calendar/{year}", s.handleYearCalendar)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
