package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/progress-engine/internal/apperr"
	"github.com/terra-clan/progress-engine/internal/catalog"
	"github.com/terra-clan/progress-engine/internal/clock"
	"github.com/terra-clan/progress-engine/internal/lock"
	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/storage"
	"github.com/terra-clan/progress-engine/pkg/retry"
)

// Service defines the enrollment progress operations
type Service interface {
	Enroll(ctx context.Context, learnerID, courseID string) (*models.EnrollmentView, error)
	CompleteLesson(ctx context.Context, learnerID, courseID, lessonID string) (*models.EnrollmentView, error)
	UpdateLessonProgress(ctx context.Context, learnerID, courseID, lessonID string, completed bool, progress *int) (*models.EnrollmentView, error)
	CompleteQuiz(ctx context.Context, learnerID, courseID, lessonID string) (*models.EnrollmentView, error)
	Get(ctx context.Context, learnerID, courseID string) (*models.EnrollmentView, error)
	ListForLearner(ctx context.Context, learnerID string) ([]*models.EnrollmentView, error)
}

// Tracker implements Service on top of an EnrollmentStore
type Tracker struct {
	store   storage.EnrollmentStore
	courses catalog.Source
	counter catalog.Counter
	locker  lock.Locker
	clock   clock.Clock
	retrier *retry.Retrier
}

// Option configures a Tracker
type Option func(*Tracker)

// WithLocker sets the per-enrollment locker (default: in-process)
func WithLocker(l lock.Locker) Option {
	return func(t *Tracker) { t.locker = l }
}

// WithClock sets the time source (default: system clock)
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithMaxAttempts bounds the retries of a lost compare-and-swap
func WithMaxAttempts(n int) Option {
	return func(t *Tracker) { t.retrier = newRetrier(n) }
}

// NewTracker creates a Tracker
func NewTracker(store storage.EnrollmentStore, courses catalog.Source, counter catalog.Counter, opts ...Option) *Tracker {
	t := &Tracker{
		store:   store,
		courses: courses,
		counter: counter,
		locker:  lock.NewLocal(),
		clock:   clock.System{},
		retrier: newRetrier(3),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func newRetrier(attempts int) *retry.Retrier {
	return retry.New(
		retry.WithMaxAttempts(attempts),
		retry.WithRetryIf(func(err error) bool { return errors.Is(err, apperr.ErrConcurrency) }),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			slog.Debug("concurrency retry", "component", "progress", "attempt", attempt, "delay", delay)
		}),
	)
}

// Enroll creates the enrollment of learnerID in courseID
func (t *Tracker) Enroll(ctx context.Context, learnerID, courseID string) (*models.EnrollmentView, error) {
	if learnerID == "" || courseID == "" {
		return nil, apperr.Validation("progress.Enroll", "learner_id and course_id are required")
	}

	c, err := t.curriculum(ctx, courseID)
	if err != nil {
		return nil, err
	}

	e := NewEnrollment(uuid.NewString(), learnerID, c, t.clock.Now())
	if err := t.store.CreateEnrollment(ctx, e); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	if _, err := t.counter.Increment(ctx, courseID); err != nil {
		// The enrollment is already durable; the counter is advisory
		slog.Error("failed to increment enrollment counter", "course_id", courseID, "error", err)
	}

	slog.Info("enrollment created", "learner_id", learnerID, "course_id", courseID, "lessons", c.TotalLessons())
	return view(e, c), nil
}

// CompleteLesson marks a lesson completed and opens the next one
func (t *Tracker) CompleteLesson(ctx context.Context, learnerID, courseID, lessonID string) (*models.EnrollmentView, error) {
	return t.mutate(ctx, learnerID, courseID, func(e *models.Enrollment, c *models.Curriculum, now time.Time) (*models.Enrollment, error) {
		return ApplyCompletion(e, c, lessonID, now)
	})
}

// UpdateLessonProgress records partial progress inside a lesson
func (t *Tracker) UpdateLessonProgress(ctx context.Context, learnerID, courseID, lessonID string, completed bool, progress *int) (*models.EnrollmentView, error) {
	if progress != nil && (*progress < 0 || *progress > 100) {
		return nil, ErrInvalidProgress
	}
	return t.mutate(ctx, learnerID, courseID, func(e *models.Enrollment, c *models.Curriculum, now time.Time) (*models.Enrollment, error) {
		return ApplyLessonProgress(e, c, lessonID, completed, progress, now)
	})
}

// CompleteQuiz flags the quiz of a recorded lesson
func (t *Tracker) CompleteQuiz(ctx context.Context, learnerID, courseID, lessonID string) (*models.EnrollmentView, error) {
	return t.mutate(ctx, learnerID, courseID, func(e *models.Enrollment, c *models.Curriculum, now time.Time) (*models.Enrollment, error) {
		return ApplyQuizCompletion(e, lessonID, now)
	})
}

// Get returns an enrollment with its currently open lessons
func (t *Tracker) Get(ctx context.Context, learnerID, courseID string) (*models.EnrollmentView, error) {
	e, err := t.store.GetEnrollment(ctx, learnerID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	if e == nil {
		return nil, ErrNotEnrolled
	}

	c, err := t.courses.Curriculum(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get curriculum: %w", err)
	}
	return view(e, c), nil
}

// ListForLearner returns every enrollment of a learner
func (t *Tracker) ListForLearner(ctx context.Context, learnerID string) ([]*models.EnrollmentView, error) {
	list, err := t.store.ListEnrollments(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	views := make([]*models.EnrollmentView, 0, len(list))
	for _, e := range list {
		c, err := t.courses.Curriculum(ctx, e.CourseID)
		if err != nil {
			return nil, fmt.Errorf("failed to get curriculum: %w", err)
		}
		views = append(views, view(e, c))
	}
	return views, nil
}

type transition func(e *models.Enrollment, c *models.Curriculum, now time.Time) (*models.Enrollment, error)

// mutate runs a read-modify-write cycle under the enrollment lock, retrying
// lost compare-and-swaps
func (t *Tracker) mutate(ctx context.Context, learnerID, courseID string, fn transition) (*models.EnrollmentView, error) {
	unlock, err := t.locker.Lock(ctx, "enrollment:"+learnerID+":"+courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock enrollment: %w", err)
	}
	defer unlock()

	var result *models.EnrollmentView
	err = t.retrier.Do(ctx, func(ctx context.Context) error {
		e, err := t.store.GetEnrollment(ctx, learnerID, courseID)
		if err != nil {
			return fmt.Errorf("failed to get enrollment: %w", err)
		}
		if e == nil {
			return ErrNotEnrolled
		}

		c, err := t.curriculum(ctx, courseID)
		if err != nil {
			return err
		}

		next, err := fn(e, c, t.clock.Now())
		if err != nil {
			return err
		}
		if err := t.store.UpdateEnrollment(ctx, next); err != nil {
			return fmt.Errorf("failed to update enrollment: %w", err)
		}

		if next.IsCompleted() && !e.IsCompleted() {
			slog.Info("course completed", "learner_id", learnerID, "course_id", courseID)
		}
		result = view(next, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (t *Tracker) curriculum(ctx context.Context, courseID string) (*models.Curriculum, error) {
	c, err := t.courses.Curriculum(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get curriculum: %w", err)
	}
	if c == nil {
		return nil, ErrCourseNotFound
	}
	return c, nil
}

func view(e *models.Enrollment, c *models.Curriculum) *models.EnrollmentView {
	accessible := AccessibleLessons(c, e.CompletedSet())
	if accessible == nil {
		accessible = []string{}
	}
	return &models.EnrollmentView{
		Enrollment:        e,
		AccessibleLessons: accessible,
		TotalLessons:      c.TotalLessons(),
	}
}

var _ Service = (*Tracker)(nil)
