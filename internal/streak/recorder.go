package streak

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/terra-clan/progress-engine/internal/apperr"
	"github.com/terra-clan/progress-engine/internal/clock"
	"github.com/terra-clan/progress-engine/internal/lock"
	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/storage"
	"github.com/terra-clan/progress-engine/pkg/retry"
)

// Recorder owns the streak ledgers of all learners
type Recorder struct {
	store    storage.LedgerStore
	calendar clock.Calendar
	clock    clock.Clock
	locker   lock.Locker
	retrier  *retry.Retrier
}

// Option configures a Recorder
type Option func(*Recorder)

// WithLocker sets the per-learner locker (default: in-process)
func WithLocker(l lock.Locker) Option {
	return func(r *Recorder) { r.locker = l }
}

// WithClock sets the time source (default: system clock)
func WithClock(c clock.Clock) Option {
	return func(r *Recorder) { r.clock = c }
}

// WithCalendar sets the reference time zone for day boundaries (default: UTC)
func WithCalendar(c clock.Calendar) Option {
	return func(r *Recorder) { r.calendar = c }
}

// WithMaxAttempts bounds the retries of a lost compare-and-swap
func WithMaxAttempts(n int) Option {
	return func(r *Recorder) { r.retrier = newRetrier(n) }
}

// NewRecorder creates a Recorder
func NewRecorder(store storage.LedgerStore, opts ...Option) *Recorder {
	r := &Recorder{
		store:    store,
		calendar: clock.NewCalendar(time.UTC),
		clock:    clock.System{},
		locker:   lock.NewLocal(),
		retrier:  newRetrier(3),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newRetrier(attempts int) *retry.Retrier {
	return retry.New(
		retry.WithMaxAttempts(attempts),
		retry.WithRetryIf(func(err error) bool { return errors.Is(err, apperr.ErrConcurrency) }),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			slog.Debug("concurrency retry", "component", "streak", "attempt", attempt, "delay", delay)
		}),
	)
}

// Today returns the current calendar day in the reference time zone
func (r *Recorder) Today() clock.Day {
	return r.calendar.Today(r.clock)
}

// DayOf normalizes an instant to its calendar day
func (r *Recorder) DayOf(t time.Time) clock.Day {
	return r.calendar.DayOf(t)
}

// Get returns the learner's ledger, creating it on first use
func (r *Recorder) Get(ctx context.Context, learnerID string) (*models.StreakLedger, error) {
	if learnerID == "" {
		return nil, apperr.Validation("streak.Get", "learner_id is required")
	}

	l, err := r.store.GetLedger(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get streak ledger: %w", err)
	}
	if l != nil {
		return l, nil
	}

	now := r.clock.Now()
	l = models.NewStreakLedger(learnerID, r.calendar.DayOf(now), now)
	if err := r.store.CreateLedger(ctx, l); err != nil {
		if !errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create streak ledger: %w", err)
		}
		// Lost the creation race; the winner's ledger is authoritative
		l, err = r.store.GetLedger(ctx, learnerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get streak ledger: %w", err)
		}
		if l == nil {
			return nil, apperr.New("streak.Get", apperr.ErrConcurrency, "streak ledger vanished after creation")
		}
		return l, nil
	}

	slog.Info("streak ledger created", "learner_id", learnerID, "joined_on", l.JoinedOn)
	return l, nil
}

// RecordActivity adds study activity for day to the learner's ledger.
// Days after today are rejected.
func (r *Recorder) RecordActivity(ctx context.Context, learnerID string, day clock.Day, d Delta) (*models.StreakLedger, error) {
	if !d.valid() {
		return nil, ErrInvalidDelta
	}
	if day > r.Today() {
		return nil, ErrFutureDay
	}

	unlock, err := r.locker.Lock(ctx, "streak:"+learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock streak ledger: %w", err)
	}
	defer unlock()

	var result *models.StreakLedger
	err = r.retrier.Do(ctx, func(ctx context.Context) error {
		l, err := r.Get(ctx, learnerID)
		if err != nil {
			return err
		}

		next, granted, err := Apply(l, day, d, r.clock.Now())
		if err != nil {
			return err
		}
		if err := r.store.UpdateLedger(ctx, next); err != nil {
			return fmt.Errorf("failed to update streak ledger: %w", err)
		}

		for _, a := range granted {
			slog.Info("achievement granted", "learner_id", learnerID, "type", a.Kind)
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("activity recorded", "learner_id", learnerID, "day", day,
		"current_streak", result.CurrentStreak, "longest_streak", result.LongestStreak)
	return result, nil
}

// Achievements returns the achievements held by the learner
func (r *Recorder) Achievements(ctx context.Context, learnerID string) ([]models.Achievement, error) {
	l, err := r.Get(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return l.Achievements, nil
}

// TwoWeeks returns the learner's current 14-day window
func (r *Recorder) TwoWeeks(ctx context.Context, learnerID string) (*models.TwoWeekWindow, error) {
	l, err := r.Get(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	w := TwoWeekWindow(l, l.JoinedOn, r.Today())
	return &w, nil
}

// Year returns the learner's activity grid for year
func (r *Recorder) Year(ctx context.Context, learnerID string, year int) (*models.YearCalendar, error) {
	if year < 1970 || year > 9999 {
		return nil, apperr.Validation("streak.Year", "year %d is out of range", year)
	}
	l, err := r.Get(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	cal := YearGrid(l, year, l.JoinedOn, r.Today())
	return &cal, nil
}

// Service defines the streak ledger operations
type Service interface {
	Today() clock.Day
	Get(ctx context.Context, learnerID string) (*models.StreakLedger, error)
	RecordActivity(ctx context.Context, learnerID string, day clock.Day, d Delta) (*models.StreakLedger, error)
	Achievements(ctx context.Context, learnerID string) ([]models.Achievement, error)
	TwoWeeks(ctx context.Context, learnerID string) (*models.TwoWeekWindow, error)
	Year(ctx context.Context, learnerID string, year int) (*models.YearCalendar, error)
}

var _ Service = (*Recorder)(nil)
