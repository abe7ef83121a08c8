package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/progress-engine/internal/apperr"
	"github.com/terra-clan/progress-engine/internal/clock"
	"github.com/terra-clan/progress-engine/internal/models"
)

func newEnrollment(learner, course string) *models.Enrollment {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &models.Enrollment{
		ID:        learner + "-" + course,
		LearnerID: learner,
		CourseID:  course,
		StartDate: now,
		Lessons:   []models.LessonRecord{{LessonID: "L1"}},
		UpdatedAt: now,
	}
}

func TestMemory_CreateEnrollmentRejectsDuplicate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateEnrollment(ctx, newEnrollment("u1", "go")))
	err := repo.CreateEnrollment(ctx, newEnrollment("u1", "go"))
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// another learner may enroll in the same course
	assert.NoError(t, repo.CreateEnrollment(ctx, newEnrollment("u2", "go")))
}

func TestMemory_GetEnrollmentMissing(t *testing.T) {
	repo := NewMemoryRepository()
	e, err := repo.GetEnrollment(context.Background(), "u1", "go")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestMemory_UpdateEnrollmentCompareAndSwap(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateEnrollment(ctx, newEnrollment("u1", "go")))

	a, err := repo.GetEnrollment(ctx, "u1", "go")
	require.NoError(t, err)
	b, err := repo.GetEnrollment(ctx, "u1", "go")
	require.NoError(t, err)

	a.Progress = 50
	require.NoError(t, repo.UpdateEnrollment(ctx, a))
	assert.Equal(t, int64(2), a.Version)

	b.Progress = 10
	err = repo.UpdateEnrollment(ctx, b)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, apperr.ErrConcurrency, apperr.KindOf(err))

	got, err := repo.GetEnrollment(ctx, "u1", "go")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Progress)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateEnrollment(ctx, newEnrollment("u1", "go")))

	got, err := repo.GetEnrollment(ctx, "u1", "go")
	require.NoError(t, err)
	got.Lessons[0].Completed = true

	again, err := repo.GetEnrollment(ctx, "u1", "go")
	require.NoError(t, err)
	assert.False(t, again.Lessons[0].Completed)
}

func TestMemory_ListEnrollmentsByLearner(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first := newEnrollment("u1", "rust")
	second := newEnrollment("u1", "go")
	second.StartDate = first.StartDate.Add(time.Hour)
	require.NoError(t, repo.CreateEnrollment(ctx, second))
	require.NoError(t, repo.CreateEnrollment(ctx, first))
	require.NoError(t, repo.CreateEnrollment(ctx, newEnrollment("u2", "go")))

	list, err := repo.ListEnrollments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "rust", list[0].CourseID)
	assert.Equal(t, "go", list[1].CourseID)
}

func TestMemory_LedgerLifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	l := models.NewStreakLedger("u1", clock.DateOf(2024, time.March, 1), now)
	require.NoError(t, repo.CreateLedger(ctx, l))
	assert.ErrorIs(t, repo.CreateLedger(ctx, models.NewStreakLedger("u1", l.JoinedOn, now)), ErrDuplicate)

	stale, err := repo.GetLedger(ctx, "u1")
	require.NoError(t, err)

	l.CurrentStreak = 1
	require.NoError(t, repo.UpdateLedger(ctx, l))
	assert.ErrorIs(t, repo.UpdateLedger(ctx, stale), ErrVersionConflict)

	got, err := repo.GetLedger(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStreak)

	missing, err := repo.GetLedger(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemory_Clients(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	repo.AddClient(&models.ApiClient{ID: 1, Name: "web", ApiKey: "key-123456789", IsActive: true})

	c, err := repo.GetClientByApiKey(ctx, "key-123456789")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Nil(t, c.LastUsedAt)

	require.NoError(t, repo.UpdateClientLastUsed(ctx, "key-123456789"))
	c, err = repo.GetClientByApiKey(ctx, "key-123456789")
	require.NoError(t, err)
	assert.NotNil(t, c.LastUsedAt)

	none, err := repo.GetClientByApiKey(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, none)
}
