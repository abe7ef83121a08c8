package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/progress-engine/internal/api"
	"github.com/terra-clan/progress-engine/internal/catalog"
	"github.com/terra-clan/progress-engine/internal/clock"
	"github.com/terra-clan/progress-engine/internal/config"
	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/progress"
	"github.com/terra-clan/progress-engine/internal/storage"
	"github.com/terra-clan/progress-engine/internal/streak"
)

const testKey = "pk_client_test_0001"

func newTestClient(t *testing.T) *Client {
	t.Helper()

	repo := storage.NewMemoryRepository()
	repo.AddClient(&models.ApiClient{Name: "sdk", ApiKey: testKey, IsActive: true, Permissions: []string{"*"}})

	loader := catalog.NewLoader()
	require.NoError(t, loader.Add(&models.Curriculum{
		CourseID: "sql-101",
		Title:    "SQL 101",
		Topics: []models.Topic{
			{ID: "select", Lessons: []string{"s1", "s2"}},
		},
	}))

	clk := clock.Fixed{At: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)}
	counter := catalog.NewMemoryCounter()
	srv := api.NewServer(config.ServerConfig{}, api.Dependencies{
		Tracker:  progress.NewTracker(repo, loader, counter, progress.WithClock(clk)),
		Recorder: streak.NewRecorder(repo, streak.WithClock(clk)),
		Catalog:  loader,
		Counter:  counter,
		Clients:  repo,
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, testKey, WithTimeout(5*time.Second))
}

func TestClient_EnrollmentRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	e, err := c.Enroll(ctx, "ann", "sql-101")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, e.AccessibleLessons)
	assert.Equal(t, 2, e.TotalLessons)

	e, err = c.CompleteLesson(ctx, "ann", "sql-101", "s1")
	require.NoError(t, err)
	assert.Equal(t, 50, e.Progress)

	pct := 40
	e, err = c.UpdateLessonProgress(ctx, "ann", "sql-101", "s2", false, &pct)
	require.NoError(t, err)
	require.NotNil(t, e.Lesson("s2"))
	assert.Equal(t, 40, e.Lesson("s2").Progress)

	e, err = c.CompleteQuiz(ctx, "ann", "sql-101", "s1")
	require.NoError(t, err)
	assert.True(t, e.Lesson("s1").QuizCompleted)

	list, err := c.ListEnrollments(ctx, "ann")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	course, err := c.GetCourse(ctx, "sql-101")
	require.NoError(t, err)
	assert.Equal(t, int64(1), course.Enrolled)
	assert.Equal(t, 2, course.TotalLessons)

	courses, err := c.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "sql-101", courses[0].CourseID)
}

func TestClient_Streak(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	l, err := c.RecordActivity(ctx, "bo", models.ActivityRequest{LessonsCompleted: 2, StudyHours: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 1, l.CurrentStreak)
	assert.Equal(t, 2, l.TotalLessonsCompleted)

	l, err = c.GetStreak(ctx, "bo")
	require.NoError(t, err)
	require.NotNil(t, l.LastActivityDay)
	assert.Equal(t, "2024-06-10", l.LastActivityDay.String())

	achievements, err := c.ListAchievements(ctx, "bo")
	require.NoError(t, err)
	assert.Empty(t, achievements)

	window, err := c.TwoWeekCalendar(ctx, "bo")
	require.NoError(t, err)
	assert.Len(t, window.Days, 14)

	year, err := c.YearCalendar(ctx, "bo", 2024)
	require.NoError(t, err)
	assert.Len(t, year.Months, 12)
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.GetEnrollment(ctx, "ann", "sql-101")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_enrolled", apiErr.Code)

	_, err = c.CompleteLesson(ctx, "ann", "sql-101", "s1")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "not_enrolled", apiErr.Code)

	_, err = c.Enroll(ctx, "ann", "sql-101")
	require.NoError(t, err)
	_, err = c.CompleteLesson(ctx, "ann", "sql-101", "s2")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "lesson_locked", apiErr.Code)
}

func TestClient_Unauthorized(t *testing.T) {
	c := newTestClient(t)
	bad := NewClient(c.baseURL, "pk_wrong_key_000")

	_, err := bad.ListCourses(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid_api_key", apiErr.Code)

	assert.NoError(t, bad.Health(context.Background()))
}
