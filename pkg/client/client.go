package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/terra-clan/progress-engine/internal/models"
)

// Client is a Go SDK for the progress-engine API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new progress-engine client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error envelope returned by the server
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s - %s", e.StatusCode, e.Code, e.Message)
}

// Enrollment is an enrollment as served by the API
type Enrollment struct {
	models.Enrollment
	AccessibleLessons []string `json:"accessible_lessons"`
	TotalLessons      int      `json:"total_lessons"`
}

// Course is a curriculum with its enrollment count
type Course struct {
	models.Curriculum
	TotalLessons int   `json:"total_lessons"`
	Enrolled     int64 `json:"students_enrolled"`
}

// Enroll enrolls learnerID in courseID
func (c *Client) Enroll(ctx context.Context, learnerID, courseID string) (*Enrollment, error) {
	var result Enrollment
	if err := c.do(ctx, http.MethodPost, "/api/v1/enrollments", learnerID, models.EnrollRequest{CourseID: courseID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetEnrollment retrieves the learner's enrollment in courseID
func (c *Client) GetEnrollment(ctx context.Context, learnerID, courseID string) (*Enrollment, error) {
	var result Enrollment
	if err := c.do(ctx, http.MethodGet, "/api/v1/enrollments/"+url.PathEscape(courseID), learnerID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListEnrollments retrieves all enrollments of a learner
func (c *Client) ListEnrollments(ctx context.Context, learnerID string) ([]*Enrollment, error) {
	var result struct {
		Enrollments []*Enrollment `json:"enrollments"`
		Total       int           `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/enrollments", learnerID, nil, &result); err != nil {
		return nil, err
	}
	return result.Enrollments, nil
}

// CompleteLesson marks a lesson completed
func (c *Client) CompleteLesson(ctx context.Context, learnerID, courseID, lessonID string) (*Enrollment, error) {
	var result Enrollment
	if err := c.do(ctx, http.MethodPost, lessonPath(courseID, lessonID, "complete"), learnerID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateLessonProgress reports partial progress on a lesson. A nil progress
// leaves the lesson's percentage unchanged.
func (c *Client) UpdateLessonProgress(ctx context.Context, learnerID, courseID, lessonID string, completed bool, progress *int) (*Enrollment, error) {
	req := models.LessonProgressRequest{Completed: completed, Progress: progress}

	var result Enrollment
	if err := c.do(ctx, http.MethodPut, lessonPath(courseID, lessonID, "progress"), learnerID, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CompleteQuiz marks a lesson's quiz completed
func (c *Client) CompleteQuiz(ctx context.Context, learnerID, courseID, lessonID string) (*Enrollment, error) {
	var result Enrollment
	if err := c.do(ctx, http.MethodPost, lessonPath(courseID, lessonID, "quiz/complete"), learnerID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetStreak retrieves the learner's streak ledger
func (c *Client) GetStreak(ctx context.Context, learnerID string) (*models.StreakLedger, error) {
	var result models.StreakLedger
	if err := c.do(ctx, http.MethodGet, "/api/v1/streak", learnerID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordActivity records study activity. An empty Date means today on the server.
func (c *Client) RecordActivity(ctx context.Context, learnerID string, req models.ActivityRequest) (*models.StreakLedger, error) {
	var result models.StreakLedger
	if err := c.do(ctx, http.MethodPost, "/api/v1/streak/activity", learnerID, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAchievements retrieves the learner's granted badges
func (c *Client) ListAchievements(ctx context.Context, learnerID string) ([]models.Achievement, error) {
	var result struct {
		Achievements []models.Achievement `json:"achievements"`
		Total        int                  `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/streak/achievements", learnerID, nil, &result); err != nil {
		return nil, err
	}
	return result.Achievements, nil
}

// TwoWeekCalendar retrieves the current 14-day streak window
func (c *Client) TwoWeekCalendar(ctx context.Context, learnerID string) (*models.TwoWeekWindow, error) {
	var result models.TwoWeekWindow
	if err := c.do(ctx, http.MethodGet, "/api/v1/streak/calendar/two-weeks", learnerID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// YearCalendar retrieves the month-by-month activity grid of year
func (c *Client) YearCalendar(ctx context.Context, learnerID string, year int) (*models.YearCalendar, error) {
	var result models.YearCalendar
	if err := c.do(ctx, http.MethodGet, "/api/v1/streak/calendar/"+strconv.Itoa(year), learnerID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListCourses retrieves the course catalog
func (c *Client) ListCourses(ctx context.Context) ([]models.CourseSummary, error) {
	var result struct {
		Courses []models.CourseSummary `json:"courses"`
		Total   int                    `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/courses", "", nil, &result); err != nil {
		return nil, err
	}
	return result.Courses, nil
}

// GetCourse retrieves one curriculum
func (c *Client) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	var result Course
	if err := c.do(ctx, http.MethodGet, "/api/v1/courses/"+url.PathEscape(courseID), "", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func lessonPath(courseID, lessonID, action string) string {
	return "/api/v1/enrollments/" + url.PathEscape(courseID) + "/lessons/" + url.PathEscape(lessonID) + "/" + action
}

// do performs an HTTP request and unwraps the response envelope into out
func (c *Client) do(ctx context.Context, method, path, learnerID string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if learnerID != "" {
		req.Header.Set("X-Learner-ID", learnerID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 400 {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || resp.StatusCode >= 400 {
		apiErr := result.Error
		if apiErr == nil {
			apiErr = &APIError{Code: "unknown", Message: http.StatusText(resp.StatusCode)}
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}
