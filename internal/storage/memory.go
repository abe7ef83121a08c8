package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/terra-clan/progress-engine/internal/models"
)

// MemoryRepository implements Repository in process memory.
// Records are copied on the way in and out so callers never share state.
type MemoryRepository struct {
	mu          sync.RWMutex
	enrollments map[string]*models.Enrollment
	ledgers     map[string]*models.StreakLedger
	clients     map[string]*models.ApiClient
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		enrollments: make(map[string]*models.Enrollment),
		ledgers:     make(map[string]*models.StreakLedger),
		clients:     make(map[string]*models.ApiClient),
	}
}

func enrollmentKey(learnerID, courseID string) string {
	return learnerID + "\x00" + courseID
}

// AddClient registers an API client
func (r *MemoryRepository) AddClient(c *models.ApiClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.clients[c.ApiKey] = &cp
}

// CreateEnrollment stores a new enrollment
func (r *MemoryRepository) CreateEnrollment(ctx context.Context, e *models.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := enrollmentKey(e.LearnerID, e.CourseID)
	if _, exists := r.enrollments[key]; exists {
		return ErrDuplicate
	}
	e.Version = 1
	r.enrollments[key] = e.Clone()
	return nil
}

// GetEnrollment retrieves an enrollment by learner and course
func (r *MemoryRepository) GetEnrollment(ctx context.Context, learnerID, courseID string) (*models.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.enrollments[enrollmentKey(learnerID, courseID)]
	if !ok {
		return nil, nil
	}
	return e.Clone(), nil
}

// ListEnrollments returns all enrollments of a learner ordered by start date
func (r *MemoryRepository) ListEnrollments(ctx context.Context, learnerID string) ([]*models.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Enrollment
	for _, e := range r.enrollments {
		if e.LearnerID == learnerID {
			result = append(result, e.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].CourseID < result[j].CourseID
		}
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, nil
}

// UpdateEnrollment replaces an enrollment if its version still matches
func (r *MemoryRepository) UpdateEnrollment(ctx context.Context, e *models.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := enrollmentKey(e.LearnerID, e.CourseID)
	current, ok := r.enrollments[key]
	if !ok || current.Version != e.Version {
		return ErrVersionConflict
	}
	e.Version++
	r.enrollments[key] = e.Clone()
	return nil
}

// CreateLedger stores a new streak ledger
func (r *MemoryRepository) CreateLedger(ctx context.Context, l *models.StreakLedger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ledgers[l.LearnerID]; exists {
		return ErrDuplicate
	}
	l.Version = 1
	r.ledgers[l.LearnerID] = l.Clone()
	return nil
}

// GetLedger retrieves a learner's streak ledger
func (r *MemoryRepository) GetLedger(ctx context.Context, learnerID string) (*models.StreakLedger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.ledgers[learnerID]
	if !ok {
		return nil, nil
	}
	return l.Clone(), nil
}

// UpdateLedger replaces a ledger if its version still matches
func (r *MemoryRepository) UpdateLedger(ctx context.Context, l *models.StreakLedger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.ledgers[l.LearnerID]
	if !ok || current.Version != l.Version {
		return ErrVersionConflict
	}
	l.Version++
	r.ledgers[l.LearnerID] = l.Clone()
	return nil
}

// GetClientByApiKey retrieves an API client by its key
func (r *MemoryRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[apiKey]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// UpdateClientLastUsed stamps the client's last use
func (r *MemoryRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[apiKey]; ok {
		now := time.Now()
		c.LastUsedAt = &now
	}
	return nil
}

// Ping always succeeds
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}
