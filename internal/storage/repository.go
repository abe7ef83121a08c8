package storage

import (
	"context"

	"github.com/terra-clan/progress-engine/internal/apperr"
	"github.com/terra-clan/progress-engine/internal/models"
)

// Storage errors
var (
	ErrDuplicate       = apperr.New("storage", apperr.ErrConflict, "record already exists")
	ErrVersionConflict = apperr.New("storage", apperr.ErrConcurrency, "record was modified concurrently")
)

// EnrollmentStore persists one document per (learner, course).
// Get methods return (nil, nil) when the record does not exist.
type EnrollmentStore interface {
	// CreateEnrollment fails with ErrDuplicate if the pair is already enrolled
	CreateEnrollment(ctx context.Context, e *models.Enrollment) error
	GetEnrollment(ctx context.Context, learnerID, courseID string) (*models.Enrollment, error)
	ListEnrollments(ctx context.Context, learnerID string) ([]*models.Enrollment, error)
	// UpdateEnrollment is a compare-and-swap on e.Version. On success
	// e.Version is advanced; a stale version fails with ErrVersionConflict.
	UpdateEnrollment(ctx context.Context, e *models.Enrollment) error
}

// LedgerStore persists one streak ledger per learner
type LedgerStore interface {
	// CreateLedger fails with ErrDuplicate if the learner already has one
	CreateLedger(ctx context.Context, l *models.StreakLedger) error
	GetLedger(ctx context.Context, learnerID string) (*models.StreakLedger, error)
	// UpdateLedger is a compare-and-swap on l.Version
	UpdateLedger(ctx context.Context, l *models.StreakLedger) error
}

// ClientStore resolves API keys
type ClientStore interface {
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error
}

// Repository is the full persistence surface of the service
type Repository interface {
	EnrollmentStore
	LedgerStore
	ClientStore

	// Health
	Ping(ctx context.Context) error
	Close() error
}
