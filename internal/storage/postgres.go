package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/progress-engine/internal/clock"
	"github.com/terra-clan/progress-engine/internal/models"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 25
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}
	poolConfig.MinConns = 2
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the underlying pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateEnrollment inserts a new enrollment document
func (r *PostgresRepository) CreateEnrollment(ctx context.Context, e *models.Enrollment) error {
	lessonsJSON, err := json.Marshal(e.Lessons)
	if err != nil {
		return fmt.Errorf("failed to marshal lessons: %w", err)
	}

	query := `
		INSERT INTO enrollments (id, learner_id, course_id, progress, start_date, completion_date, lessons, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8)
	`

	_, err = r.pool.Exec(ctx, query,
		e.ID,
		e.LearnerID,
		e.CourseID,
		e.Progress,
		e.StartDate,
		nullTime(e.CompletionDate),
		lessonsJSON,
		e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	e.Version = 1
	return nil
}

const enrollmentColumns = `id, learner_id, course_id, progress, start_date, completion_date, lessons, version, updated_at`

// GetEnrollment retrieves an enrollment by learner and course
func (r *PostgresRepository) GetEnrollment(ctx context.Context, learnerID, courseID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE learner_id = $1 AND course_id = $2`

	e, err := scanEnrollment(r.pool.QueryRow(ctx, query, learnerID, courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return e, nil
}

// ListEnrollments returns all enrollments of a learner ordered by start date
func (r *PostgresRepository) ListEnrollments(ctx context.Context, learnerID string) ([]*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE learner_id = $1 ORDER BY start_date, course_id`

	rows, err := r.pool.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var result []*models.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// UpdateEnrollment writes the document if the stored version still matches
func (r *PostgresRepository) UpdateEnrollment(ctx context.Context, e *models.Enrollment) error {
	lessonsJSON, err := json.Marshal(e.Lessons)
	if err != nil {
		return fmt.Errorf("failed to marshal lessons: %w", err)
	}

	query := `
		UPDATE enrollments
		SET progress = $3, completion_date = $4, lessons = $5, updated_at = $6, version = version + 1
		WHERE id = $1 AND version = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		e.ID,
		e.Version,
		e.Progress,
		nullTime(e.CompletionDate),
		lessonsJSON,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	e.Version++
	return nil
}

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	var e models.Enrollment
	var completionDate sql.NullTime
	var lessonsJSON []byte

	err := row.Scan(
		&e.ID,
		&e.LearnerID,
		&e.CourseID,
		&e.Progress,
		&e.StartDate,
		&completionDate,
		&lessonsJSON,
		&e.Version,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if completionDate.Valid {
		e.CompletionDate = &completionDate.Time
	}
	if lessonsJSON != nil {
		if err := json.Unmarshal(lessonsJSON, &e.Lessons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lessons: %w", err)
		}
	}
	return &e, nil
}

// CreateLedger inserts a new streak ledger
func (r *PostgresRepository) CreateLedger(ctx context.Context, l *models.StreakLedger) error {
	activitiesJSON, achievementsJSON, err := marshalLedgerDocs(l)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO streak_ledgers (learner_id, current_streak, longest_streak, last_activity_day, joined_on,
			total_lessons_completed, total_courses_completed, total_study_hours,
			daily_activities, achievements, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $12)
	`

	_, err = r.pool.Exec(ctx, query,
		l.LearnerID,
		l.CurrentStreak,
		l.LongestStreak,
		nullDay(l.LastActivityDay),
		int32(l.JoinedOn),
		l.TotalLessonsCompleted,
		l.TotalCoursesCompleted,
		l.TotalStudyHours,
		activitiesJSON,
		achievementsJSON,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create streak ledger: %w", err)
	}

	l.Version = 1
	return nil
}

// GetLedger retrieves a learner's streak ledger
func (r *PostgresRepository) GetLedger(ctx context.Context, learnerID string) (*models.StreakLedger, error) {
	query := `
		SELECT learner_id, current_streak, longest_streak, last_activity_day, joined_on,
			total_lessons_completed, total_courses_completed, total_study_hours,
			daily_activities, achievements, version, created_at, updated_at
		FROM streak_ledgers
		WHERE learner_id = $1
	`

	var l models.StreakLedger
	var lastDay sql.NullInt32
	var joinedOn int32
	var activitiesJSON, achievementsJSON []byte

	err := r.pool.QueryRow(ctx, query, learnerID).Scan(
		&l.LearnerID,
		&l.CurrentStreak,
		&l.LongestStreak,
		&lastDay,
		&joinedOn,
		&l.TotalLessonsCompleted,
		&l.TotalCoursesCompleted,
		&l.TotalStudyHours,
		&activitiesJSON,
		&achievementsJSON,
		&l.Version,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get streak ledger: %w", err)
	}

	l.JoinedOn = clock.Day(joinedOn)
	if lastDay.Valid {
		d := clock.Day(lastDay.Int32)
		l.LastActivityDay = &d
	}
	if activitiesJSON != nil {
		if err := json.Unmarshal(activitiesJSON, &l.DailyActivities); err != nil {
			return nil, fmt.Errorf("failed to unmarshal daily activities: %w", err)
		}
	}
	if achievementsJSON != nil {
		if err := json.Unmarshal(achievementsJSON, &l.Achievements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal achievements: %w", err)
		}
	}

	return &l, nil
}

// UpdateLedger writes the ledger if the stored version still matches
func (r *PostgresRepository) UpdateLedger(ctx context.Context, l *models.StreakLedger) error {
	activitiesJSON, achievementsJSON, err := marshalLedgerDocs(l)
	if err != nil {
		return err
	}

	query := `
		UPDATE streak_ledgers
		SET current_streak = $3, longest_streak = $4, last_activity_day = $5,
			total_lessons_completed = $6, total_courses_completed = $7, total_study_hours = $8,
			daily_activities = $9, achievements = $10, updated_at = $11, version = version + 1
		WHERE learner_id = $1 AND version = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		l.LearnerID,
		l.Version,
		l.CurrentStreak,
		l.LongestStreak,
		nullDay(l.LastActivityDay),
		l.TotalLessonsCompleted,
		l.TotalCoursesCompleted,
		l.TotalStudyHours,
		activitiesJSON,
		achievementsJSON,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update streak ledger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	l.Version++
	return nil
}

func marshalLedgerDocs(l *models.StreakLedger) ([]byte, []byte, error) {
	activities := l.DailyActivities
	if activities == nil {
		activities = []models.DailyActivity{}
	}
	activitiesJSON, err := json.Marshal(activities)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal daily activities: %w", err)
	}

	achievements := l.Achievements
	if achievements == nil {
		achievements = []models.Achievement{}
	}
	achievementsJSON, err := json.Marshal(achievements)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal achievements: %w", err)
	}
	return activitiesJSON, achievementsJSON, nil
}

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}
	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed stamps the client's last use
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last used: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Helper functions for nullable values

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullDay(d *clock.Day) sql.NullInt32 {
	if d == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*d), Valid: true}
}
