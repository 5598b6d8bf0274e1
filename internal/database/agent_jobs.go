package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"taskautomator/internal/models"
)

// AgentJobRepository handles agent job database operations
type AgentJobRepository struct {
	db *DB
}

// NewAgentJobRepository creates a new agent job repository
func NewAgentJobRepository(db *DB) *AgentJobRepository {
	return &AgentJobRepository{db: db}
}

// Create creates a new agent job
func (r *AgentJobRepository) Create(ctx context.Context, job *models.AgentJob) error {
	query := `
		INSERT INTO agent_jobs (id, user_id, task_input, agent_type, status, result, error, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		job.ID,
		job.UserID,
		job.TaskInput,
		job.AgentType,
		job.Status,
		job.Result,
		job.Error,
		nullTime(job.CompletedAt),
		now,
		now,
	).Scan(&job.CreatedAt, &job.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create agent job: %w", err)
	}

	return nil
}

// GetByID retrieves an agent job owned by the given user
func (r *AgentJobRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.AgentJob, error) {
	query := `
		SELECT id, user_id, task_input, agent_type, status, result, error, completed_at, created_at, updated_at
		FROM agent_jobs
		WHERE id = $1 AND user_id = $2
	`

	job, err := scanAgentJob(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent job: %w", err)
	}

	return job, nil
}

// List retrieves agent jobs for a user, newest first
func (r *AgentJobRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.AgentJob, error) {
	query := `
		SELECT id, user_id, task_input, agent_type, status, result, error, completed_at, created_at, updated_at
		FROM agent_jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*models.AgentJob{}
	for rows.Next() {
		job, err := scanAgentJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agent jobs: %w", err)
	}

	return jobs, nil
}

// SetStatus transitions a job to the given status
func (r *AgentJobRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.AgentJobStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE agent_jobs SET status = $2, updated_at = $3 WHERE id = $1
	`, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update agent job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Complete marks a job COMPLETED with its result and stamps completed_at
func (r *AgentJobRepository) Complete(ctx context.Context, id uuid.UUID, result string) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE agent_jobs
		SET status = $2, result = $3, error = NULL, completed_at = $4, updated_at = $4
		WHERE id = $1
	`, id, models.AgentJobStatusCompleted, result, now)
	if err != nil {
		return fmt.Errorf("failed to complete agent job: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Fail marks a job FAILED with the failure reason
func (r *AgentJobRepository) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE agent_jobs
		SET status = $2, error = $3, updated_at = $4
		WHERE id = $1
	`, id, models.AgentJobStatusFailed, reason, time.Now())
	if err != nil {
		return fmt.Errorf("failed to fail agent job: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func scanAgentJob(row rowScanner) (*models.AgentJob, error) {
	job := &models.AgentJob{}
	var result, jobErr sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.TaskInput,
		&job.AgentType,
		&job.Status,
		&result,
		&jobErr,
		&completedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if result.Valid {
		job.Result = &result.String
	}
	if jobErr.Valid {
		job.Error = &jobErr.String
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return job, nil
}
