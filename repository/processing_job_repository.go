package repository

import (
	"context"
	"time"

	"jurix-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessingJobRepository handles database operations for processing jobs
type ProcessingJobRepository struct {
	db *pgxpool.Pool
}

// NewProcessingJobRepository creates a new processing job repository
func NewProcessingJobRepository(db *pgxpool.Pool) *ProcessingJobRepository {
	return &ProcessingJobRepository{db: db}
}

// Create creates a new processing job
func (r *ProcessingJobRepository) Create(ctx context.Context, job *models.ProcessingJob) error {
	query := `
		INSERT INTO processing_jobs (
			norma_id, status, current_step, steps, force, error_message
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		job.NormaID,
		job.Status,
		job.CurrentStep,
		job.Steps,
		job.Force,
		job.ErrorMessage,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)

	return err
}

// GetByID retrieves a processing job by ID
func (r *ProcessingJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProcessingJob, error) {
	job := &models.ProcessingJob{}
	query := `
		SELECT id, norma_id, status, current_step, steps, force, error_message,
			created_at, updated_at, completed_at
		FROM processing_jobs
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.NormaID,
		&job.Status,
		&job.CurrentStep,
		&job.Steps,
		&job.Force,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	)

	if err != nil {
		return nil, err
	}

	// Safeguard in case Scan didn't handle NULL properly
	if job.Steps == nil {
		job.Steps = make(models.ProcessingSteps, 0)
	}

	return job, nil
}

// GetByNormaID retrieves the latest processing job for a norma
func (r *ProcessingJobRepository) GetByNormaID(ctx context.Context, normaID uuid.UUID) (*models.ProcessingJob, error) {
	job := &models.ProcessingJob{}
	query := `
		SELECT id, norma_id, status, current_step, steps, force, error_message,
			created_at, updated_at, completed_at
		FROM processing_jobs
		WHERE norma_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, normaID).Scan(
		&job.ID,
		&job.NormaID,
		&job.Status,
		&job.CurrentStep,
		&job.Steps,
		&job.Force,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	)

	if err != nil {
		return nil, err
	}

	if job.Steps == nil {
		job.Steps = make(models.ProcessingSteps, 0)
	}

	return job, nil
}

// UpdateStatus updates the status of a processing job
func (r *ProcessingJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProcessingJobStatus) error {
	query := `
		UPDATE processing_jobs SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// UpdateProgress updates the progress of a processing job
func (r *ProcessingJobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, currentStep string, steps models.ProcessingSteps) error {
	query := `
		UPDATE processing_jobs SET
			current_step = $2,
			steps = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, currentStep, steps)
	return err
}

// Complete marks a processing job as completed
func (r *ProcessingJobRepository) Complete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	query := `
		UPDATE processing_jobs SET
			status = $2,
			completed_at = $3,
			updated_at = $3
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.JobStatusCompleted, now)
	return err
}

// Fail marks a processing job as failed
func (r *ProcessingJobRepository) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE processing_jobs SET
			status = $2,
			error_message = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.JobStatusFailed, errorMessage)
	return err
}
