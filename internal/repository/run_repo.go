package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/shopvec/internal/domain"
	"gorm.io/gorm"
)

// RunRepository persists pipeline run history.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// DB exposes the underlying handle for ad-hoc queries.
func (r *RunRepository) DB() *gorm.DB {
	return r.db
}

// Begin inserts a running record for the given pipeline and returns it.
func (r *RunRepository) Begin(ctx context.Context, pipeline string) (*domain.PipelineRun, error) {
	now := time.Now()
	run := &domain.PipelineRun{
		ID:        uuid.NewString(),
		Pipeline:  pipeline,
		Status:    domain.RunStatusRunning,
		StartedAt: &now,
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Complete marks the run as completed and saves its final counts.
func (r *RunRepository) Complete(ctx context.Context, run *domain.PipelineRun) error {
	now := time.Now()
	run.Status = domain.RunStatusCompleted
	run.CompletedAt = &now
	return r.db.WithContext(ctx).Save(run).Error
}

// Fail marks the run as failed with the given error.
func (r *RunRepository) Fail(ctx context.Context, run *domain.PipelineRun, runErr error) error {
	now := time.Now()
	run.Status = domain.RunStatusFailed
	run.CompletedAt = &now
	if runErr != nil {
		run.ErrorLog = runErr.Error()
	}
	return r.db.WithContext(ctx).Save(run).Error
}
