package repository

import (
	"context"
	"errors"
	"time"

	"github.com/taskmind/taskmind/internal/domain"
	"gorm.io/gorm"
)

// StatusRepository manages the singleton index-status row. The row is
// created lazily on first access and never deleted.
type StatusRepository struct {
	db *gorm.DB
}

// NewStatusRepository creates a new StatusRepository.
func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// Get returns the singleton status row, creating it in the uninitialized
// state if it does not exist yet.
func (r *StatusRepository) Get(ctx context.Context) (*domain.IndexStatus, error) {
	var status domain.IndexStatus
	err := r.db.WithContext(ctx).Order("id").First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		status = domain.IndexStatus{State: domain.IndexStateUninitialized}
		if err := r.db.WithContext(ctx).Create(&status).Error; err != nil {
			return nil, err
		}
		return &status, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// SetState transitions the singleton row to the given state. An error
// message may accompany the error state; it is cleared on any other
// transition.
func (r *StatusRepository) SetState(ctx context.Context, state domain.IndexState, errorMessage string) error {
	status, err := r.Get(ctx)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"state":              state,
		"last_error_message": errorMessage,
	}
	return r.db.WithContext(ctx).Model(status).Updates(updates).Error
}

// RecordCompletion marks a successful pipeline run: counts are refreshed,
// the last-indexed timestamp is set, and the state moves to ready.
func (r *StatusRepository) RecordCompletion(ctx context.Context, totalVectors, tasks, projects, comments int) error {
	status, err := r.Get(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(status).Updates(map[string]interface{}{
		"state":              domain.IndexStateReady,
		"total_vectors":      totalVectors,
		"tasks_indexed":      tasks,
		"projects_indexed":   projects,
		"comments_indexed":   comments,
		"last_indexed":       &now,
		"last_error_message": "",
	}).Error
}
