package repository

import (
	"context"

	"github.com/taskmind/taskmind/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskRepository handles task data operations.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Upsert creates or updates a task record keyed by its upstream id.
func (r *TaskRepository) Upsert(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "planfix_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "status", "priority", "deadline", "project_id", "custom_fields", "updated_at"}),
	}).Create(task).Error
}

// GetByID retrieves a task by its database ID, preloading its project.
func (r *TaskRepository) GetByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).Preload("Project").First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// GetByPlanfixID retrieves a task by its upstream id.
func (r *TaskRepository) GetByPlanfixID(ctx context.Context, planfixID string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, "planfix_id = ?", planfixID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListUnindexed retrieves tasks that have not been assigned a vector id,
// with projects preloaded for text synthesis.
func (r *TaskRepository) ListUnindexed(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.db.WithContext(ctx).
		Preload("Project").
		Where("vector_id IS NULL").
		Order("id").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// SetVectorID writes the assigned vector id back onto a task.
func (r *TaskRepository) SetVectorID(ctx context.Context, id uint, vectorID string) error {
	return r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", id).
		Update("vector_id", vectorID).Error
}

// ClearVectorIDs resets every task to the unindexed state.
func (r *TaskRepository) ClearVectorIDs(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("vector_id IS NOT NULL").
		Update("vector_id", nil).Error
}

// CountIndexed counts tasks that carry a vector id.
func (r *TaskRepository) CountIndexed(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("vector_id IS NOT NULL").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count returns the total number of task rows.
func (r *TaskRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
