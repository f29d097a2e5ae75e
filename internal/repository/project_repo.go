package repository

import (
	"context"

	"github.com/taskmind/taskmind/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectRepository handles project data operations.
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Upsert creates or updates a project record keyed by its upstream id.
func (r *ProjectRepository) Upsert(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "planfix_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "status", "custom_fields", "updated_at"}),
	}).Create(project).Error
}

// GetByPlanfixID retrieves a project by its upstream id.
func (r *ProjectRepository) GetByPlanfixID(ctx context.Context, planfixID string) (*domain.Project, error) {
	var project domain.Project
	if err := r.db.WithContext(ctx).First(&project, "planfix_id = ?", planfixID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListUnindexed retrieves projects that have not been assigned a vector id.
func (r *ProjectRepository) ListUnindexed(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := r.db.WithContext(ctx).
		Where("vector_id IS NULL").
		Order("id").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// SetVectorID writes the assigned vector id back onto a project.
func (r *ProjectRepository) SetVectorID(ctx context.Context, id uint, vectorID string) error {
	return r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ?", id).
		Update("vector_id", vectorID).Error
}

// ClearVectorIDs resets every project to the unindexed state.
func (r *ProjectRepository) ClearVectorIDs(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("vector_id IS NOT NULL").
		Update("vector_id", nil).Error
}

// CountIndexed counts projects that carry a vector id.
func (r *ProjectRepository) CountIndexed(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("vector_id IS NOT NULL").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count returns the total number of project rows.
func (r *ProjectRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Project{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
