package repository

import (
	"context"

	"github.com/taskmind/taskmind/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository handles comment data operations.
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Upsert creates or updates a comment record keyed by its upstream id.
func (r *CommentRepository) Upsert(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "planfix_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "author_id", "updated_at"}),
	}).Create(comment).Error
}

// ListUnindexed retrieves comments that have not been assigned a vector id,
// preloading task and author for text synthesis.
func (r *CommentRepository) ListUnindexed(ctx context.Context) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := r.db.WithContext(ctx).
		Preload("Task").
		Preload("Author").
		Where("vector_id IS NULL").
		Order("id").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// SetVectorID writes the assigned vector id back onto a comment.
func (r *CommentRepository) SetVectorID(ctx context.Context, id uint, vectorID string) error {
	return r.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("id = ?", id).
		Update("vector_id", vectorID).Error
}

// ClearVectorIDs resets every comment to the unindexed state.
func (r *CommentRepository) ClearVectorIDs(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("vector_id IS NOT NULL").
		Update("vector_id", nil).Error
}

// CountIndexed counts comments that carry a vector id.
func (r *CommentRepository) CountIndexed(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("vector_id IS NOT NULL").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count returns the total number of comment rows.
func (r *CommentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Comment{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
