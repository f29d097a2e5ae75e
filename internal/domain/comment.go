package domain

import "time"

// Comment represents a task comment synced from the upstream
// project-management service.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PlanfixID   string    `gorm:"type:text;not null;uniqueIndex:idx_comments_planfix" json:"planfix_id"`
	TaskID      uint      `gorm:"not null;index:idx_comments_task" json:"task_id"`
	Task        *Task     `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	AuthorID    *uint     `gorm:"index:idx_comments_author" json:"author_id,omitempty"`
	Author      *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CreatedDate time.Time `gorm:"index:idx_comments_created" json:"created_date"`
	VectorID    *string   `gorm:"type:text" json:"vector_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string {
	return "comments"
}
