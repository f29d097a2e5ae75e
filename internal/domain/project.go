package domain

import "time"

// Project represents a project record synced from the upstream
// project-management service. VectorID links the row to its entry in the
// semantic index; a NULL VectorID marks the row as not yet indexed.
type Project struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PlanfixID    string    `gorm:"type:text;not null;uniqueIndex:idx_projects_planfix" json:"planfix_id"`
	Name         string    `gorm:"type:text;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	Status       string    `gorm:"type:text;index:idx_projects_status" json:"status"`
	CreatedDate  time.Time `gorm:"index:idx_projects_created" json:"created_date"`
	VectorID     *string   `gorm:"type:text" json:"vector_id,omitempty"`
	CustomFields JSONMap   `gorm:"type:text" json:"custom_fields,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for Project.
func (Project) TableName() string {
	return "projects"
}
