package domain

import "time"

// TaskPriority represents the priority level of a task.
// Values include PriorityLow, PriorityNormal, PriorityHigh, and PriorityUrgent.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task represents a task record synced from the upstream project-management
// service. VectorID links the row to its entry in the semantic index.
type Task struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	PlanfixID    string       `gorm:"type:text;not null;uniqueIndex:idx_tasks_planfix" json:"planfix_id"`
	Title        string       `gorm:"type:text;not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description,omitempty"`
	Status       string       `gorm:"type:text;index:idx_tasks_status" json:"status"`
	Priority     TaskPriority `gorm:"type:text;index:idx_tasks_priority;default:normal" json:"priority"`
	CreatedDate  time.Time    `json:"created_date"`
	Deadline     *time.Time   `gorm:"index:idx_tasks_deadline" json:"deadline,omitempty"`
	ProjectID    *uint        `gorm:"index:idx_tasks_project" json:"project_id,omitempty"`
	Project      *Project     `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	VectorID     *string      `gorm:"type:text" json:"vector_id,omitempty"`
	CustomFields JSONMap      `gorm:"type:text" json:"custom_fields,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName returns the database table name for Task.
func (Task) TableName() string {
	return "tasks"
}

// IsOverdue reports whether the task deadline has passed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now)
}
