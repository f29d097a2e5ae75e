package planfix

import "time"

// TaskRecord is a task as returned by the upstream API.
type TaskRecord struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description,omitempty"`
	Status       string                 `json:"status"`
	Priority     string                 `json:"priority"`
	CreatedDate  time.Time              `json:"created_date"`
	Deadline     *time.Time             `json:"deadline,omitempty"`
	Project      *ProjectRef            `json:"project,omitempty"`
	CustomFields map[string]interface{} `json:"custom_fields,omitempty"`
}

// ProjectRef is the embedded project reference carried on tasks.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectRecord is a project as returned by the upstream API.
type ProjectRecord struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	Status       string                 `json:"status"`
	CreatedDate  time.Time              `json:"created_date"`
	CustomFields map[string]interface{} `json:"custom_fields,omitempty"`
}

// CommentRecord is a task comment as returned by the upstream API.
type CommentRecord struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	Author      UserRef   `json:"author"`
	Text        string    `json:"text"`
	CreatedDate time.Time `json:"created_date"`
}

// UserRef is the embedded author reference carried on comments.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// EmployeeRecord is an employee as returned by the upstream API.
type EmployeeRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// StatusRecord describes a task or project status definition.
type StatusRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CustomFieldRecord describes a custom field definition.
type CustomFieldRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// page wraps paginated list responses.
type page[T any] struct {
	Items  []T    `json:"items"`
	Total  int    `json:"total"`
	Detail string `json:"detail,omitempty"`
}
