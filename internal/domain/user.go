package domain

import "time"

// UserRole represents the access role assigned to a synced user.
type UserRole string

const (
	RoleAdministrator UserRole = "administrator"
	RoleManager       UserRole = "manager"
	RoleCollaborator  UserRole = "collaborator"
	RoleGuest         UserRole = "guest"
)

// User represents an employee record synced from the upstream
// project-management service.
type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	PlanfixID  string     `gorm:"type:text;uniqueIndex:idx_users_planfix" json:"planfix_id"`
	Username   string     `gorm:"type:text;not null" json:"username"`
	Email      string     `gorm:"type:text" json:"email,omitempty"`
	Role       UserRole   `gorm:"type:text;default:collaborator" json:"role"`
	LastActive *time.Time `json:"last_active,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}

// IsManager reports whether the user holds a manager-level role.
func (u *User) IsManager() bool {
	return u.Role == RoleAdministrator || u.Role == RoleManager
}
