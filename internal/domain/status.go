package domain

import "time"

// IndexState represents the lifecycle state of the vector index.
// The singleton status row moves uninitialized → indexing|updating|rebuilding
// → ready, and any active state → error on unhandled failure. The error
// state is only left by a later run reaching ready.
type IndexState string

const (
	IndexStateUninitialized IndexState = "uninitialized"
	IndexStateIndexing      IndexState = "indexing"
	IndexStateUpdating      IndexState = "updating"
	IndexStateRebuilding    IndexState = "rebuilding"
	IndexStateReady         IndexState = "ready"
	IndexStateError         IndexState = "error"
)

// IndexStatus is the singleton record tracking vector index health.
// One row per deployment, created on first index build.
type IndexStatus struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	State            IndexState `gorm:"type:text;default:uninitialized" json:"state"`
	TotalVectors     int        `gorm:"default:0" json:"total_vectors"`
	TasksIndexed     int        `gorm:"default:0" json:"tasks_indexed"`
	ProjectsIndexed  int        `gorm:"default:0" json:"projects_indexed"`
	CommentsIndexed  int        `gorm:"default:0" json:"comments_indexed"`
	LastIndexed      *time.Time `json:"last_indexed,omitempty"`
	LastErrorMessage string     `gorm:"type:text" json:"last_error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName returns the database table name for IndexStatus.
func (IndexStatus) TableName() string {
	return "index_status"
}

// Active reports whether a pipeline run currently owns the index.
func (s *IndexStatus) Active() bool {
	switch s.State {
	case IndexStateIndexing, IndexStateUpdating, IndexStateRebuilding:
		return true
	}
	return false
}
