package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taskmind/taskmind/internal/domain"
	"github.com/taskmind/taskmind/internal/logger"
	"github.com/taskmind/taskmind/internal/planfix"
	"github.com/taskmind/taskmind/internal/repository"
)

// SyncService mirrors upstream employees, projects, tasks, and comments
// into the local database. Entities are upserted keyed by their upstream
// id, so repeated runs converge instead of duplicating rows.
type SyncService struct {
	client      *planfix.Client
	userRepo    *repository.UserRepository
	projectRepo *repository.ProjectRepository
	taskRepo    *repository.TaskRepository
	commentRepo *repository.CommentRepository
	pageSize    int
	logger      *logger.Logger
}

// NewSyncService creates a new sync service.
func NewSyncService(
	client *planfix.Client,
	userRepo *repository.UserRepository,
	projectRepo *repository.ProjectRepository,
	taskRepo *repository.TaskRepository,
	commentRepo *repository.CommentRepository,
	pageSize int,
	log *logger.Logger,
) *SyncService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &SyncService{
		client:      client,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		commentRepo: commentRepo,
		pageSize:    pageSize,
		logger:      log,
	}
}

// SyncStats summarizes one synchronization run.
type SyncStats struct {
	Users     int       `json:"users"`
	Projects  int       `json:"projects"`
	Tasks     int       `json:"tasks"`
	Comments  int       `json:"comments"`
	Errors    int       `json:"errors"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// SyncAll pulls employees, projects, tasks, and task comments from the
// upstream service, in dependency order so foreign keys resolve. Per-item
// failures are counted and the run continues; a page-level fetch failure
// aborts the run.
func (s *SyncService) SyncAll(ctx context.Context) (*SyncStats, error) {
	stats := &SyncStats{StartTime: time.Now()}

	s.logger.Info("Starting upstream sync")

	dir := s.loadDirectories(ctx)

	if err := s.syncEmployees(ctx, stats); err != nil {
		return stats, err
	}
	if err := s.syncProjects(ctx, dir, stats); err != nil {
		return stats, err
	}
	if err := s.syncTasks(ctx, dir, stats); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	logger.With(logger.Fields{
		logger.FieldDurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
		"users":                stats.Users,
		"projects":             stats.Projects,
		"tasks":                stats.Tasks,
		"comments":             stats.Comments,
		"errors":               stats.Errors,
	}).Info(ctx, "Upstream sync completed")

	return stats, nil
}

// directory holds the per-run lookup tables fetched from the upstream
// directory endpoints: raw status and custom field ids map to their
// display names.
type directory struct {
	taskStatuses    map[string]string
	projectStatuses map[string]string
	customFields    map[string]string
}

// loadDirectories fetches the status and custom field definitions. A failed
// fetch degrades to an empty table: raw ids then pass through unresolved
// rather than aborting the run.
func (s *SyncService) loadDirectories(ctx context.Context) *directory {
	dir := &directory{
		taskStatuses:    make(map[string]string),
		projectStatuses: make(map[string]string),
		customFields:    make(map[string]string),
	}

	if statuses, err := s.client.GetTaskStatuses(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to fetch task statuses; raw values pass through")
	} else {
		for _, st := range statuses {
			dir.taskStatuses[st.ID] = st.Name
		}
	}
	if statuses, err := s.client.GetProjectStatuses(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to fetch project statuses; raw values pass through")
	} else {
		for _, st := range statuses {
			dir.projectStatuses[st.ID] = st.Name
		}
	}
	if fields, err := s.client.GetTaskCustomFields(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to fetch custom field definitions; raw keys pass through")
	} else {
		for _, f := range fields {
			dir.customFields[f.ID] = f.Name
		}
	}
	return dir
}

// resolveName maps a raw directory id to its display name, falling back to
// the raw value when the id is unknown or the table is empty.
func resolveName(names map[string]string, raw string) string {
	if name, ok := names[raw]; ok && name != "" {
		return name
	}
	return raw
}

// resolveCustomFields rewrites custom field keys from field ids to field
// names. Values are carried unchanged.
func resolveCustomFields(names map[string]string, fields map[string]interface{}) map[string]interface{} {
	if len(fields) == 0 || len(names) == 0 {
		return fields
	}
	resolved := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		resolved[resolveName(names, key)] = value
	}
	return resolved
}

func (s *SyncService) syncEmployees(ctx context.Context, stats *SyncStats) error {
	offset := 0
	for {
		records, total, err := s.client.GetEmployees(ctx, offset, s.pageSize)
		if err != nil {
			return fmt.Errorf("failed to fetch employees: %w", err)
		}
		for i := range records {
			rec := &records[i]
			user := &domain.User{
				PlanfixID: rec.ID,
				Username:  rec.Username,
				Email:     rec.Email,
			}
			if err := s.userRepo.Upsert(ctx, user); err != nil {
				stats.Errors++
				s.logger.WithField(logger.FieldEntityID, rec.ID).WithError(err).Error("Failed to upsert user")
				continue
			}
			stats.Users++
		}
		offset += len(records)
		if len(records) == 0 || offset >= total {
			return nil
		}
	}
}

func (s *SyncService) syncProjects(ctx context.Context, dir *directory, stats *SyncStats) error {
	offset := 0
	for {
		records, total, err := s.client.GetProjects(ctx, offset, s.pageSize)
		if err != nil {
			return fmt.Errorf("failed to fetch projects: %w", err)
		}
		for i := range records {
			rec := &records[i]
			project := &domain.Project{
				PlanfixID:    rec.ID,
				Name:         rec.Name,
				Description:  rec.Description,
				Status:       resolveName(dir.projectStatuses, rec.Status),
				CreatedDate:  rec.CreatedDate,
				CustomFields: domain.JSONMap(rec.CustomFields),
			}
			if err := s.projectRepo.Upsert(ctx, project); err != nil {
				stats.Errors++
				s.logger.WithField(logger.FieldEntityID, rec.ID).WithError(err).Error("Failed to upsert project")
				continue
			}
			stats.Projects++
		}
		offset += len(records)
		if len(records) == 0 || offset >= total {
			return nil
		}
	}
}

func (s *SyncService) syncTasks(ctx context.Context, dir *directory, stats *SyncStats) error {
	offset := 0
	for {
		records, total, err := s.client.GetTasks(ctx, offset, s.pageSize)
		if err != nil {
			return fmt.Errorf("failed to fetch tasks: %w", err)
		}
		for i := range records {
			rec := &records[i]
			task, err := s.upsertTask(ctx, dir, rec)
			if err != nil {
				stats.Errors++
				s.logger.WithField(logger.FieldEntityID, rec.ID).WithError(err).Error("Failed to upsert task")
				continue
			}
			stats.Tasks++
			if err := s.syncTaskComments(ctx, task, stats); err != nil {
				stats.Errors++
				s.logger.WithField(logger.FieldEntityID, rec.ID).WithError(err).Error("Failed to sync task comments")
			}
		}
		offset += len(records)
		if len(records) == 0 || offset >= total {
			return nil
		}
	}
}

func (s *SyncService) upsertTask(ctx context.Context, dir *directory, rec *planfix.TaskRecord) (*domain.Task, error) {
	task := &domain.Task{
		PlanfixID:    rec.ID,
		Title:        rec.Title,
		Description:  rec.Description,
		Status:       resolveName(dir.taskStatuses, rec.Status),
		Priority:     taskPriority(rec.Priority),
		CreatedDate:  rec.CreatedDate,
		Deadline:     rec.Deadline,
		CustomFields: domain.JSONMap(resolveCustomFields(dir.customFields, rec.CustomFields)),
	}

	if rec.Project != nil && rec.Project.ID != "" {
		project, err := s.projectRepo.GetByPlanfixID(ctx, rec.Project.ID)
		if err == nil {
			task.ProjectID = &project.ID
		} else {
			s.logger.WithField(logger.FieldEntityID, rec.ID).Warn("Task references unknown project " + rec.Project.ID)
		}
	}

	if err := s.taskRepo.Upsert(ctx, task); err != nil {
		return nil, err
	}
	// Re-read so comments attach to the row id, not the insert-attempt id.
	return s.taskRepo.GetByPlanfixID(ctx, rec.ID)
}

func (s *SyncService) syncTaskComments(ctx context.Context, task *domain.Task, stats *SyncStats) error {
	records, err := s.client.GetTaskComments(ctx, task.PlanfixID)
	if err != nil {
		return err
	}
	for i := range records {
		rec := &records[i]
		comment := &domain.Comment{
			PlanfixID:   rec.ID,
			TaskID:      task.ID,
			Text:        rec.Text,
			CreatedDate: rec.CreatedDate,
		}
		if rec.Author.ID != "" {
			if author, err := s.userRepo.GetByPlanfixID(ctx, rec.Author.ID); err == nil {
				comment.AuthorID = &author.ID
			}
		}
		if err := s.commentRepo.Upsert(ctx, comment); err != nil {
			stats.Errors++
			s.logger.WithField(logger.FieldEntityID, rec.ID).WithError(err).Error("Failed to upsert comment")
			continue
		}
		stats.Comments++
	}
	return nil
}

// taskPriority normalizes the upstream priority string.
func taskPriority(raw string) domain.TaskPriority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return domain.PriorityLow
	case "high":
		return domain.PriorityHigh
	case "urgent":
		return domain.PriorityUrgent
	default:
		return domain.PriorityNormal
	}
}
