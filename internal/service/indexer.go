package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/taskmind/taskmind/internal/domain"
	"github.com/taskmind/taskmind/internal/logger"
	"github.com/taskmind/taskmind/internal/repository"
	"github.com/taskmind/taskmind/internal/vector"
)

// IndexerService synchronizes the relational store with the vector store.
// Runs must be serialized by the caller: the pipeline mutates the vector
// store and the singleton status row as a coupled pair.
type IndexerService struct {
	taskRepo    *repository.TaskRepository
	projectRepo *repository.ProjectRepository
	commentRepo *repository.CommentRepository
	statusRepo  *repository.StatusRepository
	store       *vector.Store
	logger      *logger.Logger
}

// NewIndexerService creates a new indexing pipeline.
func NewIndexerService(
	taskRepo *repository.TaskRepository,
	projectRepo *repository.ProjectRepository,
	commentRepo *repository.CommentRepository,
	statusRepo *repository.StatusRepository,
	store *vector.Store,
	log *logger.Logger,
) *IndexerService {
	return &IndexerService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		commentRepo: commentRepo,
		statusRepo:  statusRepo,
		store:       store,
		logger:      log,
	}
}

// log returns a logger from context if available, otherwise the service's.
func (s *IndexerService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// IndexError records one entity the pipeline failed to index. The batch
// continues past it.
type IndexError struct {
	EntityType string `json:"entity_type"`
	EntityID   uint   `json:"entity_id"`
	Message    string `json:"message"`
}

// IndexStats summarizes one pipeline run.
type IndexStats struct {
	Tasks     int          `json:"tasks"`
	Projects  int          `json:"projects"`
	Comments  int          `json:"comments"`
	Errors    []IndexError `json:"errors,omitempty"`
	StartTime time.Time    `json:"start_time"`
	EndTime   time.Time    `json:"end_time"`
}

// IndexAll indexes every task, project, and comment whose vector_id is
// still null, in that fixed order. Per-item failures are recorded and the
// batch continues; failures that corrupt shared state abort the run and
// move the status row to error. Safe to invoke repeatedly: rows that
// already carry a vector_id are skipped by selection, so a second run over
// unchanged data is a no-op.
func (s *IndexerService) IndexAll(ctx context.Context) (*IndexStats, error) {
	status, err := s.statusRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read index status: %w", err)
	}

	// First build vs. incremental top-up.
	state := domain.IndexStateIndexing
	if status.State == domain.IndexStateReady {
		state = domain.IndexStateUpdating
	}
	return s.run(ctx, state)
}

// RebuildAll discards the vector store contents, resets every entity's
// vector_id, and re-indexes from scratch.
func (s *IndexerService) RebuildAll(ctx context.Context) (*IndexStats, error) {
	if err := s.statusRepo.SetState(ctx, domain.IndexStateRebuilding, ""); err != nil {
		return nil, fmt.Errorf("failed to update index status: %w", err)
	}

	if err := s.store.Reset(); err != nil {
		return nil, s.fail(ctx, err)
	}
	if err := s.taskRepo.ClearVectorIDs(ctx); err != nil {
		return nil, s.fail(ctx, err)
	}
	if err := s.projectRepo.ClearVectorIDs(ctx); err != nil {
		return nil, s.fail(ctx, err)
	}
	if err := s.commentRepo.ClearVectorIDs(ctx); err != nil {
		return nil, s.fail(ctx, err)
	}

	return s.run(ctx, domain.IndexStateRebuilding)
}

// Status returns a read-only snapshot of the singleton status row.
func (s *IndexerService) Status(ctx context.Context) (*domain.IndexStatus, error) {
	return s.statusRepo.Get(ctx)
}

// run executes the shared indexing loop under the given active state.
func (s *IndexerService) run(ctx context.Context, state domain.IndexState) (*IndexStats, error) {
	if err := s.statusRepo.SetState(ctx, state, ""); err != nil {
		return nil, fmt.Errorf("failed to update index status: %w", err)
	}

	stats := &IndexStats{StartTime: time.Now()}

	s.log(ctx).WithField(logger.FieldStatus, string(state)).Info("Starting vector index run")

	if err := s.indexTasks(ctx, stats); err != nil {
		return stats, s.fail(ctx, err)
	}
	if err := s.indexProjects(ctx, stats); err != nil {
		return stats, s.fail(ctx, err)
	}
	if err := s.indexComments(ctx, stats); err != nil {
		return stats, s.fail(ctx, err)
	}

	// Persist whatever the periodic flushing left unwritten.
	if err := s.store.Flush(); err != nil {
		return stats, s.fail(ctx, err)
	}

	// A canceled run ends here in a consistent, resumable state: rows left
	// unindexed are picked up by the next run.
	if err := ctx.Err(); err != nil {
		stats.EndTime = time.Now()
		s.log(ctx).Warn("Vector index run canceled; partial progress persisted")
		return stats, err
	}

	if err := s.recordCompletion(ctx); err != nil {
		return stats, s.fail(ctx, err)
	}

	stats.EndTime = time.Now()
	logger.With(logger.Fields{
		logger.FieldDurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
		"tasks":                stats.Tasks,
		"projects":             stats.Projects,
		"comments":             stats.Comments,
		"errors":               len(stats.Errors),
	}).Info(ctx, "Vector index run completed")

	return stats, nil
}

func (s *IndexerService) indexTasks(ctx context.Context, stats *IndexStats) error {
	tasks, err := s.taskRepo.ListUnindexed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unindexed tasks: %w", err)
	}
	for i := range tasks {
		if ctx.Err() != nil {
			return nil
		}
		task := &tasks[i]
		id, err := s.store.Add(ctx, buildTaskText(task), taskMetadata(task))
		if err != nil {
			s.recordItemError(ctx, stats, "task", task.ID, err)
			continue
		}
		if err := s.taskRepo.SetVectorID(ctx, task.ID, strconv.Itoa(id)); err != nil {
			s.recordItemError(ctx, stats, "task", task.ID, err)
			continue
		}
		stats.Tasks++
	}
	return nil
}

func (s *IndexerService) indexProjects(ctx context.Context, stats *IndexStats) error {
	projects, err := s.projectRepo.ListUnindexed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unindexed projects: %w", err)
	}
	for i := range projects {
		if ctx.Err() != nil {
			return nil
		}
		project := &projects[i]
		id, err := s.store.Add(ctx, buildProjectText(project), projectMetadata(project))
		if err != nil {
			s.recordItemError(ctx, stats, "project", project.ID, err)
			continue
		}
		if err := s.projectRepo.SetVectorID(ctx, project.ID, strconv.Itoa(id)); err != nil {
			s.recordItemError(ctx, stats, "project", project.ID, err)
			continue
		}
		stats.Projects++
	}
	return nil
}

func (s *IndexerService) indexComments(ctx context.Context, stats *IndexStats) error {
	comments, err := s.commentRepo.ListUnindexed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unindexed comments: %w", err)
	}
	for i := range comments {
		if ctx.Err() != nil {
			return nil
		}
		comment := &comments[i]
		id, err := s.store.Add(ctx, buildCommentText(comment), commentMetadata(comment))
		if err != nil {
			s.recordItemError(ctx, stats, "comment", comment.ID, err)
			continue
		}
		if err := s.commentRepo.SetVectorID(ctx, comment.ID, strconv.Itoa(id)); err != nil {
			s.recordItemError(ctx, stats, "comment", comment.ID, err)
			continue
		}
		stats.Comments++
	}
	return nil
}

func (s *IndexerService) recordItemError(ctx context.Context, stats *IndexStats, entityType string, entityID uint, err error) {
	stats.Errors = append(stats.Errors, IndexError{
		EntityType: entityType,
		EntityID:   entityID,
		Message:    err.Error(),
	})
	s.log(ctx).WithFields(logger.Fields{
		logger.FieldEntityType: entityType,
		logger.FieldEntityID:   entityID,
	}).WithError(err).Error("Failed to index entity")
}

// recordCompletion recomputes persisted counts and marks the index ready.
func (s *IndexerService) recordCompletion(ctx context.Context) error {
	tasks, err := s.taskRepo.CountIndexed(ctx)
	if err != nil {
		return err
	}
	projects, err := s.projectRepo.CountIndexed(ctx)
	if err != nil {
		return err
	}
	comments, err := s.commentRepo.CountIndexed(ctx)
	if err != nil {
		return err
	}
	return s.statusRepo.RecordCompletion(ctx, s.store.Count(), int(tasks), int(projects), int(comments))
}

// fail moves the status row to error and passes the cause through. The
// error state persists until a later run reaches ready.
func (s *IndexerService) fail(ctx context.Context, cause error) error {
	s.log(ctx).WithError(cause).Error("Vector index run failed")
	if err := s.statusRepo.SetState(ctx, domain.IndexStateError, cause.Error()); err != nil {
		s.log(ctx).WithError(err).Error("Failed to record error status")
	}
	return cause
}
