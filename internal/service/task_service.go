package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// TaskDeletedMessage is returned by TaskService.Delete on success.
const TaskDeletedMessage = "Task deleted successfully"

// CreateTaskInput carries the fields accepted when creating a task.
type CreateTaskInput struct {
	Title       string
	Description *string
}

// TaskService manages tasks on behalf of an authenticated caller.
type TaskService interface {
	// Create adds a task owned by ownerID with status TODO.
	// Returns ErrTaskTitleTaken when the title is already used by any task.
	Create(ctx context.Context, in CreateTaskInput, ownerID uuid.UUID) (*domain.Task, error)

	// List returns every task for admins (with owner details) and the
	// caller's own tasks for everyone else.
	List(ctx context.Context, identity domain.Identity) ([]*domain.Task, error)

	// Get returns a task the caller owns, or any task for admins.
	Get(ctx context.Context, id uuid.UUID, identity domain.Identity) (*domain.Task, error)

	// Update applies the fields present in patch. Setting status DONE stamps
	// the completion time.
	Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch, identity domain.Identity) (*domain.Task, error)

	// Delete removes the task and returns a confirmation message.
	Delete(ctx context.Context, id uuid.UUID, identity domain.Identity) (string, error)

	// Analytics aggregates status counts, average completion time and
	// per-owner counts over all tasks.
	Analytics(ctx context.Context) (*domain.TaskAnalytics, error)
}

// TaskServiceOption customizes a TaskService.
type TaskServiceOption func(*taskService)

// WithClock replaces the clock used to stamp updates and completions.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *taskService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAnalyticsConcurrency caps how many aggregate queries Analytics runs
// at once. Use 1 when the store shares a single connection, such as a
// store built over *sql.Tx.
func WithAnalyticsConcurrency(n int) TaskServiceOption {
	return func(s *taskService) {
		if n > 0 {
			s.analyticsConcurrency = n
		}
	}
}

type taskService struct {
	tasks  store.TaskStore
	logger *slog.Logger
	now    func() time.Time

	// analyticsConcurrency of 0 means no limit.
	analyticsConcurrency int
}

// NewTaskService creates a TaskService. Analytics runs its aggregate queries
// concurrently, which requires a store backed by a connection pool such as
// *sql.DB. Pass WithAnalyticsConcurrency(1) for a transaction-bound store.
func NewTaskService(tasks store.TaskStore, log *slog.Logger, opts ...TaskServiceOption) TaskService {
	if log == nil {
		log = slog.Default()
	}
	s := &taskService{
		tasks:  tasks,
		logger: log.With("component", "task_service"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *taskService) Create(
	ctx context.Context,
	in CreateTaskInput,
	ownerID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(ownerID, in.Title, in.Description)
	if err != nil {
		return nil, domain.AsValidationError(err)
	}

	if err := s.ensureTitleFree(ctx, task.Title, uuid.Nil); err != nil {
		return nil, s.wrap(log, "create_task", "Failed to create task", err)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		switch {
		case errors.Is(err, store.ErrTaskTitleExists):
			return nil, ErrTaskTitleTaken
		case errors.Is(err, store.ErrInvalidEntity):
			log.Warn("task owner no longer exists", "owner_id", ownerID)
			return nil, ErrUserNotFound
		}
		return nil, s.wrap(log, "create_task", "Failed to create task", err)
	}

	log.Info("task created",
		"task_id", task.ID,
		"owner_id", ownerID)
	return task, nil
}

func (s *taskService) List(ctx context.Context, identity domain.Identity) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		tasks []*domain.Task
		err   error
	)
	if identity.IsAdmin() {
		tasks, err = s.tasks.ListAll(ctx)
	} else {
		tasks, err = s.tasks.ListByOwner(ctx, identity.UserID)
	}
	if err != nil {
		return nil, s.wrap(log, "list_tasks", "Failed to fetch tasks", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

func (s *taskService) Get(
	ctx context.Context,
	id uuid.UUID,
	identity domain.Identity,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.load(ctx, log, id, "get_task", "Failed to fetch task")
	if err != nil {
		return nil, err
	}
	if !identity.CanModify(task) {
		return nil, &ForbiddenError{Message: "You are not allowed to view this task"}
	}
	return task, nil
}

func (s *taskService) Update(
	ctx context.Context,
	id uuid.UUID,
	patch domain.TaskPatch,
	identity domain.Identity,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.load(ctx, log, id, "update_task", "Failed to update task")
	if err != nil {
		return nil, err
	}
	if !identity.CanModify(task) {
		log.Debug("task update denied",
			"task_id", id,
			"caller_id", identity.UserID)
		return nil, &ForbiddenError{Message: "You are not allowed to update this task"}
	}

	if patch.Title != nil {
		if title := strings.TrimSpace(*patch.Title); title != task.Title {
			if err := s.ensureTitleFree(ctx, title, task.ID); err != nil {
				return nil, s.wrap(log, "update_task", "Failed to update task", err)
			}
		}
	}

	task.Apply(patch, s.now())
	if err := task.Validate(); err != nil {
		return nil, domain.AsValidationError(err)
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		switch {
		case errors.Is(err, store.ErrTaskTitleExists):
			return nil, ErrTaskTitleTaken
		case errors.Is(err, store.ErrTaskNotFound):
			return nil, ErrTaskNotFound
		}
		return nil, s.wrap(log, "update_task", "Failed to update task", err)
	}

	log.Info("task updated",
		"task_id", task.ID,
		"status", task.Status)
	return task, nil
}

func (s *taskService) Delete(
	ctx context.Context,
	id uuid.UUID,
	identity domain.Identity,
) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.load(ctx, log, id, "delete_task", "Failed to delete task")
	if err != nil {
		return "", err
	}
	if !identity.CanModify(task) {
		log.Debug("task delete denied",
			"task_id", id,
			"caller_id", identity.UserID)
		return "", &ForbiddenError{Message: "You are not allowed to delete this task"}
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return "", ErrTaskNotFound
		}
		return "", s.wrap(log, "delete_task", "Failed to delete task", err)
	}

	log.Info("task deleted", "task_id", id)
	return TaskDeletedMessage, nil
}

func (s *taskService) Analytics(ctx context.Context) (*domain.TaskAnalytics, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		byStatus map[domain.TaskStatus]int
		byOwner  map[uuid.UUID]int
		avgHours float64
	)

	g, gctx := errgroup.WithContext(ctx)
	if s.analyticsConcurrency > 0 {
		g.SetLimit(s.analyticsConcurrency)
	}
	g.Go(func() error {
		var err error
		byStatus, err = s.tasks.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		avgHours, err = s.tasks.AverageCompletionHours(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		byOwner, err = s.tasks.CountByOwner(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.wrap(log, "task_analytics", "Failed to fetch analytics", err)
	}

	if byStatus == nil {
		byStatus = map[domain.TaskStatus]int{}
	}
	if byOwner == nil {
		byOwner = map[uuid.UUID]int{}
	}

	return &domain.TaskAnalytics{
		StatusCounts:           byStatus,
		AvgCompletionTimeHours: domain.FormatHours(avgHours),
		PerUserCounts:          byOwner,
	}, nil
}

// load fetches a task, mapping a missing row to ErrTaskNotFound.
func (s *taskService) load(
	ctx context.Context,
	log *slog.Logger,
	id uuid.UUID,
	operation, message string,
) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, s.wrap(log, operation, message, err)
	}
	return task, nil
}

// ensureTitleFree returns ErrTaskTitleTaken when a task other than self
// already uses title.
func (s *taskService) ensureTitleFree(ctx context.Context, title string, self uuid.UUID) error {
	existing, err := s.tasks.GetByTitle(ctx, title)
	switch {
	case err == nil && existing.ID != self:
		return ErrTaskTitleTaken
	case err == nil, store.IsNotFoundError(err):
		return nil
	default:
		return err
	}
}

// wrap passes known sentinels through and hides everything else behind a
// ServiceError with a client-safe message.
func (s *taskService) wrap(log *slog.Logger, operation, message string, err error) error {
	if errors.Is(err, ErrTaskTitleTaken) {
		return err
	}
	log.Error("task operation failed",
		"operation", operation,
		redact.ErrorAttr(err))
	return NewServiceError(operation, message, err)
}
