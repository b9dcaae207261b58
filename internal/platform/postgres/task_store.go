package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/store"
)

const tasksTitleConstraint = "tasks_title_key"

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If log is nil, slog.Default is used.
func NewPostgresTaskStore(db store.DBTX, log *slog.Logger) *PostgresTaskStore {
	if log == nil {
		log = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: log.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, title, description, status, owner_id, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		task.OwnerID,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			log.Warn("task title already exists", slog.String("task_id", task.ID.String()))
			return MapUniqueViolation(err, "task", tasksTitleConstraint, store.ErrTaskTitleExists)
		case IsForeignKeyViolation(err):
			log.Warn("task owner does not exist",
				slog.String("task_id", task.ID.String()),
				slog.String("owner_id", task.OwnerID.String()))
			return fmt.Errorf("%w: user with ID %s not found", store.ErrInvalidEntity, task.OwnerID)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return storeFailure("task", "create", err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

const selectTaskColumns = `t.id, t.title, t.description, t.status, t.owner_id, t.completed_at, t.created_at, t.updated_at`

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.getOne(ctx, `SELECT `+selectTaskColumns+` FROM tasks t WHERE t.id = $1`, id)
}

// GetByTitle implements store.TaskStore.GetByTitle.
func (s *PostgresTaskStore) GetByTitle(ctx context.Context, title string) (*domain.Task, error) {
	return s.getOne(ctx, `SELECT `+selectTaskColumns+` FROM tasks t WHERE t.title = $1`, title)
}

func (s *PostgresTaskStore) getOne(ctx context.Context, query string, arg any) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task", slog.String("error", err.Error()))
		return nil, storeFailure("task", "get", err)
	}
	return task, nil
}

// ListAll implements store.TaskStore.ListAll.
func (s *PostgresTaskStore) ListAll(ctx context.Context) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + selectTaskColumns + `, u.id, u.name, u.email
		FROM tasks t
		JOIN users u ON u.id = t.owner_id
		ORDER BY t.created_at, t.id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, storeFailure("task", "list", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		var task domain.Task
		var status string
		var owner domain.TaskOwner
		if err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&status,
			&task.OwnerID,
			&task.CompletedAt,
			&task.CreatedAt,
			&task.UpdatedAt,
			&owner.ID,
			&owner.Name,
			&owner.Email,
		); err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, storeFailure("task", "list", err)
		}
		task.Status = domain.TaskStatus(status)
		task.Owner = &owner
		tasks = append(tasks, &task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, storeFailure("task", "list", err)
	}

	return tasks, nil
}

// ListByOwner implements store.TaskStore.ListByOwner.
func (s *PostgresTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + selectTaskColumns + ` FROM tasks t WHERE t.owner_id = $1 ORDER BY t.created_at, t.id`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		log.Error("failed to list tasks by owner",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, storeFailure("task", "list", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, storeFailure("task", "list", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, storeFailure("task", "list", err)
	}

	return tasks, nil
}

// Update implements store.TaskStore.Update.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, completed_at = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		string(task.Status),
		task.CompletedAt,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("task title already exists on update", slog.String("task_id", task.ID.String()))
			return MapUniqueViolation(err, "task", tasksTitleConstraint, store.ErrTaskTitleExists)
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return storeFailure("task", "update", err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrTaskNotFound
		}
		return err
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return storeFailure("task", "delete", err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrTaskNotFound
		}
		return err
	}

	log.Info("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// CountByStatus implements store.TaskStore.CountByStatus.
func (s *PostgresTaskStore) CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		log.Error("failed to count tasks by status", slog.String("error", err.Error()))
		return nil, storeFailure("task", "count_by_status", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			log.Error("failed to scan status count", slog.String("error", err.Error()))
			return nil, storeFailure("task", "count_by_status", err)
		}
		counts[domain.TaskStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("task", "count_by_status", err)
	}

	return counts, nil
}

// CountByOwner implements store.TaskStore.CountByOwner.
func (s *PostgresTaskStore) CountByOwner(ctx context.Context) (map[uuid.UUID]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT owner_id, COUNT(*) FROM tasks GROUP BY owner_id`)
	if err != nil {
		log.Error("failed to count tasks by owner", slog.String("error", err.Error()))
		return nil, storeFailure("task", "count_by_owner", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var ownerID uuid.UUID
		var n int
		if err := rows.Scan(&ownerID, &n); err != nil {
			log.Error("failed to scan owner count", slog.String("error", err.Error()))
			return nil, storeFailure("task", "count_by_owner", err)
		}
		counts[ownerID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("task", "count_by_owner", err)
	}

	return counts, nil
}

// AverageCompletionHours implements store.TaskStore.AverageCompletionHours.
func (s *PostgresTaskStore) AverageCompletionHours(ctx context.Context) (float64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - created_at))) / 3600, 0)::float8
		FROM tasks
		WHERE completed_at IS NOT NULL
	`
	var hours float64
	if err := s.db.QueryRowContext(ctx, query).Scan(&hours); err != nil {
		log.Error("failed to compute average completion time", slog.String("error", err.Error()))
		return 0, storeFailure("task", "average_completion", err)
	}

	return hours, nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status string
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&task.OwnerID,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	task.Status = domain.TaskStatus(status)
	return &task, nil
}
