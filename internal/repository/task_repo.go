package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"threedays/internal/model"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `
        id, user_id, title, description, date, status, priority, tags,
        sort_order, archived, rollover,
        recurrence_pattern, recurrence_interval, recurrence_end_date, parent_task_id,
        calendar_sync, calendar_event_id,
        created_at, updated_at
`

func scanTask(row interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Date, &t.Status, &t.Priority, &t.Tags,
		&t.SortOrder, &t.Archived, &t.Rollover,
		&t.RecurrencePattern, &t.RecurrenceInterval, &t.RecurrenceEndDate, &t.ParentTaskID,
		&t.CalendarSync, &t.CalendarEventID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Inserting task",
		zap.Int("user_id", t.UserID),
		zap.String("date", t.Date),
		zap.Int("sort_order", t.SortOrder),
	)
	query := `
        INSERT INTO tasks (
            user_id, title, description, date, status, priority, tags, sort_order,
            recurrence_pattern, recurrence_interval, recurrence_end_date, parent_task_id
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		t.UserID, t.Title, t.Description, t.Date, t.Status, t.Priority, t.Tags, t.SortOrder,
		t.RecurrencePattern, t.RecurrenceInterval, t.RecurrenceEndDate, t.ParentTaskID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.Int("user_id", t.UserID),
		)
		return err
	}
	r.logger.Info("Task inserted",
		zap.Int("task_id", t.ID),
		zap.Int("user_id", t.UserID),
	)
	return nil
}

// GetByID returns the task only if it belongs to userID; a foreign id
// behaves exactly like a missing one (pgx.ErrNoRows).
func (r *TaskRepository) GetByID(ctx context.Context, userID, taskID int) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return scanTask(r.db.QueryRow(ctx, query, taskID, userID))
}

// ListByDates returns the user's non-archived tasks on the given calendar
// days, sorted for display: date, then bucket order, then creation time as
// the tiebreak for duplicate or gapped order values.
func (r *TaskRepository) ListByDates(ctx context.Context, userID int, dates []string) ([]model.Task, error) {
	r.logger.Debug("Listing tasks", zap.Int("user_id", userID), zap.Strings("dates", dates))
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE user_id = $1 AND archived = false AND date = ANY($2)
        ORDER BY date ASC, sort_order ASC, created_at ASC
    `
	rows, err := r.db.Query(ctx, query, userID, dates)
	if err != nil {
		r.logger.Error("Failed to query tasks", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task row", zap.Error(err), zap.Int("user_id", userID))
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) ListArchived(ctx context.Context, userID int) ([]model.Task, error) {
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE user_id = $1 AND archived = true
        ORDER BY date DESC, created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query archived tasks", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// MaxSortOrder returns the highest sort_order in the (user, date) bucket,
// or -1 when the bucket is empty. Archived tasks sit outside the bucket
// ordering.
func (r *TaskRepository) MaxSortOrder(ctx context.Context, userID int, date string) (int, error) {
	query := `
        SELECT COALESCE(MAX(sort_order), -1)
        FROM tasks
        WHERE user_id = $1 AND date = $2 AND archived = false
    `
	var max int
	if err := r.db.QueryRow(ctx, query, userID, date).Scan(&max); err != nil {
		r.logger.Error("Failed to read max sort_order",
			zap.Error(err),
			zap.Int("user_id", userID),
			zap.String("date", date),
		)
		return 0, err
	}
	return max, nil
}

// Update rewrites the task's mutable fields.
func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	query := `
        UPDATE tasks
        SET title = $3, description = $4, date = $5, status = $6, priority = $7,
            tags = $8, sort_order = $9, archived = $10, rollover = $11,
            updated_at = NOW()
        WHERE id = $1 AND user_id = $2
        RETURNING updated_at
    `
	err := r.db.QueryRow(ctx, query,
		t.ID, t.UserID,
		t.Title, t.Description, t.Date, t.Status, t.Priority,
		t.Tags, t.SortOrder, t.Archived, t.Rollover,
	).Scan(&t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update task",
			zap.Error(err),
			zap.Int("task_id", t.ID),
			zap.Int("user_id", t.UserID),
		)
		return err
	}
	r.logger.Info("Task updated", zap.Int("task_id", t.ID), zap.Int("user_id", t.UserID))
	return nil
}

// SetSortOrder writes one task's bucket position. The update is scoped to
// the owner, so an id the user does not own affects zero rows.
func (r *TaskRepository) SetSortOrder(ctx context.Context, userID, taskID, order int) (int64, error) {
	query := `
        UPDATE tasks
        SET sort_order = $3, updated_at = NOW()
        WHERE id = $1 AND user_id = $2
    `
	result, err := r.db.Exec(ctx, query, taskID, userID, order)
	if err != nil {
		r.logger.Error("Failed to set sort_order",
			zap.Error(err),
			zap.Int("task_id", taskID),
			zap.Int("user_id", userID),
		)
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID int) (int64, error) {
	result, err := r.db.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		r.logger.Error("Failed to delete task",
			zap.Error(err),
			zap.Int("task_id", taskID),
			zap.Int("user_id", userID),
		)
		return 0, err
	}
	rowsAffected := result.RowsAffected()
	if rowsAffected > 0 {
		r.logger.Info("Task deleted", zap.Int("task_id", taskID), zap.Int("user_id", userID))
	}
	return rowsAffected, nil
}

// RolloverPending moves every pending, non-archived task dated from to the
// to day, in one bulk statement across all users. Moved rows keep their
// sort_order and get the rollover flag set.
func (r *TaskRepository) RolloverPending(ctx context.Context, from, to string) (int64, error) {
	r.logger.Debug("Rolling over pending tasks", zap.String("from", from), zap.String("to", to))
	query := `
        UPDATE tasks
        SET date = $2, rollover = true, updated_at = NOW()
        WHERE status = 'Pending'
        AND archived = false
        AND date = $1
    `
	result, err := r.db.Exec(ctx, query, from, to)
	if err != nil {
		r.logger.Error("Failed to roll over tasks", zap.Error(err))
		return 0, err
	}
	rowsAffected := result.RowsAffected()
	if rowsAffected > 0 {
		r.logger.Info("Pending tasks rolled over",
			zap.Int64("tasks_moved", rowsAffected),
			zap.String("from", from),
			zap.String("to", to),
		)
	} else {
		r.logger.Debug("No pending tasks to roll over", zap.String("from", from))
	}
	return rowsAffected, nil
}
