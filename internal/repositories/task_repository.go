package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tasktracker/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindVisibleByID(ctx context.Context, id, userID uuid.UUID) (*models.Task, error)
	FindOwnedByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Count(ctx context.Context, filter models.TaskFilter) (int, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*models.TaskStats, error)
	BulkUpdate(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID, patch models.TaskBulkPatch, now time.Time) (*models.BulkResult, error)
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t                    models.Task
		assigneeID           uuid.NullUUID
		aFirst, aLast, aUser sql.NullString
		cFirst, cLast, cUser sql.NullString
		due, completed       sql.NullTime
		estimated, actual    sql.NullFloat64
		tags                 pq.StringArray
	)
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &due,
		&assigneeID, &aFirst, &aLast, &aUser, &t.AssigneeName,
		&t.CreatedBy.ID, &cFirst, &cLast, &cUser,
		&tags, &completed, &estimated, &actual,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	if completed.Valid {
		c := completed.Time
		t.CompletedAt = &c
	}
	if estimated.Valid {
		v := estimated.Float64
		t.EstimatedHours = &v
	}
	if actual.Valid {
		v := actual.Float64
		t.ActualHours = &v
	}
	if assigneeID.Valid {
		t.Assignee = &models.UserRef{
			ID:        assigneeID.UUID,
			FirstName: aFirst.String,
			LastName:  aLast.String,
			Username:  aUser.String,
		}
	}
	t.CreatedBy.FirstName = cFirst.String
	t.CreatedBy.LastName = cLast.String
	t.CreatedBy.Username = cUser.String
	t.Tags = []string(tags)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func tagsArray(tags []string) interface{} {
	if tags == nil {
		tags = []string{}
	}
	return pq.Array(tags)
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	const q = `
		INSERT INTO tasks (
			title, description, status, priority, due_date,
			assignee_id, assignee_name, created_by, tags, completed_at,
			estimated_hours, actual_hours
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		task.Title, task.Description, task.Status, task.Priority, task.DueDate,
		task.AssigneeID(), task.AssigneeName, task.CreatedBy.ID, tagsArray(task.Tags), task.CompletedAt,
		nullableFloat(task.EstimatedHours), nullableFloat(task.ActualHours),
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", mapPQError(err))
	}
	return nil
}

func (r *taskRepository) findOne(ctx context.Context, where string, args ...interface{}) (*models.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx, taskSelect+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTaskNotFound
		}
		return nil, fmt.Errorf("select task: %w", err)
	}
	return task, nil
}

func (r *taskRepository) FindVisibleByID(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	return r.findOne(ctx, ` WHERE t.id = $1 AND (t.created_by = $2 OR t.assignee_id = $2)`, id, userID)
}

func (r *taskRepository) FindOwnedByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error) {
	return r.findOne(ctx, ` WHERE t.id = $1 AND t.created_by = $2`, id, ownerID)
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	q, args := buildTaskListQuery(filter)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Count(ctx context.Context, filter models.TaskFilter) (int, error) {
	q, args := buildTaskCountQuery(filter)
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// Update saves every mutable field; the row must still belong to task.CreatedBy.
func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	const q = `
		UPDATE tasks SET
			title=$1, description=$2, status=$3, priority=$4, due_date=$5,
			assignee_id=$6, assignee_name=$7, tags=$8, completed_at=$9,
			estimated_hours=$10, actual_hours=$11, updated_at=NOW()
		WHERE id=$12 AND created_by=$13
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, q,
		task.Title, task.Description, task.Status, task.Priority, task.DueDate,
		task.AssigneeID(), task.AssigneeName, tagsArray(task.Tags), task.CompletedAt,
		nullableFloat(task.EstimatedHours), nullableFloat(task.ActualHours),
		task.ID, task.CreatedBy.ID,
	).Scan(&task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrTaskNotFound
		}
		return fmt.Errorf("update task: %w", mapPQError(err))
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*models.TaskStats, error) {
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in-progress'),
			COUNT(*) FILTER (WHERE status <> 'completed' AND due_date IS NOT NULL AND due_date < $2),
			COUNT(*) FILTER (WHERE priority = 'high')
		FROM tasks
		WHERE created_by = $1 OR assignee_id = $1`
	s := &models.TaskStats{}
	if err := r.db.QueryRowContext(ctx, q, userID, now).Scan(
		&s.Total, &s.Completed, &s.Pending, &s.InProgress, &s.Overdue, &s.HighPriority,
	); err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	s.CompletionRate = models.CompletionRate(s.Completed, s.Total)
	return s, nil
}

func (r *taskRepository) BulkUpdate(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID, patch models.TaskBulkPatch, now time.Time) (*models.BulkResult, error) {
	q, args := buildBulkUpdateQuery(ownerID, ids, patch, now)
	res := &models.BulkResult{}
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&res.MatchedCount, &res.ModifiedCount); err != nil {
		return nil, fmt.Errorf("bulk update tasks: %w", mapPQError(err))
	}
	return res, nil
}
