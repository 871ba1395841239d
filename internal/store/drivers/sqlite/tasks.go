package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/store"
)

type tasksRepo struct {
	db querier
}

// defaultListLimit caps unbounded list queries.
const defaultListLimit = 50

const taskColumns = `id, account_id, title, description, due_date, completed, created_at, updated_at`

func (r *tasksRepo) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, account_id, title, description, due_date, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.Title, t.Description,
		mapOptionalTime(t.DueDate), t.Completed, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (r *tasksRepo) GetTaskByID(ctx context.Context, id, accountID string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND account_id = ?`,
		id, accountID)
	return scanTask(row)
}

func (r *tasksRepo) ListTasks(
	ctx context.Context,
	accountID string,
	f store.TaskFilter,
) ([]domain.Task, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE account_id = ?`
	args := []any{accountID}

	if !f.IncludeCompleted {
		query += ` AND completed = 0`
	}

	// Due tasks first, then newest created; matches the composite index
	query += ` ORDER BY due_date IS NULL, due_date ASC, created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *tasksRepo) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND account_id = ?`,
		t.Title, t.Description, mapOptionalTime(t.DueDate), t.UpdatedAt,
		t.ID, t.AccountID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *tasksRepo) SetTaskCompleted(ctx context.Context, id, accountID string, completed bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET completed = ?, updated_at = ?
		WHERE id = ? AND account_id = ?`,
		completed, time.Now().UTC(), id, accountID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *tasksRepo) DeleteTask(ctx context.Context, id, accountID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanTask(row *sql.Row) (domain.Task, error) {
	var (
		t       domain.Task
		dueDate sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.AccountID, &t.Title, &t.Description,
		&dueDate, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	t.DueDate = mapNullTimePtr(dueDate)
	return t, nil
}

func scanTaskRows(rows *sql.Rows) (domain.Task, error) {
	var (
		t       domain.Task
		dueDate sql.NullTime
	)
	err := rows.Scan(
		&t.ID, &t.AccountID, &t.Title, &t.Description,
		&dueDate, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Task{}, err
	}
	t.DueDate = mapNullTimePtr(dueDate)
	return t, nil
}
