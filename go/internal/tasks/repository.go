package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/sqlutil"
)

// Repository implements task catalog data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new tasks repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateTask inserts a new task, assigning max(task_id)+1 inside a
// transaction that locks the table.
func (r *Repository) CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	var task models.Task
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if err := sqlutil.LockTable(tx, "task"); err != nil {
			return err
		}
		id, err := sqlutil.NextID(tx, "task", "task_id")
		if err != nil {
			return err
		}
		return tx.QueryRow(`
			INSERT INTO task (task_id, answer, qwestion, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING task_id, qwestion, answer, created_at`,
			id, []byte(req.Answer), req.Question).
			Scan(&task.ID, &task.Question, (*[]byte)(&task.Answer), &task.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &task, nil
}

// GetTask retrieves a task by id.
func (r *Repository) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	var task models.Task
	err := r.db.QueryRowContext(ctx,
		`SELECT task_id, qwestion, answer, created_at FROM task WHERE task_id = $1`, id).
		Scan(&task.ID, &task.Question, (*[]byte)(&task.Answer), &task.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// TaskExists reports whether a task row exists for id.
func (r *Repository) TaskExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM task WHERE task_id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check task existence: %w", err)
	}
	return true, nil
}

// ListTasks returns the full catalog ordered by task id.
func (r *Repository) ListTasks(ctx context.Context) ([]models.Task, error) {
	return r.queryTasks(ctx, `SELECT task_id, qwestion, answer, created_at FROM task ORDER BY task_id`)
}

// TasksByIDs returns the tasks whose ids appear in ids, ordered by task id.
func (r *Repository) TasksByIDs(ctx context.Context, ids []int64) ([]models.Task, error) {
	return r.queryTasks(ctx, `
		SELECT task_id, qwestion, answer, created_at FROM task
		WHERE task_id = ANY($1) ORDER BY task_id`, pq.Int64Array(ids))
}

// ListTaskIDs returns every task id in the catalog, ordered.
func (r *Repository) ListTaskIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT task_id FROM task ORDER BY task_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list task ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list task ids: %w", err)
	}
	return ids, nil
}

// FirstUnseen returns the lowest-id task not present in viewed.
func (r *Repository) FirstUnseen(ctx context.Context, viewed []int64) (*models.Task, error) {
	var task models.Task
	err := r.db.QueryRowContext(ctx, `
		SELECT task_id, qwestion, answer, created_at FROM task
		WHERE task_id != ALL($1) ORDER BY task_id LIMIT 1`, pq.Int64Array(viewed)).
		Scan(&task.ID, &task.Question, (*[]byte)(&task.Answer), &task.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoMoreTasks
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find unseen task: %w", err)
	}
	return &task, nil
}

// FirstAfter returns the lowest-id task strictly greater than cursor.
func (r *Repository) FirstAfter(ctx context.Context, cursor int64) (*models.Task, error) {
	var task models.Task
	err := r.db.QueryRowContext(ctx, `
		SELECT task_id, qwestion, answer, created_at FROM task
		WHERE task_id > $1 ORDER BY task_id LIMIT 1`, cursor).
		Scan(&task.ID, &task.Question, (*[]byte)(&task.Answer), &task.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoMoreTasks
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task after cursor: %w", err)
	}
	return &task, nil
}

// DeleteTask removes a task and all of its solutions. The solutions go
// first inside one transaction to satisfy the foreign keys.
func (r *Repository) DeleteTask(ctx context.Context, id int64) error {
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM solution WHERE task_id = $1`, id); err != nil {
			return err
		}
		res, err := tx.Exec(`DELETE FROM task WHERE task_id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
	if errors.Is(err, ErrTaskNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// Clear removes every task and every solution.
func (r *Repository) Clear(ctx context.Context) error {
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM solution`); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM task`)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}
	return nil
}

func (r *Repository) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.Question, (*[]byte)(&task.Answer), &task.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return out, nil
}
