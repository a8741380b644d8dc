package solutions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/sqlutil"
)

// Repository implements solution ledger data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new solutions repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const solutionColumns = `solution_id, team_id, task_id, condition, answer, sent_at, approved_at`

// Insert opens a new ledger row with the given status and answer,
// assigning max(solution_id)+1 inside a locking transaction.
func (r *Repository) Insert(ctx context.Context, teamID, taskID int64, status models.SolutionStatus, answer json.RawMessage) (int64, error) {
	var id int64
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if err := sqlutil.LockTable(tx, "solution"); err != nil {
			return err
		}
		next, err := sqlutil.NextID(tx, "solution", "solution_id")
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO solution (solution_id, condition, answer, sent_at, approved_at, team_id, task_id)
			VALUES ($1, $2, $3, NOW(), NULL, $4, $5)`,
			next, status, []byte(answer), teamID, taskID); err != nil {
			return err
		}
		id = next
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert solution: %w", err)
	}
	return id, nil
}

// PromoteToVerification moves a freshly issued row to verification,
// storing the submitted answer and restamping sent_at. The condition
// guard keeps the transition atomic against a racing grader tick: if the
// row is no longer 'sent' nothing is written.
func (r *Repository) PromoteToVerification(ctx context.Context, solutionID int64, answer json.RawMessage) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE solution
		SET condition = $1, answer = $2, sent_at = NOW()
		WHERE solution_id = $3 AND condition = $4`,
		models.SolutionStatusVerification, []byte(answer), solutionID, models.SolutionStatusSent)
	if err != nil {
		return false, fmt.Errorf("failed to promote solution: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to promote solution: %w", err)
	}
	return n > 0, nil
}

// LatestForPair returns the most recent ledger row for (team, task).
func (r *Repository) LatestForPair(ctx context.Context, teamID, taskID int64) (*models.Solution, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+solutionColumns+` FROM solution
		WHERE team_id = $1 AND task_id = $2
		ORDER BY sent_at DESC, solution_id DESC LIMIT 1`, teamID, taskID)
	sol, err := scanSolution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSolutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest solution: %w", err)
	}
	return sol, nil
}

// ListByTeam returns all of a team's solutions ordered by task id.
func (r *Repository) ListByTeam(ctx context.Context, teamID int64) ([]models.Solution, error) {
	return r.querySolutions(ctx, `
		SELECT `+solutionColumns+` FROM solution
		WHERE team_id = $1 ORDER BY task_id`, teamID)
}

// ListByTask returns all solutions for a task ordered by team id.
func (r *Repository) ListByTask(ctx context.Context, taskID int64) ([]models.Solution, error) {
	return r.querySolutions(ctx, `
		SELECT `+solutionColumns+` FROM solution
		WHERE task_id = $1 ORDER BY team_id`, taskID)
}

// LatestStatusesByTeam maps each task the team has rows for to the status
// of the newest row.
func (r *Repository) LatestStatusesByTeam(ctx context.Context, teamID int64) (map[int64]models.SolutionStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (task_id) task_id, condition
		FROM solution WHERE team_id = $1
		ORDER BY task_id, sent_at DESC, solution_id DESC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get statuses by team: %w", err)
	}
	defer rows.Close()

	statuses := make(map[int64]models.SolutionStatus)
	for rows.Next() {
		var taskID int64
		var status models.SolutionStatus
		if err := rows.Scan(&taskID, &status); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses[taskID] = status
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get statuses by team: %w", err)
	}
	return statuses, nil
}

// LatestPerPair returns the newest status of every (team, task) pair,
// as consumed by the dashboard projection.
func (r *Repository) LatestPerPair(ctx context.Context) ([]StatusRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (team_id, task_id) team_id, task_id, condition
		FROM solution
		ORDER BY team_id, task_id, sent_at DESC, solution_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest statuses: %w", err)
	}
	defer rows.Close()

	var out []StatusRow
	for rows.Next() {
		var sr StatusRow
		if err := rows.Scan(&sr.TeamID, &sr.TaskID, &sr.Status); err != nil {
			return nil, fmt.Errorf("failed to scan status row: %w", err)
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get latest statuses: %w", err)
	}
	return out, nil
}

// Pending returns every unresolved row joined with its task's expected
// answer, for the reconciliation worker.
func (r *Repository) Pending(ctx context.Context) ([]PendingSolution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.solution_id, s.team_id, s.task_id, s.answer, t.answer
		FROM solution s
		JOIN task t ON s.task_id = t.task_id
		WHERE s.condition IN ($1, $2)`,
		models.SolutionStatusSent, models.SolutionStatusVerification)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending solutions: %w", err)
	}
	defer rows.Close()

	var out []PendingSolution
	for rows.Next() {
		var p PendingSolution
		if err := rows.Scan(&p.SolutionID, &p.TeamID, &p.TaskID,
			(*[]byte)(&p.Submitted), (*[]byte)(&p.Expected)); err != nil {
			return nil, fmt.Errorf("failed to scan pending solution: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch pending solutions: %w", err)
	}
	return out, nil
}

// SetVerdict writes a terminal status on one row. approved_at is stamped
// on approve and cleared on reject, in the same statement.
func (r *Repository) SetVerdict(ctx context.Context, solutionID int64, status models.SolutionStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE solution
		SET condition = $1,
		    approved_at = CASE WHEN $1 = 'approve' THEN NOW() ELSE NULL END
		WHERE solution_id = $2`,
		status, solutionID)
	if err != nil {
		return fmt.Errorf("failed to set verdict: %w", err)
	}
	return nil
}

// ResolvePair unconditionally overrides the verdict of every row for the
// pair. Returns the ids of the rows touched, newest first.
func (r *Repository) ResolvePair(ctx context.Context, teamID, taskID int64, status models.SolutionStatus) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE solution
		SET condition = $1,
		    approved_at = CASE WHEN $1 = 'approve' THEN NOW() ELSE NULL END
		WHERE team_id = $2 AND task_id = $3
		RETURNING solution_id`,
		status, teamID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve solution: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to resolve solution: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to resolve solution: %w", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids, nil
}

// DeletePair removes every row for (team, task). Returns rows removed.
func (r *Repository) DeletePair(ctx context.Context, teamID, taskID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM solution WHERE team_id = $1 AND task_id = $2`, teamID, taskID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete solution: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete solution: %w", err)
	}
	return n, nil
}

// DeleteAll empties the ledger.
func (r *Repository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM solution`); err != nil {
		return fmt.Errorf("failed to delete solutions: %w", err)
	}
	return nil
}

func (r *Repository) querySolutions(ctx context.Context, query string, args ...any) ([]models.Solution, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query solutions: %w", err)
	}
	defer rows.Close()

	var out []models.Solution
	for rows.Next() {
		sol, err := scanSolution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan solution: %w", err)
		}
		out = append(out, *sol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query solutions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSolution(row rowScanner) (*models.Solution, error) {
	var sol models.Solution
	var approvedAt sql.NullTime
	if err := row.Scan(
		&sol.ID, &sol.TeamID, &sol.TaskID, &sol.Status,
		(*[]byte)(&sol.Answer), &sol.SentAt, &approvedAt,
	); err != nil {
		return nil, err
	}
	sol.ApprovedAt = sqlutil.FromSqlTime(approvedAt)
	return &sol, nil
}
