package teams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/sqlutil"
)

// Repository implements team data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new teams repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const teamColumns = `team_id, login, password_hash, password_salt, status, viewed_tasks, created_at, updated_at`

// CreateTeam inserts a new team, assigning max(team_id)+1 inside a
// transaction that locks the table so concurrent registrations cannot
// read the same maximum.
func (r *Repository) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	var team *models.Team
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if err := sqlutil.LockTable(tx, "teams"); err != nil {
			return err
		}
		id, err := sqlutil.NextID(tx, "teams", "team_id")
		if err != nil {
			return err
		}
		row := tx.QueryRow(`
			INSERT INTO teams (team_id, login, password_hash, password_salt, status, viewed_tasks, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'offline', '{}', NOW(), NOW())
			RETURNING `+teamColumns,
			id, req.Login, req.PasswordHash, req.PasswordSalt)
		team, err = scanTeam(row)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// GetTeam retrieves a team by id.
func (r *Repository) GetTeam(ctx context.Context, id int64) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE team_id = $1`, id)
	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// GetTeamByLogin retrieves a team by its unique login.
func (r *Repository) GetTeamByLogin(ctx context.Context, login string) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE login = $1`, login)
	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team by login: %w", err)
	}
	return team, nil
}

// TeamExists reports whether a team row exists for id.
func (r *Repository) TeamExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM teams WHERE team_id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check team existence: %w", err)
	}
	return true, nil
}

// LoginExists reports whether login is already taken.
func (r *Repository) LoginExists(ctx context.Context, login string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM teams WHERE login = $1`, login).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check login existence: %w", err)
	}
	return true, nil
}

// ListCompetingTeams returns all teams except the reserved admin login,
// ordered by team id.
func (r *Repository) ListCompetingTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE login != $1 ORDER BY team_id`, models.AdminLogin)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// ViewedTasks returns the team's issuance log in issuance order.
func (r *Repository) ViewedTasks(ctx context.Context, teamID int64) ([]int64, error) {
	var viewed pq.Int64Array
	err := r.db.QueryRowContext(ctx,
		`SELECT viewed_tasks FROM teams WHERE team_id = $1`, teamID).Scan(&viewed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get viewed tasks: %w", err)
	}
	return viewed, nil
}

// AppendViewedTask appends taskID to the team's viewed_tasks. The append is
// idempotent: a task id already present is not appended again.
func (r *Repository) AppendViewedTask(ctx context.Context, teamID, taskID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE teams
		SET viewed_tasks = array_append(viewed_tasks, $1), updated_at = NOW()
		WHERE team_id = $2 AND NOT ($1 = ANY(viewed_tasks))`,
		taskID, teamID)
	if err != nil {
		return fmt.Errorf("failed to append viewed task: %w", err)
	}
	return nil
}

// SetPresence updates the team's online/offline flag.
func (r *Repository) SetPresence(ctx context.Context, teamID int64, presence models.Presence) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE teams SET status = $1, updated_at = NOW() WHERE team_id = $2`, presence, teamID)
	if err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (*models.Team, error) {
	var team models.Team
	var viewed pq.Int64Array
	if err := row.Scan(
		&team.ID, &team.Login, &team.PasswordHash, &team.PasswordSalt,
		&team.Presence, &viewed, &team.CreatedAt, &team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	team.ViewedTasks = viewed
	return &team, nil
}
