package teams

import (
	"context"
	"fmt"
	"log"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
)

// TeamRepository defines what the team app layer needs from the teams repository
type TeamRepository interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error)
	GetTeam(ctx context.Context, id int64) (*models.Team, error)
	GetTeamByLogin(ctx context.Context, login string) (*models.Team, error)
	TeamExists(ctx context.Context, id int64) (bool, error)
	LoginExists(ctx context.Context, login string) (bool, error)
	ListCompetingTeams(ctx context.Context) ([]models.Team, error)
	ViewedTasks(ctx context.Context, teamID int64) ([]int64, error)
	AppendViewedTask(ctx context.Context, teamID, taskID int64) error
	SetPresence(ctx context.Context, teamID int64, presence models.Presence) error
}

// App handles team business logic
type App struct {
	repo TeamRepository
}

// NewApp creates a new teams App
func NewApp(repo TeamRepository) *App {
	return &App{repo: repo}
}

// CreateTeam creates a new team record.
func (a *App) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	team, err := a.repo.CreateTeam(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	log.Printf("Created team %d (%s)", team.ID, team.Login)
	return team, nil
}

// GetTeam retrieves a team by id.
func (a *App) GetTeam(ctx context.Context, id int64) (*models.Team, error) {
	return a.repo.GetTeam(ctx, id)
}

// GetTeamByLogin retrieves a team by login.
func (a *App) GetTeamByLogin(ctx context.Context, login string) (*models.Team, error) {
	return a.repo.GetTeamByLogin(ctx, login)
}

// TeamExists reports whether the team id is known.
func (a *App) TeamExists(ctx context.Context, id int64) (bool, error) {
	return a.repo.TeamExists(ctx, id)
}

// LoginExists reports whether the login is taken.
func (a *App) LoginExists(ctx context.Context, login string) (bool, error) {
	return a.repo.LoginExists(ctx, login)
}

// ListCompetingTeams returns every non-admin team.
func (a *App) ListCompetingTeams(ctx context.Context) ([]models.Team, error) {
	return a.repo.ListCompetingTeams(ctx)
}

// ViewedTasks returns the team's issuance log.
func (a *App) ViewedTasks(ctx context.Context, teamID int64) ([]int64, error) {
	return a.repo.ViewedTasks(ctx, teamID)
}

// AppendViewedTask records a task issuance in the team's log.
func (a *App) AppendViewedTask(ctx context.Context, teamID, taskID int64) error {
	return a.repo.AppendViewedTask(ctx, teamID, taskID)
}

// SetOnline marks the team as holding a live-status connection.
func (a *App) SetOnline(ctx context.Context, teamID int64) error {
	return a.repo.SetPresence(ctx, teamID, models.PresenceOnline)
}

// SetOffline marks the team offline. The write is best-effort: a live
// connection is already gone when this runs, so a failure is logged and
// swallowed rather than surfaced.
func (a *App) SetOffline(teamID int64) {
	if err := a.repo.SetPresence(context.Background(), teamID, models.PresenceOffline); err != nil {
		log.Printf("Failed to mark team %d offline: %v", teamID, err)
	}
}
