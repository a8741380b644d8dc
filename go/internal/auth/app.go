package auth

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/teams"
)

// TeamStore defines what the identity gate needs from the teams layer
type TeamStore interface {
	GetTeamByLogin(ctx context.Context, login string) (*models.Team, error)
	TeamExists(ctx context.Context, id int64) (bool, error)
	LoginExists(ctx context.Context, login string) (bool, error)
	CreateTeam(ctx context.Context, req teams.CreateTeamRequest) (*models.Team, error)
}

// Identity is the validated caller: the output contract every other
// component trusts verbatim.
type Identity struct {
	TeamID   int64
	TeamName string
	Role     string
}

// Session is a successful login.
type Session struct {
	Token     string    `json:"token"`
	TeamID    int64     `json:"team_id"`
	TeamName  string    `json:"team_name"`
	ExpiresAt time.Time `json:"-"`
}

// App implements the identity gate: credential checks, token issuance
// and token validation.
type App struct {
	store  TeamStore
	tokens *TokenManager
}

// NewApp creates a new auth App
func NewApp(store TeamStore, tokens *TokenManager) *App {
	return &App{store: store, tokens: tokens}
}

// Login authenticates a competing team. The reserved admin login is
// redirected to LoginAdmin.
func (a *App) Login(ctx context.Context, login, password string) (*Session, error) {
	if strings.EqualFold(login, models.AdminLogin) {
		return nil, ErrAdminEndpoint
	}
	return a.login(ctx, login, password, RoleTeam)
}

// LoginAdmin authenticates the operator identity.
func (a *App) LoginAdmin(ctx context.Context, login, password string) (*Session, error) {
	if login != models.AdminLogin {
		return nil, ErrInvalidCredentials
	}
	return a.login(ctx, login, password, RoleAdmin)
}

func (a *App) login(ctx context.Context, login, password, role string) (*Session, error) {
	team, err := a.store.GetTeamByLogin(ctx, login)
	if err != nil {
		// Unknown login and wrong password look the same to the caller.
		return nil, ErrInvalidCredentials
	}
	if !VerifyPassword(password, team.PasswordHash, team.PasswordSalt) {
		return nil, ErrInvalidCredentials
	}

	token, expires, err := a.tokens.Generate(team.ID, team.Login, role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	log.Printf("Issued %s token for %s (team %d)", role, team.Login, team.ID)
	return &Session{Token: token, TeamID: team.ID, TeamName: team.Login, ExpiresAt: expires}, nil
}

// Register creates a new competing team. Only the admin may register
// teams; the gateway enforces that with RequireRole before calling here.
func (a *App) Register(ctx context.Context, login, password string) (*models.Team, error) {
	if strings.EqualFold(login, models.AdminLogin) {
		return nil, ErrAdminReserved
	}

	taken, err := a.store.LoginExists(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to check login: %w", err)
	}
	if taken {
		return nil, ErrLoginTaken
	}

	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}

	team, err := a.store.CreateTeam(ctx, teams.CreateTeamRequest{
		Login:        login,
		PasswordHash: HashPassword(password, salt),
		PasswordSalt: salt,
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// Authenticate validates a bearer token and re-checks that the team still
// exists, yielding the caller identity.
func (a *App) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	exists, err := a.store.TeamExists(ctx, claims.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify team: %w", err)
	}
	if !exists {
		return nil, ErrInvalidToken
	}

	return &Identity{TeamID: claims.TeamID, TeamName: claims.TeamName, Role: claims.Role}, nil
}

// RequireRole validates a token and checks it carries the given role.
func (a *App) RequireRole(ctx context.Context, token, role string) (*Identity, error) {
	id, err := a.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if id.Role != role {
		return nil, ErrWrongRole
	}
	return id, nil
}
