package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/teams"
)

type fakeTeamStore struct {
	byLogin map[string]*models.Team
	nextID  int64
}

func newFakeTeamStore() *fakeTeamStore {
	return &fakeTeamStore{byLogin: make(map[string]*models.Team), nextID: 1}
}

func (f *fakeTeamStore) addTeam(login, password string) *models.Team {
	salt, _ := NewSalt()
	team := &models.Team{
		ID:           f.nextID,
		Login:        login,
		PasswordHash: HashPassword(password, salt),
		PasswordSalt: salt,
	}
	f.nextID++
	f.byLogin[login] = team
	return team
}

func (f *fakeTeamStore) GetTeamByLogin(ctx context.Context, login string) (*models.Team, error) {
	if t, ok := f.byLogin[login]; ok {
		return t, nil
	}
	return nil, teams.ErrTeamNotFound
}

func (f *fakeTeamStore) TeamExists(ctx context.Context, id int64) (bool, error) {
	for _, t := range f.byLogin {
		if t.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTeamStore) LoginExists(ctx context.Context, login string) (bool, error) {
	_, ok := f.byLogin[login]
	return ok, nil
}

func (f *fakeTeamStore) CreateTeam(ctx context.Context, req teams.CreateTeamRequest) (*models.Team, error) {
	team := &models.Team{
		ID:           f.nextID,
		Login:        req.Login,
		PasswordHash: req.PasswordHash,
		PasswordSalt: req.PasswordSalt,
	}
	f.nextID++
	f.byLogin[req.Login] = team
	return team, nil
}

func newTestApp(t *testing.T) (*App, *fakeTeamStore) {
	t.Helper()
	store := newFakeTeamStore()
	return NewApp(store, NewTokenManager([]byte("test-secret"), DefaultTokenExpiry)), store
}

func TestPasswordRoundTrip(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	require.Len(t, salt, 32)

	hash := HashPassword("s3cret", salt)
	assert.True(t, VerifyPassword("s3cret", hash, salt))
	assert.False(t, VerifyPassword("wrong", hash, salt))
	assert.False(t, VerifyPassword("s3cret", hash, "othersalt"))
}

func TestLogin(t *testing.T) {
	app, store := newTestApp(t)
	team := store.addTeam("alpha", "pw")

	session, err := app.Login(context.Background(), "alpha", "pw")
	require.NoError(t, err)
	assert.Equal(t, team.ID, session.TeamID)
	assert.Equal(t, "alpha", session.TeamName)
	assert.NotEmpty(t, session.Token)

	id, err := app.Authenticate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleTeam, id.Role)
	assert.Equal(t, team.ID, id.TeamID)
}

func TestLoginBadCredentials(t *testing.T) {
	app, store := newTestApp(t)
	store.addTeam("alpha", "pw")

	_, err := app.Login(context.Background(), "alpha", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = app.Login(context.Background(), "nobody", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminMustUseAdminEndpoint(t *testing.T) {
	app, store := newTestApp(t)
	store.addTeam("admin", "pw")

	_, err := app.Login(context.Background(), "Admin", "pw")
	assert.ErrorIs(t, err, ErrAdminEndpoint)

	_, err = app.LoginAdmin(context.Background(), "alpha", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := app.LoginAdmin(context.Background(), "admin", "pw")
	require.NoError(t, err)

	id, err := app.RequireRole(context.Background(), session.Token, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, id.Role)
}

func TestRequireRoleRejectsWrongRole(t *testing.T) {
	app, store := newTestApp(t)
	store.addTeam("alpha", "pw")

	session, err := app.Login(context.Background(), "alpha", "pw")
	require.NoError(t, err)

	_, err = app.RequireRole(context.Background(), session.Token, RoleAdmin)
	assert.ErrorIs(t, err, ErrWrongRole)
}

func TestExpiredToken(t *testing.T) {
	store := newFakeTeamStore()
	store.addTeam("alpha", "pw")
	app := NewApp(store, NewTokenManager([]byte("test-secret"), -time.Minute))

	// NewTokenManager clamps non-positive expiry to the default, so build
	// a stale token by hand through a manager with a tiny positive life.
	tm := &TokenManager{secret: []byte("test-secret"), expiry: -time.Minute}
	token, _, err := tm.Generate(1, "alpha", RoleTeam)
	require.NoError(t, err)

	_, err = app.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestForgedToken(t *testing.T) {
	app, store := newTestApp(t)
	store.addTeam("alpha", "pw")

	other := NewTokenManager([]byte("other-secret"), DefaultTokenExpiry)
	token, _, err := other.Generate(1, "alpha", RoleTeam)
	require.NoError(t, err)

	_, err = app.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateDeletedTeam(t *testing.T) {
	app, store := newTestApp(t)
	store.addTeam("alpha", "pw")

	session, err := app.Login(context.Background(), "alpha", "pw")
	require.NoError(t, err)

	delete(store.byLogin, "alpha")
	_, err = app.Authenticate(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRegister(t *testing.T) {
	app, _ := newTestApp(t)

	team, err := app.Register(context.Background(), "bravo", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bravo", team.Login)

	_, err = app.Register(context.Background(), "bravo", "pw2")
	assert.ErrorIs(t, err, ErrLoginTaken)

	_, err = app.Register(context.Background(), "ADMIN", "pw")
	assert.ErrorIs(t, err, ErrAdminReserved)
}
