package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/auth"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/dashboard"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/progression"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/solutions"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/tasks"
)

const (
	teamToken  = "team-token"
	adminToken = "admin-token"
)

type fakeAuth struct {
	loginErr error
}

func (f *fakeAuth) Login(ctx context.Context, login, password string) (*auth.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &auth.Session{Token: teamToken, TeamID: 7, TeamName: login}, nil
}

func (f *fakeAuth) LoginAdmin(ctx context.Context, login, password string) (*auth.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &auth.Session{Token: adminToken, TeamID: 1, TeamName: login}, nil
}

func (f *fakeAuth) Register(ctx context.Context, login, password string) (*models.Team, error) {
	return &models.Team{ID: 9, Login: login}, nil
}

func (f *fakeAuth) RequireRole(ctx context.Context, token, role string) (*auth.Identity, error) {
	switch {
	case token == teamToken && role == auth.RoleTeam:
		return &auth.Identity{TeamID: 7, TeamName: "alpha", Role: auth.RoleTeam}, nil
	case token == adminToken && role == auth.RoleAdmin:
		return &auth.Identity{TeamID: 1, TeamName: "admin", Role: auth.RoleAdmin}, nil
	case token == teamToken || token == adminToken:
		return nil, auth.ErrWrongRole
	default:
		return nil, auth.ErrInvalidToken
	}
}

type fakeProgression struct {
	issue      *progression.Issue
	err        error
	lastPolicy progression.Policy
}

func (f *fakeProgression) NextTask(ctx context.Context, teamID int64, policy progression.Policy) (*progression.Issue, error) {
	f.lastPolicy = policy
	if f.err != nil {
		return nil, f.err
	}
	return f.issue, nil
}

type fakeLedger struct {
	submitID  int64
	submitErr error
	resolved  []models.SolutionStatus
}

func (f *fakeLedger) Submit(ctx context.Context, teamID int64, req solutions.SubmitRequest) (int64, error) {
	if f.submitErr != nil {
		return 0, f.submitErr
	}
	return f.submitID, nil
}

func (f *fakeLedger) Resolve(ctx context.Context, teamID, taskID int64, verdict models.SolutionStatus) error {
	f.resolved = append(f.resolved, verdict)
	return nil
}

func (f *fakeLedger) GetByPair(ctx context.Context, teamID, taskID int64) (*models.Solution, error) {
	return nil, solutions.ErrSolutionNotFound
}

func (f *fakeLedger) ListByTeam(ctx context.Context, teamID int64) ([]models.Solution, error) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Solution{{
		ID: 3, TeamID: teamID, TaskID: 2,
		Status: models.SolutionStatusApproved,
		Answer: json.RawMessage(`{"selections":[1]}`),
		SentAt: now, ApprovedAt: &now,
	}}, nil
}

func (f *fakeLedger) ListByTask(ctx context.Context, taskID int64) ([]models.Solution, error) {
	return nil, nil
}

func (f *fakeLedger) Remove(ctx context.Context, teamID, taskID int64) error {
	return solutions.ErrSolutionNotFound
}

func (f *fakeLedger) RemoveAll(ctx context.Context) error { return nil }

type fakeCatalog struct{}

func (fakeCatalog) CreateTask(ctx context.Context, req tasks.CreateTaskRequest) (*models.Task, error) {
	return &models.Task{ID: 4, Question: req.Question, Answer: req.Answer}, nil
}

func (fakeCatalog) ListTasks(ctx context.Context) ([]models.Task, error) {
	return []models.Task{{ID: 1, Question: "q", Answer: json.RawMessage(`{"selections":[1]}`)}}, nil
}

func (fakeCatalog) DeleteTask(ctx context.Context, id int64) error {
	return tasks.ErrTaskNotFound
}

func (fakeCatalog) Clear(ctx context.Context) error { return nil }

type fakeDashboard struct{}

func (fakeDashboard) Snapshot(ctx context.Context) ([]dashboard.TeamRow, error) {
	return []dashboard.TeamRow{{TeamName: "alpha", Status: dashboard.LabelConnected, Files: map[string]string{}}}, nil
}

type fakePresence struct{}

func (fakePresence) SetOnline(ctx context.Context, teamID int64) error { return nil }
func (fakePresence) SetOffline(teamID int64)                           {}

type fakeLimiter struct {
	allowed  bool
	retry    time.Duration
	reserved []int64
	canceled []int64
}

func (f *fakeLimiter) Reserve(teamID int64) (bool, time.Duration) {
	if f.allowed {
		f.reserved = append(f.reserved, teamID)
	}
	return f.allowed, f.retry
}

func (f *fakeLimiter) Cancel(teamID int64) {
	f.canceled = append(f.canceled, teamID)
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

type routerFixture struct {
	auth        *fakeAuth
	progression *fakeProgression
	ledger      *fakeLedger
	limiter     *fakeLimiter
	mux         *http.ServeMux
}

func newFixture() *routerFixture {
	f := &routerFixture{
		auth: &fakeAuth{},
		progression: &fakeProgression{issue: &progression.Issue{
			Issued: &progression.TaskView{TaskID: 3, Question: "pick one"},
			History: []progression.TaskView{
				{TaskID: 1, Question: "first", Status: models.SolutionStatusApproved},
			},
		}},
		ledger:  &fakeLedger{submitID: 11},
		limiter: &fakeLimiter{allowed: true},
	}
	rt := NewRouter(f.auth, f.progression, f.ledger, fakeCatalog{}, fakeDashboard{}, fakePresence{}, f.limiter, fakePinger{})
	f.mux = http.NewServeMux()
	rt.RegisterRoutes(f.mux)
	return f
}

func (f *routerFixture) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPing(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/ping/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Server is running", decodeResponse(t, rec)["status"])
}

func TestLogin(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"login": "alpha", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeResponse(t, rec)
	require.Equal(t, teamToken, body["token"])
	require.Equal(t, "alpha", body["team_name"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture()
	f.auth.loginErr = auth.ErrInvalidCredentials

	rec := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"login": "alpha", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, decodeResponse(t, rec), "detail")
}

func TestLoginAdminViaTeamEndpoint(t *testing.T) {
	f := newFixture()
	f.auth.loginErr = auth.ErrAdminEndpoint

	rec := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"login": "admin", "password": "pw"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterRequiresAdmin(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/auth/register", teamToken, map[string]string{"login": "beta", "password": "pw"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/auth/register", adminToken, map[string]string{"login": "beta", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "beta", decodeResponse(t, rec)["team_name"])
}

func TestGetTaskDefaultPolicy(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/team/tasks/get_task", teamToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.IsType(t, progression.LowestUnseen{}, f.progression.lastPolicy)

	body := decodeResponse(t, rec)
	views, ok := body["tasks"].([]any)
	require.True(t, ok)
	require.Len(t, views, 2)

	// Issuance succeeded, so the reservation stands.
	require.Equal(t, []int64{7}, f.limiter.reserved)
	require.Empty(t, f.limiter.canceled)
}

func TestGetTaskSequentialPolicy(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/team/tasks/get_task?prev_task_id=2", teamToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, progression.AfterCursor{PrevTaskID: 2}, f.progression.lastPolicy)

	body := decodeResponse(t, rec)
	require.Equal(t, float64(3), body["task_id"])
	require.Equal(t, "pick one", body["question"])
	require.NotContains(t, body, "tasks")
}

func TestGetTaskThrottled(t *testing.T) {
	f := newFixture()
	f.limiter.allowed = false
	f.limiter.retry = 20 * time.Second

	rec := f.do(t, http.MethodGet, "/team/tasks/get_task", teamToken, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "Request allowed once every 30 seconds. Please wait 20 sec.",
		decodeResponse(t, rec)["detail"])
	require.Empty(t, f.limiter.reserved)
}

func TestGetTaskExhaustedDoesNotConsumeWindow(t *testing.T) {
	f := newFixture()
	f.progression.err = tasks.ErrNoMoreTasks

	rec := f.do(t, http.MethodGet, "/team/tasks/get_task", teamToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, []int64{7}, f.limiter.canceled)
}

func TestGetTaskRejectsAdminToken(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/team/tasks/get_task", adminToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAnswerLoad(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/team/tasks/answer_load", teamToken, map[string]any{
		"task_id": 3,
		"answer":  map[string]any{"selections": []int{1, 2}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(11), decodeResponse(t, rec)["solution_id"])
}

func TestAnswerLoadConflict(t *testing.T) {
	f := newFixture()
	f.ledger.submitErr = solutions.ErrConflict

	rec := f.do(t, http.MethodPost, "/team/tasks/answer_load", teamToken, map[string]any{
		"task_id": 3,
		"answer":  map[string]any{"selections": []int{1}},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAnswerLoadUnknownTask(t *testing.T) {
	f := newFixture()
	f.ledger.submitErr = tasks.ErrTaskNotFound

	rec := f.do(t, http.MethodPost, "/team/tasks/answer_load", teamToken, map[string]any{
		"task_id": 99,
		"answer":  map[string]any{"selections": []int{1}},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminListTasksShortOmitsAnswer(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/admin/tasks/list_short", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.NotContains(t, out[0], "answer")

	rec = f.do(t, http.MethodGet, "/admin/tasks/list", adminToken, nil)
	var full []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &full))
	require.Contains(t, full[0], "answer")
}

func TestAdminTeamSolutions(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/admin/tasks/team_solutions?team_id=7", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, "approve", out[0]["status"])
	require.Equal(t, float64(2), out[0]["task_id"])
	require.Contains(t, out[0], "answer")
	require.Contains(t, out[0], "approved_at")
}

func TestAdminApprove(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/admin/tasks/answers/approve", adminToken, map[string]any{
		"team_id": 7, "task_id": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []models.SolutionStatus{models.SolutionStatusApproved}, f.ledger.resolved)
}

func TestAdminRemoveTaskNotFound(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodDelete, "/admin/tasks/remove?task_id=42", adminToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminEndpointsRejectTeams(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/admin/tasks/list", teamToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodDelete, "/admin/tasks/clear", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardIsPublic(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/dashboard/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "alpha", out[0]["team_name"])
}

func TestPingDBUnavailable(t *testing.T) {
	f := &routerFixture{
		auth:        &fakeAuth{},
		progression: &fakeProgression{},
		ledger:      &fakeLedger{},
		limiter:     &fakeLimiter{allowed: true},
	}
	rt := NewRouter(f.auth, f.progression, f.ledger, fakeCatalog{}, fakeDashboard{}, fakePresence{}, f.limiter, fakePinger{err: context.DeadlineExceeded})
	f.mux = http.NewServeMux()
	rt.RegisterRoutes(f.mux)

	rec := f.do(t, http.MethodGet, "/ping/bd_connect", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
