// Package gateway is the HTTP and websocket surface of the competition
// server. Handlers translate the wire into app-layer calls and map
// app-layer errors back to status codes; no business logic lives here.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/auth"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/dashboard"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/progression"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/solutions"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/tasks"
)

// AuthService defines what the gateway needs from the identity gate
type AuthService interface {
	Login(ctx context.Context, login, password string) (*auth.Session, error)
	LoginAdmin(ctx context.Context, login, password string) (*auth.Session, error)
	Register(ctx context.Context, login, password string) (*models.Team, error)
	RequireRole(ctx context.Context, token, role string) (*auth.Identity, error)
}

// ProgressionService defines what the gateway needs from the tracker
type ProgressionService interface {
	NextTask(ctx context.Context, teamID int64, policy progression.Policy) (*progression.Issue, error)
}

// LedgerService defines what the gateway needs from the solution ledger
type LedgerService interface {
	Submit(ctx context.Context, teamID int64, req solutions.SubmitRequest) (int64, error)
	Resolve(ctx context.Context, teamID, taskID int64, verdict models.SolutionStatus) error
	GetByPair(ctx context.Context, teamID, taskID int64) (*models.Solution, error)
	ListByTeam(ctx context.Context, teamID int64) ([]models.Solution, error)
	ListByTask(ctx context.Context, taskID int64) ([]models.Solution, error)
	Remove(ctx context.Context, teamID, taskID int64) error
	RemoveAll(ctx context.Context) error
}

// CatalogService defines what the gateway needs from the task catalog
type CatalogService interface {
	CreateTask(ctx context.Context, req tasks.CreateTaskRequest) (*models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
}

// DashboardService defines what the gateway needs from the projection
type DashboardService interface {
	Snapshot(ctx context.Context) ([]dashboard.TeamRow, error)
}

// PresenceService defines what the websocket driver needs from the teams layer
type PresenceService interface {
	SetOnline(ctx context.Context, teamID int64) error
	SetOffline(teamID int64)
}

// Limiter defines the issuance cooldown gate
type Limiter interface {
	Reserve(teamID int64) (ok bool, retryAfter time.Duration)
	Cancel(teamID int64)
}

// Pinger reports store reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Router holds every dependency the HTTP surface needs.
type Router struct {
	auth        AuthService
	progression ProgressionService
	ledger      LedgerService
	catalog     CatalogService
	dashboard   DashboardService
	presence    PresenceService
	limiter     Limiter
	db          Pinger
}

// NewRouter creates a new gateway Router
func NewRouter(
	authSvc AuthService,
	progressionSvc ProgressionService,
	ledger LedgerService,
	catalog CatalogService,
	dashboardSvc DashboardService,
	presence PresenceService,
	limiter Limiter,
	db Pinger,
) *Router {
	return &Router{
		auth:        authSvc,
		progression: progressionSvc,
		ledger:      ledger,
		catalog:     catalog,
		dashboard:   dashboardSvc,
		presence:    presence,
		limiter:     limiter,
		db:          db,
	}
}

// RegisterRoutes registers every endpoint with an HTTP mux.
func (rt *Router) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ping/", rt.handlePing)
	mux.HandleFunc("GET /ping/bd_connect", rt.handlePingDB)

	mux.HandleFunc("POST /auth/login", rt.handleLogin)
	mux.HandleFunc("POST /auth/login/admin", rt.handleLoginAdmin)
	mux.HandleFunc("POST /auth/register", rt.handleRegister)

	mux.HandleFunc("GET /team/tasks/get_task", rt.handleGetTask)
	mux.HandleFunc("POST /team/tasks/answer_load", rt.handleAnswerLoad)

	mux.HandleFunc("GET /admin/tasks/list", rt.handleListTasks)
	mux.HandleFunc("GET /admin/tasks/list_short", rt.handleListTasksShort)
	mux.HandleFunc("GET /admin/tasks/solution", rt.handleGetSolution)
	mux.HandleFunc("GET /admin/tasks/team_solutions", rt.handleTeamSolutions)
	mux.HandleFunc("GET /admin/tasks/team_solutions_short", rt.handleTeamSolutionsShort)
	mux.HandleFunc("GET /admin/tasks/task_solutions", rt.handleTaskSolutions)
	mux.HandleFunc("GET /admin/tasks/task_solutions_short", rt.handleTaskSolutionsShort)
	mux.HandleFunc("POST /admin/tasks/load", rt.handleLoadTask)
	mux.HandleFunc("POST /admin/tasks/answers/approve", rt.handleApprove)
	mux.HandleFunc("POST /admin/tasks/answers/reject", rt.handleReject)
	mux.HandleFunc("DELETE /admin/tasks/remove", rt.handleRemoveTask)
	mux.HandleFunc("DELETE /admin/tasks/answers/remove", rt.handleRemoveSolution)
	mux.HandleFunc("DELETE /admin/tasks/clear", rt.handleClearTasks)
	mux.HandleFunc("DELETE /admin/tasks/answers/clear", rt.handleClearSolutions)

	mux.HandleFunc("GET /dashboard/", rt.handleDashboard)

	mux.HandleFunc("GET /ws/team/status", rt.handleTeamStatusWS)
}

func (rt *Router) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Server is running"})
}

func (rt *Router) handlePingDB(w http.ResponseWriter, r *http.Request) {
	if err := rt.db.PingContext(r.Context()); err != nil {
		writeDetail(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Database connection successful"})
}

func (rt *Router) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rows, err := rt.dashboard.Snapshot(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
