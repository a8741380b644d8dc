package gateway

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/answers"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/auth"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/solutions"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/tasks"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/teams"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// writeDetail mirrors the {"detail": ...} error envelope the first
// deployment always used; clients parse it.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps app-layer errors to the error taxonomy: 401 for
// identity failures, 404 for missing records, 409 for conflicts, 400 for
// malformed input, 503 when the store is unreachable, 500 for anything
// unanticipated (detail stays server-side).
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrWrongRole):
		writeDetail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrAdminEndpoint):
		writeDetail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrAdminReserved),
		errors.Is(err, solutions.ErrBadVerdict),
		errors.Is(err, answers.ErrNotObject),
		errors.Is(err, answers.ErrMissingSelections),
		errors.Is(err, answers.ErrSelectionsNotList):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tasks.ErrTaskNotFound),
		errors.Is(err, tasks.ErrNoMoreTasks),
		errors.Is(err, teams.ErrTeamNotFound),
		errors.Is(err, solutions.ErrSolutionNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, solutions.ErrConflict),
		errors.Is(err, auth.ErrLoginTaken):
		writeDetail(w, http.StatusConflict, err.Error())
	case isUnavailable(err):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("store unavailable")
		writeDetail(w, http.StatusServiceUnavailable, "Database unavailable")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected error")
		writeDetail(w, http.StatusInternalServerError, "Unexpected error")
	}
}

// isUnavailable distinguishes connectivity loss from ordinary query
// failures so callers know they may back off and retry.
func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 08 connection exception, 53 insufficient resources,
		// 57 operator intervention.
		class := string(pqErr.Code.Class())
		return class == "08" || class == "53" || class == "57"
	}
	return false
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// requireRole authenticates the request and checks the role, writing the
// 401 itself on failure.
func (rt *Router) requireRole(w http.ResponseWriter, r *http.Request, role string) (*auth.Identity, bool) {
	id, err := rt.auth.RequireRole(r.Context(), bearerToken(r), role)
	if err != nil {
		rt.writeError(w, r, err)
		return nil, false
	}
	return id, true
}
