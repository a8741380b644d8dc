package gateway

import (
	"net/http"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/auth"
)

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := rt.auth.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     session.Token,
		"team_id":   session.TeamID,
		"team_name": session.TeamName,
	})
}

func (rt *Router) handleLoginAdmin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := rt.auth.LoginAdmin(r.Context(), req.Login, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     session.Token,
		"team_id":   session.TeamID,
		"team_name": session.TeamName,
	})
}

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}

	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	team, err := rt.auth.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Team registered successfully",
		"team_id":   team.ID,
		"team_name": team.Login,
	})
}
