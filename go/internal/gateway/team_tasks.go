package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/auth"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/progression"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/solutions"
)

// handleGetTask issues the next task to the calling team. Without a
// prev_task_id query parameter the lowest unseen task is issued along
// with the team's viewed history; with one, the first task after that
// cursor is issued alone. The 30s cooldown wraps this endpoint only and
// is consumed only by successful issuance.
func (rt *Router) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := rt.requireRole(w, r, auth.RoleTeam)
	if !ok {
		return
	}

	if allowed, retry := rt.limiter.Reserve(id.TeamID); !allowed {
		writeDetail(w, http.StatusTooManyRequests, fmt.Sprintf(
			"Request allowed once every 30 seconds. Please wait %d sec.", int(retry.Seconds())))
		return
	}

	var policy progression.Policy = progression.LowestUnseen{}
	if raw := r.URL.Query().Get("prev_task_id"); raw != "" {
		cursor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			rt.limiter.Cancel(id.TeamID)
			writeDetail(w, http.StatusBadRequest, "invalid prev_task_id")
			return
		}
		policy = progression.AfterCursor{PrevTaskID: cursor}
	}

	issue, err := rt.progression.NextTask(r.Context(), id.TeamID, policy)
	if err != nil {
		rt.limiter.Cancel(id.TeamID)
		rt.writeError(w, r, err)
		return
	}

	if _, sequential := policy.(progression.AfterCursor); sequential {
		writeJSON(w, http.StatusOK, map[string]any{
			"task_id":  issue.Issued.TaskID,
			"question": issue.Issued.Question,
		})
		return
	}

	views := issue.History
	if issue.Issued != nil {
		views = append(views, *issue.Issued)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": views})
}

func (rt *Router) handleAnswerLoad(w http.ResponseWriter, r *http.Request) {
	id, ok := rt.requireRole(w, r, auth.RoleTeam)
	if !ok {
		return
	}

	var req struct {
		TaskID int64           `json:"task_id"`
		Answer json.RawMessage `json:"answer"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	solutionID, err := rt.ledger.Submit(r.Context(), id.TeamID, solutions.SubmitRequest{
		TaskID: req.TaskID,
		Answer: req.Answer,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Solution successfully submitted",
		"solution_id": solutionID,
	})
}
