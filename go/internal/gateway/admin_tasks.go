package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/auth"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/tasks"
)

func (rt *Router) handleListTasks(w http.ResponseWriter, r *http.Request) {
	rt.listTasks(w, r, true)
}

func (rt *Router) handleListTasksShort(w http.ResponseWriter, r *http.Request) {
	rt.listTasks(w, r, false)
}

func (rt *Router) listTasks(w http.ResponseWriter, r *http.Request, withAnswer bool) {
	if _, ok := rt.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}

	list, err := rt.catalog.ListTasks(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(list))
	for _, t := range list {
		item := map[string]any{
			"task_id":    t.ID,
			"question":   t.Question,
			"created_at": t.CreatedAt.Format(time.RFC3339),
		}
		if withAnswer {
			item["answer"] = json.RawMessage(t.Answer)
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) handleLoadTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}

	var req struct {
		Question string          `json:"question"`
		Answer   json.RawMessage `json:"answer"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := rt.catalog.CreateTask(r.Context(), tasks.CreateTaskRequest{
		Question: req.Question,
		Answer:   req.Answer,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Task successfully created",
		"task_id": task.ID,
	})
}

func (rt *Router) handleGetSolution(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	teamID, taskID, ok := pairParams(w, r)
	if !ok {
		return
	}

	sol, err := rt.ledger.GetByPair(r.Context(), teamID, taskID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, solutionJSON(sol, true, false, false))
}

func (rt *Router) handleTeamSolutions(w http.ResponseWriter, r *http.Request) {
	rt.teamSolutions(w, r, true)
}

func (rt *Router) handleTeamSolutionsShort(w http.ResponseWriter, r *http.Request) {
	rt.teamSolutions(w, r, false)
}

func (rt *Router) teamSolutions(w http.ResponseWriter, r *http.Request, withAnswer bool) {
	if _, ok := rt.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	teamID, ok := int64Param(w, r, "team_id")
	if !ok {
		return
	}

	list, err := rt.ledger.ListByTeam(r.Context(), teamID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, solutionJSON(&list[i], withAnswer, true, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) handleTaskSolutions(w http.ResponseWriter, r *http.Request) {
	rt.taskSolutions(w, r, true)
}

func (rt *Router) handleTaskSolutionsShort(w http.ResponseWriter, r *http.Request) {
	rt.taskSolutions(w, r, false)
}

func (rt *Router) taskSolutions(w http.ResponseWriter, r *http.Request, withAnswer bool) {
	if _, ok := rt.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	taskID, ok := int64Param(w, r, "task_id")
	if !ok {
		return
	}

	list, err := rt.ledger.ListByTask(r.Context(), taskID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, solutionJSON(&list[i], withAnswer, false, true))
	}
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) handleApprove(w http.ResponseWriter, r *http.Request) {
	rt.resolve(w, r, models.SolutionStatusApproved, "Solution approved")
}

func (rt *Router) handleReject(w http.ResponseWriter, r *http.Request) {
	rt.resolve(w, r, models.SolutionStatusRejected, "Solution rejected")
}

func (rt *Router) resolve(w http.ResponseWriter, r *http.Request, verdict models.SolutionStatus, message string) {
	if _, ok := rt.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}

	var req struct {
		TeamID int64 `json:"team_id"`
		TaskID int64 `json:"task_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := rt.ledger.Resolve(r.Context(), req.TeamID, req.TaskID, verdict); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (rt *Router) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	taskID, ok := int64Param(w, r, "task_id")
	if !ok {
		return
	}

	if err := rt.catalog.DeleteTask(r.Context(), taskID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Task with ID %d successfully deleted", taskID),
	})
}

func (rt *Router) handleRemoveSolution(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	teamID, taskID, ok := pairParams(w, r)
	if !ok {
		return
	}

	if err := rt.ledger.Remove(r.Context(), teamID, taskID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Solution for team %d and task %d deleted", teamID, taskID),
	})
}

func (rt *Router) handleClearTasks(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	if err := rt.catalog.Clear(r.Context()); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "All tasks and solutions successfully deleted",
	})
}

func (rt *Router) handleClearSolutions(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	if err := rt.ledger.RemoveAll(r.Context()); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "All solutions successfully deleted",
	})
}

func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func pairParams(w http.ResponseWriter, r *http.Request) (teamID, taskID int64, ok bool) {
	teamID, ok = int64Param(w, r, "team_id")
	if !ok {
		return 0, 0, false
	}
	taskID, ok = int64Param(w, r, "task_id")
	if !ok {
		return 0, 0, false
	}
	return teamID, taskID, true
}

func solutionJSON(sol *models.Solution, withAnswer, withTaskID, withTeamID bool) map[string]any {
	item := map[string]any{
		"solution_id": sol.ID,
		"status":      sol.Status,
		"sent_at":     sol.SentAt.Format(time.RFC3339),
	}
	if sol.ApprovedAt != nil {
		item["approved_at"] = sol.ApprovedAt.Format(time.RFC3339)
	} else {
		item["approved_at"] = nil
	}
	if withAnswer {
		item["answer"] = json.RawMessage(sol.Answer)
	}
	if withTaskID {
		item["task_id"] = sol.TaskID
	}
	if withTeamID {
		item["team_id"] = sol.TeamID
	}
	return item
}
