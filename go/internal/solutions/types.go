package solutions

import (
	"encoding/json"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
)

// SubmitRequest represents a team's answer to a task
type SubmitRequest struct {
	TaskID int64           `json:"task_id"`
	Answer json.RawMessage `json:"answer"`
}

// PendingSolution is an unresolved ledger row joined with its task's
// expected answer, as consumed by the reconciliation worker.
type PendingSolution struct {
	SolutionID int64
	TeamID     int64
	TaskID     int64
	Submitted  json.RawMessage
	Expected   json.RawMessage
}

// StatusRow is the latest status of one (team, task) pair.
type StatusRow struct {
	TeamID int64
	TaskID int64
	Status models.SolutionStatus
}
