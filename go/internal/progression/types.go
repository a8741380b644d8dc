package progression

import "github.com/mortvvnutri/legendary-chainsaw/go/internal/models"

// Policy selects which task a team is handed next. Both cases honor the
// same viewed_tasks invariant; they only differ in how the candidate is
// chosen.
type Policy interface {
	isPolicy()
}

// LowestUnseen issues the lowest-id task not yet in the team's
// viewed_tasks. This is the default policy.
type LowestUnseen struct{}

func (LowestUnseen) isPolicy() {}

// AfterCursor issues the lowest-id task strictly greater than a
// previously issued task id (sequential mode).
type AfterCursor struct {
	PrevTaskID int64
}

func (AfterCursor) isPolicy() {}

// TaskView is one task as presented to a team: the question plus the
// team's latest solution status (empty when none exists).
type TaskView struct {
	TaskID   int64                 `json:"task_id"`
	Question string                `json:"question"`
	Status   models.SolutionStatus `json:"status"`
}

// Issue is the result of a next-task request. Issued is the newly handed
// out task, nil when the catalog is exhausted but history remains.
// History carries the team's previously viewed tasks (lowest-unseen
// policy only).
type Issue struct {
	Issued  *TaskView  `json:"issued,omitempty"`
	History []TaskView `json:"history,omitempty"`
}
