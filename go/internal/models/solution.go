package models

import (
	"encoding/json"
	"time"
)

// SolutionStatus defines the lifecycle state of a submitted solution.
// The string values are the store's vocabulary and appear on the wire.
type SolutionStatus string

const (
	// SolutionStatusSent marks a freshly issued task with no answer yet.
	SolutionStatusSent SolutionStatus = "sent"
	// SolutionStatusVerification marks a submitted answer awaiting grading.
	SolutionStatusVerification SolutionStatus = "verification"
	SolutionStatusApproved     SolutionStatus = "approve"
	SolutionStatusRejected     SolutionStatus = "reject"
)

// Terminal reports whether the status is a final verdict. Terminal rows
// are never rewritten; a resubmission opens a new row instead.
func (s SolutionStatus) Terminal() bool {
	return s == SolutionStatusApproved || s == SolutionStatusRejected
}

// Active reports whether the status still counts against the
// one-active-solution-per-pair invariant.
func (s SolutionStatus) Active() bool {
	return s == SolutionStatusSent || s == SolutionStatusVerification
}

// Solution is one team's attempt at one task.
// ApprovedAt is non-nil if and only if the status is approve.
type Solution struct {
	ID         int64           `json:"solution_id"`
	TeamID     int64           `json:"team_id"`
	TaskID     int64           `json:"task_id"`
	Status     SolutionStatus  `json:"status"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	SentAt     time.Time       `json:"sent_at"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
}
