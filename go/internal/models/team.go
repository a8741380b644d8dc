package models

import "time"

// Presence defines whether a team currently holds a live-status connection.
type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceOffline Presence = "offline"
)

// AdminLogin is the reserved operator login. It is never a competing team.
const AdminLogin = "admin"

// Team represents a competing team in the system.
// ViewedTasks is both the progression cursor and the issuance log: it
// only grows and never contains duplicates.
type Team struct {
	ID           int64     `json:"team_id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	PasswordSalt string    `json:"-"`
	Presence     Presence  `json:"status"`
	ViewedTasks  []int64   `json:"viewed_tasks"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
