package models

import (
	"encoding/json"
	"time"
)

// Task is a competition question with its canonical expected answer.
// The answer is stored as a JSONB document carrying a "selections" list.
type Task struct {
	ID        int64           `json:"task_id"`
	Question  string          `json:"question"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
