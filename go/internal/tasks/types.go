package tasks

import "encoding/json"

// CreateTaskRequest represents a request to publish a new task
type CreateTaskRequest struct {
	Question string          `json:"question"`
	Answer   json.RawMessage `json:"answer"`
}
