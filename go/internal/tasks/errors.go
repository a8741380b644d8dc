package tasks

import "errors"

var (
	// ErrTaskNotFound is returned when a task id has no row.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNoMoreTasks is returned when the catalog has no eligible next task.
	ErrNoMoreTasks = errors.New("no more tasks")
)
