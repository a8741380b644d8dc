package tasks

import (
	"context"
	"fmt"
	"log"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/answers"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
)

// TaskRepository defines what the task app layer needs from the tasks repository
type TaskRepository interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	TaskExists(ctx context.Context, id int64) (bool, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	TasksByIDs(ctx context.Context, ids []int64) ([]models.Task, error)
	ListTaskIDs(ctx context.Context) ([]int64, error)
	FirstUnseen(ctx context.Context, viewed []int64) (*models.Task, error)
	FirstAfter(ctx context.Context, cursor int64) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
}

// App handles task catalog business logic
type App struct {
	repo TaskRepository
}

// NewApp creates a new tasks App
func NewApp(repo TaskRepository) *App {
	return &App{repo: repo}
}

// CreateTask publishes a new task after validating its expected answer.
func (a *App) CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	if err := answers.Validate(req.Answer); err != nil {
		return nil, fmt.Errorf("invalid expected answer: %w", err)
	}

	task, err := a.repo.CreateTask(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Printf("Created task %d", task.ID)
	return task, nil
}

// GetTask retrieves a task by id.
func (a *App) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	return a.repo.GetTask(ctx, id)
}

// TaskExists reports whether the task id is known.
func (a *App) TaskExists(ctx context.Context, id int64) (bool, error) {
	return a.repo.TaskExists(ctx, id)
}

// ListTasks returns the full catalog.
func (a *App) ListTasks(ctx context.Context) ([]models.Task, error) {
	return a.repo.ListTasks(ctx)
}

// ListTaskIDs returns every task id in the catalog.
func (a *App) ListTaskIDs(ctx context.Context) ([]int64, error) {
	return a.repo.ListTaskIDs(ctx)
}

// DeleteTask removes a task and cascades over its solutions.
func (a *App) DeleteTask(ctx context.Context, id int64) error {
	if err := a.repo.DeleteTask(ctx, id); err != nil {
		return err
	}
	log.Printf("Deleted task %d and its solutions", id)
	return nil
}

// Clear removes every task and every solution.
func (a *App) Clear(ctx context.Context) error {
	if err := a.repo.Clear(ctx); err != nil {
		return err
	}
	log.Printf("Cleared task catalog")
	return nil
}
