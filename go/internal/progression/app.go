package progression

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/tasks"
)

// TeamStore defines what the tracker needs from the teams layer
type TeamStore interface {
	ViewedTasks(ctx context.Context, teamID int64) ([]int64, error)
	AppendViewedTask(ctx context.Context, teamID, taskID int64) error
}

// Catalog defines what the tracker needs from the task catalog
type Catalog interface {
	FirstUnseen(ctx context.Context, viewed []int64) (*models.Task, error)
	FirstAfter(ctx context.Context, cursor int64) (*models.Task, error)
	TasksByIDs(ctx context.Context, ids []int64) ([]models.Task, error)
}

// Ledger defines what the tracker needs from the solution ledger
type Ledger interface {
	OpenIssued(ctx context.Context, teamID, taskID int64) error
	LatestStatusesByTeam(ctx context.Context, teamID int64) (map[int64]models.SolutionStatus, error)
}

// ErrNoMoreTasks is returned when every task has been viewed and nothing
// remains to issue.
var ErrNoMoreTasks = tasks.ErrNoMoreTasks

// App decides which task a team receives next and records the issuance.
// Issuance is the only path that opens a ledger row without a
// team-supplied answer.
type App struct {
	teams   TeamStore
	catalog Catalog
	ledger  Ledger
}

// NewApp creates a new progression App
func NewApp(teams TeamStore, catalog Catalog, ledger Ledger) *App {
	return &App{
		teams:   teams,
		catalog: catalog,
		ledger:  ledger,
	}
}

// NextTask hands the team its next task under the given policy.
//
// On success the task id is appended to viewed_tasks (idempotently) and a
// 'sent' ledger row is opened unless an active one already exists for the
// pair. Repeated calls therefore never issue the same task twice until
// the catalog is exhausted, at which point ErrNoMoreTasks is returned.
func (a *App) NextTask(ctx context.Context, teamID int64, policy Policy) (*Issue, error) {
	viewed, err := a.teams.ViewedTasks(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progression: %w", err)
	}

	switch p := policy.(type) {
	case AfterCursor:
		return a.nextAfterCursor(ctx, teamID, p.PrevTaskID)
	case LowestUnseen, nil:
		return a.nextLowestUnseen(ctx, teamID, viewed)
	default:
		return nil, fmt.Errorf("unknown issuance policy %T", policy)
	}
}

func (a *App) nextAfterCursor(ctx context.Context, teamID, cursor int64) (*Issue, error) {
	task, err := a.catalog.FirstAfter(ctx, cursor)
	if err != nil {
		return nil, err
	}
	if err := a.issue(ctx, teamID, task.ID); err != nil {
		return nil, err
	}
	return &Issue{Issued: &TaskView{TaskID: task.ID, Question: task.Question}}, nil
}

func (a *App) nextLowestUnseen(ctx context.Context, teamID int64, viewed []int64) (*Issue, error) {
	statuses, err := a.ledger.LatestStatusesByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load solution statuses: %w", err)
	}

	viewedTasks, err := a.catalog.TasksByIDs(ctx, viewed)
	if err != nil {
		return nil, fmt.Errorf("failed to load viewed tasks: %w", err)
	}

	out := &Issue{}
	for _, t := range viewedTasks {
		out.History = append(out.History, TaskView{
			TaskID:   t.ID,
			Question: t.Question,
			Status:   statuses[t.ID],
		})
	}

	task, err := a.catalog.FirstUnseen(ctx, viewed)
	switch {
	case errors.Is(err, ErrNoMoreTasks):
		if len(out.History) == 0 {
			return nil, ErrNoMoreTasks
		}
		return out, nil
	case err != nil:
		return nil, err
	}

	if err := a.issue(ctx, teamID, task.ID); err != nil {
		return nil, err
	}
	out.Issued = &TaskView{
		TaskID:   task.ID,
		Question: task.Question,
		Status:   statuses[task.ID],
	}
	return out, nil
}

func (a *App) issue(ctx context.Context, teamID, taskID int64) error {
	if err := a.ledger.OpenIssued(ctx, teamID, taskID); err != nil {
		return fmt.Errorf("failed to open ledger entry: %w", err)
	}
	if err := a.teams.AppendViewedTask(ctx, teamID, taskID); err != nil {
		return fmt.Errorf("failed to record issuance: %w", err)
	}
	log.Printf("Issued task %d to team %d", taskID, teamID)
	return nil
}
