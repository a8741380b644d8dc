package solutions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/answers"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/tasks"
)

// SolutionRepository defines what the ledger app layer needs from the repository
type SolutionRepository interface {
	Insert(ctx context.Context, teamID, taskID int64, status models.SolutionStatus, answer json.RawMessage) (int64, error)
	PromoteToVerification(ctx context.Context, solutionID int64, answer json.RawMessage) (bool, error)
	LatestForPair(ctx context.Context, teamID, taskID int64) (*models.Solution, error)
	ListByTeam(ctx context.Context, teamID int64) ([]models.Solution, error)
	ListByTask(ctx context.Context, taskID int64) ([]models.Solution, error)
	LatestStatusesByTeam(ctx context.Context, teamID int64) (map[int64]models.SolutionStatus, error)
	ResolvePair(ctx context.Context, teamID, taskID int64, status models.SolutionStatus) ([]int64, error)
	DeletePair(ctx context.Context, teamID, taskID int64) (int64, error)
	DeleteAll(ctx context.Context) error
}

// TaskCatalog defines what the ledger needs from the task catalog
type TaskCatalog interface {
	TaskExists(ctx context.Context, id int64) (bool, error)
}

// Notifier receives verdict changes. Publishing is best-effort and must
// never fail a write.
type Notifier interface {
	SolutionResolved(ctx context.Context, teamID, taskID, solutionID int64, status models.SolutionStatus)
}

// App handles solution ledger business logic
type App struct {
	repo     SolutionRepository
	catalog  TaskCatalog
	notifier Notifier
}

// NewApp creates a new solutions App
func NewApp(repo SolutionRepository, catalog TaskCatalog, notifier Notifier) *App {
	return &App{
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
	}
}

// Submit records a team's answer for a task.
//
// The latest ledger row for the pair decides the path:
//   - no row, or a terminal row: a fresh verification row is opened
//     (resubmission after a verdict starts a new attempt);
//   - a 'sent' row (freshly issued): that row is promoted to verification
//     in place, keeping at most one active row per pair;
//   - a 'verification' row: the submission conflicts.
//
// Submission is keyed on task existence only, not on prior issuance.
func (a *App) Submit(ctx context.Context, teamID int64, req SubmitRequest) (int64, error) {
	if err := answers.Validate(req.Answer); err != nil {
		return 0, err
	}

	exists, err := a.catalog.TaskExists(ctx, req.TaskID)
	if err != nil {
		return 0, fmt.Errorf("failed to check task: %w", err)
	}
	if !exists {
		return 0, tasks.ErrTaskNotFound
	}

	latest, err := a.repo.LatestForPair(ctx, teamID, req.TaskID)
	if err != nil && !errors.Is(err, ErrSolutionNotFound) {
		return 0, fmt.Errorf("failed to read ledger: %w", err)
	}

	if latest != nil {
		switch latest.Status {
		case models.SolutionStatusVerification:
			return 0, ErrConflict
		case models.SolutionStatusSent:
			promoted, err := a.repo.PromoteToVerification(ctx, latest.ID, req.Answer)
			if err != nil {
				return 0, err
			}
			if promoted {
				log.Printf("Team %d submitted solution %d for task %d", teamID, latest.ID, req.TaskID)
				return latest.ID, nil
			}
			// A grader tick resolved the row between the read and the
			// update; the attempt continues as a fresh row.
		}
	}

	id, err := a.repo.Insert(ctx, teamID, req.TaskID, models.SolutionStatusVerification, req.Answer)
	if err != nil {
		return 0, err
	}
	log.Printf("Team %d submitted solution %d for task %d", teamID, id, req.TaskID)
	return id, nil
}

// OpenIssued opens a 'sent' row with the empty answer for a freshly issued
// task, unless an active row already exists for the pair.
func (a *App) OpenIssued(ctx context.Context, teamID, taskID int64) error {
	latest, err := a.repo.LatestForPair(ctx, teamID, taskID)
	if err != nil && !errors.Is(err, ErrSolutionNotFound) {
		return fmt.Errorf("failed to read ledger: %w", err)
	}
	if latest != nil && latest.Status.Active() {
		return nil
	}
	if _, err := a.repo.Insert(ctx, teamID, taskID, models.SolutionStatusSent, answers.Empty); err != nil {
		return err
	}
	return nil
}

// Resolve is the admin override: it writes the verdict unconditionally,
// regardless of the row's current status, and always wins over the
// reconciliation worker (last write in the store wins).
func (a *App) Resolve(ctx context.Context, teamID, taskID int64, verdict models.SolutionStatus) error {
	if verdict != models.SolutionStatusApproved && verdict != models.SolutionStatusRejected {
		return ErrBadVerdict
	}

	ids, err := a.repo.ResolvePair(ctx, teamID, taskID, verdict)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrSolutionNotFound
	}

	log.Printf("Admin resolved solution for team %d task %d: %s", teamID, taskID, verdict)
	if a.notifier != nil {
		// The newest row represents the attempt the verdict applies to.
		a.notifier.SolutionResolved(ctx, teamID, taskID, ids[0], verdict)
	}
	return nil
}

// GetByPair returns the latest solution for (team, task).
func (a *App) GetByPair(ctx context.Context, teamID, taskID int64) (*models.Solution, error) {
	return a.repo.LatestForPair(ctx, teamID, taskID)
}

// ListByTeam returns all of a team's solutions.
func (a *App) ListByTeam(ctx context.Context, teamID int64) ([]models.Solution, error) {
	return a.repo.ListByTeam(ctx, teamID)
}

// ListByTask returns all solutions submitted for a task.
func (a *App) ListByTask(ctx context.Context, taskID int64) ([]models.Solution, error) {
	return a.repo.ListByTask(ctx, taskID)
}

// LatestStatusesByTeam maps the team's tasks to their newest status.
func (a *App) LatestStatusesByTeam(ctx context.Context, teamID int64) (map[int64]models.SolutionStatus, error) {
	return a.repo.LatestStatusesByTeam(ctx, teamID)
}

// Remove deletes every ledger row for the pair.
func (a *App) Remove(ctx context.Context, teamID, taskID int64) error {
	n, err := a.repo.DeletePair(ctx, teamID, taskID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSolutionNotFound
	}
	return nil
}

// RemoveAll empties the ledger.
func (a *App) RemoveAll(ctx context.Context) error {
	return a.repo.DeleteAll(ctx)
}
