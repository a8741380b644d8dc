// Package dashboard projects the progression, ledger and presence state
// into the status grid the operator watches.
package dashboard

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/solutions"
)

// Projection labels. These are the first deployment's wire vocabulary
// (Russian) and are part of the dashboard contract.
const (
	LabelApproved  = "зачет"
	LabelSubmitted = "отправлен"
	LabelRejected  = "отклонено"

	LabelConnected    = "подключена"
	LabelDisconnected = "отключена"
)

// TeamRow is one team's line in the grid. Files maps task id (as a
// string key, matching the consumer's JSON) to a coarse status label: an
// existing rejected row shows LabelRejected while a task with no
// submission at all shows the empty string. The consumer does not
// distinguish the two cases further; that collapse is deliberate.
type TeamRow struct {
	TeamName string            `json:"team_name"`
	Status   string            `json:"status"`
	Files    map[string]string `json:"files"`
}

// TeamSource defines what the projection needs from the teams layer
type TeamSource interface {
	ListCompetingTeams(ctx context.Context) ([]models.Team, error)
}

// TaskSource defines what the projection needs from the task catalog
type TaskSource interface {
	ListTaskIDs(ctx context.Context) ([]int64, error)
}

// StatusSource defines what the projection needs from the solution ledger
type StatusSource interface {
	LatestPerPair(ctx context.Context) ([]solutions.StatusRow, error)
}

// App builds read-only dashboard snapshots.
type App struct {
	teams    TeamSource
	tasks    TaskSource
	statuses StatusSource
}

// NewApp creates a new dashboard App
func NewApp(teams TeamSource, tasks TaskSource, statuses StatusSource) *App {
	return &App{teams: teams, tasks: tasks, statuses: statuses}
}

// Snapshot projects every non-admin team against every task in the
// catalog.
func (a *App) Snapshot(ctx context.Context) ([]TeamRow, error) {
	teams, err := a.teams.ListCompetingTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	taskIDs, err := a.tasks.ListTaskIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	rows, err := a.statuses.LatestPerPair(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load statuses: %w", err)
	}

	labels := make(map[int64]map[int64]string, len(teams))
	for _, sr := range rows {
		if labels[sr.TeamID] == nil {
			labels[sr.TeamID] = make(map[int64]string)
		}
		labels[sr.TeamID][sr.TaskID] = label(sr.Status)
	}

	result := make([]TeamRow, 0, len(teams))
	for _, team := range teams {
		row := TeamRow{
			TeamName: team.Login,
			Status:   LabelDisconnected,
			Files:    make(map[string]string, len(taskIDs)),
		}
		if team.Presence == models.PresenceOnline {
			row.Status = LabelConnected
		}
		for _, taskID := range taskIDs {
			row.Files[strconv.FormatInt(taskID, 10)] = labels[team.ID][taskID]
		}
		result = append(result, row)
	}
	return result, nil
}

func label(status models.SolutionStatus) string {
	switch status {
	case models.SolutionStatusApproved:
		return LabelApproved
	case models.SolutionStatusSent, models.SolutionStatusVerification:
		return LabelSubmitted
	default:
		return LabelRejected
	}
}
