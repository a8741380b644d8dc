// Package events broadcasts verdict changes so live consumers (scoreboard
// frontends, bots) do not have to poll the dashboard. Publishing is
// best-effort everywhere: a lost event never fails a write.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
)

// SolutionResolvedEvent is the payload published on every verdict write.
type SolutionResolvedEvent struct {
	TeamID     int64                 `json:"team_id"`
	TaskID     int64                 `json:"task_id"`
	SolutionID int64                 `json:"solution_id,omitempty"`
	Status     models.SolutionStatus `json:"status"`
	ResolvedAt time.Time             `json:"resolved_at"`
}

// NATSPublisher publishes verdict events to a NATS subject.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATSPublisher connects to NATS and returns a publisher.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc, subject: subject}, nil
}

// SolutionResolved publishes the verdict. Failures are logged and
// dropped.
func (p *NATSPublisher) SolutionResolved(ctx context.Context, teamID, taskID, solutionID int64, status models.SolutionStatus) {
	payload, err := json.Marshal(SolutionResolvedEvent{
		TeamID:     teamID,
		TaskID:     taskID,
		SolutionID: solutionID,
		Status:     status,
		ResolvedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal verdict event")
		return
	}

	if err := p.nc.Publish(p.subject, payload); err != nil {
		log.Error().Err(err).
			Int64("team_id", teamID).
			Int64("task_id", taskID).
			Msg("failed to publish verdict event")
	}
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
}

// NoopPublisher drops every event. Used when no NATS URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) SolutionResolved(ctx context.Context, teamID, taskID, solutionID int64, status models.SolutionStatus) {
}
