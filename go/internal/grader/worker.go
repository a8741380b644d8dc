// Package grader runs the periodic reconciliation of submitted answers
// against their task's expected answer. One worker instance is assumed:
// the verifier does not scale out.
package grader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/answers"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/solutions"
)

// Ledger defines what the worker needs from the solution ledger
type Ledger interface {
	Pending(ctx context.Context) ([]solutions.PendingSolution, error)
	SetVerdict(ctx context.Context, solutionID int64, status models.SolutionStatus) error
}

type Config struct {
	TickInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		// The first deployment's comment claimed one hour; the code always
		// ticked every 60 seconds. 60s is the contract.
		TickInterval: 60 * time.Second,
	}
}

// Worker is the background grading loop. An admin override may race a
// tick; neither locks against the other and the last store write wins.
type Worker struct {
	ledger     Ledger
	notifier   solutions.Notifier
	config     Config
	clock      clockwork.Clock
	logger     *slog.Logger
	instanceID string

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWorker(ledger Ledger, notifier solutions.Notifier, cfg Config, logger *slog.Logger) *Worker {
	return &Worker{
		ledger:     ledger,
		notifier:   notifier,
		config:     cfg,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
		instanceID: uuid.New().String()[:8],
		stopChan:   make(chan struct{}),
	}
}

// WithClock replaces the worker's clock. Tests use a FakeClock.
func (w *Worker) WithClock(clock clockwork.Clock) *Worker {
	w.clock = clock
	return w
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("grader worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("grader worker started",
		slog.String("instance_id", w.instanceID),
		slog.Duration("tick_interval", w.config.TickInterval))

	return nil
}

func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("grader worker not running")
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	w.logger.Info("grader worker stopped")
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := w.clock.NewTicker(w.config.TickInterval)
	defer ticker.Stop()

	// Grade immediately on start
	w.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.Chan():
			w.reconcile(ctx)
		}
	}
}

// reconcile grades every unresolved ledger row once. Any failure is
// logged and swallowed: a bad tick must never stop future ticks or crash
// the process.
func (w *Worker) reconcile(ctx context.Context) {
	pending, err := w.ledger.Pending(ctx)
	if err != nil {
		w.logger.Error("failed to fetch pending solutions", slog.Any("error", err))
		return
	}
	if len(pending) == 0 {
		return
	}

	var approved, rejected int
	for _, p := range pending {
		match, err := answers.Equal(p.Submitted, p.Expected)
		if err != nil {
			// Malformed stored JSON cannot match anything.
			w.logger.Warn("failed to compare answers",
				slog.Int64("solution_id", p.SolutionID), slog.Any("error", err))
			match = false
		}

		verdict := models.SolutionStatusRejected
		if match {
			verdict = models.SolutionStatusApproved
		}

		if err := w.ledger.SetVerdict(ctx, p.SolutionID, verdict); err != nil {
			w.logger.Error("failed to write verdict",
				slog.Int64("solution_id", p.SolutionID), slog.Any("error", err))
			continue
		}

		if match {
			approved++
		} else {
			rejected++
		}
		if w.notifier != nil {
			w.notifier.SolutionResolved(ctx, p.TeamID, p.TaskID, p.SolutionID, verdict)
		}
	}

	w.logger.Info("reconciliation tick complete",
		slog.String("instance_id", w.instanceID),
		slog.Int("approved", approved),
		slog.Int("rejected", rejected))
}
