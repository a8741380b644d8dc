package grader

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/models"
	"github.com/mortvvnutri/legendary-chainsaw/go/internal/solutions"
)

type fakeLedger struct {
	mu         sync.Mutex
	pending    []solutions.PendingSolution
	verdicts   map[int64]models.SolutionStatus
	pendingErr error
	verdictErr error
}

func newFakeLedger(pending ...solutions.PendingSolution) *fakeLedger {
	return &fakeLedger{
		pending:  pending,
		verdicts: make(map[int64]models.SolutionStatus),
	}
}

func (f *fakeLedger) Pending(ctx context.Context) ([]solutions.PendingSolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	return append([]solutions.PendingSolution(nil), f.pending...), nil
}

func (f *fakeLedger) SetVerdict(ctx context.Context, solutionID int64, status models.SolutionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verdictErr != nil {
		return f.verdictErr
	}
	f.verdicts[solutionID] = status
	// A graded row is no longer pending.
	kept := f.pending[:0]
	for _, p := range f.pending {
		if p.SolutionID != solutionID {
			kept = append(kept, p)
		}
	}
	f.pending = kept
	return nil
}

type recordedVerdict struct {
	TeamID, TaskID int64
	Status         models.SolutionStatus
}

type fakeNotifier struct {
	mu       sync.Mutex
	resolved []recordedVerdict
}

func (f *fakeNotifier) SolutionResolved(ctx context.Context, teamID, taskID, solutionID int64, status models.SolutionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, recordedVerdict{teamID, taskID, status})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingRow(id, teamID, taskID int64, submitted, expected string) solutions.PendingSolution {
	return solutions.PendingSolution{
		SolutionID: id,
		TeamID:     teamID,
		TaskID:     taskID,
		Submitted:  json.RawMessage(submitted),
		Expected:   json.RawMessage(expected),
	}
}

func TestReconcileGradesByStructuralEquality(t *testing.T) {
	ledger := newFakeLedger(
		pendingRow(1, 10, 1, `{"selections":[4]}`, `{"selections":[4]}`),
		pendingRow(2, 11, 1, `{"selections":[5]}`, `{"selections":[4]}`),
		pendingRow(3, 12, 1, `{}`, `{"selections":[4]}`),
	)
	notifier := &fakeNotifier{}
	w := NewWorker(ledger, notifier, DefaultConfig(), testLogger())

	w.reconcile(context.Background())

	assert.Equal(t, models.SolutionStatusApproved, ledger.verdicts[1])
	assert.Equal(t, models.SolutionStatusRejected, ledger.verdicts[2])
	assert.Equal(t, models.SolutionStatusRejected, ledger.verdicts[3])
	assert.Len(t, notifier.resolved, 3)
}

func TestReconcileKeyOrderIrrelevant(t *testing.T) {
	ledger := newFakeLedger(
		pendingRow(1, 10, 1, `{"b":2,"selections":[1,2],"a":1}`, `{"a":1,"b":2,"selections":[1,2]}`),
	)
	w := NewWorker(ledger, nil, DefaultConfig(), testLogger())

	w.reconcile(context.Background())

	assert.Equal(t, models.SolutionStatusApproved, ledger.verdicts[1])
}

func TestReconcileIdempotent(t *testing.T) {
	ledger := newFakeLedger(
		pendingRow(1, 10, 1, `{"selections":[4]}`, `{"selections":[4]}`),
	)
	w := NewWorker(ledger, nil, DefaultConfig(), testLogger())

	w.reconcile(context.Background())
	first := map[int64]models.SolutionStatus{}
	for k, v := range ledger.verdicts {
		first[k] = v
	}

	// No intervening writes: a second pass sees no pending rows and
	// changes nothing.
	w.reconcile(context.Background())
	assert.Equal(t, first, ledger.verdicts)
}

func TestReconcileSwallowsStoreErrors(t *testing.T) {
	ledger := newFakeLedger()
	ledger.pendingErr = errors.New("store unavailable")
	w := NewWorker(ledger, nil, DefaultConfig(), testLogger())

	assert.NotPanics(t, func() { w.reconcile(context.Background()) })

	// The store recovers and the next tick grades normally.
	ledger.mu.Lock()
	ledger.pendingErr = nil
	ledger.pending = []solutions.PendingSolution{
		pendingRow(1, 10, 1, `{"selections":[4]}`, `{"selections":[4]}`),
	}
	ledger.mu.Unlock()

	w.reconcile(context.Background())
	assert.Equal(t, models.SolutionStatusApproved, ledger.verdicts[1])
}

func TestReconcileContinuesPastVerdictError(t *testing.T) {
	ledger := newFakeLedger(
		pendingRow(1, 10, 1, `{"selections":[4]}`, `{"selections":[4]}`),
	)
	ledger.verdictErr = errors.New("write failed")
	notifier := &fakeNotifier{}
	w := NewWorker(ledger, notifier, DefaultConfig(), testLogger())

	w.reconcile(context.Background())
	assert.Empty(t, notifier.resolved)
}

func TestMalformedStoredAnswerRejects(t *testing.T) {
	ledger := newFakeLedger(
		pendingRow(1, 10, 1, `{not json`, `{"selections":[4]}`),
	)
	w := NewWorker(ledger, nil, DefaultConfig(), testLogger())

	w.reconcile(context.Background())
	assert.Equal(t, models.SolutionStatusRejected, ledger.verdicts[1])
}

func TestStartStop(t *testing.T) {
	ledger := newFakeLedger()
	w := NewWorker(ledger, nil, DefaultConfig(), testLogger())

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	assert.Error(t, w.Stop())
}
