package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v81"

	"github.com/dmpolyakov/storefront-payments/internal/gateway"
	"github.com/dmpolyakov/storefront-payments/internal/types/event"
	"github.com/dmpolyakov/storefront-payments/internal/types/order"
)

type mockChecker struct {
	mu      sync.Mutex
	lookups []string
	states  map[string]*gateway.IntentState
	errs    map[string]error
}

func newMockChecker() *mockChecker {
	return &mockChecker{
		states: make(map[string]*gateway.IntentState),
		errs:   make(map[string]error),
	}
}

func (m *mockChecker) GetIntent(ctx context.Context, intentID string) (*gateway.IntentState, error) {
	m.mu.Lock()
	m.lookups = append(m.lookups, intentID)
	m.mu.Unlock()
	if err, ok := m.errs[intentID]; ok {
		return nil, err
	}
	return m.states[intentID], nil
}

type mockApplier struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (m *mockApplier) Apply(ctx context.Context, ev event.Event) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return OutcomeApplied, m.err
}

func strptr(s string) *string { return &s }

func pendingJob(intentID string) order.Order {
	return order.Order{
		ID:              1001,
		Number:          "ORD-1001",
		Status:          order.StatusPending,
		PaymentIntentID: strptr(intentID),
	}
}

func runWorker(t *testing.T, checker *mockChecker, job order.Order) *mockApplier {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := make(chan order.Order, 1)
	jobs <- job
	close(jobs)

	applier := &mockApplier{}
	workerLoop(ctx, 1, checker, jobs, applier)
	return applier
}

func TestWorkerLoopSucceededIntent(t *testing.T) {
	checker := newMockChecker()
	checker.states["pi_123"] = &gateway.IntentState{
		ID:     "pi_123",
		Status: stripe.PaymentIntentStatusSucceeded,
		Amount: decimal.RequireFromString("129.99"),
	}

	applier := runWorker(t, checker, pendingJob("pi_123"))

	assert.Len(t, applier.events, 1)
	ev := applier.events[0]
	assert.Equal(t, event.KindPaymentSucceeded, ev.Kind)
	assert.Equal(t, int64(1001), ev.OrderID)
	assert.Equal(t, "ORD-1001", ev.OrderNumber)
	assert.Equal(t, "pi_123", ev.IntentID)
}

func TestWorkerLoopCanceledIntent(t *testing.T) {
	checker := newMockChecker()
	checker.states["pi_dead"] = &gateway.IntentState{
		ID:            "pi_dead",
		Status:        stripe.PaymentIntentStatusCanceled,
		FailureReason: "card was declined",
	}

	applier := runWorker(t, checker, pendingJob("pi_dead"))

	assert.Len(t, applier.events, 1)
	assert.Equal(t, event.KindPaymentFailed, applier.events[0].Kind)
	assert.Equal(t, "card was declined", applier.events[0].Reason)
}

func TestWorkerLoopCanceledIntentNoReason(t *testing.T) {
	checker := newMockChecker()
	checker.states["pi_dead"] = &gateway.IntentState{
		ID:     "pi_dead",
		Status: stripe.PaymentIntentStatusCanceled,
	}

	applier := runWorker(t, checker, pendingJob("pi_dead"))

	assert.Len(t, applier.events, 1)
	assert.NotEmpty(t, applier.events[0].Reason)
}

func TestWorkerLoopInFlightIntent(t *testing.T) {
	checker := newMockChecker()
	checker.states["pi_wip"] = &gateway.IntentState{
		ID:     "pi_wip",
		Status: stripe.PaymentIntentStatusRequiresPaymentMethod,
	}

	applier := runWorker(t, checker, pendingJob("pi_wip"))

	assert.Empty(t, applier.events, "non-terminal intents are skipped")
}

func TestWorkerLoopCheckerError(t *testing.T) {
	checker := newMockChecker()
	checker.errs["pi_err"] = errors.New("connection error")

	applier := runWorker(t, checker, pendingJob("pi_err"))

	assert.Empty(t, applier.events)
}

func TestWorkerLoopOrderWithoutIntent(t *testing.T) {
	checker := newMockChecker()
	job := order.Order{ID: 5, Number: "ORD-5", Status: order.StatusPending}

	applier := runWorker(t, checker, job)

	assert.Empty(t, checker.lookups)
	assert.Empty(t, applier.events)
}
