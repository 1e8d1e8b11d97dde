package reconcile

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"

	"github.com/dmpolyakov/storefront-payments/internal/gateway"
	"github.com/dmpolyakov/storefront-payments/internal/logger"
	"github.com/dmpolyakov/storefront-payments/internal/types/event"
	"github.com/dmpolyakov/storefront-payments/internal/types/order"
)

// IntentChecker re-queries the processor for an intent's current state.
type IntentChecker interface {
	GetIntent(ctx context.Context, intentID string) (*gateway.IntentState, error)
}

// Applier is the reconciler seen from the sweep side.
type Applier interface {
	Apply(ctx context.Context, ev event.Event) (Outcome, error)
}

// eventFromIntentState synthesizes a domain event from a polled intent. Only
// terminal processor states produce one; anything still in flight is skipped
// until the next sweep.
func eventFromIntentState(o order.Order, st *gateway.IntentState) (event.Event, bool) {
	ev := event.Event{
		IntentID:    st.ID,
		OrderID:     o.ID,
		OrderNumber: o.Number,
		Amount:      st.Amount,
	}
	switch st.Status {
	case stripe.PaymentIntentStatusSucceeded:
		ev.Kind = event.KindPaymentSucceeded
	case stripe.PaymentIntentStatusCanceled:
		ev.Kind = event.KindPaymentFailed
		ev.Reason = st.FailureReason
		if ev.Reason == "" {
			ev.Reason = "payment failed"
		}
	default:
		return event.Event{}, false
	}
	return ev, true
}

func workerLoop(
	ctx context.Context,
	id int,
	checker IntentChecker,
	jobs <-chan order.Order,
	applier Applier,
) {
	logger.Log.Debug("sweep worker started", zap.Int("worker", id))
	for {
		select {
		case <-ctx.Done():
			return

		case o, ok := <-jobs:
			if !ok {
				return
			}
			if o.PaymentIntentID == nil {
				continue
			}

			st, err := checker.GetIntent(ctx, *o.PaymentIntentID)
			if err != nil {
				logger.Log.Error("sweep intent lookup",
					zap.Int("worker", id),
					zap.String("order", o.Number),
					zap.Error(err))
				continue
			}

			ev, terminal := eventFromIntentState(o, st)
			if !terminal {
				continue
			}
			if _, err := applier.Apply(ctx, ev); err != nil {
				logger.Log.Error("sweep apply",
					zap.Int("worker", id),
					zap.String("order", o.Number),
					zap.Error(err))
			}
		}
	}
}

// DispatcherLoop periodically lists orders stuck pending with an intent
// attached and fans them out to the workers. It covers webhooks that never
// arrived; the state-guarded reconciler makes double application harmless.
func DispatcherLoop(
	ctx context.Context,
	checker IntentChecker,
	svc *Service,
	workerCount int,
	interval time.Duration,
) {
	jobs := make(chan order.Order, workerCount*3)

	for i := 1; i <= workerCount; i++ {
		go workerLoop(ctx, i, checker, jobs, svc)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Log.Info("reconciliation sweep started",
		zap.Int("workers", workerCount),
		zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			return
		case <-ticker.C:
			orders, err := svc.ListForReconciliation(ctx)
			if err != nil {
				logger.Log.Error("sweep listing", zap.Error(err))
				continue
			}
			for _, o := range orders {
				select {
				case jobs <- o:
				default:
					// channel full, the order will come back next tick
				}
			}
		}
	}
}
