package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dmpolyakov/storefront-payments/internal/logger"
	"github.com/dmpolyakov/storefront-payments/internal/storage"
	"github.com/dmpolyakov/storefront-payments/internal/types/event"
	"github.com/dmpolyakov/storefront-payments/internal/types/order"
	"github.com/dmpolyakov/storefront-payments/internal/types/refund"
)

// Outcome classifies what applying an event did. Only OutcomeApplied changed
// state; everything else is reported and acknowledged without mutation.
type Outcome string

const (
	// OutcomeApplied: the order transitioned.
	OutcomeApplied Outcome = "applied"
	// OutcomeReplayed: duplicate or stale delivery, idempotent no-op.
	OutcomeReplayed Outcome = "replayed"
	// OutcomeIgnored: unrecognized event kind, acknowledged so the processor
	// stops retrying.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeUnresolvable: order correlation could not be established.
	OutcomeUnresolvable Outcome = "unresolvable"
	// OutcomeMismatch: the event is inconsistent with the order's state
	// (e.g. a refund on a non-paid order).
	OutcomeMismatch Outcome = "mismatch"
)

// Service applies domain events to order state. Every transition is guarded
// by the order's current status, so replays and reordered deliveries are
// harmless regardless of how many arrive concurrently.
type Service struct {
	orders   OrderRepository
	refunds  RefundRepository
	notifier Notifier
}

func NewService(orders OrderRepository, refunds RefundRepository, notifier Notifier) *Service {
	return &Service{orders: orders, refunds: refunds, notifier: notifier}
}

func (s *Service) Apply(ctx context.Context, ev event.Event) (Outcome, error) {
	if ev.Kind == event.KindUnknown {
		logger.Log.Debug("ignoring unrecognized processor event")
		return OutcomeIgnored, nil
	}
	if ev.Unverified {
		logger.Log.Warn("applying event accepted without signature verification",
			zap.String("kind", string(ev.Kind)),
			zap.String("intent", ev.IntentID))
	}
	if ev.Unresolvable {
		logger.Log.Error("event with unresolvable order correlation",
			zap.String("kind", string(ev.Kind)),
			zap.String("intent", ev.IntentID))
		return OutcomeUnresolvable, nil
	}

	o, err := s.orders.FindOrderByID(ctx, ev.OrderID)
	if errors.Is(err, storage.ErrOrderNotFound) {
		logger.Log.Error("event references an order that does not exist",
			zap.Int64("order_id", ev.OrderID),
			zap.String("intent", ev.IntentID))
		return OutcomeUnresolvable, nil
	}
	if err != nil {
		return "", fmt.Errorf("find order %d: %w", ev.OrderID, err)
	}

	switch ev.Kind {
	case event.KindPaymentSucceeded:
		return s.applySucceeded(ctx, o, ev)
	case event.KindPaymentFailed:
		return s.applyFailed(ctx, o, ev)
	case event.KindRefundIssued:
		return s.applyRefund(ctx, o, ev)
	}
	return OutcomeIgnored, nil
}

func (s *Service) applySucceeded(ctx context.Context, o *order.Order, ev event.Event) (Outcome, error) {
	switch o.Status {
	case order.StatusPending:
		now := time.Now().UTC()
		d := order.StatusDetails{PaymentIntentID: &ev.IntentID, PaidAt: &now}
		err := s.orders.UpdateOrderStatus(ctx, o.ID, order.StatusPending, order.StatusPaid, d)
		if errors.Is(err, storage.ErrStatusConflict) {
			// a concurrent delivery won the race
			logger.Log.Info("duplicate success event, order already transitioned",
				zap.String("order", o.Number))
			return OutcomeReplayed, nil
		}
		if err != nil {
			return "", fmt.Errorf("mark order %s paid: %w", o.Number, err)
		}
		o.Status = order.StatusPaid
		o.PaymentIntentID = &ev.IntentID
		o.PaidAt = &now
		s.notifyPaid(ctx, o)
		logger.Log.Info("order paid",
			zap.String("order", o.Number),
			zap.String("intent", ev.IntentID))
		return OutcomeApplied, nil

	case order.StatusPaid, order.StatusRefunded, order.StatusPartiallyRefunded:
		// at-least-once delivery, routine replay
		logger.Log.Info("replayed success event",
			zap.String("order", o.Number),
			zap.String("status", string(o.Status)))
		return OutcomeReplayed, nil

	default: // failed: a stale success from an abandoned attempt
		logger.Log.Error("success event on failed order",
			zap.String("order", o.Number),
			zap.String("intent", ev.IntentID))
		return OutcomeMismatch, nil
	}
}

func (s *Service) applyFailed(ctx context.Context, o *order.Order, ev event.Event) (Outcome, error) {
	switch o.Status {
	case order.StatusPending:
		reason := ev.Reason
		d := order.StatusDetails{PaymentIntentID: &ev.IntentID, FailureReason: &reason}
		err := s.orders.UpdateOrderStatus(ctx, o.ID, order.StatusPending, order.StatusFailed, d)
		if errors.Is(err, storage.ErrStatusConflict) {
			return OutcomeReplayed, nil
		}
		if err != nil {
			return "", fmt.Errorf("mark order %s failed: %w", o.Number, err)
		}
		logger.Log.Info("order payment failed",
			zap.String("order", o.Number),
			zap.String("reason", reason))
		return OutcomeApplied, nil

	default:
		// a failure arriving after a success must never downgrade the order
		logger.Log.Info("replayed failure event",
			zap.String("order", o.Number),
			zap.String("status", string(o.Status)))
		return OutcomeReplayed, nil
	}
}

func (s *Service) applyRefund(ctx context.Context, o *order.Order, ev event.Event) (Outcome, error) {
	if o.Status != order.StatusPaid {
		// misordered events or a processor/store desynchronization
		logger.Log.Error("refund event on order not in paid state",
			zap.String("order", o.Number),
			zap.String("status", string(o.Status)))
		return OutcomeMismatch, nil
	}

	next := order.StatusPartiallyRefunded
	if ev.Amount.GreaterThanOrEqual(o.Total) {
		next = order.StatusRefunded
	}
	refunded := ev.Amount
	d := order.StatusDetails{AmountRefunded: &refunded}
	err := s.orders.UpdateOrderStatus(ctx, o.ID, order.StatusPaid, next, d)
	if errors.Is(err, storage.ErrStatusConflict) {
		return OutcomeReplayed, nil
	}
	if err != nil {
		return "", fmt.Errorf("mark order %s %s: %w", o.Number, next, err)
	}

	rec := &refund.Refund{
		OrderID:         o.ID,
		PaymentIntentID: ev.IntentID,
		Amount:          ev.Amount,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.refunds.CreateRefund(ctx, rec); err != nil {
		// the status already moved; the audit row is best effort
		logger.Log.Error("record refund", zap.String("order", o.Number), zap.Error(err))
	}
	logger.Log.Info("order refunded",
		zap.String("order", o.Number),
		zap.String("status", string(next)),
		zap.String("amount", ev.Amount.String()))
	return OutcomeApplied, nil
}

func (s *Service) notifyPaid(ctx context.Context, o *order.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderPaid(ctx, o); err != nil {
		logger.Log.Error("fulfillment notification", zap.String("order", o.Number), zap.Error(err))
	}
}

// ListForReconciliation exposes the sweep query to the dispatcher.
func (s *Service) ListForReconciliation(ctx context.Context) ([]order.Order, error) {
	return s.orders.ListOrdersForReconciliation(ctx)
}
