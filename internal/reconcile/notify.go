package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/dmpolyakov/storefront-payments/internal/logger"
	"github.com/dmpolyakov/storefront-payments/internal/types/order"
)

// LogNotifier announces paid orders to the operational log. The fulfillment
// pipeline picks them up from there; swap in a real notifier when one exists.
type LogNotifier struct{}

func (LogNotifier) OrderPaid(ctx context.Context, o *order.Order) error {
	logger.Log.Info("order ready for fulfillment",
		zap.String("order", o.Number),
		zap.String("amount", o.Total.String()),
		zap.String("currency", o.Currency))
	return nil
}
