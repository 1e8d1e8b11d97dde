package reconcile

import (
	"context"

	"github.com/dmpolyakov/storefront-payments/internal/types/order"
	"github.com/dmpolyakov/storefront-payments/internal/types/refund"
)

type OrderRepository interface {
	FindOrderByID(ctx context.Context, id int64) (*order.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, expected, next order.PaymentStatus, d order.StatusDetails) error
	ListOrdersForReconciliation(ctx context.Context) ([]order.Order, error)
}

type RefundRepository interface {
	CreateRefund(ctx context.Context, r *refund.Refund) error
}

// Notifier receives the downstream side effect of a completed payment.
// It fires at most once per order: replays of the same success event never
// reach it.
type Notifier interface {
	OrderPaid(ctx context.Context, o *order.Order) error
}
