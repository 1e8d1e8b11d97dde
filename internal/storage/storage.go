package storage

import (
	"context"
	"errors"

	"github.com/dmpolyakov/storefront-payments/internal/types/admin"
	"github.com/dmpolyakov/storefront-payments/internal/types/order"
	"github.com/dmpolyakov/storefront-payments/internal/types/refund"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrAdminNotFound = errors.New("admin not found")

	// ErrStatusConflict is returned by UpdateOrderStatus when the order is no
	// longer in the expected status. Under at-least-once webhook delivery this
	// is the idempotent no-op path, not a failure.
	ErrStatusConflict = errors.New("order status conflict")
)

// OrderRepository owns the order records and their payment state.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	SetOrderNumber(ctx context.Context, orderID int64, number string) error
	FindOrderByID(ctx context.Context, id int64) (*order.Order, error)
	FindOrderByNumber(ctx context.Context, number string) (*order.Order, error)
	AttachPaymentIntent(ctx context.Context, orderID int64, intentID string) error
	// UpdateOrderStatus performs a conditional update: the row is changed only
	// if its current status equals expected. Returns ErrStatusConflict when it
	// does not, so concurrent duplicate deliveries serialize safely.
	UpdateOrderStatus(ctx context.Context, orderID int64, expected, next order.PaymentStatus, d order.StatusDetails) error
	// ListOrdersForReconciliation returns orders stuck pending with an intent
	// attached, for the out-of-band sweep.
	ListOrdersForReconciliation(ctx context.Context) ([]order.Order, error)
}

// RefundRepository records refunds applied to paid orders.
type RefundRepository interface {
	CreateRefund(ctx context.Context, r *refund.Refund) error
	ListRefundsByOrder(ctx context.Context, orderID int64) ([]refund.Refund, error)
}

// AdminRepository owns operator accounts.
type AdminRepository interface {
	CreateAdmin(ctx context.Context, a *admin.Admin) error
	FindAdminByLogin(ctx context.Context, login string) (*admin.Admin, error)
}

// Storage aggregates all repositories.
type Storage interface {
	OrderRepository
	RefundRepository
	AdminRepository

	Ping(ctx context.Context) error
	Close() error
}
