package checkout

import (
	"context"

	"github.com/dmpolyakov/storefront-payments/internal/gateway"
	"github.com/dmpolyakov/storefront-payments/internal/types/order"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	SetOrderNumber(ctx context.Context, orderID int64, number string) error
	FindOrderByNumber(ctx context.Context, number string) (*order.Order, error)
	AttachPaymentIntent(ctx context.Context, orderID int64, intentID string) error
	UpdateOrderStatus(ctx context.Context, orderID int64, expected, next order.PaymentStatus, d order.StatusDetails) error
}

type IntentGateway interface {
	CreateIntent(ctx context.Context, req gateway.IntentRequest) (*gateway.IntentHandle, error)
	GetIntent(ctx context.Context, intentID string) (*gateway.IntentState, error)
}
