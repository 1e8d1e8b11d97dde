package refund

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dmpolyakov/storefront-payments/internal/logger"
	"github.com/dmpolyakov/storefront-payments/internal/types/order"
	"github.com/dmpolyakov/storefront-payments/internal/types/refund"
)

var (
	ErrNotRefundable = errors.New("order is not in a refundable state")
	ErrInvalidAmount = errors.New("refund amount must be positive")
)

type OrderRepository interface {
	FindOrderByNumber(ctx context.Context, number string) (*order.Order, error)
}

type RefundRepository interface {
	ListRefundsByOrder(ctx context.Context, orderID int64) ([]refund.Refund, error)
}

type RefundGateway interface {
	CreateRefund(ctx context.Context, intentID string, amount *decimal.Decimal) (string, error)
}

type Service struct {
	orders  OrderRepository
	refunds RefundRepository
	gw      RefundGateway
}

func NewService(orders OrderRepository, refunds RefundRepository, gw RefundGateway) *Service {
	return &Service{orders: orders, refunds: refunds, gw: gw}
}

// Request asks the processor to refund an order, fully when amount is nil.
// The order state does not change here: the transition arrives via the
// subsequent refund webhook. The remaining refundable balance is validated by
// the processor, not locally.
func (s *Service) Request(ctx context.Context, number string, amount *decimal.Decimal) error {
	if amount != nil && !amount.IsPositive() {
		return ErrInvalidAmount
	}

	o, err := s.orders.FindOrderByNumber(ctx, number)
	if err != nil {
		return err
	}
	if o.Status != order.StatusPaid || o.PaymentIntentID == nil {
		return ErrNotRefundable
	}

	refundID, err := s.gw.CreateRefund(ctx, *o.PaymentIntentID, amount)
	if err != nil {
		return fmt.Errorf("request refund for order %s: %w", number, err)
	}
	logger.Log.Info("refund accepted by processor",
		zap.String("order", number),
		zap.String("refund", refundID))
	return nil
}

// History lists the refunds applied to an order.
func (s *Service) History(ctx context.Context, number string) ([]refund.Refund, error) {
	o, err := s.orders.FindOrderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.refunds.ListRefundsByOrder(ctx, o.ID)
}
