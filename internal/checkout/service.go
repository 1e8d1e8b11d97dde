package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmpolyakov/storefront-payments/internal/gateway"
	"github.com/dmpolyakov/storefront-payments/internal/types/order"
)

var (
	ErrInvalidRequest = errors.New("invalid checkout request")
	ErrAlreadyPaid    = errors.New("order is already paid")
)

type Service struct {
	repo     OrderRepository
	gw       IntentGateway
	currency string
}

func NewService(repo OrderRepository, gw IntentGateway, currency string) *Service {
	return &Service{repo: repo, gw: gw, currency: currency}
}

// Submit creates a pending order, opens a payment intent for it and attaches
// the intent reference. The returned client secret is handed to the payment
// UI.
func (s *Service) Submit(ctx context.Context, req *order.CheckoutRequest) (*order.CheckoutResponse, error) {
	if req.Email == "" || !req.Total.IsPositive() {
		return nil, ErrInvalidRequest
	}

	o := &order.Order{
		CustomerEmail: req.Email,
		Total:         req.Total,
		Currency:      s.currency,
		Status:        order.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	o.Number = fmt.Sprintf("ORD-%d", o.ID)
	if err := s.repo.SetOrderNumber(ctx, o.ID, o.Number); err != nil {
		return nil, fmt.Errorf("assign order number: %w", err)
	}

	handle, err := s.openIntent(ctx, o, req.Shipping)
	if err != nil {
		return nil, err
	}
	return &order.CheckoutResponse{OrderNumber: o.Number, ClientSecret: handle.ClientSecret}, nil
}

// Resume returns a usable payment reference for an existing order without
// opening a second intent when one is already attached. A failed order gets a
// fresh attempt: a new intent and a transition back to pending.
func (s *Service) Resume(ctx context.Context, number string) (*order.CheckoutResponse, error) {
	o, err := s.repo.FindOrderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case order.StatusPending:
		if o.PaymentIntentID != nil {
			st, err := s.gw.GetIntent(ctx, *o.PaymentIntentID)
			if err != nil {
				return nil, err
			}
			return &order.CheckoutResponse{OrderNumber: o.Number, ClientSecret: st.ClientSecret}, nil
		}
		handle, err := s.openIntent(ctx, o, nil)
		if err != nil {
			return nil, err
		}
		return &order.CheckoutResponse{OrderNumber: o.Number, ClientSecret: handle.ClientSecret}, nil

	case order.StatusFailed:
		// a fresh attempt with a new intent, never a backward transition of
		// the old one
		handle, err := s.openIntent(ctx, o, nil)
		if err != nil {
			return nil, err
		}
		d := order.StatusDetails{ClearFailureReason: true}
		if err := s.repo.UpdateOrderStatus(ctx, o.ID, order.StatusFailed, order.StatusPending, d); err != nil {
			return nil, fmt.Errorf("reopen order %s: %w", o.Number, err)
		}
		return &order.CheckoutResponse{OrderNumber: o.Number, ClientSecret: handle.ClientSecret}, nil

	default:
		return nil, ErrAlreadyPaid
	}
}

func (s *Service) OrderStatus(ctx context.Context, number string) (*order.Order, error) {
	return s.repo.FindOrderByNumber(ctx, number)
}

func (s *Service) openIntent(ctx context.Context, o *order.Order, shipping *order.ShippingAddress) (*gateway.IntentHandle, error) {
	handle, err := s.gw.CreateIntent(ctx, gateway.IntentRequest{
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		Amount:        o.Total,
		CustomerEmail: o.CustomerEmail,
		Shipping:      shipping,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.AttachPaymentIntent(ctx, o.ID, handle.ID); err != nil {
		return nil, fmt.Errorf("attach intent to order %s: %w", o.Number, err)
	}
	return handle, nil
}
