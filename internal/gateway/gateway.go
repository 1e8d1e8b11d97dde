package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/dmpolyakov/storefront-payments/internal/types/order"
	"github.com/dmpolyakov/storefront-payments/internal/util/money"
)

// ErrNotConfigured is returned by every operation when no processor secret key
// was supplied. It is an operator problem, not a payment decline.
var ErrNotConfigured = errors.New("payment processor client is not configured")

// Metadata keys attached to every intent so webhook events can be correlated
// back to the order without a lookup table.
const (
	MetadataOrderID     = "orderId"
	MetadataOrderNumber = "orderNumber"
)

type IntentRequest struct {
	OrderID       int64
	OrderNumber   string
	Amount        decimal.Decimal
	CustomerEmail string
	Shipping      *order.ShippingAddress
}

// IntentHandle is the opaque reference handed to the customer's payment UI.
type IntentHandle struct {
	ID           string
	ClientSecret string
}

// IntentState is a point-in-time snapshot of a processor-side intent, used by
// the reconciliation sweep.
type IntentState struct {
	ID            string
	Status        stripe.PaymentIntentStatus
	Amount        decimal.Decimal
	ClientSecret  string
	FailureReason string
}

// Gateway is the single owned processor client, constructed at startup and
// injected into its callers.
type Gateway struct {
	api      *client.API
	currency string
	timeout  time.Duration
}

func New(secretKey, currency string, timeout time.Duration) *Gateway {
	g := &Gateway{currency: currency, timeout: timeout}
	if secretKey != "" {
		api := &client.API{}
		api.Init(secretKey, nil)
		g.api = api
	}
	return g
}

func (g *Gateway) Configured() bool {
	return g.api != nil
}

// CreateIntent asks the processor to open a payment authorization for the
// order. Not idempotent at this layer: callers must check for an existing
// intent before calling again for the same order.
func (g *Gateway) CreateIntent(ctx context.Context, req IntentRequest) (*IntentHandle, error) {
	if g.api == nil {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := g.intentParams(req)
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &IntentHandle{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// intentParams translates an IntentRequest into the processor's wire form:
// integer minor units, lowercase currency, order correlation in metadata.
func (g *Gateway) intentParams(req IntentRequest) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(money.ToMinorUnits(req.Amount)),
		Currency:     stripe.String(g.currency),
		ReceiptEmail: stripe.String(req.CustomerEmail),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata(MetadataOrderID, strconv.FormatInt(req.OrderID, 10))
	params.AddMetadata(MetadataOrderNumber, req.OrderNumber)
	if req.Shipping != nil {
		params.Shipping = &stripe.ShippingDetailsParams{
			Name: stripe.String(req.Shipping.Name),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(req.Shipping.Line1),
				Line2:      stripe.String(req.Shipping.Line2),
				City:       stripe.String(req.Shipping.City),
				PostalCode: stripe.String(req.Shipping.PostalCode),
				Country:    stripe.String(req.Shipping.Country),
			},
		}
	}
	return params
}

// CreateRefund issues a refund against an intent: full when amount is nil,
// partial otherwise. The synchronous return only acknowledges that the
// processor accepted the request; the state change arrives via webhook.
func (g *Gateway) CreateRefund(ctx context.Context, intentID string, amount *decimal.Decimal) (string, error) {
	if g.api == nil {
		return "", ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(intentID),
	}
	if amount != nil {
		params.Amount = stripe.Int64(money.ToMinorUnits(*amount))
	}
	params.SetIdempotencyKey(uuid.NewString())

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("create refund: %w", err)
	}
	return r.ID, nil
}

// GetIntent fetches the current processor-side state of an intent.
func (g *Gateway) GetIntent(ctx context.Context, intentID string) (*IntentState, error) {
	if g.api == nil {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	pi, err := g.api.PaymentIntents.Get(intentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("get payment intent: %w", err)
	}
	st := &IntentState{
		ID:           pi.ID,
		Status:       pi.Status,
		Amount:       money.FromMinorUnits(pi.Amount),
		ClientSecret: pi.ClientSecret,
	}
	if pi.LastPaymentError != nil {
		st.FailureReason = pi.LastPaymentError.Msg
	}
	return st, nil
}
