package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	StatusPending           PaymentStatus = "pending"
	StatusPaid              PaymentStatus = "paid"
	StatusFailed            PaymentStatus = "failed"
	StatusRefunded          PaymentStatus = "refunded"
	StatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

type Order struct {
	ID              int64            `db:"id" json:"-"`
	Number          string           `db:"number" json:"number"`
	CustomerEmail   string           `db:"customer_email" json:"-"`
	Total           decimal.Decimal  `db:"total" json:"total"`
	Currency        string           `db:"currency" json:"currency"`
	Status          PaymentStatus    `db:"status" json:"status"`
	PaymentIntentID *string          `db:"payment_intent_id" json:"-"`
	FailureReason   *string          `db:"failure_reason" json:"failure_reason,omitempty"`
	AmountRefunded  *decimal.Decimal `db:"amount_refunded" json:"amount_refunded,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	PaidAt          *time.Time       `db:"paid_at" json:"-"`
}

// StatusDetails carries the fields recorded alongside a status transition.
// Nil fields are left untouched by the store.
type StatusDetails struct {
	PaymentIntentID *string
	FailureReason   *string
	AmountRefunded  *decimal.Decimal
	PaidAt          *time.Time
	// ClearFailureReason drops the stored failure reason, for transitions
	// back to pending where the old reason no longer applies.
	ClearFailureReason bool
}

type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type LineItem struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type CheckoutRequest struct {
	Email    string           `json:"email"`
	Total    decimal.Decimal  `json:"total"`
	Items    []LineItem       `json:"items"`
	Shipping *ShippingAddress `json:"shipping,omitempty"`
}

type CheckoutResponse struct {
	OrderNumber  string `json:"order"`
	ClientSecret string `json:"client_secret"`
}
