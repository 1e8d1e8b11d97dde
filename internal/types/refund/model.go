package refund

import (
	"time"

	"github.com/shopspring/decimal"
)

type Refund struct {
	ID              int64           `db:"id" json:"-"`
	OrderID         int64           `db:"order_id" json:"-"`
	PaymentIntentID string          `db:"payment_intent_id" json:"-"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt       time.Time       `db:"created_at" json:"processed_at"`
}

type RefundRequest struct {
	// Amount is omitted for a full refund.
	Amount *decimal.Decimal `json:"amount,omitempty"`
}
