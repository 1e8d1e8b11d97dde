package event

import "github.com/shopspring/decimal"

// Kind is the closed set of domain events recognized by the reconciler.
// Processor event types outside this set map to KindUnknown.
type Kind string

const (
	KindPaymentSucceeded Kind = "payment_succeeded"
	KindPaymentFailed    Kind = "payment_failed"
	KindRefundIssued     Kind = "refund_issued"
	KindUnknown          Kind = "unknown"
)

// Event is a normalized, already-verified processor notification. It is not
// persisted: deduplication is carried by the order status itself.
type Event struct {
	Kind        Kind
	IntentID    string
	OrderID     int64
	OrderNumber string
	Amount      decimal.Decimal
	// Reason holds the processor failure message for KindPaymentFailed.
	// Never empty for that kind.
	Reason string
	// Unresolvable is set when the order correlation metadata is missing or
	// garbled. The reconciler must not guess an order to mutate.
	Unresolvable bool
	// Unverified is set when the payload was accepted without signature
	// verification (no webhook secret configured).
	Unverified bool
}
