package webhook

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v81"

	"github.com/dmpolyakov/storefront-payments/internal/types/event"
)

func stripeEvent(eventType stripe.EventType, object string) stripe.Event {
	return stripe.Event{
		Type: eventType,
		Data: &stripe.EventData{Raw: json.RawMessage(object)},
	}
}

func TestInterpretSucceeded(t *testing.T) {
	ev := Interpret(stripeEvent(stripe.EventTypePaymentIntentSucceeded, `{
		"id": "pi_123",
		"amount": 12999,
		"metadata": {"orderId": "1001", "orderNumber": "ORD-1001"}
	}`))

	assert.Equal(t, event.KindPaymentSucceeded, ev.Kind)
	assert.False(t, ev.Unresolvable)
	assert.Equal(t, "pi_123", ev.IntentID)
	assert.Equal(t, int64(1001), ev.OrderID)
	assert.Equal(t, "ORD-1001", ev.OrderNumber)
	assert.True(t, ev.Amount.Equal(decimal.RequireFromString("129.99")))
}

func TestInterpretFailedWithReason(t *testing.T) {
	ev := Interpret(stripeEvent(stripe.EventTypePaymentIntentPaymentFailed, `{
		"id": "pi_123",
		"amount": 12999,
		"metadata": {"orderId": "1001", "orderNumber": "ORD-1001"},
		"last_payment_error": {"message": "Your card has insufficient funds."}
	}`))

	assert.Equal(t, event.KindPaymentFailed, ev.Kind)
	assert.Equal(t, "Your card has insufficient funds.", ev.Reason)
}

func TestInterpretFailedWithoutReason(t *testing.T) {
	ev := Interpret(stripeEvent(stripe.EventTypePaymentIntentPaymentFailed, `{
		"id": "pi_123",
		"amount": 12999,
		"metadata": {"orderId": "1001", "orderNumber": "ORD-1001"}
	}`))

	assert.Equal(t, event.KindPaymentFailed, ev.Kind)
	assert.NotEmpty(t, ev.Reason, "failure reason must never be empty")
}

func TestInterpretRefund(t *testing.T) {
	ev := Interpret(stripeEvent(stripe.EventTypeChargeRefunded, `{
		"id": "ch_1",
		"amount": 12999,
		"amount_refunded": 5000,
		"payment_intent": "pi_123",
		"metadata": {"orderId": "1001", "orderNumber": "ORD-1001"}
	}`))

	assert.Equal(t, event.KindRefundIssued, ev.Kind)
	assert.False(t, ev.Unresolvable)
	assert.Equal(t, "pi_123", ev.IntentID)
	assert.Equal(t, int64(1001), ev.OrderID)
	assert.True(t, ev.Amount.Equal(decimal.RequireFromString("50.00")))
}

func TestInterpretUnknownType(t *testing.T) {
	ev := Interpret(stripeEvent("customer.created", `{"id": "cus_1"}`))
	assert.Equal(t, event.KindUnknown, ev.Kind)
}

func TestInterpretMissingMetadata(t *testing.T) {
	ev := Interpret(stripeEvent(stripe.EventTypePaymentIntentSucceeded, `{
		"id": "pi_123",
		"amount": 12999
	}`))

	assert.Equal(t, event.KindPaymentSucceeded, ev.Kind)
	assert.True(t, ev.Unresolvable)
}

func TestInterpretGarbledMetadata(t *testing.T) {
	ev := Interpret(stripeEvent(stripe.EventTypePaymentIntentSucceeded, `{
		"id": "pi_123",
		"amount": 12999,
		"metadata": {"orderId": "not-a-number"}
	}`))

	assert.True(t, ev.Unresolvable)
	assert.Zero(t, ev.OrderID)
}

func TestInterpretMissingDataEnvelope(t *testing.T) {
	// an event with no data envelope at all must not be taken at face value
	ev := Interpret(stripe.Event{Type: stripe.EventTypePaymentIntentSucceeded})
	assert.Equal(t, event.KindPaymentSucceeded, ev.Kind)
	assert.True(t, ev.Unresolvable)

	ev = Interpret(stripe.Event{Type: stripe.EventTypeChargeRefunded})
	assert.Equal(t, event.KindRefundIssued, ev.Kind)
	assert.True(t, ev.Unresolvable)
}

func TestInterpretMalformedObject(t *testing.T) {
	ev := Interpret(stripeEvent(stripe.EventTypePaymentIntentSucceeded, `{broken`))
	assert.Equal(t, event.KindPaymentSucceeded, ev.Kind)
	assert.True(t, ev.Unresolvable)
}
