package webhook

import (
	"encoding/json"
	"strconv"

	"github.com/stripe/stripe-go/v81"

	"github.com/dmpolyakov/storefront-payments/internal/gateway"
	"github.com/dmpolyakov/storefront-payments/internal/types/event"
	"github.com/dmpolyakov/storefront-payments/internal/util/money"
)

// genericFailureReason replaces an absent processor error message. The reason
// on a failed order is never left empty.
const genericFailureReason = "payment failed"

// Interpret maps a verified processor event onto the closed domain event set.
// Unrecognized event types map to KindUnknown and are accepted without error,
// for forward compatibility with new processor event types.
func Interpret(e stripe.Event) event.Event {
	switch e.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		return fromIntent(event.KindPaymentSucceeded, e)
	case stripe.EventTypePaymentIntentPaymentFailed:
		return fromIntent(event.KindPaymentFailed, e)
	case stripe.EventTypeChargeRefunded:
		return fromCharge(e)
	default:
		return event.Event{Kind: event.KindUnknown}
	}
}

func fromIntent(kind event.Kind, e stripe.Event) event.Event {
	if e.Data == nil {
		return event.Event{Kind: kind, Unresolvable: true}
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(e.Data.Raw, &pi); err != nil {
		return event.Event{Kind: kind, Unresolvable: true}
	}

	ev := event.Event{
		Kind:     kind,
		IntentID: pi.ID,
		Amount:   money.FromMinorUnits(pi.Amount),
	}
	resolveCorrelation(&ev, pi.Metadata)

	if kind == event.KindPaymentFailed {
		ev.Reason = genericFailureReason
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			ev.Reason = pi.LastPaymentError.Msg
		}
	}
	return ev
}

func fromCharge(e stripe.Event) event.Event {
	if e.Data == nil {
		return event.Event{Kind: event.KindRefundIssued, Unresolvable: true}
	}
	var ch stripe.Charge
	if err := json.Unmarshal(e.Data.Raw, &ch); err != nil {
		return event.Event{Kind: event.KindRefundIssued, Unresolvable: true}
	}

	ev := event.Event{
		Kind:   event.KindRefundIssued,
		Amount: money.FromMinorUnits(ch.AmountRefunded),
	}
	if ch.PaymentIntent != nil {
		ev.IntentID = ch.PaymentIntent.ID
	}
	// intent metadata is copied onto its charges by the processor
	resolveCorrelation(&ev, ch.Metadata)
	return ev
}

func resolveCorrelation(ev *event.Event, metadata map[string]string) {
	raw, ok := metadata[gateway.MetadataOrderID]
	if !ok {
		ev.Unresolvable = true
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		ev.Unresolvable = true
		return
	}
	ev.OrderID = id
	ev.OrderNumber = metadata[gateway.MetadataOrderNumber]
}
