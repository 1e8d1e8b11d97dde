package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmpolyakov/storefront-payments/internal/reconcile"
	"github.com/dmpolyakov/storefront-payments/internal/types/event"
)

type stubApplier struct {
	events []event.Event
	err    error
}

func (s *stubApplier) Apply(ctx context.Context, ev event.Event) (reconcile.Outcome, error) {
	s.events = append(s.events, ev)
	return reconcile.OutcomeApplied, s.err
}

const succeededPayload = `{
	"type": "payment_intent.succeeded",
	"data": {"object": {
		"id": "pi_123",
		"amount": 12999,
		"metadata": {"orderId": "1001", "orderNumber": "ORD-1001"}
	}}
}`

func postEvent(h *Handler, payload, sig string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, "/payment", strings.NewReader(payload))
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	w := httptest.NewRecorder()
	h.HandleEvent(w, req)
	return w.Result()
}

func TestHandleEventTrustMode(t *testing.T) {
	applier := &stubApplier{}
	h := NewHandler(NewVerifier(""), applier)

	resp := postEvent(h, succeededPayload, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, applier.events, 1)
	assert.Equal(t, event.KindPaymentSucceeded, applier.events[0].Kind)
	assert.True(t, applier.events[0].Unverified)
}

func TestHandleEventSigned(t *testing.T) {
	applier := &stubApplier{}
	h := NewHandler(NewVerifier(testSecret), applier)

	resp := postEvent(h, succeededPayload, signedHeader(t, []byte(succeededPayload), testSecret))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, applier.events, 1)
	assert.False(t, applier.events[0].Unverified)
}

func TestHandleEventRejectsBadSignature(t *testing.T) {
	applier := &stubApplier{}
	h := NewHandler(NewVerifier(testSecret), applier)

	resp := postEvent(h, succeededPayload, signedHeader(t, []byte(succeededPayload), "whsec_other"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, applier.events, "rejected payloads never reach the interpreter")
}

func TestHandleEventApplierError(t *testing.T) {
	applier := &stubApplier{err: errors.New("db down")}
	h := NewHandler(NewVerifier(""), applier)

	resp := postEvent(h, succeededPayload, "")
	defer resp.Body.Close()

	// 5xx so the processor retries the delivery
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHandleEventMissingDataEnvelope(t *testing.T) {
	applier := &stubApplier{}
	h := NewHandler(NewVerifier(""), applier)

	resp := postEvent(h, `{"type":"payment_intent.succeeded"}`, "")
	defer resp.Body.Close()

	// acknowledged as unresolvable so the processor stops retrying
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, applier.events, 1)
	assert.True(t, applier.events[0].Unresolvable)
}

func TestHandleEventUnknownTypeAcknowledged(t *testing.T) {
	applier := &stubApplier{}
	h := NewHandler(NewVerifier(""), applier)

	resp := postEvent(h, `{"type":"customer.created","data":{"object":{"id":"cus_1"}}}`, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, applier.events, 1)
	assert.Equal(t, event.KindUnknown, applier.events[0].Kind)
}
