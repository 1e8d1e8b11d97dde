package webhook

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmpolyakov/storefront-payments/internal/reconcile"
	"github.com/dmpolyakov/storefront-payments/internal/types/event"
)

// EventApplier consumes interpreted domain events.
type EventApplier interface {
	Apply(ctx context.Context, ev event.Event) (reconcile.Outcome, error)
}

type Handler struct {
	verifier *Verifier
	applier  EventApplier
}

func NewHandler(verifier *Verifier, applier EventApplier) *Handler {
	return &Handler{verifier: verifier, applier: applier}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/payment", h.HandleEvent)
	return r
}

// HandleEvent is the processor-facing webhook endpoint. 2xx acknowledges the
// delivery; 4xx tells the processor the payload is unfixable; 5xx makes it
// retry.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	stripeEvent, unverified, err := h.verifier.Verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ev := Interpret(stripeEvent)
	ev.Unverified = unverified

	if _, err := h.applier.Apply(r.Context(), ev); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
