package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v81"

	"github.com/dmpolyakov/storefront-payments/internal/gateway"
	"github.com/dmpolyakov/storefront-payments/internal/logger"
	"github.com/dmpolyakov/storefront-payments/internal/storage"
	"github.com/dmpolyakov/storefront-payments/internal/types/order"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/checkout", h.Submit)
	r.Post("/checkout/{number}", h.Resume)
	r.Get("/orders/{number}", h.OrderStatus)
	return r
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req order.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	resp, err := h.svc.Submit(r.Context(), &req)
	if err != nil {
		writePaymentError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	resp, err := h.svc.Resume(r.Context(), number)
	if err != nil {
		writePaymentError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	o, err := h.svc.OrderStatus(r.Context(), number)
	if errors.Is(err, storage.ErrOrderNotFound) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(o)
}

// writePaymentError maps checkout failures to HTTP statuses, distinguishing
// user-actionable declines (processor message forwarded verbatim) from system
// failures (generic message, no internal detail leaked).
func writePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrOrderNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyPaid):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, gateway.ErrNotConfigured):
		logger.Log.Error("payment processor is not configured")
		http.Error(w, "payment system unavailable", http.StatusServiceUnavailable)
	default:
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			http.Error(w, stripeErr.Msg, http.StatusPaymentRequired)
			return
		}
		logger.Log.Error("checkout failure", zap.Error(err))
		http.Error(w, "payment system unavailable", http.StatusBadGateway)
	}
}
