package refund

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dmpolyakov/storefront-payments/internal/gateway"
	"github.com/dmpolyakov/storefront-payments/internal/logger"
	"github.com/dmpolyakov/storefront-payments/internal/middleware"
	"github.com/dmpolyakov/storefront-payments/internal/storage"
	"github.com/dmpolyakov/storefront-payments/internal/types/refund"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/orders/{number}/refund", h.Request)
	r.Get("/orders/{number}/refunds", h.History)
	return r
}

func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	var req refund.RefundRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
	}

	err := h.svc.Request(r.Context(), number, req.Amount)
	switch {
	case err == nil:
		logger.Log.Info("refund requested",
			zap.String("order", number),
			zap.String("operator", middleware.AdminLoginFromContext(r.Context())))
		// accepted: the state change comes back through the webhook
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, storage.ErrOrderNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, ErrNotRefundable), errors.Is(err, ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, gateway.ErrNotConfigured):
		logger.Log.Error("payment processor is not configured")
		http.Error(w, "payment system unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	refunds, err := h.svc.History(r.Context(), number)
	if errors.Is(err, storage.ErrOrderNotFound) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if len(refunds) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(refunds)
}
