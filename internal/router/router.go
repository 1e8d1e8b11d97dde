package router

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmpolyakov/storefront-payments/internal/admin"
	"github.com/dmpolyakov/storefront-payments/internal/checkout"
	"github.com/dmpolyakov/storefront-payments/internal/logger"
	"github.com/dmpolyakov/storefront-payments/internal/middleware"
	"github.com/dmpolyakov/storefront-payments/internal/refund"
	"github.com/dmpolyakov/storefront-payments/internal/webhook"
)

func NewRouter(
	checkoutH *checkout.Handler,
	webhookH *webhook.Handler,
	refundH *refund.Handler,
	adminH *admin.Handler,
	jwtSecret []byte,
	adminRepo admin.AdminRepository,
) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.WithLogging)
	r.Use(chiMiddleware.Recoverer)

	// the webhook endpoint stays outside GzipHandler: signature verification
	// needs the body exactly as the processor sent it
	r.Post("/api/webhooks/payment", webhookH.HandleEvent)

	r.Group(func(r chi.Router) {
		r.Use(middleware.GzipHandler)

		r.Post("/api/checkout", checkoutH.Submit)
		r.Post("/api/checkout/{number}", checkoutH.Resume)
		r.Get("/api/orders/{number}", checkoutH.OrderStatus)

		r.Route("/api/admin", func(r chi.Router) {
			r.Post("/register", adminH.Register)
			r.Post("/login", adminH.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.JWTMiddleware(jwtSecret, adminRepo))

				r.Post("/orders/{number}/refund", refundH.Request)
				r.Get("/orders/{number}/refunds", refundH.History)
			})
		})
	})

	return r
}
