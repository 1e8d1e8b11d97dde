package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmpolyakov/storefront-payments/internal/admin"
	"github.com/dmpolyakov/storefront-payments/internal/checkout"
	"github.com/dmpolyakov/storefront-payments/internal/gateway"
	"github.com/dmpolyakov/storefront-payments/internal/logger"
	"github.com/dmpolyakov/storefront-payments/internal/reconcile"
	"github.com/dmpolyakov/storefront-payments/internal/refund"
	"github.com/dmpolyakov/storefront-payments/internal/router"
	storage "github.com/dmpolyakov/storefront-payments/internal/storage/postgres"
	"github.com/dmpolyakov/storefront-payments/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func run() error {
	cfg, err := NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewPostgresStorage(cfg.DatabaseConnection)
	if err != nil {
		log.Fatalf("Failed to initialize Postgres storage: %v", err)
	}
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := store.Ping(pingCtx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: failed to close storage: %v", err)
		}
	}()

	gw := gateway.New(cfg.StripeSecretKey, cfg.Currency, cfg.StripeTimeout)
	if !gw.Configured() {
		logger.Log.Warn("STRIPE_SECRET_KEY is not set, all payment operations will fail")
	}

	reconcileSvc := reconcile.NewService(store, store, reconcile.LogNotifier{})

	verifier := webhook.NewVerifier(cfg.StripeWebhookSecret)
	webhookHandler := webhook.NewHandler(verifier, reconcileSvc)

	checkoutSvc := checkout.NewService(store, gw, cfg.Currency)
	checkoutHandler := checkout.NewHandler(checkoutSvc)

	refundSvc := refund.NewService(store, store, gw)
	refundHandler := refund.NewHandler(refundSvc)

	adminSvc := admin.NewService(store, []byte(cfg.JWTSecret), cfg.JWTTTL)
	adminHandler := admin.NewHandler(adminSvc)

	r := router.NewRouter(checkoutHandler, webhookHandler, refundHandler, adminHandler, []byte(cfg.JWTSecret), store)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if gw.Configured() {
		go func() {
			reconcile.DispatcherLoop(
				ctx,
				gw,
				reconcileSvc,
				cfg.ReconcileWorkers,
				cfg.ReconcileInterval,
			)
		}()
	}

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
	return nil
}
