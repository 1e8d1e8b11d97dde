package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

type Config struct {
	Address             string        `env:"RUN_ADDRESS" envDefault:"localhost:8080"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"INFO"`
	DatabaseConnection  string        `env:"DATABASE_URI"`
	StripeSecretKey     string        `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET"`
	Currency            string        `env:"CURRENCY" envDefault:"usd"`
	StripeTimeout       time.Duration `env:"STRIPE_TIMEOUT" envDefault:"10s"`
	ReconcileWorkers    int           `env:"RECONCILE_WORKERS" envDefault:"5"`
	ReconcileInterval   time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`
	JWTSecret           string        `env:"JWT_SECRET" envDefault:"dontexposethis"`
	JWTTTL              time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("ENV JWT_SECRET must be set")
	}

	address := flag.String("a", cfg.Address, "{Host:port} for server")
	loglevel := flag.String("l", cfg.LogLevel, "Log level for server")
	databaseConnection := flag.String("d", cfg.DatabaseConnection, "Database connection string")
	currency := flag.String("c", cfg.Currency, "Store base currency (ISO code, lowercase)")
	reconcileWorkers := flag.Int("w", cfg.ReconcileWorkers, "Size of reconciliation worker pool")
	reconcileInterval := flag.Duration("i", cfg.ReconcileInterval, "Reconciliation sweep interval")
	jwtTTL := flag.Duration("t", cfg.JWTTTL, "TTL for JWT token(e.g. 24h; 30m )")

	flag.Parse()

	cfg.Address = *address
	cfg.LogLevel = *loglevel
	cfg.DatabaseConnection = *databaseConnection
	cfg.Currency = *currency
	cfg.ReconcileWorkers = *reconcileWorkers
	cfg.ReconcileInterval = *reconcileInterval
	cfg.JWTTTL = *jwtTTL

	return cfg, nil
}
