package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/krislybeauty/storefront/api/routes"
	"github.com/krislybeauty/storefront/internal/checkout"
	"github.com/krislybeauty/storefront/pkg/config"
	"github.com/krislybeauty/storefront/pkg/instance"
	"github.com/krislybeauty/storefront/pkg/logger"
	"github.com/krislybeauty/storefront/pkg/metrics"
	"github.com/krislybeauty/storefront/pkg/redis"
	pkgstripe "github.com/krislybeauty/storefront/pkg/stripe"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var (
		redisPinger redis.Pinger
		idemStore   redis.IdempotencyStore
		closers     []func() error
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		redisPinger = redisClient
		idemStore = redisClient
		closers = append(closers, redisClient.Close)
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency replay disabled")
	}

	var provider checkout.Provider
	if cfg.Stripe.APIKey != "" {
		stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap stripe", err)
			os.Exit(1)
		}
		provider = checkout.NewStripeProvider(stripeClient)
	} else {
		logg.Warn(context.Background(), "stripe api key not configured, checkout requests will fail")
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Provider:      provider,
		Prices:        checkout.NewPriceBook(cfg.Stripe.Prices),
		DefaultOrigin: cfg.Stripe.DefaultOrigin,
		Metrics:       metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, redisPinger, idemStore, checkoutService, promhttp.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			closeAll(ctx, logg, closers)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "api server shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}

	closeAll(ctx, logg, closers)
}

func closeAll(ctx context.Context, logg *logger.Logger, closers []func() error) {
	var err error
	for _, closeFn := range closers {
		err = multierr.Append(err, closeFn())
	}
	if err != nil {
		logg.Error(ctx, "error closing resources", err)
	}
}
