package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/krislybeauty/storefront/internal/cartsync"
	"github.com/krislybeauty/storefront/internal/catalog"
	"github.com/krislybeauty/storefront/internal/checkout"
	"github.com/krislybeauty/storefront/internal/localcache"
	"github.com/krislybeauty/storefront/internal/remotecart"
	"github.com/krislybeauty/storefront/pkg/config"
	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
	"github.com/krislybeauty/storefront/pkg/logger"
	"github.com/krislybeauty/storefront/pkg/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	logg := logger.New(logger.Options{ServiceName: "storefront", Output: os.Stderr})

	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		return 1
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, storeCloser, err := localcache.Open(ctx, *cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to open local cache", err)
		return 1
	}

	cart, err := cartsync.NewContainer(cartsync.Params{
		Remote:        remotecart.NewClient(cfg.Remote.CartBaseURL),
		Store:         store,
		Checkout:      checkout.NewClient(cfg.Remote.CheckoutBaseURL, checkout.WithOrigin(cfg.Stripe.DefaultOrigin)),
		Logger:        logg,
		Metrics:       metrics.NewCartSyncMetrics(prometheus.NewRegistry()),
		RemoteTimeout: cfg.Remote.Timeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart container", err)
		_ = storeCloser.Close()
		return 1
	}

	a := &app{
		catalog: catalog.NewClient(cfg.Remote.CatalogBaseURL, logg,
			catalog.WithTimeout(cfg.Remote.Timeout),
			catalog.WithBreaker(cfg.Breaker),
		),
		cart: cart,
		out:  os.Stdout,
	}

	runErr := a.start(ctx, os.Args[1:])
	closeErr := shutdown(storeCloser)
	if closeErr != nil {
		logg.Error(ctx, "error closing local cache", closeErr)
	}
	return exitCode(os.Stderr, runErr)
}

// start initializes the cart session only for commands that touch the cart.
func (a *app) start(ctx context.Context, args []string) error {
	if len(args) > 0 && needsCart(args[0]) {
		if err := a.cart.Initialize(ctx); err != nil {
			return err
		}
	}
	return a.run(ctx, args)
}

func needsCart(cmd string) bool {
	switch cmd {
	case "cart", "add", "remove", "update", "clear", "checkout":
		return true
	}
	return false
}

func shutdown(closers ...io.Closer) error {
	var err error
	for _, c := range closers {
		if c != nil {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}

func exitCode(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(w, "run 'storefront help' for usage")
		return 2
	}
	if typed := pkgerrors.As(err); typed != nil {
		fmt.Fprintf(w, "error: %s\n", typed.Message())
		if details, ok := typed.Details().(map[string]string); ok {
			for field, tag := range details {
				fmt.Fprintf(w, "  %s: %s\n", field, tag)
			}
		}
		return 1
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
