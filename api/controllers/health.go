package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/krislybeauty/storefront/api/responses"
	"github.com/krislybeauty/storefront/pkg/config"
	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
	"github.com/krislybeauty/storefront/pkg/logger"
	pkgredis "github.com/krislybeauty/storefront/pkg/redis"
)

const (
	envHeader          = "X-Storefront-Env"
	readyProbeDeadline = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings redis when one is wired; a nil pinger means the API runs without it.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisPinger pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if redisPinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyProbeDeadline)
			defer cancel()
			if err := redisPinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable").
					WithDetails(map[string]string{"dependency": "redis"}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
