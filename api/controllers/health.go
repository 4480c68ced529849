package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/homura-labs/storefront/api/responses"
	"github.com/homura-labs/storefront/internal/storage"
	"github.com/homura-labs/storefront/pkg/config"
	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/logger"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the session store when it has a remote backend.
func HealthReady(cfg *config.Config, store storage.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		if pinger, ok := store.(storage.Pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session store unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
