package controllers

import (
	"net/http"
	"time"

	"github.com/homura-labs/storefront/api/responses"
	"github.com/homura-labs/storefront/api/validators"
	"github.com/homura-labs/storefront/internal/access"
	"github.com/homura-labs/storefront/pkg/config"
	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/logger"
)

type unlockRequest struct {
	Password string `json:"password" validate:"required,max=256"`
}

type unlockResponse struct {
	Granted   bool      `json:"granted"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func setAccessCookie(w http.ResponseWriter, cfg *config.Config, pass access.Pass) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Access.CookieName,
		Value:    pass.Token,
		Path:     "/",
		Expires:  pass.ExpiresAt,
		MaxAge:   int(cfg.Access.CookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// UnlockStorefront exchanges the shared storefront password for an access cookie.
func UnlockStorefront(svc access.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "access service unavailable"))
			return
		}
		var payload unlockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pass, err := svc.Unlock(r.Context(), payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		setAccessCookie(w, cfg, pass)
		responses.WriteSuccess(w, unlockResponse{Granted: true, ExpiresAt: pass.ExpiresAt})
	}
}
