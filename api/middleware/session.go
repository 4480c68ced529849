package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/homura-labs/storefront/pkg/config"
	"github.com/homura-labs/storefront/pkg/logger"
)

// Session assigns every browser a stable session id carried in a cookie. The
// id scopes the session store; it holds no other state.
func Session(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	name := strings.TrimSpace(cfg.CookieName)
	if name == "" {
		name = "sf_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if c, err := r.Cookie(name); err == nil {
				if id, parseErr := uuid.Parse(c.Value); parseErr == nil {
					sessionID = id.String()
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     name,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(cfg.CookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
