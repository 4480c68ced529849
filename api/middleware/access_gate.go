package middleware

import (
	"net/http"
	"strings"

	"github.com/homura-labs/storefront/pkg/logger"
)

// AccessVerifier validates access cookies.
type AccessVerifier interface {
	Enabled() bool
	Verify(token string) bool
}

// AccessGate redirects visitors without a valid access cookie to the entry
// page. API, health, metrics and asset paths are never gated.
func AccessGate(verifier AccessVerifier, cookieName, entryPath string, logg *logger.Logger) func(http.Handler) http.Handler {
	if entryPath == "" {
		entryPath = "/password"
	}
	return func(next http.Handler) http.Handler {
		if verifier == nil || !verifier.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gateExempt(r.URL.Path, entryPath) {
				next.ServeHTTP(w, r)
				return
			}
			if c, err := r.Cookie(cookieName); err == nil && verifier.Verify(c.Value) {
				next.ServeHTTP(w, r)
				return
			}
			if logg != nil {
				logg.Debug(r.Context(), "access.gate.redirect")
			}
			http.Redirect(w, r, entryPath, http.StatusSeeOther)
		})
	}
}

func gateExempt(path, entryPath string) bool {
	switch {
	case path == entryPath:
		return true
	case path == "/api" || strings.HasPrefix(path, "/api/"):
		return true
	case path == "/health" || strings.HasPrefix(path, "/health/"):
		return true
	case path == "/metrics":
		return true
	case strings.Contains(path, "."):
		return true
	}
	return false
}
