package controllers

import (
	"encoding/json"
	stdErrors "errors"
	"io"
	"net/http"

	"github.com/homura-labs/storefront/api/responses"
	"github.com/homura-labs/storefront/api/validators"
	"github.com/homura-labs/storefront/internal/access"
	"github.com/homura-labs/storefront/internal/newsletter"
	"github.com/homura-labs/storefront/pkg/auth"
	"github.com/homura-labs/storefront/pkg/config"
	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/logger"
)

const (
	maxNewsletterBody = 16 << 10

	msgSubscribed      = "Successfully subscribed to newsletter!"
	msgInvalidEmail    = "Valid email is required"
	msgNotConfigured   = "Newsletter service not configured"
	msgSubscribeFailed = "Failed to subscribe to newsletter"
)

type newsletterRequest struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Country string `json:"country"`
}

type newsletterError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type newsletterSuccess struct {
	Message string `json:"message"`
}

// NewsletterSubscribe signs an email up for the marketing list. The response
// keeps the flat {message}/{error} shape the storefront form reads. When the
// access gate is on, a successful signup also grants an access cookie.
func NewsletterSubscribe(svc newsletter.Service, gate access.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload newsletterRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxNewsletterBody)).Decode(&payload); err != nil {
			responses.WriteJSON(w, http.StatusBadRequest, newsletterError{Error: msgInvalidEmail})
			return
		}
		if svc == nil {
			responses.WriteJSON(w, http.StatusInternalServerError, newsletterError{Error: msgNotConfigured})
			return
		}

		_, err := svc.Subscribe(r.Context(), newsletter.Request{
			Email:   validators.SanitizeString(payload.Email, 254),
			Phone:   validators.SanitizeString(payload.Phone, 32),
			Country: validators.SanitizeString(payload.Country, 8),
		})
		switch {
		case err == nil:
		case pkgerrors.HasCode(err, pkgerrors.CodeValidation):
			responses.WriteJSON(w, http.StatusBadRequest, newsletterError{Error: msgInvalidEmail})
			return
		case stdErrors.Is(err, newsletter.ErrNotConfigured):
			responses.WriteJSON(w, http.StatusInternalServerError, newsletterError{Error: msgNotConfigured})
			return
		default:
			if logg != nil {
				logg.Error(r.Context(), "newsletter.subscribe_failed", err)
			}
			body := newsletterError{Error: msgSubscribeFailed}
			if upstream, ok := newsletter.UpstreamResponse(err); ok {
				body.Details = upstream
			}
			responses.WriteJSON(w, http.StatusInternalServerError, body)
			return
		}

		if gate != nil && gate.Enabled() {
			pass, err := gate.Grant(r.Context(), auth.GrantNewsletter)
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "newsletter.grant_failed", err)
				}
			} else {
				setAccessCookie(w, cfg, pass)
			}
		}
		responses.WriteJSON(w, http.StatusOK, newsletterSuccess{Message: msgSubscribed})
	}
}
