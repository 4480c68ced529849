package controllers

import (
	"net/http"

	"github.com/homura-labs/storefront/api/responses"
	"github.com/homura-labs/storefront/api/validators"
	"github.com/homura-labs/storefront/internal/checkout"
	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/logger"
)

type buyNowRequest struct {
	VariantID string            `json:"variant_id" validate:"required_without=Handle"`
	Handle    string            `json:"handle" validate:"required_without=VariantID"`
	Size      string            `json:"size" validate:"max=64"`
	Options   map[string]string `json:"options"`
	Quantity  int               `json:"quantity" validate:"omitempty,min=1,max=99"`
}

// BuyNow creates a one-off cart for a single variant and returns its checkout URL.
func BuyNow(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var payload buyNowRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.BuyNow(r.Context(), checkout.BuyNowRequest{
			VariantID: payload.VariantID,
			Handle:    payload.Handle,
			Size:      payload.Size,
			Options:   payload.Options,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
