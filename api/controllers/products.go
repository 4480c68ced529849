package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/homura-labs/storefront/api/responses"
	"github.com/homura-labs/storefront/api/validators"
	"github.com/homura-labs/storefront/internal/catalog"
	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/logger"
	"github.com/homura-labs/storefront/pkg/shopify"
)

const maxImageWidth = 4096

// imageWidth reads the optional image_width query parameter. Zero leaves
// image URLs untouched.
func imageWidth(r *http.Request) (int, error) {
	return validators.ParseQueryInt(r, "image_width", 0, 1, maxImageWidth)
}

func resizeImages(p *shopify.Product, width int) {
	if width <= 0 {
		return
	}
	for i := range p.Images {
		p.Images[i].URL = catalog.ImageURL(p.Images[i].URL, width, catalog.DefaultImageQuality)
	}
}

func resizeAll(products []shopify.Product, width int) {
	for i := range products {
		resizeImages(&products[i], width)
	}
}

// ListProducts returns the first page of the catalog.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		first, err := validators.ParseQueryInt(r, "first", catalog.DefaultPageSize, 1, catalog.MaxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		width, err := imageWidth(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.ListProducts(r.Context(), first)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resizeAll(products, width)
		responses.WriteSuccess(w, products)
	}
}

// GetProduct returns a product page payload by handle.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		handle := strings.TrimSpace(chi.URLParam(r, "handle"))
		if handle == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product handle is required"))
			return
		}
		width, err := imageWidth(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetProduct(r.Context(), handle)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resizeImages(&detail.Product, width)
		responses.WriteSuccess(w, detail)
	}
}

// RelatedProducts returns a few other products for the product page.
func RelatedProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		handle := strings.TrimSpace(chi.URLParam(r, "handle"))
		limit, err := validators.ParseQueryInt(r, "limit", catalog.DefaultRelatedLimit, 1, 10)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		width, err := imageWidth(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.RelatedProducts(r.Context(), handle, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resizeAll(products, width)
		responses.WriteSuccess(w, products)
	}
}

func ListCollections(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		first, err := validators.ParseQueryInt(r, "first", catalog.DefaultPageSize, 1, catalog.MaxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		collections, err := svc.ListCollections(r.Context(), first)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, collections)
	}
}
