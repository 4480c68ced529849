package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/homura-labs/storefront/api/middleware"
	"github.com/homura-labs/storefront/api/responses"
	"github.com/homura-labs/storefront/api/validators"
	cartsvc "github.com/homura-labs/storefront/internal/cart"
	"github.com/homura-labs/storefront/internal/catalog"
	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/logger"
)

// Sessions hands out the cart synchronizer of a browser session.
type Sessions interface {
	Get(ctx context.Context, sessionID string) (*cartsvc.Synchronizer, error)
}

// ProductLookup resolves products for add-by-handle.
type ProductLookup interface {
	GetProduct(ctx context.Context, handle string) (*catalog.ProductDetail, error)
}

func synchronizerFor(r *http.Request, sessions Sessions) (*cartsvc.Synchronizer, error) {
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable")
	}
	s, err := sessions.Get(r.Context(), sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s, nil
}

// CartFetch returns the session cart.
func CartFetch(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := synchronizerFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newView(s.Snapshot()))
	}
}

// CartAddItem adds a variant to the session cart. Remote failures degrade to
// a local-only item and still answer 200 with mode local_only.
func CartAddItem(sessions Sessions, products ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item := payload.toNewItem()
		if item.VariantID == "" {
			resolved, err := resolveByHandle(r.Context(), products, payload)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			item = resolved
		}

		s, err := synchronizerFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := s.AddItem(r.Context(), item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newView(s.Snapshot()))
	}
}

func resolveByHandle(ctx context.Context, products ProductLookup, payload AddItemRequest) (cartsvc.NewItem, error) {
	if products == nil {
		return cartsvc.NewItem{}, pkgerrors.New(pkgerrors.CodeDependency, "catalog unavailable")
	}
	detail, err := products.GetProduct(ctx, strings.TrimSpace(payload.Handle))
	if err != nil {
		return cartsvc.NewItem{}, err
	}
	product := detail.Product
	variant, err := catalog.SelectVariant(product, payload.Size, payload.Options)
	if err != nil {
		return cartsvc.NewItem{}, err
	}
	item := cartsvc.NewItem{
		VariantID: variant.ID,
		Title:     product.Title,
		Price:     variant.Price.Amount,
		Quantity:  payload.quantity(),
		Size:      catalog.SizeOf(*variant),
	}
	if len(product.Images) > 0 {
		item.Image = product.Images[0].URL
	}
	return item, nil
}

// CartUpdateItem sets the quantity of a line; zero or less removes it.
func CartUpdateItem(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID := strings.TrimSpace(chi.URLParam(r, "lineID"))
		if lineID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line id is required"))
			return
		}
		var payload UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		s, err := synchronizerFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if *payload.Quantity <= 0 {
			err = s.RemoveItem(r.Context(), lineID)
		} else {
			err = s.UpdateQuantity(r.Context(), lineID, *payload.Quantity)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newView(s.Snapshot()))
	}
}

// CartRemoveItem deletes a line from the session cart.
func CartRemoveItem(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID := strings.TrimSpace(chi.URLParam(r, "lineID"))
		if lineID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line id is required"))
			return
		}
		s, err := synchronizerFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := s.RemoveItem(r.Context(), lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newView(s.Snapshot()))
	}
}

// CartClear forgets the session cart locally.
func CartClear(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := synchronizerFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		s.Clear(r.Context())
		responses.WriteSuccess(w, newView(s.Snapshot()))
	}
}
