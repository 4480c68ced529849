package checkout

import (
	"context"
	"strings"

	"github.com/homura-labs/storefront/internal/catalog"
	"github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/shopify"
)

// CartCreator creates throwaway remote carts for direct checkout.
type CartCreator interface {
	Configured() bool
	CreateCart(ctx context.Context, lines []shopify.LineInput) (*shopify.Cart, error)
}

// ProductLookup resolves a product by handle.
type ProductLookup interface {
	ProductByHandle(ctx context.Context, handle string) (*shopify.Product, error)
}

// BuyNowRequest names a variant directly or through a product handle plus a
// size or option selection.
type BuyNowRequest struct {
	VariantID string
	Handle    string
	Size      string
	Options   map[string]string
	Quantity  int
}

type BuyNowResult struct {
	CartID      string `json:"cartId"`
	CheckoutURL string `json:"checkoutUrl"`
}

type Service interface {
	BuyNow(ctx context.Context, req BuyNowRequest) (BuyNowResult, error)
}

type service struct {
	carts    CartCreator
	products ProductLookup
}

func NewService(carts CartCreator, products ProductLookup) Service {
	return &service{carts: carts, products: products}
}

// BuyNow creates a fresh cart for one variant and returns its checkout URL.
// The session cart is left untouched.
func (s *service) BuyNow(ctx context.Context, req BuyNowRequest) (BuyNowResult, error) {
	if s == nil || s.carts == nil || !s.carts.Configured() {
		return BuyNowResult{}, errors.New(errors.CodeDependency, "checkout unavailable")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	variantID := strings.TrimSpace(req.VariantID)
	if variantID == "" {
		handle := strings.TrimSpace(req.Handle)
		if handle == "" {
			return BuyNowResult{}, errors.New(errors.CodeValidation, "variant_id or handle is required")
		}
		if s.products == nil {
			return BuyNowResult{}, errors.New(errors.CodeDependency, "catalog unavailable")
		}
		product, err := s.products.ProductByHandle(ctx, handle)
		if err != nil {
			return BuyNowResult{}, err
		}
		variant, err := catalog.SelectVariant(*product, req.Size, req.Options)
		if err != nil {
			return BuyNowResult{}, err
		}
		variantID = variant.ID
	}

	cart, err := s.carts.CreateCart(ctx, []shopify.LineInput{{MerchandiseID: variantID, Quantity: req.Quantity}})
	if err != nil {
		return BuyNowResult{}, err
	}
	if cart.CheckoutURL == "" {
		return BuyNowResult{}, errors.New(errors.CodeDependency, "cart has no checkout url")
	}
	return BuyNowResult{CartID: cart.ID, CheckoutURL: cart.CheckoutURL}, nil
}
