package cart

import (
	"context"

	"github.com/homura-labs/storefront/pkg/shopify"
)

// Remote is the commerce platform surface the synchronizer drives.
type Remote interface {
	Configured() bool
	CreateCart(ctx context.Context, lines []shopify.LineInput) (*shopify.Cart, error)
	GetCart(ctx context.Context, cartID string) (*shopify.Cart, error)
	AddLines(ctx context.Context, cartID string, lines []shopify.LineInput) (*shopify.Cart, error)
	UpdateLines(ctx context.Context, cartID string, lines []shopify.LineUpdate) (*shopify.Cart, error)
	RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*shopify.Cart, error)
}
