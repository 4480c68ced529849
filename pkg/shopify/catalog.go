package shopify

import (
	"context"
	"strings"

	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
)

// ListProducts returns the first n products of the storefront.
func (c *Client) ListProducts(ctx context.Context, first int) ([]Product, error) {
	if first <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first must be positive")
	}
	var data struct {
		Products connection[wireProduct] `json:"products"`
	}
	if err := c.execute(ctx, "getProducts", queryProducts, map[string]any{"first": first}, &data); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(data.Products.Edges))
	for _, node := range data.Products.nodes() {
		products = append(products, node.toProduct())
	}
	return products, nil
}

// ProductByHandle fetches one product by its URL handle.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product handle is required")
	}
	var data struct {
		Product *wireProduct `json:"productByHandle"`
	}
	if err := c.execute(ctx, "getProductByHandle", queryProductByHandle, map[string]any{"handle": handle}, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"handle": handle})
	}
	product := data.Product.toProduct()
	return &product, nil
}

// ListCollections returns the first n collections.
func (c *Client) ListCollections(ctx context.Context, first int) ([]Collection, error) {
	if first <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first must be positive")
	}
	var data struct {
		Collections connection[Collection] `json:"collections"`
	}
	if err := c.execute(ctx, "getCollections", queryCollections, map[string]any{"first": first}, &data); err != nil {
		return nil, err
	}
	return data.Collections.nodes(), nil
}
