package shopify

import (
	"context"
	"strings"

	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
)

// CreateCart creates a remote cart holding the supplied lines.
func (c *Client) CreateCart(ctx context.Context, lines []LineInput) (*Cart, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	var data struct {
		Payload cartPayload `json:"cartCreate"`
	}
	vars := map[string]any{"input": map[string]any{"lines": lines}}
	if err := c.execute(ctx, "cartCreate", mutationCartCreate, vars, &data); err != nil {
		return nil, err
	}
	return cartFromPayload("cartCreate", data.Payload)
}

// GetCart fetches a cart by id. A cart the platform no longer knows is
// reported as CodeNotFound.
func (c *Client) GetCart(ctx context.Context, cartID string) (*Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	var data struct {
		Cart *wireCart `json:"cart"`
	}
	if err := c.execute(ctx, "getCart", queryCart, map[string]any{"id": cartID}, &data); err != nil {
		return nil, err
	}
	if data.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found").
			WithDetails(map[string]any{"cart_id": cartID})
	}
	return data.Cart.toCart(), nil
}

// AddLines appends lines to an existing cart.
func (c *Client) AddLines(ctx context.Context, cartID string, lines []LineInput) (*Cart, error) {
	if strings.TrimSpace(cartID) == "" || len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id and lines are required")
	}
	var data struct {
		Payload cartPayload `json:"cartLinesAdd"`
	}
	vars := map[string]any{"cartId": cartID, "lines": lines}
	if err := c.execute(ctx, "cartLinesAdd", mutationCartLinesAdd, vars, &data); err != nil {
		return nil, err
	}
	return cartFromPayload("cartLinesAdd", data.Payload)
}

// UpdateLines sets quantities on existing lines.
func (c *Client) UpdateLines(ctx context.Context, cartID string, lines []LineUpdate) (*Cart, error) {
	if strings.TrimSpace(cartID) == "" || len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id and lines are required")
	}
	var data struct {
		Payload cartPayload `json:"cartLinesUpdate"`
	}
	vars := map[string]any{"cartId": cartID, "lines": lines}
	if err := c.execute(ctx, "cartLinesUpdate", mutationCartLinesUpdate, vars, &data); err != nil {
		return nil, err
	}
	return cartFromPayload("cartLinesUpdate", data.Payload)
}

// RemoveLines deletes lines from a cart.
func (c *Client) RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*Cart, error) {
	if strings.TrimSpace(cartID) == "" || len(lineIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id and line ids are required")
	}
	var data struct {
		Payload cartPayload `json:"cartLinesRemove"`
	}
	vars := map[string]any{"cartId": cartID, "lineIds": lineIDs}
	if err := c.execute(ctx, "cartLinesRemove", mutationCartLinesRemove, vars, &data); err != nil {
		return nil, err
	}
	return cartFromPayload("cartLinesRemove", data.Payload)
}
