package cart

import (
	cartsvc "github.com/homura-labs/storefront/internal/cart"
)

// View is the cart as returned to the storefront.
type View struct {
	Status      cartsvc.Status `json:"status"`
	Mode        cartsvc.Mode   `json:"mode"`
	CartID      string         `json:"cartId,omitempty"`
	CheckoutURL string         `json:"checkoutUrl,omitempty"`
	Items       []cartsvc.Item `json:"items"`
	TotalItems  int            `json:"totalItems"`
	TotalPrice  string         `json:"totalPrice"`
	LastError   string         `json:"lastError,omitempty"`
}

func newView(state cartsvc.State) View {
	items := state.Items
	if items == nil {
		items = []cartsvc.Item{}
	}
	return View{
		Status:      state.Status,
		Mode:        state.Mode,
		CartID:      state.CartID,
		CheckoutURL: state.CheckoutURL,
		Items:       items,
		TotalItems:  state.TotalItems(),
		TotalPrice:  state.TotalPrice().StringFixed(2),
		LastError:   state.LastError,
	}
}
