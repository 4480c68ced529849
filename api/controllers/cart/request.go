package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	cartsvc "github.com/homura-labs/storefront/internal/cart"
)

// AddItemRequest adds a variant named directly, with the display fields the
// storefront already has, or through a product handle plus a size or option
// selection resolved against the catalog.
type AddItemRequest struct {
	VariantID string            `json:"variant_id" validate:"required_without=Handle"`
	Handle    string            `json:"handle" validate:"required_without=VariantID"`
	Title     string            `json:"title" validate:"max=255"`
	Price     decimal.Decimal   `json:"price" validate:"gte=0"`
	Quantity  int               `json:"quantity" validate:"omitempty,min=1,max=99"`
	Image     string            `json:"image" validate:"max=2048"`
	Size      string            `json:"size" validate:"max=64"`
	Options   map[string]string `json:"options"`
}

func (r AddItemRequest) quantity() int {
	if r.Quantity <= 0 {
		return 1
	}
	return r.Quantity
}

func (r AddItemRequest) toNewItem() cartsvc.NewItem {
	return cartsvc.NewItem{
		VariantID: strings.TrimSpace(r.VariantID),
		Title:     strings.TrimSpace(r.Title),
		Price:     r.Price,
		Quantity:  r.quantity(),
		Image:     strings.TrimSpace(r.Image),
		Size:      strings.TrimSpace(r.Size),
	}
}

// UpdateItemRequest sets a line quantity. Zero or less removes the line.
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=99"`
}
