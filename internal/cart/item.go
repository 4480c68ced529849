package cart

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TempIDPrefix marks items that exist only locally.
const TempIDPrefix = "temp-"

const defaultSizeKey = "default"

// Status is the synchronizer lifecycle state.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
	StatusEmptyLocal    Status = "empty_local"
	StatusMutating      Status = "mutating"
)

// Mode tells callers whether the items mirror the remote cart or include
// best-effort local entries.
type Mode string

const (
	ModeSynced    Mode = "synced"
	ModeLocalOnly Mode = "local_only"
	// ModeStale means a remote mutation went through but the reload after it
	// failed, so the items may lag the remote cart.
	ModeStale Mode = "stale"
)

// Item is one line of the cart as presented to the storefront.
type Item struct {
	ID        string          `json:"id"`
	VariantID string          `json:"variantId"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	UniqueKey string          `json:"uniqueKey"`
}

// Temporary reports whether the item was never persisted remotely.
func (i Item) Temporary() bool {
	return strings.HasPrefix(i.ID, TempIDPrefix)
}

// UniqueKey identifies the same logical item across lines.
func UniqueKey(variantID, size string) string {
	if size == "" {
		size = defaultSizeKey
	}
	return variantID + "-" + size
}

// NewItem is the payload of an add-to-cart action.
type NewItem struct {
	VariantID string
	Title     string
	Price     decimal.Decimal
	Quantity  int
	Image     string
	Size      string
}

func (n NewItem) toItem(id string) Item {
	return Item{
		ID:        id,
		VariantID: n.VariantID,
		Title:     n.Title,
		Price:     n.Price,
		Quantity:  n.Quantity,
		Image:     n.Image,
		Size:      n.Size,
		UniqueKey: UniqueKey(n.VariantID, n.Size),
	}
}

// State is an immutable view of a synchronizer.
type State struct {
	Status      Status `json:"status"`
	Mode        Mode   `json:"mode"`
	CartID      string `json:"cartId,omitempty"`
	CheckoutURL string `json:"checkoutUrl,omitempty"`
	Items       []Item `json:"items"`
	LastError   string `json:"lastError,omitempty"`
}

// TotalPrice sums price times quantity over all items.
func (s State) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// TotalItems sums quantities over all items.
func (s State) TotalItems() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

func (s State) clone() State {
	out := s
	out.Items = append([]Item(nil), s.Items...)
	return out
}

func (s State) findByKey(key string) (Item, bool) {
	for _, item := range s.Items {
		if item.UniqueKey == key {
			return item, true
		}
	}
	return Item{}, false
}

type backup struct {
	Items       []Item    `json:"items"`
	CheckoutURL string    `json:"checkoutUrl"`
	Timestamp   time.Time `json:"timestamp"`
}
