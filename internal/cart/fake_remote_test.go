package cart

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/shopify"
	"github.com/shopspring/decimal"
)

type fakeVariant struct {
	title   string
	product string
	price   string
	options []shopify.SelectedOption
}

type fakeLine struct {
	id        string
	variantID string
	quantity  int
	attrs     []shopify.Attribute
}

// fakeRemote simulates the platform's cart semantics in memory.
type fakeRemote struct {
	mu         sync.Mutex
	configured bool
	variants   map[string]fakeVariant
	carts      map[string][]fakeLine
	seq        int
	failures   map[string]error
	calls      map[string]int
	rotateID   bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		configured: true,
		variants: map[string]fakeVariant{
			"V1": {title: "M", product: "Tee", price: "25.00", options: []shopify.SelectedOption{{Name: "Size", Value: "M"}}},
			"V2": {title: "L", product: "Tee", price: "25.00", options: []shopify.SelectedOption{{Name: "Size", Value: "L"}}},
			"V3": {title: "Default Title", product: "Cap", price: "12.50"},
		},
		carts:    map[string][]fakeLine{},
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

func (f *fakeRemote) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

func (f *fakeRemote) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) enter(op string) error {
	f.calls[op]++
	return f.failures[op]
}

func (f *fakeRemote) Configured() bool { return f.configured }

func (f *fakeRemote) nextID(kind string) string {
	f.seq++
	return fmt.Sprintf("gid://shopify/%s/%d", kind, f.seq)
}

func (f *fakeRemote) render(id string) *shopify.Cart {
	lines := f.carts[id]
	cart := &shopify.Cart{ID: id, CheckoutURL: "https://shop.test/checkout/" + id}
	for _, l := range lines {
		v := f.variants[l.variantID]
		cart.Lines = append(cart.Lines, shopify.CartLine{
			ID:       l.id,
			Quantity: l.quantity,
			Merchandise: shopify.Merchandise{
				ID:              l.variantID,
				Title:           v.title,
				Price:           shopify.Money{Amount: decimal.RequireFromString(v.price), CurrencyCode: "USD"},
				SelectedOptions: v.options,
				ProductTitle:    v.product,
			},
			Attributes: l.attrs,
		})
	}
	return cart
}

func (f *fakeRemote) appendLines(cartID string, lines []shopify.LineInput) {
	for _, in := range lines {
		f.carts[cartID] = append(f.carts[cartID], fakeLine{
			id:        f.nextID("CartLine"),
			variantID: in.MerchandiseID,
			quantity:  in.Quantity,
			attrs:     in.Attributes,
		})
	}
}

func (f *fakeRemote) CreateCart(_ context.Context, lines []shopify.LineInput) (*shopify.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create"); err != nil {
		return nil, err
	}
	id := f.nextID("Cart")
	f.carts[id] = nil
	f.appendLines(id, lines)
	return f.render(id), nil
}

func (f *fakeRemote) GetCart(_ context.Context, cartID string) (*shopify.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("get"); err != nil {
		return nil, err
	}
	if _, ok := f.carts[cartID]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return f.render(cartID), nil
}

func (f *fakeRemote) AddLines(_ context.Context, cartID string, lines []shopify.LineInput) (*shopify.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("add"); err != nil {
		return nil, err
	}
	if _, ok := f.carts[cartID]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cartLinesAdd returned no cart")
	}
	f.appendLines(cartID, lines)
	if f.rotateID {
		newID := f.nextID("Cart")
		f.carts[newID] = f.carts[cartID]
		delete(f.carts, cartID)
		cartID = newID
	}
	return f.render(cartID), nil
}

func (f *fakeRemote) UpdateLines(_ context.Context, cartID string, updates []shopify.LineUpdate) (*shopify.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("update"); err != nil {
		return nil, err
	}
	lines, ok := f.carts[cartID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cartLinesUpdate returned no cart")
	}
	for _, u := range updates {
		for i := range lines {
			if lines[i].id == u.ID {
				lines[i].quantity = u.Quantity
			}
		}
	}
	return f.render(cartID), nil
}

func (f *fakeRemote) RemoveLines(_ context.Context, cartID string, lineIDs []string) (*shopify.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("remove"); err != nil {
		return nil, err
	}
	lines, ok := f.carts[cartID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cartLinesRemove returned no cart")
	}
	kept := lines[:0]
	for _, l := range lines {
		drop := false
		for _, id := range lineIDs {
			if l.id == id {
				drop = true
			}
		}
		if !drop {
			kept = append(kept, l)
		}
	}
	f.carts[cartID] = kept
	return f.render(cartID), nil
}
