package shopify

import "github.com/shopspring/decimal"

// Money mirrors the Storefront MoneyV2 object.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// Image is a product or collection image.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

// SelectedOption is one name/value pair chosen by a variant.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Attribute is a custom key/value pair attached to a cart line.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ProductOption lists the values a product exposes for one option name.
type ProductOption struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Price            Money            `json:"price"`
	AvailableForSale bool             `json:"availableForSale"`
	SelectedOptions  []SelectedOption `json:"selectedOptions"`
}

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Handle      string          `json:"handle"`
	Description string          `json:"description"`
	Images      []Image         `json:"images"`
	MinPrice    Money           `json:"minPrice"`
	Variants    []Variant       `json:"variants"`
	Options     []ProductOption `json:"options,omitempty"`
}

type Collection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	Description string `json:"description"`
	Image       *Image `json:"image,omitempty"`
}

// Merchandise is the product variant a cart line points at.
type Merchandise struct {
	ID              string
	Title           string
	Price           Money
	SelectedOptions []SelectedOption
	ProductTitle    string
	Image           *Image
}

type CartLine struct {
	ID          string
	Quantity    int
	Merchandise Merchandise
	Attributes  []Attribute
}

type CartCost struct {
	Total    Money
	Subtotal Money
	Tax      *Money
}

// Cart is the remote cart resource as returned by the platform.
type Cart struct {
	ID          string
	CheckoutURL string
	CreatedAt   string
	UpdatedAt   string
	Lines       []CartLine
	Cost        CartCost
}

// LineInput adds a variant to a cart.
type LineInput struct {
	MerchandiseID string      `json:"merchandiseId"`
	Quantity      int         `json:"quantity"`
	Attributes    []Attribute `json:"attributes,omitempty"`
}

// LineUpdate sets the quantity of an existing line.
type LineUpdate struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// UserError is a field-level error returned by cart mutations.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

func (c connection[T]) nodes() []T {
	out := make([]T, 0, len(c.Edges))
	for _, edge := range c.Edges {
		out = append(out, edge.Node)
	}
	return out
}

type wireProduct struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Handle      string            `json:"handle"`
	Description string            `json:"description"`
	Images      connection[Image] `json:"images"`
	PriceRange  struct {
		MinVariantPrice Money `json:"minVariantPrice"`
	} `json:"priceRange"`
	Variants connection[Variant] `json:"variants"`
	Options  []ProductOption     `json:"options"`
}

func (p wireProduct) toProduct() Product {
	return Product{
		ID:          p.ID,
		Title:       p.Title,
		Handle:      p.Handle,
		Description: p.Description,
		Images:      p.Images.nodes(),
		MinPrice:    p.PriceRange.MinVariantPrice,
		Variants:    p.Variants.nodes(),
		Options:     p.Options,
	}
}

type wireCartLine struct {
	ID          string `json:"id"`
	Quantity    int    `json:"quantity"`
	Merchandise struct {
		ID              string           `json:"id"`
		Title           string           `json:"title"`
		Price           Money            `json:"price"`
		SelectedOptions []SelectedOption `json:"selectedOptions"`
		Product         struct {
			Title  string            `json:"title"`
			Images connection[Image] `json:"images"`
		} `json:"product"`
	} `json:"merchandise"`
	Attributes []Attribute `json:"attributes"`
}

type wireCart struct {
	ID          string                   `json:"id"`
	CheckoutURL string                   `json:"checkoutUrl"`
	CreatedAt   string                   `json:"createdAt"`
	UpdatedAt   string                   `json:"updatedAt"`
	Lines       connection[wireCartLine] `json:"lines"`
	Cost        struct {
		TotalAmount    Money  `json:"totalAmount"`
		SubtotalAmount Money  `json:"subtotalAmount"`
		TotalTaxAmount *Money `json:"totalTaxAmount"`
	} `json:"cost"`
}

func (w *wireCart) toCart() *Cart {
	if w == nil {
		return nil
	}
	lines := make([]CartLine, 0, len(w.Lines.Edges))
	for _, node := range w.Lines.nodes() {
		merch := Merchandise{
			ID:              node.Merchandise.ID,
			Title:           node.Merchandise.Title,
			Price:           node.Merchandise.Price,
			SelectedOptions: node.Merchandise.SelectedOptions,
			ProductTitle:    node.Merchandise.Product.Title,
		}
		if images := node.Merchandise.Product.Images.nodes(); len(images) > 0 {
			img := images[0]
			merch.Image = &img
		}
		lines = append(lines, CartLine{
			ID:          node.ID,
			Quantity:    node.Quantity,
			Merchandise: merch,
			Attributes:  node.Attributes,
		})
	}
	return &Cart{
		ID:          w.ID,
		CheckoutURL: w.CheckoutURL,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		Lines:       lines,
		Cost: CartCost{
			Total:    w.Cost.TotalAmount,
			Subtotal: w.Cost.SubtotalAmount,
			Tax:      w.Cost.TotalTaxAmount,
		},
	}
}

type cartPayload struct {
	Cart       *wireCart   `json:"cart"`
	UserErrors []UserError `json:"userErrors"`
}
