package cart

import (
	"testing"

	"github.com/homura-labs/storefront/pkg/shopify"
)

func TestResolveSize(t *testing.T) {
	cases := []struct {
		name string
		line shopify.CartLine
		want string
	}{
		{
			name: "selected option wins",
			line: shopify.CartLine{
				Merchandise: shopify.Merchandise{
					Title:           "Large",
					SelectedOptions: []shopify.SelectedOption{{Name: "Color", Value: "Red"}, {Name: "size", Value: "XL"}},
				},
				Attributes: []shopify.Attribute{{Key: "Size", Value: "S"}},
			},
			want: "XL",
		},
		{
			name: "title option",
			line: shopify.CartLine{Merchandise: shopify.Merchandise{
				SelectedOptions: []shopify.SelectedOption{{Name: "Title", Value: "Medium"}},
			}},
			want: "Medium",
		},
		{
			name: "attribute fallback",
			line: shopify.CartLine{
				Merchandise: shopify.Merchandise{Title: "Default Title"},
				Attributes:  []shopify.Attribute{{Key: "SIZE", Value: "S"}},
			},
			want: "S",
		},
		{
			name: "variant title label",
			line: shopify.CartLine{Merchandise: shopify.Merchandise{Title: "Extra Large"}},
			want: "Extra Large",
		},
		{
			name: "unrecognized title",
			line: shopify.CartLine{Merchandise: shopify.Merchandise{Title: "Default Title"}},
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveSize(tc.line); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestUniqueKeyDefaultsSize(t *testing.T) {
	if got := UniqueKey("V1", ""); got != "V1-default" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := UniqueKey("V1", "M"); got != "V1-M" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestLineInputCarriesSizeAttribute(t *testing.T) {
	in := lineInput(NewItem{VariantID: "V1", Quantity: 2, Size: "M"})
	if in.MerchandiseID != "V1" || in.Quantity != 2 {
		t.Fatalf("unexpected line input %+v", in)
	}
	if len(in.Attributes) != 1 || in.Attributes[0].Key != "Size" || in.Attributes[0].Value != "M" {
		t.Fatalf("expected size attribute, got %+v", in.Attributes)
	}
	if got := lineInput(NewItem{VariantID: "V1", Quantity: 1}); len(got.Attributes) != 0 {
		t.Fatalf("expected no attributes without size")
	}
}
