package catalog

import (
	"testing"

	"github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/shopify"
)

func TestResolveVariantMatchesAllOptions(t *testing.T) {
	tee := sampleProducts()[0]

	v, ok := ResolveVariant(tee, map[string]string{"Size": "M", "Color": "White"})
	if !ok || v.ID != "V3" {
		t.Fatalf("expected V3, got %+v", v)
	}
	if _, ok := ResolveVariant(tee, map[string]string{"Size": "M"}); ok {
		t.Fatalf("expected no match for partial options")
	}
}

func TestSizeOf(t *testing.T) {
	if got := SizeOf(shopify.Variant{SelectedOptions: []shopify.SelectedOption{{Name: "Title", Value: "One Size"}, {Name: "size", Value: "S"}}}); got != "S" {
		t.Fatalf("expected size option to win, got %q", got)
	}
	if got := SizeOf(shopify.Variant{SelectedOptions: []shopify.SelectedOption{{Name: "Title", Value: "One Size"}}}); got != "One Size" {
		t.Fatalf("expected title fallback, got %q", got)
	}
	if got := SizeOf(shopify.Variant{}); got != "" {
		t.Fatalf("expected empty size, got %q", got)
	}
}

func TestSelectVariant(t *testing.T) {
	products := sampleProducts()
	tee, hat := products[0], products[1]

	v, err := SelectVariant(tee, "", map[string]string{"Size": "M", "Color": "Black"})
	if err != nil || v.ID != "V1" {
		t.Fatalf("expected V1, got %+v (%v)", v, err)
	}

	v, err = SelectVariant(tee, "m", nil)
	if err != nil || v.ID != "V1" {
		t.Fatalf("expected first M variant, got %+v (%v)", v, err)
	}

	_, err = SelectVariant(tee, "L", nil)
	if !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("expected unavailable variant to be rejected, got %v", err)
	}

	_, err = SelectVariant(tee, "", nil)
	if !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("expected ambiguous selection to be rejected, got %v", err)
	}

	v, err = SelectVariant(hat, "", nil)
	if err != nil || v.ID != "C1" {
		t.Fatalf("expected single variant, got %+v (%v)", v, err)
	}
}
