package catalog

import (
	"strings"

	"github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/shopify"
)

// ResolveVariant returns the variant whose selected options all match.
func ResolveVariant(product shopify.Product, options map[string]string) (*shopify.Variant, bool) {
	for i := range product.Variants {
		v := &product.Variants[i]
		if len(v.SelectedOptions) == 0 {
			continue
		}
		matched := true
		for _, opt := range v.SelectedOptions {
			if options[opt.Name] != opt.Value {
				matched = false
				break
			}
		}
		if matched {
			return v, true
		}
	}
	return nil, false
}

// SizeOf reports the size label of a variant: its Size option, else its
// Title option.
func SizeOf(v shopify.Variant) string {
	var title string
	for _, opt := range v.SelectedOptions {
		switch {
		case strings.EqualFold(opt.Name, "size"):
			return opt.Value
		case strings.EqualFold(opt.Name, "title"):
			title = opt.Value
		}
	}
	return title
}

// AvailableSizes lists, in catalog order, the sizes of variants that can be sold.
func AvailableSizes(p shopify.Product) []string {
	seen := make(map[string]struct{})
	sizes := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		if !v.AvailableForSale {
			continue
		}
		size := SizeOf(v)
		if size == "" {
			continue
		}
		if _, ok := seen[size]; ok {
			continue
		}
		seen[size] = struct{}{}
		sizes = append(sizes, size)
	}
	return sizes
}

// SelectVariant picks the variant a shopper asked for by explicit options or
// by size. A product with a single variant needs neither. The variant must be
// available for sale.
func SelectVariant(p shopify.Product, size string, options map[string]string) (*shopify.Variant, error) {
	var variant *shopify.Variant
	switch {
	case len(options) > 0:
		variant, _ = ResolveVariant(p, options)
	case strings.TrimSpace(size) != "":
		for i := range p.Variants {
			if strings.EqualFold(SizeOf(p.Variants[i]), strings.TrimSpace(size)) {
				variant = &p.Variants[i]
				break
			}
		}
	case len(p.Variants) == 1:
		variant = &p.Variants[0]
	}
	if variant == nil {
		return nil, errors.New(errors.CodeValidation, "no variant matches the selected options").
			WithDetails(map[string]any{"handle": p.Handle})
	}
	if !variant.AvailableForSale {
		return nil, errors.New(errors.CodeValidation, "selected variant is not available for sale").
			WithDetails(map[string]any{"variant_id": variant.ID})
	}
	return variant, nil
}
