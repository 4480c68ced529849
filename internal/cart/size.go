package cart

import (
	"strings"

	"github.com/homura-labs/storefront/pkg/shopify"
)

var sizeLabels = map[string]struct{}{
	"S":           {},
	"M":           {},
	"L":           {},
	"XL":          {},
	"Small":       {},
	"Medium":      {},
	"Large":       {},
	"Extra Large": {},
}

// ResolveSize derives the display size of a remote line. The selected option
// wins, then a size attribute, then the variant title when it is a size label.
func ResolveSize(line shopify.CartLine) string {
	for _, opt := range line.Merchandise.SelectedOptions {
		name := strings.ToLower(strings.TrimSpace(opt.Name))
		if (name == "size" || name == "title") && opt.Value != "" {
			return opt.Value
		}
	}
	for _, attr := range line.Attributes {
		if strings.EqualFold(strings.TrimSpace(attr.Key), "size") && attr.Value != "" {
			return attr.Value
		}
	}
	if _, ok := sizeLabels[line.Merchandise.Title]; ok {
		return line.Merchandise.Title
	}
	return ""
}
