package cart

import "github.com/homura-labs/storefront/pkg/shopify"

const sizeAttributeKey = "Size"

func itemsFromCart(cart *shopify.Cart) []Item {
	if cart == nil {
		return nil
	}
	items := make([]Item, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		size := ResolveSize(line)
		item := Item{
			ID:        line.ID,
			VariantID: line.Merchandise.ID,
			Title:     line.Merchandise.ProductTitle,
			Price:     line.Merchandise.Price.Amount,
			Quantity:  line.Quantity,
			Size:      size,
			UniqueKey: UniqueKey(line.Merchandise.ID, size),
		}
		if line.Merchandise.Image != nil {
			item.Image = line.Merchandise.Image.URL
		}
		items = append(items, item)
	}
	return items
}

func lineInput(item NewItem) shopify.LineInput {
	in := shopify.LineInput{MerchandiseID: item.VariantID, Quantity: item.Quantity}
	if item.Size != "" {
		in.Attributes = []shopify.Attribute{{Key: sizeAttributeKey, Value: item.Size}}
	}
	return in
}
