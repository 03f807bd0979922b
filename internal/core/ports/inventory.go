package ports

import "context"

const ProductStatusActive = "active"

// ProductVariant is the available amount of one size/color combination.
type ProductVariant struct {
	Size   string `json:"size"`
	Color  string `json:"color"`
	Amount uint64 `json:"amount"`
}

// Product is the snapshot of a listed product as returned by the catalog.
type Product struct {
	Id       string           `json:"id"`
	OwnerId  string           `json:"ownerId"`
	Status   string           `json:"status"`
	Variants []ProductVariant `json:"variants"`
}

// IsActive ...
func (p Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// Variant returns the variant matching size and color, if any.
func (p Product) Variant(size, color string) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.Size == size && v.Color == color {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// InventoryProvider returns the current snapshot of a product. It returns a
// nil product and no error if the product does not exist.
type InventoryProvider interface {
	GetProduct(ctx context.Context, productId string) (*Product, error)
}
