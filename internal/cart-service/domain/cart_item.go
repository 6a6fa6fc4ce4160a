package domain

import (
	"errors"
	"fmt"

	"github.com/jcmexdev/storefront/internal/catalog"
)

var (
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
	ErrUnknownProduct  = errors.New("cart: unknown product")
	ErrUnknownVariant  = errors.New("cart: unknown variant")
)

// CartItem is one line of the cart. Price is the unit price captured when the
// line was first added.
type CartItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
	Variant   string `json:"variant,omitempty"`
}

func (i CartItem) LinePrice() int64  { return i.Price }
func (i CartItem) LineQuantity() int { return i.Quantity }

// SameLine reports whether o targets the same (product, variant) pair.
func (i CartItem) SameLine(o CartItem) bool {
	return i.ProductID == o.ProductID && i.VariantID == o.VariantID
}

// LineID is the variant id when present, else the product id.
func LineID(productID, variantID string) string {
	if variantID != "" {
		return variantID
	}
	return productID
}

// NewCartItem snapshots a catalog product (and optional variant) into a line.
func NewCartItem(p catalog.Product, variantID string, quantity int) (CartItem, error) {
	if quantity < 1 {
		return CartItem{}, ErrInvalidQuantity
	}

	item := CartItem{
		ID:        LineID(p.ID, variantID),
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Quantity:  quantity,
	}
	if len(p.Images) > 0 {
		item.Image = p.Images[0]
	}
	if variantID != "" {
		v, ok := p.Variant(variantID)
		if !ok {
			return CartItem{}, fmt.Errorf("%w: %s/%s", ErrUnknownVariant, p.ID, variantID)
		}
		item.VariantID = v.ID
		item.Variant = v.Title
		item.Price = v.Price
	}
	return item, nil
}
