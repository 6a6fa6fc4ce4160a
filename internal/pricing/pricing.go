// Package pricing computes checkout totals from line items.
//
// Amounts are whole-rupee integers. The only rounding performed anywhere in
// the pricing path is the GST computation in Tax.
package pricing

import "github.com/shopspring/decimal"

const (
	// FreeShippingThreshold is the subtotal above which shipping is free.
	FreeShippingThreshold int64 = 2000
	// FlatShippingFee is charged when the subtotal does not exceed the threshold.
	FlatShippingFee int64 = 200
)

// gstRate is the 18% Goods and Services Tax.
var gstRate = decimal.RequireFromString("0.18")

// Line is anything priced as unit price times quantity.
type Line interface {
	LinePrice() int64
	LineQuantity() int
}

// Breakdown is the full set of derived financial fields for a checkout.
type Breakdown struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// Subtotal returns the sum of price * quantity over items.
func Subtotal[L Line](items []L) int64 {
	var sum int64
	for _, it := range items {
		sum += it.LinePrice() * int64(it.LineQuantity())
	}
	return sum
}

// ShippingFee returns 0 when subtotal is strictly above FreeShippingThreshold.
func ShippingFee(subtotal int64) int64 {
	if subtotal > FreeShippingThreshold {
		return 0
	}
	return FlatShippingFee
}

// Tax returns round(base * 0.18), rounding halves away from zero.
func Tax(base int64) int64 {
	return decimal.NewFromInt(base).Mul(gstRate).Round(0).IntPart()
}

// Total is subtotal - discount + shipping + tax.
func Total(subtotal, discount, shipping, tax int64) int64 {
	return subtotal - discount + shipping + tax
}

// Quote prices items with an already computed discount. Tax is applied to the
// discount-adjusted subtotal; with no discount that is the raw subtotal.
// Shipping is decided on the pre-discount subtotal.
func Quote[L Line](items []L, discount int64) Breakdown {
	subtotal := Subtotal(items)
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	shipping := ShippingFee(subtotal)
	tax := Tax(subtotal - discount)

	return Breakdown{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Tax:      tax,
		Total:    Total(subtotal, discount, shipping, tax),
	}
}

// Consistent reports whether b satisfies Total == Subtotal - Discount + Shipping + Tax.
func (b Breakdown) Consistent() bool {
	return b.Total == Total(b.Subtotal, b.Discount, b.Shipping, b.Tax)
}
