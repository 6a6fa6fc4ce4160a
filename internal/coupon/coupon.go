// Package coupon validates discount codes against a fixed catalog.
package coupon

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

// Coupon is a named discount rule. Code is unique ignoring case.
type Coupon struct {
	Code        string `json:"code"`
	Type        Type   `json:"type"`
	Value       int64  `json:"value"`
	Description string `json:"description"`
	// MinAmount and MaxDiscount are ignored when zero.
	MinAmount   int64 `json:"min_amount,omitempty"`
	MaxDiscount int64 `json:"max_discount,omitempty"`
}

// ErrorKind classifies a rejected coupon.
type ErrorKind int

const (
	InvalidCode ErrorKind = iota
	MinimumNotMet
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCode:
		return "INVALID_COUPON_CODE"
	case MinimumNotMet:
		return "COUPON_MINIMUM_NOT_MET"
	default:
		return "UNKNOWN"
	}
}

// Error is a user-correctable coupon rejection.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// DefaultCoupons is the catalog shipped with the storefront.
var DefaultCoupons = []Coupon{
	{
		Code:        "FIRST10",
		Type:        TypePercentage,
		Value:       10,
		Description: "10% off for first-time customers",
		MinAmount:   1000,
	},
	{
		Code:        "SAVE15",
		Type:        TypePercentage,
		Value:       15,
		Description: "15% off on orders above ₹10000",
		MinAmount:   10000,
		MaxDiscount: 2000,
	},
}

// Catalog is a read-only set of coupons.
type Catalog struct {
	coupons []Coupon
}

func NewCatalog(coupons []Coupon) *Catalog {
	cp := make([]Coupon, len(coupons))
	copy(cp, coupons)
	return &Catalog{coupons: cp}
}

// DefaultCatalog returns a catalog holding DefaultCoupons.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultCoupons)
}

// Lookup finds a coupon by case-insensitive exact code match.
func (c *Catalog) Lookup(code string) (Coupon, bool) {
	code = strings.TrimSpace(code)
	for _, cp := range c.coupons {
		if strings.EqualFold(cp.Code, code) {
			return cp, true
		}
	}
	return Coupon{}, false
}

// Codes lists the catalog codes in catalog order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.coupons))
	for i, cp := range c.coupons {
		out[i] = cp.Code
	}
	return out
}

// Validate checks code against subtotal, the pre-discount cart subtotal.
// A non-nil error is always a *Error.
func (c *Catalog) Validate(code string, subtotal int64) (Coupon, error) {
	cp, ok := c.Lookup(code)
	if !ok {
		return Coupon{}, &Error{Kind: InvalidCode, Code: code, Message: "Invalid coupon code"}
	}
	if cp.MinAmount > 0 && subtotal < cp.MinAmount {
		return Coupon{}, &Error{
			Kind:    MinimumNotMet,
			Code:    cp.Code,
			Message: fmt.Sprintf("Minimum order amount ₹%d required", cp.MinAmount),
		}
	}
	return cp, nil
}

// Discount returns the discount cp grants on subtotal. Percentage discounts are
// truncated to whole units and capped at MaxDiscount. The result never exceeds
// subtotal.
func Discount(cp Coupon, subtotal int64) int64 {
	var d int64
	switch cp.Type {
	case TypePercentage:
		d = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(cp.Value)).
			Div(decimal.NewFromInt(100)).
			Truncate(0).
			IntPart()
		if cp.MaxDiscount > 0 && d > cp.MaxDiscount {
			d = cp.MaxDiscount
		}
	case TypeFixed:
		d = cp.Value
	}
	if d < 0 {
		return 0
	}
	if d > subtotal {
		return subtotal
	}
	return d
}
