package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	CurrencyINR = "INR"

	// DeliveryWindow is added to the shipping time to estimate delivery.
	DeliveryWindow = 7 * 24 * time.Hour
)

var ErrInvalidAddress = errors.New("order: invalid shipping address")

type Order struct {
	ID                string          `json:"id"`
	Items             []OrderItem     `json:"items"`
	Subtotal          int64           `json:"subtotal"`
	Discount          int64           `json:"discount"`
	CouponCode        string          `json:"couponCode,omitempty"`
	Shipping          int64           `json:"shipping"`
	Tax               int64           `json:"tax"`
	Total             int64           `json:"total"`
	Currency          string          `json:"currency"`
	ShippingAddress   ShippingAddress `json:"shippingAddress"`
	Status            OrderStatus     `json:"status"`
	PaymentStatus     PaymentStatus   `json:"paymentStatus"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	// PaymentRef is the gateway reference the total was charged under.
	PaymentRef string `json:"paymentRef,omitempty"`
}

// Clone returns a deep copy; the items slice and delivery pointer are not shared.
func (o Order) Clone() Order {
	out := o
	out.Items = make([]OrderItem, len(o.Items))
	copy(out.Items, o.Items)
	if o.EstimatedDelivery != nil {
		t := *o.EstimatedDelivery
		out.EstimatedDelivery = &t
	}
	return out
}

// Balanced reports whether total == subtotal - discount + shipping + tax.
func (o Order) Balanced() bool {
	return o.Total == o.Subtotal-o.Discount+o.Shipping+o.Tax
}

// OrderItem is the purchase-time snapshot of a cart line.
type OrderItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image"`
	Variant   string `json:"variant,omitempty"`
}

func (i OrderItem) LinePrice() int64  { return i.Price }
func (i OrderItem) LineQuantity() int { return i.Quantity }

type ShippingAddress struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// Normalize trims every field and defaults the country to India.
func (a ShippingAddress) Normalize() ShippingAddress {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.TrimSpace(a.Pincode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = "India"
	}
	return a
}

// Validate requires every field and a parseable email. Call it on a
// normalized address.
func (a ShippingAddress) Validate() error {
	fields := []struct{ name, value string }{
		{"name", a.Name},
		{"email", a.Email},
		{"phone", a.Phone},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"pincode", a.Pincode},
		{"country", a.Country},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidAddress, f.name)
		}
	}
	if _, err := mail.ParseAddress(a.Email); err != nil {
		return fmt.Errorf("%w: email %q", ErrInvalidAddress, a.Email)
	}
	return nil
}

// Draft is an order before the store assigns id and timestamps.
type Draft struct {
	Items           []OrderItem
	Subtotal        int64
	Discount        int64
	CouponCode      string
	Shipping        int64
	Tax             int64
	Total           int64
	Currency        string
	ShippingAddress ShippingAddress
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	PaymentRef      string
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// Lifecycle is the forward sequence an order moves through.
var Lifecycle = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
}

// Statuses lists every status, cancelled last.
var Statuses = append(append([]OrderStatus(nil), Lifecycle...), StatusCancelled)

func ParseStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

func (s OrderStatus) rank() int {
	for i, st := range Lifecycle {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Next returns the status that follows s in the lifecycle.
func (s OrderStatus) Next() (OrderStatus, bool) {
	r := s.rank()
	if r < 0 || r+1 >= len(Lifecycle) {
		return "", false
	}
	return Lifecycle[r+1], true
}

// CanTransition reports whether an order in from may be set to to.
// Re-applying the current status is allowed. Otherwise the order moves one
// step forward, or to cancelled from any non-terminal status.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	next, ok := from.Next()
	return ok && next == to
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch p := PaymentStatus(strings.ToLower(strings.TrimSpace(s))); p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return p, true
	}
	return "", false
}
