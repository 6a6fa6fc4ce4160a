package httpx

import (
	"time"

	cartdomain "github.com/jcmexdev/storefront/internal/cart-service/domain"
	"github.com/jcmexdev/storefront/internal/catalog"
	"github.com/jcmexdev/storefront/internal/checkout"
	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/storefront/internal/order-service/domain"
)

type ProductListResponse struct {
	Products   []catalog.Product `json:"products"`
	Total      int               `json:"total"`
	Brands     []string          `json:"brands"`
	Categories []string          `json:"categories"`
}

type AddCartItemRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Items      []cartdomain.CartItem `json:"items"`
	TotalItems int                   `json:"totalItems"`
	TotalPrice int64                 `json:"totalPrice"`
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}

type QuoteResponse struct {
	Items        []cartdomain.CartItem `json:"items"`
	Subtotal     int64                 `json:"subtotal"`
	Discount     int64                 `json:"discount"`
	Shipping     int64                 `json:"shipping"`
	Tax          int64                 `json:"tax"`
	Total        int64                 `json:"total"`
	CouponCode   string                `json:"couponCode,omitempty"`
	CouponNotice string                `json:"couponNotice,omitempty"`
}

type ShippingAddressDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

type CheckoutRequest struct {
	ShippingAddress ShippingAddressDTO `json:"shippingAddress"`
}

type OrderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image"`
	Variant   string `json:"variant,omitempty"`
}

type OrderResponse struct {
	ID                string              `json:"id"`
	Items             []OrderItemResponse `json:"items"`
	Subtotal          int64               `json:"subtotal"`
	Discount          int64               `json:"discount"`
	CouponCode        string              `json:"couponCode,omitempty"`
	Shipping          int64               `json:"shipping"`
	Tax               int64               `json:"tax"`
	Total             int64               `json:"total"`
	Currency          string              `json:"currency"`
	ShippingAddress   ShippingAddressDTO  `json:"shippingAddress"`
	Status            string              `json:"status"`
	PaymentStatus     string              `json:"paymentStatus"`
	CreatedAt         string              `json:"createdAt"`
	UpdatedAt         string              `json:"updatedAt"`
	EstimatedDelivery string              `json:"estimatedDelivery,omitempty"`
	TrackingNumber    string              `json:"trackingNumber,omitempty"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type LifecycleEntryResponse struct {
	RunID       string   `json:"runId"`
	Status      string   `json:"status"`
	Step        string   `json:"step,omitempty"`
	OrderStatus string   `json:"orderStatus,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	TraceID     string   `json:"traceId,omitempty"`
	RecordedAt  string   `json:"recordedAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapQuote(q checkout.Quote) QuoteResponse {
	items := q.Items
	if items == nil {
		items = []cartdomain.CartItem{}
	}
	return QuoteResponse{
		Items:        items,
		Subtotal:     q.Subtotal,
		Discount:     q.Discount,
		Shipping:     q.Shipping,
		Tax:          q.Tax,
		Total:        q.Total,
		CouponCode:   q.CouponCode,
		CouponNotice: q.CouponNotice,
	}
}

func (a ShippingAddressDTO) toDomain() domain.ShippingAddress {
	return domain.ShippingAddress{
		Name:    a.Name,
		Email:   a.Email,
		Phone:   a.Phone,
		Address: a.Address,
		City:    a.City,
		State:   a.State,
		Pincode: a.Pincode,
		Country: a.Country,
	}
}

func mapAddress(a domain.ShippingAddress) ShippingAddressDTO {
	return ShippingAddressDTO{
		Name:    a.Name,
		Email:   a.Email,
		Phone:   a.Phone,
		Address: a.Address,
		City:    a.City,
		State:   a.State,
		Pincode: a.Pincode,
		Country: a.Country,
	}
}

func mapOrderToResponse(o domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		Items:           mapItems(o.Items),
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		CouponCode:      o.CouponCode,
		Shipping:        o.Shipping,
		Tax:             o.Tax,
		Total:           o.Total,
		Currency:        o.Currency,
		ShippingAddress: mapAddress(o.ShippingAddress),
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.Format(time.RFC3339),
		TrackingNumber:  o.TrackingNumber,
	}
	if o.EstimatedDelivery != nil {
		resp.EstimatedDelivery = o.EstimatedDelivery.Format(time.RFC3339)
	}
	return resp
}

func mapItems(items []domain.OrderItem) []OrderItemResponse {
	out := make([]OrderItemResponse, len(items))
	for i, it := range items {
		out[i] = OrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Title:     it.Title,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Image:     it.Image,
			Variant:   it.Variant,
		}
	}
	return out
}

func mapEntries(entries []sagalog.Entry) []LifecycleEntryResponse {
	out := make([]LifecycleEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = LifecycleEntryResponse{
			RunID:       e.RunID,
			Status:      string(e.Status),
			Step:        e.Step,
			OrderStatus: e.OrderStatus,
			Errors:      e.ErrorMessages,
			TraceID:     e.TraceID,
			RecordedAt:  e.RecordedAt.Format(time.RFC3339Nano),
		}
	}
	return out
}
