// Package ports declares what the HTTP layer needs from the storefront core.
package ports

import (
	"context"

	cartdomain "github.com/jcmexdev/storefront/internal/cart-service/domain"
	"github.com/jcmexdev/storefront/internal/catalog"
	"github.com/jcmexdev/storefront/internal/checkout"
	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	orderapp "github.com/jcmexdev/storefront/internal/order-service/app"
	"github.com/jcmexdev/storefront/internal/order-service/domain"
)

type Catalog interface {
	Search(q catalog.Query) []catalog.Product
	Product(id string) (catalog.Product, bool)
	Brands() []string
	Categories() []string
}

type CartService interface {
	Items() []cartdomain.CartItem
	Add(ctx context.Context, item cartdomain.CartItem) error
	UpdateQuantity(ctx context.Context, id string, quantity int) bool
	Remove(ctx context.Context, id string)
	Clear(ctx context.Context)
	TotalItems() int
	TotalPrice() int64
}

type CheckoutService interface {
	Quote() checkout.Quote
	ApplyCoupon(code string) (checkout.Quote, error)
	RemoveCoupon() checkout.Quote
	Submit(ctx context.Context, addr domain.ShippingAddress, idempotencyKey string) (checkout.Receipt, error)
	CancelOrder(ctx context.Context, orderID string) (domain.Order, error)
}

type OrderService interface {
	ListRecent(limit int) []domain.Order
	ListByStatus(status domain.OrderStatus) []domain.Order
	Get(id string) (domain.Order, bool)
	Stats() orderapp.Stats
}

type LifecycleLog interface {
	History(ctx context.Context, orderID string) ([]sagalog.Entry, error)
}
