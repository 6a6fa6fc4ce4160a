// Package checkout turns the cart into an order: coupon handling, the priced
// quote, payment and order creation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	cartdomain "github.com/jcmexdev/storefront/internal/cart-service/domain"
	"github.com/jcmexdev/storefront/internal/coupon"
	"github.com/jcmexdev/storefront/internal/order-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/idempotency"
	"github.com/jcmexdev/storefront/internal/pricing"
)

var (
	ErrEmptyCart       = errors.New("checkout: cart is empty")
	ErrInvalidAddress  = domain.ErrInvalidAddress
	ErrPaymentDeclined = errors.New("checkout: payment declined")
	ErrOrderNotFound   = errors.New("checkout: order not found")
	ErrNotCancellable  = errors.New("checkout: order cannot be cancelled")
)

type Cart interface {
	Items() []cartdomain.CartItem
	Subtract(ctx context.Context, lines []cartdomain.CartItem)
}

type Orders interface {
	Create(ctx context.Context, d domain.Draft) (domain.Order, error)
	Get(id string) (domain.Order, bool)
	Cancel(ctx context.Context, id string) bool
}

type PaymentGateway interface {
	Charge(ctx context.Context, ref string, amount int64) error
	Refund(ctx context.Context, ref string) int64
}

type Lifecycle interface {
	Start(ctx context.Context, orderID string) error
	Cancel(orderID string) bool
}

// Quote is the priced view of the current cart.
type Quote struct {
	pricing.Breakdown
	Items      []cartdomain.CartItem `json:"items"`
	CouponCode string                `json:"couponCode,omitempty"`
	// CouponNotice explains why an applied coupon is not counted.
	CouponNotice string `json:"couponNotice,omitempty"`
}

type Receipt struct {
	Order domain.Order
	// Replayed is set when the idempotency key matched an earlier submit.
	Replayed bool
}

type Service struct {
	log       *slog.Logger
	cart      Cart
	orders    Orders
	payments  PaymentGateway
	lifecycle Lifecycle
	coupons   *coupon.Catalog
	idem      idempotency.Store
	tracer    trace.Tracer

	// mu serializes coupon changes and submissions.
	mu     sync.Mutex
	coupon *coupon.Coupon
}

func NewService(
	log *slog.Logger,
	cart Cart,
	orders Orders,
	payments PaymentGateway,
	lifecycle Lifecycle,
	coupons *coupon.Catalog,
	idem idempotency.Store,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	if coupons == nil {
		coupons = coupon.DefaultCatalog()
	}
	if idem == nil {
		idem = idempotency.NewMemoryStore(0)
	}
	return &Service{
		log:       log.With("component", "checkout"),
		cart:      cart,
		orders:    orders,
		payments:  payments,
		lifecycle: lifecycle,
		coupons:   coupons,
		idem:      idem,
		tracer:    otel.Tracer("storefront/checkout"),
	}
}

// ApplyCoupon validates code against the current subtotal and replaces any
// previously applied coupon. Rejections are *coupon.Error.
func (s *Service) ApplyCoupon(code string) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.cart.Items()
	cp, err := s.coupons.Validate(code, pricing.Subtotal(items))
	if err != nil {
		return Quote{}, err
	}
	s.coupon = &cp
	return s.quote(items), nil
}

func (s *Service) RemoveCoupon() Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.coupon = nil
	return s.quote(s.cart.Items())
}

func (s *Service) Quote() Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quote(s.cart.Items())
}

// quote must be called with mu held. An applied coupon that no longer
// validates against the subtotal is left out.
func (s *Service) quote(items []cartdomain.CartItem) Quote {
	subtotal := pricing.Subtotal(items)
	q := Quote{Items: items}

	var discount int64
	if s.coupon != nil {
		cp, err := s.coupons.Validate(s.coupon.Code, subtotal)
		if err != nil {
			q.CouponNotice = err.Error()
		} else {
			discount = coupon.Discount(cp, subtotal)
			q.CouponCode = cp.Code
		}
	}
	q.Breakdown = pricing.Quote(items, discount)
	return q
}

// Submit charges the quoted total and creates the order. Nothing changes
// when the charge fails. On success the ordered lines and the coupon are
// cleared and the order's lifecycle is started. A repeated key returns the first order.
func (s *Service) Submit(ctx context.Context, addr domain.ShippingAddress, key string) (Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.submit")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		if orderID, ok, err := s.idem.Lookup(ctx, key); err != nil {
			s.log.WarnContext(ctx, "idempotency lookup failed", "error", err)
		} else if ok {
			if o, found := s.orders.Get(orderID); found {
				span.SetAttributes(attribute.Bool("checkout.replayed", true))
				return Receipt{Order: o, Replayed: true}, nil
			}
			s.log.WarnContext(ctx, "idempotency key points to a missing order, releasing it", "order_id", orderID)
			if err := s.idem.Forget(ctx, key); err != nil {
				s.log.WarnContext(ctx, "idempotency forget failed", "error", err)
			}
		}
	}

	items := s.cart.Items()
	if len(items) == 0 {
		return Receipt{}, ErrEmptyCart
	}
	addr = addr.Normalize()
	if err := addr.Validate(); err != nil {
		return Receipt{}, err
	}

	q := s.quote(items)
	span.SetAttributes(attribute.Int64("checkout.total", q.Total))

	// Each charge gets its own ref so a refund never covers another attempt.
	ref := uuid.NewString()
	if err := s.payments.Charge(ctx, ref, q.Total); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment failed")
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Receipt{}, fmt.Errorf("checkout: charge: %w", err)
		}
		s.log.WarnContext(ctx, "payment declined", "ref", ref, "error", err)
		return Receipt{}, fmt.Errorf("%w: %w", ErrPaymentDeclined, err)
	}

	o, err := s.orders.Create(ctx, domain.Draft{
		Items:           toOrderItems(items),
		Subtotal:        q.Subtotal,
		Discount:        q.Discount,
		CouponCode:      q.CouponCode,
		Shipping:        q.Shipping,
		Tax:             q.Tax,
		Total:           q.Total,
		Currency:        domain.CurrencyINR,
		ShippingAddress: addr,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentPaid,
		PaymentRef:      ref,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order failed")
		return Receipt{}, fmt.Errorf("checkout: create order: %w", err)
	}
	span.SetAttributes(attribute.String("order.id", o.ID))

	// Lines added while the charge was in flight stay in the cart.
	s.cart.Subtract(ctx, items)
	s.coupon = nil

	if key != "" {
		if _, err := s.idem.Remember(ctx, key, o.ID); err != nil {
			s.log.WarnContext(ctx, "idempotency remember failed", "order_id", o.ID, "error", err)
		}
	}
	if err := s.lifecycle.Start(ctx, o.ID); err != nil {
		s.log.ErrorContext(ctx, "lifecycle not started", "order_id", o.ID, "error", err)
	}

	s.log.InfoContext(ctx, "order placed", "order_id", o.ID, "total", o.Total, "coupon", o.CouponCode)
	return Receipt{Order: o}, nil
}

// CancelOrder stops the order's lifecycle run, cancels it and refunds a
// paid charge. Delivered and cancelled orders return ErrNotCancellable.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (domain.Order, error) {
	o, ok := s.orders.Get(orderID)
	if !ok {
		return domain.Order{}, ErrOrderNotFound
	}
	if o.Status.IsTerminal() {
		return o, fmt.Errorf("%w: order is %s", ErrNotCancellable, o.Status)
	}

	s.lifecycle.Cancel(orderID)
	if !s.orders.Cancel(ctx, orderID) {
		return o, ErrNotCancellable
	}
	if o.PaymentStatus == domain.PaymentPaid && o.PaymentRef != "" {
		refunded := s.payments.Refund(ctx, o.PaymentRef)
		s.log.InfoContext(ctx, "order cancelled", "order_id", orderID, "refunded", refunded)
	}

	o, _ = s.orders.Get(orderID)
	return o, nil
}

func toOrderItems(items []cartdomain.CartItem) []domain.OrderItem {
	out := make([]domain.OrderItem, len(items))
	for i, it := range items {
		out[i] = domain.OrderItem{
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
