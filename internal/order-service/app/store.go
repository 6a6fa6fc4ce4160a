package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jcmexdev/storefront/internal/order-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/events"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
	"github.com/jcmexdev/storefront/internal/pricing"
)

// StorageKey is the key the order collection is persisted under.
const StorageKey = "orders"

var (
	ErrNoItems    = errors.New("order: draft has no items")
	ErrUnbalanced = errors.New("order: total does not match subtotal - discount + shipping + tax")
)

type Stats struct {
	TotalOrders       int                        `json:"totalOrders"`
	TotalSpent        int64                      `json:"totalSpent"`
	AverageOrderValue float64                    `json:"averageOrderValue"`
	CountByStatus     map[domain.OrderStatus]int `json:"ordersByStatus"`
}

type Option func(*Store)

func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPublisher sends an event for every created or updated order.
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) { s.pub = p }
}

type updateParams struct {
	payment domain.PaymentStatus
}

type UpdateOption func(*updateParams)

func WithPaymentStatus(p domain.PaymentStatus) UpdateOption {
	return func(u *updateParams) { u.payment = p }
}

// Store holds every order in memory and writes the whole collection through
// to kv on each mutation. There is one writer per process.
type Store struct {
	log *slog.Logger
	kv  kvstore.Store
	ids IDGenerator
	now func() time.Time
	pub events.Publisher

	mu     sync.RWMutex
	orders []domain.Order
}

func NewStore(ctx context.Context, log *slog.Logger, kv kvstore.Store, opts ...Option) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		log: log.With("component", "orders"),
		kv:  kv,
		now: time.Now,
		pub: events.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = NewTimeRandIDs(s.now, nil)
	}
	s.orders = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []domain.Order {
	raw, ok, err := s.kv.Read(ctx, StorageKey)
	if err != nil {
		s.log.WarnContext(ctx, "orders: read failed, starting empty", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var orders []domain.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		s.log.WarnContext(ctx, "orders: corrupt storage, starting empty", "error", err)
		return nil
	}
	return orders
}

// Create assigns an id and timestamps to d and stores it. Items are copied,
// so later changes to d do not reach the stored order.
func (s *Store) Create(ctx context.Context, d domain.Draft) (domain.Order, error) {
	if len(d.Items) == 0 {
		return domain.Order{}, ErrNoItems
	}
	if d.Total != pricing.Total(d.Subtotal, d.Discount, d.Shipping, d.Tax) {
		return domain.Order{}, fmt.Errorf("%w: got %d", ErrUnbalanced, d.Total)
	}

	o := domain.Order{
		Items:           append([]domain.OrderItem(nil), d.Items...),
		Subtotal:        d.Subtotal,
		Discount:        d.Discount,
		CouponCode:      d.CouponCode,
		Shipping:        d.Shipping,
		Tax:             d.Tax,
		Total:           d.Total,
		Currency:        d.Currency,
		ShippingAddress: d.ShippingAddress,
		Status:          d.Status,
		PaymentStatus:   d.PaymentStatus,
		PaymentRef:      d.PaymentRef,
	}
	if o.Currency == "" {
		o.Currency = domain.CurrencyINR
	}
	if o.Status == "" {
		o.Status = domain.StatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = domain.PaymentPending
	}

	s.mu.Lock()
	o.ID = s.uniqueID()
	o.CreatedAt = s.now().UTC()
	o.UpdatedAt = o.CreatedAt
	s.orders = append(s.orders, o)
	s.persist(ctx)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "order created", "order_id", o.ID, "total", o.Total)
	s.publish(ctx, events.OrderCreated, o)
	return o.Clone(), nil
}

// uniqueID must be called with mu held.
func (s *Store) uniqueID() string {
	for {
		id := s.ids.OrderID()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *Store) List() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(domain.Order) bool { return true })
}

func (s *Store) Get(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Order{}, false
	}
	return s.orders[i].Clone(), true
}

func (s *Store) ListByStatus(status domain.OrderStatus) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(o domain.Order) bool { return o.Status == status })
}

// ListRecent returns up to limit orders, newest first. limit <= 0 means all.
func (s *Store) ListRecent(limit int) []domain.Order {
	s.mu.RLock()
	out := make([]domain.Order, 0, len(s.orders))
	for i := len(s.orders) - 1; i >= 0; i-- {
		out = append(out, s.orders[i].Clone())
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{CountByStatus: make(map[domain.OrderStatus]int)}
	for _, o := range s.orders {
		st.TotalOrders++
		st.TotalSpent += o.Total
		st.CountByStatus[o.Status]++
	}
	if st.TotalOrders > 0 {
		st.AverageOrderValue = float64(st.TotalSpent) / float64(st.TotalOrders)
	}
	return st
}

// UpdateStatus moves order id to status and refreshes UpdatedAt. The first
// entry into shipped assigns the tracking number and estimated delivery.
// It returns false, leaving the store untouched, when the order is unknown or
// the transition is not allowed.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, opts ...UpdateOption) bool {
	var p updateParams
	for _, opt := range opts {
		opt(&p)
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.log.DebugContext(ctx, "orders: update of unknown order", "order_id", id, "status", status)
		return false
	}

	o := s.orders[i].Clone()
	if !domain.CanTransition(o.Status, status) {
		s.mu.Unlock()
		s.log.WarnContext(ctx, "orders: transition rejected", "order_id", id, "from", o.Status, "to", status)
		return false
	}

	now := s.now().UTC()
	if now.Before(o.UpdatedAt) {
		now = o.UpdatedAt
	}
	o.Status = status
	o.UpdatedAt = now
	if p.payment != "" {
		o.PaymentStatus = p.payment
	}
	if status == domain.StatusShipped && o.TrackingNumber == "" {
		eta := now.Add(domain.DeliveryWindow)
		o.EstimatedDelivery = &eta
		o.TrackingNumber = s.ids.TrackingNumber()
	}

	s.orders[i] = o
	s.persist(ctx)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "order status updated", "order_id", id, "status", status)
	typ := events.OrderStatusChanged
	if status == domain.StatusCancelled {
		typ = events.OrderCancelled
	}
	s.publish(ctx, typ, o)
	return true
}

// Cancel moves a non-terminal order to cancelled; a paid order is marked
// refunded.
func (s *Store) Cancel(ctx context.Context, id string) bool {
	o, ok := s.Get(id)
	if !ok || o.Status.IsTerminal() {
		return false
	}
	var opts []UpdateOption
	if o.PaymentStatus == domain.PaymentPaid {
		opts = append(opts, WithPaymentStatus(domain.PaymentRefunded))
	}
	return s.UpdateStatus(ctx, id, domain.StatusCancelled, opts...)
}

// filter must be called with mu held.
func (s *Store) filter(keep func(domain.Order) bool) []domain.Order {
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	return out
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// persist must be called with mu held. The write outlives ctx's
// cancellation: the in-memory change has already happened.
func (s *Store) persist(ctx context.Context) {
	orders := s.orders
	if orders == nil {
		orders = []domain.Order{}
	}
	raw, err := json.Marshal(orders)
	if err != nil {
		s.log.ErrorContext(ctx, "orders: encode failed", "error", err)
		return
	}
	if err := s.kv.Write(context.WithoutCancel(ctx), StorageKey, string(raw)); err != nil {
		s.log.ErrorContext(ctx, "orders: write failed", "error", err)
	}
}

func (s *Store) publish(ctx context.Context, typ events.Type, o domain.Order) {
	e := events.Event{
		Type:           typ,
		OrderID:        o.ID,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		TrackingNumber: o.TrackingNumber,
		OccurredAt:     o.UpdatedAt,
	}
	if err := s.pub.Publish(ctx, e); err != nil {
		s.log.WarnContext(ctx, "orders: publish failed", "order_id", o.ID, "type", typ, "error", err)
	}
}
