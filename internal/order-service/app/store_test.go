package app

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/order-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/events"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
)

type seqIDs struct {
	mu      sync.Mutex
	n, trk  int
	repeats []string
}

func (g *seqIDs) OrderID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.repeats) > 0 {
		id := g.repeats[0]
		g.repeats = g.repeats[1:]
		return id
	}
	g.n++
	return fmt.Sprintf("ORD-%d", g.n)
}

func (g *seqIDs) TrackingNumber() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trk++
	return fmt.Sprintf("ADY%d", g.trk)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *recorder) Close() error { return nil }

var t0 = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, kv kvstore.Store) (*Store, *clock, *recorder) {
	t.Helper()
	c := &clock{t: t0}
	rec := &recorder{}
	s := NewStore(context.Background(), nil, kv,
		WithIDGenerator(&seqIDs{}),
		WithClock(c.Now),
		WithPublisher(rec),
	)
	return s, c, rec
}

func draft() domain.Draft {
	return domain.Draft{
		Items: []domain.OrderItem{
			{ID: "v1", ProductID: "p1", VariantID: "v1", Title: "Phone", Price: 10000, Quantity: 2},
		},
		Subtotal:      20000,
		Discount:      2000,
		CouponCode:    "SAVE15",
		Shipping:      0,
		Tax:           3240,
		Total:         21240,
		PaymentStatus: domain.PaymentPaid,
		ShippingAddress: domain.ShippingAddress{
			Name: "Asha", Email: "asha@example.com", City: "Pune",
		},
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newTestStore(t, kvstore.NewMemory())

	o, err := s.Create(ctx, draft())
	require.NoError(t, err)

	assert.Equal(t, "ORD-1", o.ID)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, domain.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, domain.CurrencyINR, o.Currency)
	assert.Equal(t, t0, o.CreatedAt)
	assert.Equal(t, t0, o.UpdatedAt)
	assert.True(t, o.Balanced())
	assert.Nil(t, o.EstimatedDelivery)
	assert.Empty(t, o.TrackingNumber)

	require.Len(t, rec.events, 1)
	assert.Equal(t, events.OrderCreated, rec.events[0].Type)
}

func TestCreateRejectsBadDrafts(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t, kvstore.NewMemory())

	d := draft()
	d.Items = nil
	_, err := s.Create(ctx, d)
	assert.ErrorIs(t, err, ErrNoItems)

	d = draft()
	d.Total++
	_, err = s.Create(ctx, d)
	assert.ErrorIs(t, err, ErrUnbalanced)

	assert.Empty(t, s.List())
}

func TestCreateCopiesItems(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t, kvstore.NewMemory())

	d := draft()
	o, err := s.Create(ctx, d)
	require.NoError(t, err)

	d.Items[0].Quantity = 99
	o.Items[0].Quantity = 42

	got, ok := s.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestCreateSkipsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	ids := &seqIDs{}
	s := NewStore(ctx, nil, kvstore.NewMemory(), WithIDGenerator(ids))

	first, err := s.Create(ctx, draft())
	require.NoError(t, err)

	ids.repeats = []string{first.ID}
	second, err := s.Create(ctx, draft())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestGetUnknown(t *testing.T) {
	s, _, _ := newTestStore(t, kvstore.NewMemory())
	_, ok := s.Get("ORD-NOPE")
	assert.False(t, ok)
}

func TestUpdateStatusForward(t *testing.T) {
	ctx := context.Background()
	s, c, rec := newTestStore(t, kvstore.NewMemory())
	o, err := s.Create(ctx, draft())
	require.NoError(t, err)

	c.Set(t0.Add(time.Minute))
	require.True(t, s.UpdateStatus(ctx, o.ID, domain.StatusConfirmed))
	got, _ := s.Get(o.ID)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.Equal(t, t0.Add(time.Minute), got.UpdatedAt)
	assert.Equal(t, t0, got.CreatedAt)

	require.True(t, s.UpdateStatus(ctx, o.ID, domain.StatusProcessing))

	shippedAt := t0.Add(time.Hour)
	c.Set(shippedAt)
	require.True(t, s.UpdateStatus(ctx, o.ID, domain.StatusShipped))
	got, _ = s.Get(o.ID)
	assert.Equal(t, "ADY1", got.TrackingNumber)
	require.NotNil(t, got.EstimatedDelivery)
	assert.Equal(t, shippedAt.Add(7*24*time.Hour), *got.EstimatedDelivery)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, events.OrderStatusChanged, last.Type)
	assert.Equal(t, "shipped", last.Status)
	assert.Equal(t, "ADY1", last.TrackingNumber)
}

func TestTrackingAssignedOnce(t *testing.T) {
	ctx := context.Background()
	s, c, _ := newTestStore(t, kvstore.NewMemory())
	o, _ := s.Create(ctx, draft())

	for _, st := range []domain.OrderStatus{domain.StatusConfirmed, domain.StatusProcessing, domain.StatusShipped} {
		require.True(t, s.UpdateStatus(ctx, o.ID, st))
	}
	first, _ := s.Get(o.ID)

	c.Set(t0.Add(48 * time.Hour))
	require.True(t, s.UpdateStatus(ctx, o.ID, domain.StatusShipped), "re-applying is idempotent")
	require.True(t, s.UpdateStatus(ctx, o.ID, domain.StatusDelivered))

	got, _ := s.Get(o.ID)
	assert.Equal(t, first.TrackingNumber, got.TrackingNumber)
	assert.Equal(t, *first.EstimatedDelivery, *got.EstimatedDelivery)
	assert.Equal(t, domain.StatusDelivered, got.Status)
}

func TestUpdateStatusRejections(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s, _, _ := newTestStore(t, kv)
	o, _ := s.Create(ctx, draft())

	before, _, _ := kv.Read(ctx, StorageKey)

	assert.False(t, s.UpdateStatus(ctx, "ORD-MISSING", domain.StatusConfirmed))
	assert.False(t, s.UpdateStatus(ctx, o.ID, domain.StatusShipped), "cannot skip states")

	after, _, _ := kv.Read(ctx, StorageKey)
	assert.Equal(t, before, after, "rejected updates leave storage untouched")

	got, _ := s.Get(o.ID)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestUpdatedAtNeverGoesBack(t *testing.T) {
	ctx := context.Background()
	s, c, _ := newTestStore(t, kvstore.NewMemory())
	o, _ := s.Create(ctx, draft())

	c.Set(t0.Add(-time.Hour))
	require.True(t, s.UpdateStatus(ctx, o.ID, domain.StatusConfirmed))

	got, _ := s.Get(o.ID)
	assert.Equal(t, t0, got.UpdatedAt)
}

func TestUpdateWithPaymentStatus(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t, kvstore.NewMemory())
	d := draft()
	d.PaymentStatus = domain.PaymentPending
	o, _ := s.Create(ctx, d)

	require.True(t, s.UpdateStatus(ctx, o.ID, domain.StatusConfirmed, WithPaymentStatus(domain.PaymentPaid)))
	got, _ := s.Get(o.ID)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newTestStore(t, kvstore.NewMemory())
	o, _ := s.Create(ctx, draft())

	require.True(t, s.Cancel(ctx, o.ID))
	got, _ := s.Get(o.ID)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, domain.PaymentRefunded, got.PaymentStatus)
	assert.Equal(t, events.OrderCancelled, rec.events[len(rec.events)-1].Type)

	assert.False(t, s.Cancel(ctx, o.ID), "already terminal")
	assert.False(t, s.UpdateStatus(ctx, o.ID, domain.StatusConfirmed))
	assert.False(t, s.Cancel(ctx, "ORD-MISSING"))
}

func TestListQueries(t *testing.T) {
	ctx := context.Background()
	s, c, _ := newTestStore(t, kvstore.NewMemory())

	var ids []string
	for i := 0; i < 3; i++ {
		c.Set(t0.Add(time.Duration(i) * time.Minute))
		o, err := s.Create(ctx, draft())
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	require.True(t, s.UpdateStatus(ctx, ids[1], domain.StatusConfirmed))

	assert.Len(t, s.List(), 3)

	pending := s.ListByStatus(domain.StatusPending)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[0], pending[0].ID)
	assert.Equal(t, ids[2], pending[1].ID)

	recent := s.ListRecent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)

	assert.Len(t, s.ListRecent(0), 3)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t, kvstore.NewMemory())

	empty := s.Stats()
	assert.Zero(t, empty.TotalOrders)
	assert.Zero(t, empty.AverageOrderValue)

	a, _ := s.Create(ctx, draft())
	small := domain.Draft{
		Items:    []domain.OrderItem{{ID: "p2", ProductID: "p2", Price: 1000, Quantity: 1}},
		Subtotal: 1000, Shipping: 200, Tax: 180, Total: 1380,
	}
	_, err := s.Create(ctx, small)
	require.NoError(t, err)
	require.True(t, s.UpdateStatus(ctx, a.ID, domain.StatusConfirmed))

	st := s.Stats()
	assert.Equal(t, 2, st.TotalOrders)
	assert.Equal(t, int64(22620), st.TotalSpent)
	assert.InDelta(t, 11310.0, st.AverageOrderValue, 0.001)
	assert.Equal(t, map[domain.OrderStatus]int{
		domain.StatusPending:   1,
		domain.StatusConfirmed: 1,
	}, st.CountByStatus)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s, _, _ := newTestStore(t, kv)

	o, _ := s.Create(ctx, draft())
	require.True(t, s.UpdateStatus(ctx, o.ID, domain.StatusConfirmed))

	reloaded, _, _ := newTestStore(t, kv)
	got, ok := reloaded.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.True(t, got.Balanced())

	raw, _, _ := kv.Read(ctx, StorageKey)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, o.ID, stored[0]["id"])
	assert.Equal(t, "SAVE15", stored[0]["couponCode"])
}

func TestWritesSurviveCancelledContext(t *testing.T) {
	kv, err := kvstore.OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, _, _ := newTestStore(t, kv)
	o, err := s.Create(ctx, draft())
	require.NoError(t, err)
	require.True(t, s.UpdateStatus(ctx, o.ID, domain.StatusConfirmed))

	reloaded, _, _ := newTestStore(t, kv)
	got, ok := reloaded.Get(o.ID)
	require.True(t, ok, "order written despite cancelled context")
	assert.Equal(t, domain.StatusConfirmed, got.Status)
}

func TestCorruptStorage(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	require.NoError(t, kv.Write(ctx, StorageKey, "[{broken"))

	s, _, _ := newTestStore(t, kv)
	assert.Empty(t, s.List())
	assert.Equal(t, 0, s.Stats().TotalOrders)

	_, err := s.Create(ctx, draft())
	require.NoError(t, err)
	assert.Len(t, s.List(), 1)
}
