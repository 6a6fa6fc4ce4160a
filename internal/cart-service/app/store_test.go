package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/cart-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
)

func line(product, variant string, price int64, qty int) domain.CartItem {
	return domain.CartItem{
		ID:        domain.LineID(product, variant),
		ProductID: product,
		VariantID: variant,
		Title:     product,
		Price:     price,
		Quantity:  qty,
	}
}

func TestAddMergesSameLine(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, kvstore.NewMemory())

	require.NoError(t, s.Add(ctx, line("p1", "v1", 500, 1)))
	require.NoError(t, s.Add(ctx, line("p1", "v1", 500, 1)))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddKeepsDistinctVariants(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, kvstore.NewMemory())

	require.NoError(t, s.Add(ctx, line("p1", "v1", 500, 1)))
	require.NoError(t, s.Add(ctx, line("p1", "v2", 700, 1)))
	require.NoError(t, s.Add(ctx, line("p1", "", 400, 1)))

	assert.Len(t, s.Items(), 3)
	assert.Equal(t, 3, s.TotalItems())
	assert.Equal(t, int64(1600), s.TotalPrice())
}

func TestAddRejectsZeroQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, kvstore.NewMemory())

	assert.ErrorIs(t, s.Add(ctx, line("p1", "", 100, 0)), domain.ErrInvalidQuantity)
	assert.Empty(t, s.Items())
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, kvstore.NewMemory())
	require.NoError(t, s.Add(ctx, line("p1", "v1", 500, 1)))

	assert.True(t, s.UpdateQuantity(ctx, "v1", 4))
	assert.Equal(t, 4, s.Items()[0].Quantity)

	assert.True(t, s.UpdateQuantity(ctx, "v1", 0))
	assert.Empty(t, s.Items(), "quantity 0 removes the line")

	assert.False(t, s.UpdateQuantity(ctx, "v1", 3))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, kvstore.NewMemory())
	require.NoError(t, s.Add(ctx, line("p1", "", 100, 1)))
	require.NoError(t, s.Add(ctx, line("p2", "", 200, 1)))

	s.Remove(ctx, "missing")
	assert.Len(t, s.Items(), 2, "unknown id is a no-op")

	s.Remove(ctx, "p1")
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ID)

	s.Clear(ctx)
	assert.Empty(t, s.Items())
	assert.Zero(t, s.TotalPrice())
}

func TestPersistsAcrossStores(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()

	s := NewStore(ctx, nil, kv)
	require.NoError(t, s.Add(ctx, line("p1", "v1", 500, 2)))

	reloaded := NewStore(ctx, nil, kv)
	assert.Equal(t, s.Items(), reloaded.Items())
}

func TestWritesSurviveCancelledContext(t *testing.T) {
	kv, err := kvstore.OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewStore(context.Background(), nil, kv)
	require.NoError(t, s.Add(ctx, line("p1", "v1", 500, 2)))

	items := NewStore(context.Background(), nil, kv).Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestSubtract(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, kvstore.NewMemory())
	require.NoError(t, s.Add(ctx, line("p1", "", 100, 2)))
	require.NoError(t, s.Add(ctx, line("p2", "", 200, 1)))
	ordered := s.Items()

	require.NoError(t, s.Add(ctx, line("p1", "", 100, 1)))
	require.NoError(t, s.Add(ctx, line("p3", "", 300, 1)))

	s.Subtract(ctx, ordered)
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, 1, items[0].Quantity, "quantity added later is kept")
	assert.Equal(t, "p3", items[1].ID)

	s.Subtract(ctx, []domain.CartItem{line("missing", "", 1, 1)})
	assert.Len(t, s.Items(), 2, "unknown lines are ignored")
}

func TestCorruptStorageStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	require.NoError(t, kv.Write(ctx, StorageKey, "{not json"))

	s := NewStore(ctx, nil, kv)
	assert.Empty(t, s.Items())

	require.NoError(t, s.Add(ctx, line("p1", "", 100, 1)))
	assert.Len(t, NewStore(ctx, nil, kv).Items(), 1, "next write replaces corrupt data")
}

func TestInvalidStoredLinesDropped(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	require.NoError(t, kv.Write(ctx, StorageKey,
		`{"items":[{"id":"a","productId":"a","price":10,"quantity":0},{"id":"b","productId":"b","price":10,"quantity":1}]}`))

	items := NewStore(ctx, nil, kv).Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
}

type failingKV struct{ *kvstore.Memory }

func (failingKV) Write(context.Context, string, string) error { return errors.New("disk full") }

func TestWriteFailureKeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, failingKV{Memory: kvstore.NewMemory()})

	require.NoError(t, s.Add(ctx, line("p1", "", 100, 1)))
	assert.Len(t, s.Items(), 1)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, kvstore.NewMemory())

	var got [][]domain.CartItem
	unsubscribe := s.Subscribe(func(items []domain.CartItem) {
		got = append(got, items)
	})

	require.NoError(t, s.Add(ctx, line("p1", "", 100, 1)))
	s.UpdateQuantity(ctx, "p1", 3)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[1][0].Quantity)

	unsubscribe()
	unsubscribe()
	s.Clear(ctx)
	assert.Len(t, got, 2, "no notifications after unsubscribe")
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, kvstore.NewMemory())
	require.NoError(t, s.Add(ctx, line("p1", "", 100, 1)))

	items := s.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, s.Items()[0].Quantity)
}
