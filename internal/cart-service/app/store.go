package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/jcmexdev/storefront/internal/cart-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
	"github.com/jcmexdev/storefront/internal/pricing"
)

// StorageKey is the key the cart is persisted under.
const StorageKey = "cart-storage"

type persistedCart struct {
	Items []domain.CartItem `json:"items"`
}

// Listener receives a snapshot of the cart after every change.
type Listener func(items []domain.CartItem)

// Store is the process-wide cart. Every mutation is written through to kv
// before it returns; write failures are logged, never surfaced.
type Store struct {
	log *slog.Logger
	kv  kvstore.Store

	mu    sync.RWMutex
	items []domain.CartItem

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]Listener
}

// NewStore loads the persisted cart. Missing or unreadable data yields an
// empty cart.
func NewStore(ctx context.Context, log *slog.Logger, kv kvstore.Store) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		log:  log.With("component", "cart"),
		kv:   kv,
		subs: make(map[int]Listener),
	}
	s.items = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []domain.CartItem {
	raw, ok, err := s.kv.Read(ctx, StorageKey)
	if err != nil {
		s.log.WarnContext(ctx, "cart: read failed, starting empty", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var pc persistedCart
	if err := json.Unmarshal([]byte(raw), &pc); err != nil {
		s.log.WarnContext(ctx, "cart: corrupt storage, starting empty", "error", err)
		return nil
	}

	items := make([]domain.CartItem, 0, len(pc.Items))
	for _, it := range pc.Items {
		if it.Quantity < 1 || it.ProductID == "" {
			s.log.WarnContext(ctx, "cart: dropping invalid stored line", "id", it.ID)
			continue
		}
		items = append(items, it)
	}
	return items
}

func (s *Store) Items() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Add inserts item, or bumps the quantity of the existing line for the same
// product and variant. The existing line keeps its price snapshot.
func (s *Store) Add(ctx context.Context, item domain.CartItem) error {
	if item.Quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	if item.ID == "" {
		item.ID = domain.LineID(item.ProductID, item.VariantID)
	}

	s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		for i := range items {
			if items[i].SameLine(item) {
				items[i].Quantity += item.Quantity
				return items
			}
		}
		return append(items, item)
	})
	return nil
}

// UpdateQuantity sets the quantity of line id; zero or less removes it.
// It reports whether the line existed.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) bool {
	found := false
	s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			found = true
			if quantity <= 0 {
				return append(items[:i], items[i+1:]...)
			}
			items[i].Quantity = quantity
			return items
		}
		return items
	})
	return found
}

// Remove deletes line id. Unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, id string) {
	s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		out := items[:0]
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out
	})
}

// Subtract takes the quantities of lines off the cart, dropping lines that
// reach zero. Lines added since the snapshot was taken are kept.
func (s *Store) Subtract(ctx context.Context, lines []domain.CartItem) {
	taken := make(map[string]int, len(lines))
	for _, l := range lines {
		taken[l.ID] += l.Quantity
	}
	s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		out := items[:0]
		for _, it := range items {
			it.Quantity -= taken[it.ID]
			if it.Quantity > 0 {
				out = append(out, it)
			}
		}
		return out
	})
}

func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, func([]domain.CartItem) []domain.CartItem { return nil })
}

func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) TotalPrice() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pricing.Subtotal(s.items)
}

// Subscribe registers fn for change notifications and returns a function
// that unregisters it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// mutate applies fn under the write lock, persists the result, then notifies
// subscribers outside the lock.
func (s *Store) mutate(ctx context.Context, fn func([]domain.CartItem) []domain.CartItem) {
	s.mu.Lock()
	s.items = fn(s.items)
	snap := s.snapshot()
	s.persist(ctx, snap)
	s.mu.Unlock()

	s.notify(snap)
}

// persist writes even when ctx is already cancelled.
func (s *Store) persist(ctx context.Context, items []domain.CartItem) {
	if items == nil {
		items = []domain.CartItem{}
	}
	raw, err := json.Marshal(persistedCart{Items: items})
	if err != nil {
		s.log.ErrorContext(ctx, "cart: encode failed", "error", err)
		return
	}
	if err := s.kv.Write(context.WithoutCancel(ctx), StorageKey, string(raw)); err != nil {
		s.log.ErrorContext(ctx, "cart: write failed", "error", err)
	}
}

func (s *Store) notify(items []domain.CartItem) {
	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		cp := make([]domain.CartItem, len(items))
		copy(cp, items)
		fn(cp)
	}
}

// snapshot must be called with mu held.
func (s *Store) snapshot() []domain.CartItem {
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}
