package cart

import (
	"sync"
	"time"

	"github.com/Farizu224/vending-machine-web/internal/domain"
)

// TopicChanged is published on every cart mutation with a Summary argument.
const TopicChanged = "cart:changed"

// Notifier receives change events from the store. Satisfied by
// EventBus.Bus; a nil notifier disables notifications.
type Notifier interface {
	Publish(topic string, args ...interface{})
}

// Summary is the derived cart state broadcast to subscribers.
type Summary struct {
	Total      int64
	TotalItems int
}

// Store holds the cart for one browsing session. All operations are
// atomic with respect to each other; local math never fails.
type Store struct {
	mu        sync.Mutex
	items     []domain.CartItem
	updatedAt time.Time
	notifier  Notifier
}

// NewStore creates an empty cart store. notifier may be nil.
func NewStore(notifier Notifier) *Store {
	return &Store{notifier: notifier}
}

// AddItem puts a product into the cart. If the product is already present
// its quantity is incremented instead of inserting a duplicate. Quantities
// are silently clamped to [1, stock]; a product without stock is not added.
func (s *Store) AddItem(p domain.Product, quantity int) {
	if p.Stock < 1 {
		return
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ProductID == p.ID {
			s.items[i].Quantity = clampQuantity(s.items[i].Quantity+quantity, s.items[i].Stock)
			s.touchLocked()
			s.mu.Unlock()
			s.notify()
			return
		}
	}

	s.items = append(s.items, domain.CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		Quantity:  clampQuantity(quantity, p.Stock),
		Stock:     p.Stock,
	})
	s.touchLocked()
	s.mu.Unlock()
	s.notify()
}

// UpdateQuantity sets the quantity for a product already in the cart.
// A quantity below 1 removes the item; values above stock are clamped.
// Unknown product ids are a no-op.
func (s *Store) UpdateQuantity(productID int64, quantity int) {
	s.mu.Lock()
	changed := false
	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		if quantity < 1 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity = clampQuantity(quantity, s.items[i].Stock)
		}
		s.touchLocked()
		changed = true
		break
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// RemoveItem deletes a product from the cart, no-op if absent.
func (s *Store) RemoveItem(productID int64) {
	s.mu.Lock()
	changed := false
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.touchLocked()
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Clear empties the cart. Called by the user or after a successful payment.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.touchLocked()
	s.mu.Unlock()
	s.notify()
}

// Items returns a copy of the current items in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Total returns the sum of price*quantity over all items.
func (s *Store) Total() int64 {
	return s.Snapshot().Total()
}

// TotalItems returns the summed quantity over all items.
func (s *Store) TotalItems() int {
	return s.Snapshot().TotalItems()
}

// Snapshot returns the full cart state as a value.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)
	return domain.Cart{Items: items, UpdatedAt: s.updatedAt}
}

// Restore replaces the cart contents, used when reviving a session from the
// cache. Invariants are re-applied to whatever was stored.
func (s *Store) Restore(items []domain.CartItem) {
	s.mu.Lock()
	s.items = s.items[:0]
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if seen[item.ProductID] || item.Stock < 1 {
			continue
		}
		seen[item.ProductID] = true
		item.Quantity = clampQuantity(item.Quantity, item.Stock)
		s.items = append(s.items, item)
	}
	s.touchLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) touchLocked() {
	s.updatedAt = time.Now()
}

func (s *Store) notify() {
	if s.notifier == nil {
		return
	}
	snap := s.Snapshot()
	s.notifier.Publish(TopicChanged, Summary{Total: snap.Total(), TotalItems: snap.TotalItems()})
}

// clampQuantity bounds q to [1, stock].
func clampQuantity(q, stock int) int {
	if q < 1 {
		return 1
	}
	if q > stock {
		return stock
	}
	return q
}
