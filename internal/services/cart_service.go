package services

import (
	"sync"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

// CartStore owns the session's cart lines. Every mutation is persisted as a
// whole snapshot before it becomes visible.
type CartStore struct {
	mu    sync.RWMutex
	store repos.Storage
	items []domain.CartItem
}

// NewCartStore rehydrates the cart from storage. Duplicate ids are merged
// and quantities below one are raised to one.
func NewCartStore(store repos.Storage) *CartStore {
	saved := repos.Load(store, KeyCart, []domain.CartItem{})
	items := make([]domain.CartItem, 0, len(saved))
	pos := map[int]int{}
	for _, it := range saved {
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		if i, ok := pos[it.ID]; ok {
			items[i].Quantity += it.Quantity
			continue
		}
		pos[it.ID] = len(items)
		items = append(items, it)
	}
	return &CartStore{store: store, items: items}
}

func (c *CartStore) mutate(fn func([]domain.CartItem) ([]domain.CartItem, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fn(cloneItems(c.items))
	if err != nil {
		return err
	}
	if err := repos.Save(c.store, KeyCart, next); err != nil {
		return err
	}
	c.items = next
	return nil
}

// Add appends item with quantity 1, or bumps the quantity of the existing
// line with the same id. The existing line's title, price and image win.
func (c *CartStore) Add(item domain.CartItem) error {
	return c.mutate(func(items []domain.CartItem) ([]domain.CartItem, error) {
		for i := range items {
			if items[i].ID == item.ID {
				items[i].Quantity++
				return items, nil
			}
		}
		item.Quantity = 1
		return append(items, item), nil
	})
}

// Remove drops the line with id. Absent ids are a no-op.
func (c *CartStore) Remove(id int) error {
	return c.mutate(func(items []domain.CartItem) ([]domain.CartItem, error) {
		out := items[:0]
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

// UpdateQuantity overwrites a line's quantity, clamped to at least one.
func (c *CartStore) UpdateQuantity(id, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	return c.mutate(func(items []domain.CartItem) ([]domain.CartItem, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity = quantity
				return items, nil
			}
		}
		return nil, ErrNotInCart
	})
}

func (c *CartStore) Clear() error {
	return c.mutate(func([]domain.CartItem) ([]domain.CartItem, error) {
		return []domain.CartItem{}, nil
	})
}

// Items returns a copy of the cart lines.
func (c *CartStore) Items() []domain.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneItems(c.items)
}

func (c *CartStore) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items) == 0
}

func (c *CartStore) Totals() domain.Totals {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.ComputeTotals(c.items)
}

// clearIf empties the cart after write succeeds, but only when the cart
// still matches snapshot. write runs under the cart lock.
func (c *CartStore) clearIf(snapshot []domain.CartItem, write func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !sameItems(c.items, snapshot) {
		return ErrCartChanged
	}
	if err := write(); err != nil {
		return err
	}
	c.items = []domain.CartItem{}
	return nil
}

func cloneItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}

func sameItems(a, b []domain.CartItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Quantity != y.Quantity || x.Title != y.Title ||
			x.Image != y.Image || !x.Price.Equal(y.Price) {
			return false
		}
	}
	return true
}
