package services

import (
	"slices"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

// HistoryStore is the append-only log of completed purchases, kept in
// insertion order.
type HistoryStore struct {
	mu    sync.RWMutex
	store repos.Storage
	log   []domain.Purchase
}

func NewHistoryStore(store repos.Storage) *HistoryStore {
	return &HistoryStore{store: store, log: repos.Load(store, KeyPurchaseHistory, []domain.Purchase{})}
}

// Record appends p and persists the whole log.
func (h *HistoryStore) Record(p domain.Purchase) error {
	return h.commit(p, func(next []domain.Purchase) error {
		return repos.Save(h.store, KeyPurchaseHistory, next)
	})
}

// commit hands the log with p appended to write, and keeps it only when
// write succeeds. Order placement writes it together with the cart.
func (h *HistoryStore) commit(p domain.Purchase, write func(next []domain.Purchase) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.appended(p)
	if err := write(next); err != nil {
		return err
	}
	h.log = next
	return nil
}

// List returns the purchases newest first. The stored order is untouched.
func (h *HistoryStore) List() []domain.Purchase {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := slices.Clone(h.log)
	slices.Reverse(out)
	return out
}

func (h *HistoryStore) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.log)
}

func (h *HistoryStore) Contains(orderNumber int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.ContainsFunc(h.log, func(p domain.Purchase) bool { return p.OrderNumber == orderNumber })
}

// Last returns the most recent purchase.
func (h *HistoryStore) Last() (domain.Purchase, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.log) == 0 {
		return domain.Purchase{}, false
	}
	return h.log[len(h.log)-1], true
}

func (h *HistoryStore) appended(p domain.Purchase) []domain.Purchase {
	next := make([]domain.Purchase, len(h.log), len(h.log)+1)
	copy(next, h.log)
	return append(next, p)
}
