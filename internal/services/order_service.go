package services

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

const maxOrderNumberTries = 10

// OrderService turns a reviewed checkout into a Purchase. Only one placement
// per session runs at a time.
type OrderService struct {
	store    repos.Storage
	cart     *CartStore
	checkout *Checkout
	history  *HistoryStore

	Payment PaymentProcessor
	Numbers OrderNumbers
	// Unique rejects order numbers already present in history.
	Unique bool
	Now    func() time.Time

	inflight sync.Mutex
}

func NewOrderService(store repos.Storage, cart *CartStore, checkout *Checkout, history *HistoryStore,
	payment PaymentProcessor, numbers OrderNumbers, unique bool) *OrderService {
	return &OrderService{
		store: store, cart: cart, checkout: checkout, history: history,
		Payment: payment, Numbers: numbers, Unique: unique, Now: time.Now,
	}
}

// PlaceOrder charges the cart captured at the start of the call and, when
// payment is approved, commits history, cart, order number and totals in a
// single storage write. A declined payment changes nothing but the
// checkout message. Outcomes arriving after the shopper left checkout, or
// after the cart changed, are discarded.
func (s *OrderService) PlaceOrder(ctx context.Context) (domain.Purchase, error) {
	if !s.inflight.TryLock() {
		return domain.Purchase{}, ErrPlacementInProgress
	}
	defer s.inflight.Unlock()

	snapshot := s.cart.Items()
	if len(snapshot) == 0 {
		return domain.Purchase{}, ErrEmptyCart
	}
	pl, err := s.checkout.beginPlacement()
	if err != nil {
		return domain.Purchase{}, err
	}
	totals := domain.ComputeTotals(snapshot)

	approved, err := s.Payment.Authorize(ctx, totals.Total)
	if err != nil {
		s.checkout.endPlacement(pl, false)
		return domain.Purchase{}, err
	}
	if !approved {
		s.checkout.endPlacement(pl, true)
		return domain.Purchase{}, ErrPaymentDeclined
	}
	if s.checkout.stale(pl) {
		return domain.Purchase{}, ErrCheckoutAbandoned
	}

	num, err := s.allocateNumber()
	if err != nil {
		s.checkout.endPlacement(pl, false)
		return domain.Purchase{}, err
	}
	purchase := buildPurchase(num, s.Now(), snapshot, pl.shipping, totals)

	err = s.cart.clearIf(snapshot, func() error {
		return s.checkout.commitIf(pl, num, func() error {
			return s.history.commit(purchase, func(next []domain.Purchase) error {
				entries, err := encodeAll(
					[]string{KeyPurchaseHistory, KeyCart, KeyOrderNumber, KeyOrderTotals},
					[]any{next, []domain.CartItem{}, num, totals.Fixed()},
				)
				if err != nil {
					return err
				}
				return s.store.PutMany(entries)
			})
		})
	})
	if err != nil {
		s.checkout.endPlacement(pl, false)
		return domain.Purchase{}, err
	}
	return purchase, nil
}

func (s *OrderService) allocateNumber() (int64, error) {
	for i := 0; i < maxOrderNumberTries; i++ {
		n := s.Numbers.Next()
		if !s.Unique || !s.history.Contains(n) {
			return n, nil
		}
	}
	return 0, ErrOrderNumber
}

// LastOrder is the confirmation data left behind by the latest placement.
type LastOrder struct {
	OrderNumber int64              `json:"orderNumber"`
	Totals      domain.OrderTotals `json:"totals"`
	Purchase    *domain.Purchase   `json:"purchase,omitempty"`
}

func (s *OrderService) LastOrder() (LastOrder, bool) {
	num := repos.Load(s.store, KeyOrderNumber, int64(-1))
	if num < 0 {
		return LastOrder{}, false
	}
	lo := LastOrder{OrderNumber: num, Totals: repos.Load(s.store, KeyOrderTotals, domain.OrderTotals{})}
	if p, ok := s.history.Last(); ok && p.OrderNumber == num {
		lo.Purchase = &p
	}
	return lo, true
}

func buildPurchase(num int64, now time.Time, items []domain.CartItem, shipping domain.ShippingDetails, totals domain.Totals) domain.Purchase {
	lines := make([]domain.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, domain.OrderLine{Title: it.Title, Price: it.Price, Quantity: it.Quantity})
	}
	fixed := totals.Fixed()
	return domain.Purchase{
		OrderNumber:     num,
		Date:            now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		OrderSummary:    lines,
		ShippingDetails: shipping,
		Subtotal:        fixed.Subtotal,
		Tax:             fixed.Tax,
		TotalPrice:      fixed.TotalPrice,
	}
}

func encodeAll(keys []string, values []any) ([]repos.Entry, error) {
	out := make([]repos.Entry, 0, len(keys))
	for i, k := range keys {
		e, err := repos.Encode(k, values[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
