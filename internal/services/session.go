package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/repos"
)

// StorageProvider hands out the durable storage of one session.
type StorageProvider interface {
	ForSession(sid string) repos.Storage
}

// SessionConfig is shared by every session the registry builds.
type SessionConfig struct {
	Source             catalog.Source
	Payment            PaymentProcessor
	Numbers            OrderNumbers
	PersistStock       bool
	UniqueOrderNumbers bool
	// IdleTTL bounds how long an unused session is cached; zero means
	// DefaultIdleTTL.
	IdleTTL time.Duration
}

// Session bundles the stores of one shopper. Stores reference each other
// only through the operations below.
type Session struct {
	ID       string
	Store    repos.Storage
	Products *ProductStore
	Cart     *CartStore
	Checkout *Checkout
	History  *HistoryStore
	Orders   *OrderService
}

func NewSession(sid string, store repos.Storage, cfg SessionConfig) *Session {
	cart := NewCartStore(store)
	checkout := NewCheckout(store)
	history := NewHistoryStore(store)
	return &Session{
		ID:       sid,
		Store:    store,
		Products: NewProductStore(cfg.Source, store, cfg.PersistStock),
		Cart:     cart,
		Checkout: checkout,
		History:  history,
		Orders:   NewOrderService(store, cart, checkout, history, cfg.Payment, cfg.Numbers, cfg.UniqueOrderNumbers),
	}
}

// CurrentUser is the logged-in user, or nil.
func (s *Session) CurrentUser() *domain.User {
	return repos.Load[*domain.User](s.Store, KeyUser, nil)
}

// AddToCart puts one unit of a catalog product in the cart and takes it
// off the product's stock. Only logged-in shoppers may add.
func (s *Session) AddToCart(ctx context.Context, productID int) (domain.Product, error) {
	if s.CurrentUser() == nil {
		return domain.Product{}, ErrLoginToShop
	}
	if err := s.Products.Ensure(ctx); err != nil {
		return domain.Product{}, err
	}
	p, err := s.Products.reserve(productID)
	if err != nil {
		return p, err
	}
	if err := s.Cart.Add(domain.CartItem{ID: p.ID, Title: p.Title, Price: p.Price, Image: p.Image}); err != nil {
		if rerr := s.Products.release(p.ID); rerr != nil {
			return p, errors.Join(err, rerr)
		}
		p.SetStock(p.Stock + 1)
		return p, err
	}
	return p, nil
}

// BeginCheckout enters the workflow against the current cart.
func (s *Session) BeginCheckout() CheckoutView {
	return s.Checkout.Begin(s.Cart.Empty())
}

// DefaultIdleTTL is how long an untouched session stays in memory.
const DefaultIdleTTL = 30 * time.Minute

type entry struct {
	sess     *Session
	lastSeen time.Time
}

// Sessions lazily builds and caches one Session per sid. Sessions idle
// longer than IdleTTL are dropped from memory; their stores rehydrate from
// storage on the next request.
type Sessions struct {
	storage StorageProvider
	cfg     SessionConfig

	IdleTTL time.Duration
	Now     func() time.Time

	mu        sync.Mutex
	byID      map[string]*entry
	lastSweep time.Time
}

func NewSessions(storage StorageProvider, cfg SessionConfig) *Sessions {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Sessions{storage: storage, cfg: cfg, IdleTTL: ttl, Now: time.Now, byID: map[string]*entry{}}
}

// Get returns the session for sid, rehydrating it from storage on first use.
func (r *Sessions) Get(sid string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.Now()
	if now.Sub(r.lastSweep) >= r.IdleTTL/2 {
		r.sweep(now)
	}
	if e, ok := r.byID[sid]; ok {
		e.lastSeen = now
		return e.sess
	}
	s := NewSession(sid, r.storage.ForSession(sid), r.cfg)
	r.byID[sid] = &entry{sess: s, lastSeen: now}
	return s
}

// Sweep evicts sessions idle since before now-IdleTTL and reports how many
// went. A session with a payment in flight is kept.
func (r *Sessions) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweep(now)
}

func (r *Sessions) sweep(now time.Time) int {
	r.lastSweep = now
	n := 0
	for sid, e := range r.byID {
		if now.Sub(e.lastSeen) < r.IdleTTL || e.sess.Checkout.View().Processing {
			continue
		}
		delete(r.byID, sid)
		n++
	}
	return n
}

// Len is the number of sessions held in memory.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
