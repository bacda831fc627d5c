package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func product(id int, title, price string, count int, category string, rate float64) domain.Product {
	return domain.Product{
		ID:       id,
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Category: category,
		Image:    "https://img.example/" + title,
		Rating:   domain.Rating{Rate: rate, Count: count},
	}
}

func testCatalog() []domain.Product {
	return []domain.Product{
		product(1, "Jacket", "120.00", 3, "men's clothing", 4.1),
		product(2, "Ring", "46.73", 2, "jewelery", 3.0),
		product(3, "Monitor", "50.00", 0, "electronics", 2.2),
		product(4, "Shirt", "15.99", 10, "men's clothing", 4.7),
		product(5, "Chain", "695.00", 400, "jewelery", 4.6),
		product(6, "Drive", "64.00", 203, "electronics", 3.3),
		product(7, "SSD", "109.00", 470, "electronics", 4.8),
		product(8, "Tee", "7.95", 1, "men's clothing", 1.9),
	}
}

// fakeSource serves a fresh copy of its products on every fetch.
type fakeSource struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	calls    int
}

func (f *fakeSource) Fetch(ctx context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Product, len(f.products))
	copy(out, f.products)
	return catalog.Annotate(out), nil
}

var errDisk = errors.New("disk full")

// flakyStorage fails writes while failing is set.
type flakyStorage struct {
	*repos.MemoryStorage
	mu      sync.Mutex
	failing bool
}

func newFlaky() *flakyStorage { return &flakyStorage{MemoryStorage: repos.NewMemoryStorage()} }

func (f *flakyStorage) fail(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func (f *flakyStorage) broken() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failing
}

func (f *flakyStorage) Put(key string, value []byte) error {
	return f.PutMany([]repos.Entry{{Key: key, Value: value}})
}

func (f *flakyStorage) PutMany(entries []repos.Entry) error {
	if f.broken() {
		return errDisk
	}
	return f.MemoryStorage.PutMany(entries)
}

// slowStorage delays every write by about the latency of a SQLite commit.
type slowStorage struct{ *repos.MemoryStorage }

func (s slowStorage) Put(key string, value []byte) error {
	return s.PutMany([]repos.Entry{{Key: key, Value: value}})
}

func (s slowStorage) PutMany(entries []repos.Entry) error {
	time.Sleep(time.Millisecond)
	return s.MemoryStorage.PutMany(entries)
}

// cartFailStorage refuses cart writes while failCart is set.
type cartFailStorage struct {
	*repos.MemoryStorage
	failCart atomic.Bool
}

func (s *cartFailStorage) Put(key string, value []byte) error {
	return s.PutMany([]repos.Entry{{Key: key, Value: value}})
}

func (s *cartFailStorage) PutMany(entries []repos.Entry) error {
	for _, e := range entries {
		if e.Key == services.KeyCart && s.failCart.Load() {
			return errDisk
		}
	}
	return s.MemoryStorage.PutMany(entries)
}

// gatedSource blocks each fetch until the test sends on release.
type gatedSource struct {
	products []domain.Product
	started  chan struct{}
	release  chan struct{}
}

func newGatedSource() *gatedSource {
	return &gatedSource{products: testCatalog(), started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gatedSource) Fetch(ctx context.Context) ([]domain.Product, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	out := make([]domain.Product, len(g.products))
	copy(out, g.products)
	return catalog.Annotate(out), nil
}

func item(id int, title, price string) domain.CartItem {
	return domain.CartItem{ID: id, Title: title, Price: decimal.RequireFromString(price), Image: "img"}
}

func raw(t *testing.T, s repos.Storage, key string) string {
	t.Helper()
	v, _, err := s.Get(key)
	require.NoError(t, err)
	return string(v)
}

// newShopper builds a logged-in session over memory storage with the test
// catalog loaded.
func newShopper(t *testing.T, store repos.Storage, pay services.PaymentProcessor, nums services.OrderNumbers) *services.Session {
	t.Helper()
	sess := services.NewSession("sid-test", store, services.SessionConfig{
		Source:             &fakeSource{products: testCatalog()},
		Payment:            pay,
		Numbers:            nums,
		PersistStock:       true,
		UniqueOrderNumbers: true,
	})
	require.NoError(t, repos.Save(store, services.KeyUser, &domain.User{ID: "u1", Email: "user@example.com", Name: "Juan Dela Cruz"}))
	require.NoError(t, sess.Products.Load(context.Background()))
	return sess
}

var shipping = map[string]string{
	"name": "Ann Lee", "address": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US",
}

var card = map[string]string{"cardNumber": "4111111111111111", "expiryDate": "12/30", "cvv": "123"}

func fill(t *testing.T, w *services.Checkout, fields map[string]string) {
	t.Helper()
	for k, v := range fields {
		_, err := w.SetField(k, v)
		require.NoError(t, err)
	}
}

// toReview adds the given products and walks checkout to the review step.
func toReview(t *testing.T, sess *services.Session, ids ...int) {
	t.Helper()
	for _, id := range ids {
		_, err := sess.AddToCart(context.Background(), id)
		require.NoError(t, err)
	}
	v := sess.BeginCheckout()
	require.Equal(t, domain.StepShipping, v.Step)
	fill(t, sess.Checkout, shipping)
	_, moved, err := sess.Checkout.Next()
	require.NoError(t, err)
	require.True(t, moved)
	fill(t, sess.Checkout, card)
	v, moved, err = sess.Checkout.Next()
	require.NoError(t, err)
	require.True(t, moved)
	require.Equal(t, domain.StepReview, v.Step)
}
