package services

import (
	"context"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/repos"
)

const PageSize = 6

type CatalogStatus string

const (
	StatusLoading CatalogStatus = "loading"
	StatusError   CatalogStatus = "error"
	StatusLoaded  CatalogStatus = "loaded"
)

// ProductFilter narrows a catalog listing. Zero values mean "no constraint".
type ProductFilter struct {
	Category     string
	MinPrice     decimal.NullDecimal
	MaxPrice     decimal.NullDecimal
	MinRating    float64
	Availability string
	Page         int
}

type ProductPage struct {
	Products   []domain.Product `json:"products"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	Total      int              `json:"total"`
}

// ProductStore holds one session's view of the catalog together with its
// stock counters.
type ProductStore struct {
	src          catalog.Source
	store        repos.Storage
	persistStock bool

	loadMu sync.Mutex

	mu       sync.RWMutex
	status   CatalogStatus
	loadErr  error
	products []domain.Product
	index    map[int]int
}

func NewProductStore(src catalog.Source, store repos.Storage, persistStock bool) *ProductStore {
	return &ProductStore{src: src, store: store, persistStock: persistStock, status: StatusLoading}
}

// Load fetches the catalog, replacing whatever was held before. A loaded
// catalog stays readable while the refetch is in flight. On failure the
// store reports StatusError and keeps no products.
func (p *ProductStore) Load(ctx context.Context) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	return p.load(ctx)
}

// Ensure loads the catalog unless it is already loaded.
func (p *ProductStore) Ensure(ctx context.Context) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	if st, _ := p.Status(); st == StatusLoaded {
		return nil
	}
	return p.load(ctx)
}

func (p *ProductStore) load(ctx context.Context) error {
	p.mu.Lock()
	if p.status != StatusLoaded {
		p.status = StatusLoading
	}
	p.mu.Unlock()

	products, err := p.src.Fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.status, p.loadErr = StatusError, err
		p.products, p.index = nil, nil
		return err
	}
	if p.persistStock {
		overrides := repos.Load(p.store, KeyProductStock, map[int]int{})
		for i := range products {
			if n, ok := overrides[products[i].ID]; ok {
				products[i].SetStock(n)
			}
		}
	}
	p.products = products
	p.index = make(map[int]int, len(products))
	for i, pr := range products {
		p.index[pr.ID] = i
	}
	p.status, p.loadErr = StatusLoaded, nil
	return nil
}

// Status never blocks on a fetch in flight.
func (p *ProductStore) Status() (CatalogStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status, p.loadErr
}

func (p *ProductStore) Get(id int) (domain.Product, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.status != StatusLoaded {
		return domain.Product{}, ErrCatalogState
	}
	i, ok := p.index[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p.products[i], nil
}

// Len is the number of products held.
func (p *ProductStore) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.products)
}

// Categories lists distinct categories in catalog order.
func (p *ProductStore) Categories() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, pr := range p.products {
		if !seen[pr.Category] {
			seen[pr.Category] = true
			out = append(out, pr.Category)
		}
	}
	return out
}

func (p *ProductStore) List(f ProductFilter) ProductPage {
	p.mu.RLock()
	matched := make([]domain.Product, 0, len(p.products))
	for _, pr := range p.products {
		if f.matches(pr) {
			matched = append(matched, pr)
		}
	}
	p.mu.RUnlock()

	page := f.Page
	if page < 1 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(len(matched)) / PageSize))
	start := (page - 1) * PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return ProductPage{Products: matched[start:end], Page: page, TotalPages: totalPages, Total: len(matched)}
}

func (f ProductFilter) matches(pr domain.Product) bool {
	if f.Category != "" && f.Category != "all" && pr.Category != f.Category {
		return false
	}
	if f.MinPrice.Valid && pr.Price.LessThan(f.MinPrice.Decimal) {
		return false
	}
	if f.MaxPrice.Valid && pr.Price.GreaterThan(f.MaxPrice.Decimal) {
		return false
	}
	if pr.Rating.Rate < f.MinRating {
		return false
	}
	switch f.Availability {
	case "available":
		return pr.Available
	case "unavailable":
		return !pr.Available
	}
	return true
}
