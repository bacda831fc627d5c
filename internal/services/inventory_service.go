package services

import (
	"storefront/internal/domain"
	"storefront/internal/repos"
)

func (p *ProductStore) Availability(id int) (domain.Availability, error) {
	pr, err := p.Get(id)
	if err != nil {
		return domain.Availability{}, err
	}
	return domain.Availability{ProductID: id, Stock: pr.Stock, Available: pr.Available}, nil
}

// DecrementStock takes one unit off a product, never going below zero.
func (p *ProductStore) DecrementStock(id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, err := p.indexOf(id)
	if err != nil {
		return err
	}
	return p.setStock(i, p.products[i].Stock-1)
}

// reserve takes one unit of id for the cart. The stock check and the
// decrement happen under one lock, so concurrent adds cannot oversell.
func (p *ProductStore) reserve(id int) (domain.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, err := p.indexOf(id)
	if err != nil {
		return domain.Product{}, err
	}
	if p.products[i].Stock <= 0 {
		return p.products[i], ErrOutOfStock
	}
	if err := p.setStock(i, p.products[i].Stock-1); err != nil {
		return p.products[i], err
	}
	return p.products[i], nil
}

// release gives back a unit taken by reserve.
func (p *ProductStore) release(id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, err := p.indexOf(id)
	if err != nil {
		return err
	}
	return p.setStock(i, p.products[i].Stock+1)
}

// indexOf expects p.mu to be held.
func (p *ProductStore) indexOf(id int) (int, error) {
	if p.status != StatusLoaded {
		return 0, ErrCatalogState
	}
	i, ok := p.index[id]
	if !ok {
		return 0, ErrNotFound
	}
	return i, nil
}

// setStock stores the new count, when persistence is on, before applying it.
func (p *ProductStore) setStock(i, n int) error {
	if n < 0 {
		n = 0
	}
	if p.persistStock {
		overrides := repos.Load(p.store, KeyProductStock, map[int]int{})
		overrides[p.products[i].ID] = n
		if err := repos.Save(p.store, KeyProductStock, overrides); err != nil {
			return err
		}
	}
	p.products[i].SetStock(n)
	return nil
}
