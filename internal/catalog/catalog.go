// Package catalog fetches the product list from the external catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
)

var ErrUnavailable = errors.New("catalog unavailable")

// Source yields the raw product list. Implementations must honour ctx.
type Source interface {
	Fetch(ctx context.Context) ([]domain.Product, error)
}

// HTTPSource reads a JSON array of products with a GET request.
type HTTPSource struct {
	URL        string
	Timeout    time.Duration
	Categories []string
}

func NewHTTPSource(url string, timeout time.Duration, categories []string) *HTTPSource {
	return &HTTPSource{URL: url, Timeout: timeout, Categories: categories}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := s.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 && s.Timeout > 0 {
		return nil, context.DeadlineExceeded
	}

	a := fiber.Get(s.URL)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if timeout > 0 {
		a.Timeout(timeout)
	}
	if err := a.Parse(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, code)
	}

	var products []domain.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return Annotate(Restrict(products, s.Categories)), nil
}

// Restrict keeps products whose category is listed. An empty list keeps all.
func Restrict(products []domain.Product, categories []string) []domain.Product {
	if len(categories) == 0 {
		return products
	}
	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if _, ok := allowed[p.Category]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Annotate seeds stock from the rating count.
func Annotate(products []domain.Product) []domain.Product {
	for i := range products {
		products[i].SetStock(products[i].Rating.Count)
	}
	return products
}
