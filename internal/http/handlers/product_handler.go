package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ProductHandler struct{}

// filter reads the listing query. Bad values are reported rather than
// silently widened.
func filter(c *fiber.Ctx) (services.ProductFilter, string, bool) {
	f := services.ProductFilter{Page: validate.Page(c.Query("page"))}
	var ok bool
	if f.Category, ok = validate.Category(c.Query("category")); !ok {
		return f, "category", false
	}
	if f.Availability, ok = validate.Availability(c.Query("availability")); !ok {
		return f, "availability", false
	}
	for _, bound := range []struct {
		key string
		dst *decimal.NullDecimal
	}{{"minPrice", &f.MinPrice}, {"maxPrice", &f.MaxPrice}} {
		v, present, ok := validate.Decimal(c.Query(bound.key))
		if !ok {
			return f, bound.key, false
		}
		if present {
			*bound.dst = decimal.NewNullDecimal(decimal.NewFromFloat(v))
		}
	}
	rating, _, ok := validate.Decimal(c.Query("minRating"))
	if !ok {
		return f, "minRating", false
	}
	f.MinRating = rating
	return f, "", true
}

// ensure loads the session's catalog on first use and answers 502 when the
// catalog API cannot be reached.
func ensure(c *fiber.Ctx) (*services.ProductStore, bool, error) {
	ps := session(c).Products
	if err := ps.Ensure(c.UserContext()); err != nil {
		log.Error(c, "catalog.load.fail", err, nil)
		return ps, false, c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"status": services.StatusError,
			"error":  "Could not load products. Please try again.",
		})
	}
	return ps, true, nil
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	f, field, ok := filter(c)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": field})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + field})
	}
	ps, ok, err := ensure(c)
	if !ok {
		return err
	}
	page := ps.List(f)
	return c.JSON(fiber.Map{
		"status":     services.StatusLoaded,
		"products":   page.Products,
		"page":       page.Page,
		"totalPages": page.TotalPages,
		"total":      page.Total,
		"categories": ps.Categories(),
	})
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return fail(c, services.ErrNotFound)
	}
	ps, ok, err := ensure(c)
	if !ok {
		return err
	}
	p, err := ps.Get(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

// Catalog reports the loading state of the session's catalog without
// triggering or waiting for a fetch.
func (h *ProductHandler) Catalog(c *fiber.Ctx) error {
	ps := session(c).Products
	st, err := ps.Status()
	out := fiber.Map{"status": st, "total": ps.Len()}
	if err != nil {
		out["error"] = "Could not load products. Please try again."
	}
	return c.JSON(out)
}

// Reload refetches the catalog. It is the explicit retry after a failed load.
func (h *ProductHandler) Reload(c *fiber.Ctx) error {
	ps := session(c).Products
	if err := ps.Load(c.UserContext()); err != nil {
		log.Error(c, "catalog.load.fail", err, map[string]any{"reload": true})
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"status": services.StatusError,
			"error":  "Could not load products. Please try again.",
		})
	}
	log.Info(c, "catalog.reload", map[string]any{"categories": ps.Categories()})
	return c.JSON(fiber.Map{"status": services.StatusLoaded})
}
