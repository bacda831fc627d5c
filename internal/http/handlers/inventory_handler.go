package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/validate"
)

type InventoryHandler struct{}

func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing productId",
		})
	}
	ps, ok, err := ensure(c)
	if !ok {
		return err
	}
	avail, err := ps.Availability(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(avail)
}
