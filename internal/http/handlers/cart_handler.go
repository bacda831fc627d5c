package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CartHandler struct{}

func cartJSON(cart *services.CartStore) fiber.Map {
	t := cart.Totals().Fixed()
	return fiber.Map{
		"items":    cart.Items(),
		"subtotal": t.Subtotal,
		"tax":      t.Tax,
		"total":    t.TotalPrice,
	}
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	return c.JSON(cartJSON(session(c).Cart))
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in struct {
		ProductID int `json:"productId" form:"productId"`
	}
	if err := c.BodyParser(&in); err != nil || in.ProductID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	sess := session(c)
	p, err := sess.AddToCart(c.UserContext(), in.ProductID)
	if err != nil {
		log.Security(c, "cart.add.fail", map[string]any{"product_id": in.ProductID, "reason": err.Error()})
		return fail(c, err)
	}
	log.Audit(c, "cart.add", map[string]any{"product_id": p.ID, "stock_left": p.Stock})
	out := cartJSON(sess.Cart)
	out["product"] = p
	return c.JSON(out)
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, services.ErrNotInCart)
	}
	var in struct {
		Quantity int `json:"quantity" form:"quantity"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid quantity"})
	}
	cart := session(c).Cart
	if err := cart.UpdateQuantity(id, in.Quantity); err != nil {
		return fail(c, err)
	}
	log.Info(c, "cart.update", map[string]any{"product_id": id, "quantity": validate.Qty(in.Quantity)})
	return c.JSON(cartJSON(cart))
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, services.ErrNotInCart)
	}
	cart := session(c).Cart
	if err := cart.Remove(id); err != nil {
		return fail(c, err)
	}
	log.Info(c, "cart.remove", map[string]any{"product_id": id})
	return c.JSON(cartJSON(cart))
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	cart := session(c).Cart
	if err := cart.Clear(); err != nil {
		return fail(c, err)
	}
	log.Info(c, "cart.clear", nil)
	return c.JSON(cartJSON(cart))
}
