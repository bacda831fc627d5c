package handlers

import (
	"errors"
	"slices"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

// OrderHandler drives the checkout wizard, order placement and the
// purchase history of the current session.
type OrderHandler struct{}

func checkoutFail(c *fiber.Ctx, err error, v services.CheckoutView) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		return err
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error(), "checkout": v})
}

func (h *OrderHandler) Begin(c *fiber.Ctx) error {
	v := session(c).BeginCheckout()
	if v.Step == domain.StepEmpty {
		applog.Info(c, "checkout.begin.empty", nil)
		return checkoutFail(c, services.ErrEmptyCart, v)
	}
	applog.Info(c, "checkout.begin", nil)
	return c.JSON(fiber.Map{"checkout": v})
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"checkout": session(c).Checkout.View()})
}

// Fields applies every submitted input of the current step, in key order.
func (h *OrderHandler) Fields(c *fiber.Ctx) error {
	in := map[string]string{}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expected an object of field values"})
	}
	co := session(c).Checkout
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	v := co.View()
	// reject the whole batch before touching anything
	if allowed := v.Step.Keys(); allowed != nil {
		for _, k := range keys {
			if !slices.Contains(allowed, k) {
				applog.Security(c, "checkout.field.reject", map[string]any{"field": k, "step": v.StepName})
				return checkoutFail(c, services.ErrUnknownField, v)
			}
		}
	}
	for _, k := range keys {
		var err error
		if v, err = co.SetField(k, in[k]); err != nil {
			applog.Security(c, "checkout.field.reject", map[string]any{"field": k, "step": v.StepName})
			return checkoutFail(c, err, v)
		}
	}
	return c.JSON(fiber.Map{"checkout": v})
}

func (h *OrderHandler) Next(c *fiber.Ctx) error {
	v, moved, err := session(c).Checkout.Next()
	if err != nil {
		return checkoutFail(c, err, v)
	}
	if !moved {
		keys := make([]string, 0, len(v.Errors))
		for k := range v.Errors {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		applog.Info(c, "checkout.next.blocked", map[string]any{"step": v.StepName, "missing": keys})
	} else {
		applog.Info(c, "checkout.next", map[string]any{"step": v.StepName})
	}
	return c.JSON(fiber.Map{"checkout": v, "moved": moved})
}

func (h *OrderHandler) Back(c *fiber.Ctx) error {
	v, err := session(c).Checkout.Back()
	if err != nil {
		return checkoutFail(c, err, v)
	}
	return c.JSON(fiber.Map{"checkout": v})
}

func (h *OrderHandler) EditShipping(c *fiber.Ctx) error {
	v, err := session(c).Checkout.EditShipping()
	if err != nil {
		return checkoutFail(c, err, v)
	}
	return c.JSON(fiber.Map{"checkout": v})
}

// Leave is the shopper navigating away from checkout. A payment still in
// flight will resolve without touching the session.
func (h *OrderHandler) Leave(c *fiber.Ctx) error {
	session(c).Checkout.Leave()
	applog.Info(c, "checkout.leave", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sess := session(c)
	p, err := sess.Orders.PlaceOrder(c.UserContext())
	v := sess.Checkout.View()
	switch {
	case err == nil:
		applog.Audit(c, "order.place.success", map[string]any{
			"order_number": p.OrderNumber,
			"total":        p.TotalPrice,
			"lines":        len(p.OrderSummary),
		})
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"purchase": p, "checkout": v})
	case errors.Is(err, services.ErrPaymentDeclined):
		applog.Audit(c, "order.place.declined", nil)
	case errors.Is(err, services.ErrPlacementInProgress):
		applog.Security(c, "order.place.duplicate", nil)
	case statusFor(err) == fiber.StatusInternalServerError:
		applog.Error(c, "order.place.fail", err, nil)
	default:
		applog.Info(c, "order.place.discarded", map[string]any{"reason": err.Error()})
	}
	return checkoutFail(c, err, v)
}

// Purchases lists the session's purchase log, newest first.
func (h *OrderHandler) Purchases(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"purchases": session(c).History.List()})
}

// Last is the confirmation data of the most recent order.
func (h *OrderHandler) Last(c *fiber.Ctx) error {
	last, ok := session(c).Orders.LastOrder()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no order placed yet"})
	}
	return c.JSON(last)
}
