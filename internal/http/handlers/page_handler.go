package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

// PageHandler serves the HTML screens. Every screen other than checkout
// counts as navigating away from an open checkout.
type PageHandler struct{}

func leaveCheckout(c *fiber.Ctx, sess *services.Session) {
	if v := sess.Checkout.View(); v.Step != domain.StepEmpty {
		sess.Checkout.Leave()
		applog.Info(c, "checkout.leave", map[string]any{"from": v.StepName, "processing": v.Processing})
	}
}

func (h *PageHandler) Shop(c *fiber.Ctx) error {
	sess := session(c)
	leaveCheckout(c, sess)

	f, field, ok := filter(c)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": field})
		f = services.ProductFilter{Category: "all", Availability: "all", Page: 1}
	}
	data := fiber.Map{"Title": "Shop", "Filter": f, "Query": c.Queries()}
	if err := sess.Products.Ensure(c.UserContext()); err != nil {
		applog.Error(c, "catalog.load.fail", err, nil)
		data["Error"] = "Could not load products. Please try again."
		return render(c.Status(fiber.StatusBadGateway), "shop", data)
	}
	page := sess.Products.List(f)
	pages := make([]int, page.TotalPages)
	for i := range pages {
		pages[i] = i + 1
	}
	data["Page"] = page
	data["Pages"] = pages
	data["Categories"] = sess.Products.Categories()
	return render(c, "shop", data)
}

func (h *PageHandler) Cart(c *fiber.Ctx) error {
	sess := session(c)
	leaveCheckout(c, sess)
	return render(c, "cart", fiber.Map{
		"Title":  "Cart",
		"Items":  sess.Cart.Items(),
		"Totals": sess.Cart.Totals().Fixed(),
	})
}

// Checkout shows the wizard, entering it when the shopper arrives with a
// filled cart and no checkout under way.
func (h *PageHandler) Checkout(c *fiber.Ctx) error {
	sess := session(c)
	v := sess.Checkout.View()
	if v.Step == domain.StepEmpty && !sess.Cart.Empty() {
		v = sess.BeginCheckout()
	}
	data := fiber.Map{
		"Title":    "Checkout",
		"Checkout": v,
		"Items":    sess.Cart.Items(),
		"Totals":   sess.Cart.Totals().Fixed(),
	}
	if v.Step == domain.StepComplete {
		if last, ok := sess.Orders.LastOrder(); ok {
			data["Last"] = last
		}
	}
	return render(c, "checkout", data)
}

func (h *PageHandler) PurchaseHistory(c *fiber.Ctx) error {
	sess := session(c)
	leaveCheckout(c, sess)
	return render(c, "purchase_history", fiber.Map{
		"Title":     "Purchase history",
		"Purchases": sess.History.List(),
	})
}

func (h *PageHandler) Profile(c *fiber.Ctx) error {
	leaveCheckout(c, session(c))
	u, _ := c.Locals("user").(*domain.User)
	return render(c, "profile", fiber.Map{"Title": "Profile", "Joined": joined(u.CreatedAt)})
}

// joined renders the SQLite timestamp of an account as a plain date.
func joined(ts string) string {
	t, err := time.Parse(time.DateTime, ts)
	if err != nil {
		return "N/A"
	}
	return t.Format("Mon Jan 2 2006")
}
