package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

// RequireUser refuses API calls from shoppers who are not logged in.
func RequireUser(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if u, _ := c.Locals("user").(*domain.User); u != nil {
			return c.Next()
		}
		applog.Security(c, "access.denied."+action, nil)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrLoginToShop.Error()})
	}
}

// RequireUserPage is RequireUser for HTML pages: anonymous visitors go back to
// the shop.
func RequireUserPage(c *fiber.Ctx) error {
	if u, _ := c.Locals("user").(*domain.User); u != nil {
		return c.Next()
	}
	applog.Security(c, "access.denied.page", nil)
	return c.Redirect("/")
}
