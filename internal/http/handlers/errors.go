package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/catalog"
	"storefront/internal/services"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnknownField),
		errors.Is(err, services.ErrInvalidDetails):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrBadCreds),
		errors.Is(err, services.ErrNotLoggedIn),
		errors.Is(err, services.ErrLoginToShop):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrPaymentDeclined):
		return fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrNotInCart):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrOutOfStock),
		errors.Is(err, services.ErrWrongStep),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrPlacementInProgress),
		errors.Is(err, services.ErrCheckoutAbandoned),
		errors.Is(err, services.ErrCartChanged),
		errors.Is(err, services.ErrOrderNumber):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrCatalogState),
		errors.Is(err, catalog.ErrUnavailable):
		return fiber.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// fail answers an API call with the domain error as JSON. Anything the domain
// does not know about goes to the app's error handler.
func fail(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		return err
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
