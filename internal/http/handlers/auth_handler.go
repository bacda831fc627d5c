package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *AuthHandler) parse(c *fiber.Ctx, action string) (string, string, bool) {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		log.Security(c, action, map[string]any{"reason": "bad_body"})
		return "", "", false
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		log.Security(c, action, map[string]any{"email": in.Email, "reason": "bad_format"})
		return "", "", false
	}
	if !validate.Password(in.Password) {
		log.Security(c, action, map[string]any{"email": email, "reason": "bad_password_format"})
		return "", "", false
	}
	return email, in.Password, true
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email, pass, ok := h.parse(c, "auth.login.fail")
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrBadCreds.Error()})
	}
	u, err := h.Auth.Login(session(c), email, pass)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return fail(c, err)
	}
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(fiber.Map{"user": u})
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	email, pass, ok := h.parse(c, "auth.signup.fail")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a valid email and password"})
	}
	u, err := h.Auth.Signup(session(c), email, pass)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			log.Security(c, "auth.signup.fail", map[string]any{"email": email, "reason": "taken"})
		}
		return fail(c, err)
	}
	log.Audit(c, "auth.signup.success", map[string]any{"email": email, "user_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": u})
}

// Logout forgets the user but keeps the session, so the cart and purchase
// history stay with the browser.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Logout(session(c)); err != nil {
		return err
	}
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	if u == nil {
		return fail(c, services.ErrNotLoggedIn)
	}
	return c.JSON(fiber.Map{"user": u})
}

// UpdateName is the profile edit. The name is trimmed and must not be blank.
func (h *AuthHandler) UpdateName(c *fiber.Ctx) error {
	var in struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required."})
	}
	name, ok := validate.Name(in.Name)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "name"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required."})
	}
	u, err := h.Auth.UpdateName(session(c), name)
	if err != nil {
		return fail(c, err)
	}
	log.Audit(c, "profile.update", map[string]any{"user_id": u.ID})
	return c.JSON(fiber.Map{"user": u})
}
