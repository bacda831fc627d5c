package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "storefront/internal/log"
	"storefront/internal/services"
)

const sidCookie = "sid"

// ensureSID returns the shopper's session id, issuing a fresh one when the
// cookie is missing or not a uuid.
func ensureSID(c *fiber.Ctx) string {
	if sid := c.Cookies(sidCookie); sid != "" {
		if _, err := uuid.Parse(sid); err == nil {
			return sid
		}
	}
	sid := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // enable true behind TLS
	})
	return sid
}

// AttachSession resolves the shopper's stores for every request and exposes
// them (and the logged-in user, if any) through Locals. touch, when set,
// records the visit.
func AttachSession(reg *services.Sessions, touch func(sid string) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := ensureSID(c)
		c.Locals("sid", sid)
		if touch != nil {
			if err := touch(sid); err != nil {
				applog.Error(c, "session.touch.fail", err, nil)
			}
		}
		sess := reg.Get(sid)
		c.Locals("session", sess)
		if u := sess.CurrentUser(); u != nil {
			c.Locals("user", u)
		}
		return c.Next()
	}
}

func session(c *fiber.Ctx) *services.Session {
	s, _ := c.Locals("session").(*services.Session)
	return s
}
