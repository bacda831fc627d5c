package handlers

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	tok, _ := c.Locals("csrf").(string)
	if tok == "" {
		// first visit: the middleware has not handed out a token yet
		tok = c.Cookies(csrfCookie)
	}
	data["CSRFToken"] = tok
	return c.Render(tmpl, data)
}

// PageURL rebuilds the shop query string for another page number.
func PageURL(query map[string]string, page int) string {
	v := url.Values{}
	for k, val := range query {
		if k != "page" && val != "" {
			v.Set(k, val)
		}
	}
	v.Set("page", strconv.Itoa(page))
	return "/?" + v.Encode()
}

// NotFound is the fallback for unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return render(c.Status(fiber.StatusNotFound), "notfound", fiber.Map{"Message": "Page not found"})
}
