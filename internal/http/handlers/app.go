package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "storefront/internal/log"
)

const (
	csrfCookie = "csrf_"
	csrfHeader = "X-Csrf-Token"
)

// Options tune the app for production or tests. Zero limits take the
// production defaults.
type Options struct {
	Views  fiber.Views
	Static http.FileSystem

	RateLimit  int // requests per minute per client
	LoginLimit int // login attempts per 10 minutes
	AvailLimit int // availability checks per 30 seconds
}

func isAPI(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") }

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	msg := "Something went wrong. Please try again."
	if code < fiber.StatusInternalServerError && fe != nil {
		msg = fe.Message
	}
	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	if rerr := render(c.Status(code), "notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// csrfToken accepts the token from the X-Csrf-Token header (API calls) or
// the csrf form field (plain HTML forms).
func csrfToken(c *fiber.Ctx) (string, error) {
	if tok := c.Get(csrfHeader); tok != "" {
		return tok, nil
	}
	return csrf.CsrfFromForm("csrf")(c)
}

func limit(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// NewApp builds the storefront: middleware stack, JSON API under /api/v1 and
// the HTML pages.
func NewApp(opts Options, deps *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        opts.Views,
		ErrorHandler: errorHandler,
		BodyLimit:    1 << 20,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	// product images are hot-linked from the catalog host
	app.Use(helmet.New(helmet.Config{CrossOriginEmbedderPolicy: "credentialless"}))
	app.Use(limiter.New(limiter.Config{
		Max:        limit(opts.RateLimit, 60),
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))

	if opts.Static != nil {
		app.Use("/static", filesystem.New(filesystem.Config{
			Root:   opts.Static,
			MaxAge: 3600,
		}))
	}
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	var touch func(string) error
	if deps.KV != nil {
		touch = deps.KV.TouchSession
	}
	app.Use(AttachSession(deps.Sessions, touch))
	app.Use(csrf.New(csrf.Config{
		Extractor:      csrfToken,
		CookieName:     csrfCookie,
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			if isAPI(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Security check failed. Please refresh and try again."})
			}
			return render(c.Status(fiber.StatusForbidden), "notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))

	// ---------- API ----------
	api := app.Group("/api/v1")

	loginLimiter := limiter.New(limiter.Config{
		Max:        limit(opts.LoginLimit, 5),
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	})
	api.Post("/auth/login", loginLimiter, deps.AuthHandler.Login)
	api.Post("/auth/signup", deps.AuthHandler.Signup)
	api.Post("/auth/logout", deps.AuthHandler.Logout)
	api.Get("/auth/me", deps.AuthHandler.Me)
	api.Patch("/auth/me", RequireUser("profile"), deps.AuthHandler.UpdateName)

	availLimiter := limiter.New(limiter.Config{
		Max:        limit(opts.AvailLimit, 15),
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/availability", availLimiter, deps.InventoryHandler.Check)
	api.Get("/catalog", deps.ProductHandler.Catalog)
	api.Post("/catalog/reload", deps.ProductHandler.Reload)

	api.Get("/cart", deps.CartHandler.View)
	api.Post("/cart", RequireUser("cart"), deps.CartHandler.Add)
	api.Patch("/cart/:id", deps.CartHandler.Update)
	api.Delete("/cart/:id", deps.CartHandler.Remove)
	api.Delete("/cart", deps.CartHandler.Clear)

	api.Post("/checkout", deps.OrderHandler.Begin)
	api.Get("/checkout", deps.OrderHandler.Get)
	api.Delete("/checkout", deps.OrderHandler.Leave)
	api.Put("/checkout/fields", deps.OrderHandler.Fields)
	api.Post("/checkout/next", deps.OrderHandler.Next)
	api.Post("/checkout/back", deps.OrderHandler.Back)
	api.Post("/checkout/edit-shipping", deps.OrderHandler.EditShipping)
	api.Post("/checkout/place", deps.OrderHandler.Place)

	api.Get("/purchases", deps.OrderHandler.Purchases)
	api.Get("/orders/last", deps.OrderHandler.Last)

	api.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	// ---------- Pages ----------
	app.Get("/", deps.PageHandler.Shop)
	app.Get("/cart", deps.PageHandler.Cart)
	app.Get("/checkout", deps.PageHandler.Checkout)
	app.Get("/profile", RequireUserPage, deps.PageHandler.Profile)
	app.Get("/profile/purchase-history", RequireUserPage, deps.PageHandler.PurchaseHistory)

	app.Use(NotFound)
	return app
}
