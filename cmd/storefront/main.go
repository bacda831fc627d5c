package main

import (
	"io"
	"log"
	"os"
	"time"

	html "github.com/gofiber/template/html/v2"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/web"
)

func main() {
	cfg := config.Load(".env")

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			applog.Error(nil, "log.file.fail", err, map[string]any{"file": cfg.LogFile})
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
			applog.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	seed := time.Now().UnixNano()
	deps := handlers.NewDeps(db, services.SessionConfig{
		Source:             catalog.NewHTTPSource(cfg.CatalogURL, cfg.CatalogTimeout, cfg.CatalogCategories),
		Payment:            services.NewSimulatedPayment(cfg.PaymentDelay, cfg.PaymentSuccessRate, seed),
		Numbers:            services.NewRandomOrderNumbers(seed + 1),
		PersistStock:       cfg.PersistStock,
		UniqueOrderNumbers: cfg.UniqueOrderNumbers,
		IdleTTL:            cfg.SessionIdleTTL,
	})

	// Templates: embedded by default, read from disk while developing
	var engine *html.Engine
	if cfg.TemplatesReload {
		engine = html.New("./web/templates", ".html")
		engine.Reload(true)
	} else {
		engine = html.NewFileSystem(web.Templates(), ".html")
	}
	engine.AddFunc("pageURL", handlers.PageURL)

	app := handlers.NewApp(handlers.Options{Views: engine, Static: web.Static()}, deps)

	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})
	log.Fatal(app.Listen(":" + cfg.Port))
}
