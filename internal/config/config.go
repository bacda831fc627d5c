package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	applog "storefront/internal/log"
)

type Config struct {
	Port    string
	DBDSN   string
	LogFile string

	CatalogURL        string
	CatalogCategories []string
	CatalogTimeout    time.Duration

	PaymentDelay       time.Duration
	PaymentSuccessRate float64

	PersistStock       bool
	UniqueOrderNumbers bool
	TemplatesReload    bool
	SessionIdleTTL     time.Duration
}

// Load reads configuration from the environment. When envFile exists its
// values are loaded first; variables already set in the process win.
func Load(envFile string) Config {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				applog.Error(nil, "config.env.fail", err, map[string]any{"file": envFile})
			}
		}
	}

	cfg := Config{
		Port:               str("PORT", "8080"),
		DBDSN:              str("DB_DSN", "storefront.db"),
		LogFile:            os.Getenv("LOG_FILE"),
		CatalogURL:         str("CATALOG_URL", "https://fakestoreapi.com/products"),
		CatalogCategories:  list("CATALOG_CATEGORIES", "men's clothing,jewelery,electronics"),
		CatalogTimeout:     dur("CATALOG_TIMEOUT", 10*time.Second),
		PaymentDelay:       dur("PAYMENT_DELAY", 3*time.Second),
		PaymentSuccessRate: rate("PAYMENT_SUCCESS_RATE", 0.7),
		PersistStock:       flag("PERSIST_STOCK", true),
		UniqueOrderNumbers: flag("UNIQUE_ORDER_NUMBERS", true),
		TemplatesReload:    flag("TEMPLATES_RELOAD", false),
		SessionIdleTTL:     dur("SESSION_IDLE_TTL", 30*time.Minute),
	}
	if _, set := os.LookupEnv("LOG_FILE"); !set {
		cfg.LogFile = "./storefront.log"
	}

	applog.Info(nil, "config.loaded", map[string]any{
		"port":                 cfg.Port,
		"db_dsn":               cfg.DBDSN,
		"log_file":             cfg.LogFile,
		"catalog_url":          cfg.CatalogURL,
		"catalog_categories":   cfg.CatalogCategories,
		"catalog_timeout":      cfg.CatalogTimeout.String(),
		"payment_delay":        cfg.PaymentDelay.String(),
		"payment_success_rate": cfg.PaymentSuccessRate,
		"persist_stock":        cfg.PersistStock,
		"unique_order_numbers": cfg.UniqueOrderNumbers,
		"session_idle_ttl":     cfg.SessionIdleTTL.String(),
	})
	return cfg
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func list(key, def string) []string {
	var out []string
	for _, p := range strings.Split(str(key, def), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		applog.Error(nil, "config.invalid", err, map[string]any{"key": key, "value": v})
		return def
	}
	return d
}

func rate(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 1 {
		applog.Error(nil, "config.invalid", err, map[string]any{"key": key, "value": v})
		return def
	}
	return f
}

func flag(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		applog.Error(nil, "config.invalid", err, map[string]any{"key": key, "value": v})
		return def
	}
	return b
}
