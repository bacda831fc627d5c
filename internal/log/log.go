package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	zerolog.TimestampFieldName = "ts"
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetOutput redirects every subsequent entry to w; nil restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func write(level zerolog.Level, category string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	l := current()
	ev := l.WithLevel(level).Str("category", category).Str("action", action)
	if c != nil {
		ev = ev.Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev = ev.Str("req_id", rid)
		}
		if sid, ok := c.Locals("sid").(string); ok && sid != "" {
			ev = ev.Str("sid", sid)
		}
	}
	if err != nil {
		ev = ev.Str("err", err.Error())
	}
	if len(fields) > 0 {
		ev = ev.Interface("fields", fields)
	}
	ev.Send()
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.InfoLevel, "info", c, action, nil, fields)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.InfoLevel, "audit", c, action, nil, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.WarnLevel, "security", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zerolog.ErrorLevel, "error", c, action, err, fields)
}
