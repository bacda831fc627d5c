package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"storefront/internal/catalog"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/web"
)

const catalogJSON = `[
 {"id":1,"title":"Jacket","price":120.00,"description":"warm","category":"men's clothing","image":"","rating":{"rate":4.1,"count":3}},
 {"id":2,"title":"Ring","price":46.73,"description":"gold","category":"jewelery","image":"","rating":{"rate":3.0,"count":2}},
 {"id":3,"title":"Monitor","price":50.00,"description":"flat","category":"electronics","image":"","rating":{"rate":2.2,"count":0}},
 {"id":4,"title":"Lamp","price":10.00,"description":"bright","category":"home","image":"","rating":{"rate":4.0,"count":5}}
]`

// fakeCatalog serves catalogJSON until told to fail.
type fakeCatalog struct {
	srv    *httptest.Server
	broken atomic.Bool
	hits   atomic.Int32
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	fc := &fakeCatalog{}
	fc.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fc.hits.Add(1)
		if fc.broken.Load() {
			http.Error(w, "upstream down", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, catalogJSON)
	}))
	t.Cleanup(fc.srv.Close)
	return fc
}

type testEnv struct {
	app     *fiber.App
	deps    *handlers.Deps
	db      *sqlx.DB
	catalog *fakeCatalog
}

func newTestEnv(t *testing.T, pay services.PaymentProcessor, opts handlers.Options) *testEnv {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fc := newFakeCatalog(t)
	deps := handlers.NewDeps(db, services.SessionConfig{
		Source:             catalog.NewHTTPSource(fc.srv.URL, 2*time.Second, []string{"men's clothing", "jewelery", "electronics"}),
		Payment:            pay,
		Numbers:            services.NewRandomOrderNumbers(42),
		PersistStock:       true,
		UniqueOrderNumbers: true,
	})

	engine := html.NewFileSystem(web.Templates(), ".html")
	engine.AddFunc("pageURL", handlers.PageURL)
	opts.Views = engine
	opts.Static = web.Static()
	if opts.RateLimit == 0 {
		opts.RateLimit = 1000
	}
	if opts.LoginLimit == 0 {
		opts.LoginLimit = 100
	}
	if opts.AvailLimit == 0 {
		opts.AvailLimit = 100
	}
	return &testEnv{app: handlers.NewApp(opts, deps), deps: deps, db: db, catalog: fc}
}

// client replays cookies between requests and sends the CSRF header the way
// the browser script does.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func newClient(t *testing.T, app *fiber.App) *client {
	t.Helper()
	c := &client{t: t, app: app, cookies: map[string]string{}}
	resp, _ := c.do("GET", "/api/v1/cart", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("warm-up request: %d", resp.StatusCode)
	}
	if c.cookies["csrf_"] == "" || c.cookies["sid"] == "" {
		t.Fatalf("missing cookies after first request: %v", c.cookies)
	}
	return c
}

func (c *client) request(method, path string, body any) *http.Request {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, v := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	if tok := c.cookies["csrf_"]; tok != "" {
		req.Header.Set("X-Csrf-Token", tok)
	}
	return req
}

func (c *client) send(req *http.Request) (*http.Response, map[string]any) {
	c.t.Helper()
	resp, err := c.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	for _, ck := range resp.Cookies() {
		c.cookies[ck.Name] = ck.Value
	}
	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		raw, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func (c *client) do(method, path string, body any) (*http.Response, map[string]any) {
	c.t.Helper()
	return c.send(c.request(method, path, body))
}

func (c *client) login() {
	c.t.Helper()
	resp, _ := c.do("POST", "/api/v1/auth/login", map[string]string{"email": "user@example.com", "password": "password"})
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login: %d", resp.StatusCode)
	}
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(raw)
}

type logEntry struct {
	Category string         `json:"category"`
	Action   string         `json:"action"`
	Status   int            `json:"status"`
	Err      string         `json:"err"`
	Fields   map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	applog.SetOutput(buf)
	defer applog.SetOutput(nil)

	fn()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
