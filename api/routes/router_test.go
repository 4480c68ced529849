package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/homura-labs/storefront/internal/access"
	"github.com/homura-labs/storefront/internal/cart"
	"github.com/homura-labs/storefront/internal/catalog"
	"github.com/homura-labs/storefront/internal/checkout"
	"github.com/homura-labs/storefront/internal/newsletter"
	"github.com/homura-labs/storefront/internal/storage"
	"github.com/homura-labs/storefront/pkg/auth"
	"github.com/homura-labs/storefront/pkg/config"
	"github.com/homura-labs/storefront/pkg/logger"
	"github.com/homura-labs/storefront/pkg/metrics"
)

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test"},
		Session: config.SessionConfig{CookieName: "sf_session", CookieTTL: time.Hour},
		Access: config.AccessConfig{
			CookieName: "storeAccess",
			CookieTTL:  time.Hour,
			Issuer:     "storefront",
			EntryPath:  "/password",
		},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	store := storage.NewMemory(time.Hour)
	reg := prometheus.NewRegistry()

	carts, err := cart.NewRegistry(store, nil, logg, metrics.NewCartMetrics(reg), time.Minute)
	if err != nil {
		t.Fatalf("cart registry: %v", err)
	}
	catalogService := catalog.NewService(nil)

	return NewRouter(
		cfg,
		logg,
		store,
		nil,
		metrics.NewHTTPMetrics(reg),
		reg,
		carts,
		catalogService,
		newsletter.NewService(nil, "", logg),
		access.NewService(cfg.Access, logg),
		checkout.NewService(nil, nil),
	)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sf_session" {
			return c
		}
	}
	t.Fatalf("expected session cookie")
	return nil
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, testConfig())
	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestCartRoutesKeepStatePerSession(t *testing.T) {
	router := newTestRouter(t, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"variant_id":"V1","price":"12.50","quantity":2}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Data struct {
			Items      []cart.Item `json:"items"`
			TotalPrice string      `json:"totalPrice"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Items) != 1 || resp.Data.TotalPrice != "25.00" {
		t.Fatalf("expected the session cart, got %+v", resp.Data)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Items) != 0 {
		t.Fatalf("expected a new session to start empty, got %+v", resp.Data.Items)
	}
}

func TestCatalogRoutesReportUnconfiguredPlatform(t *testing.T) {
	router := newTestRouter(t, testConfig())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestNewsletterRouteNotConfigured(t *testing.T) {
	router := newTestRouter(t, testConfig())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/newsletter", strings.NewReader(`{"email":"a@b.co"}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Newsletter service not configured") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(t, testConfig())
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/health/live") {
		t.Fatalf("expected request metrics to be exported")
	}
}

func TestAccessGate(t *testing.T) {
	cfg := testConfig()
	cfg.Access.CookieSecret = "secret"
	router := newTestRouter(t, cfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collections/all", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/password" {
		t.Fatalf("expected redirect to entry page, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected api routes to stay open, got %d", rec.Code)
	}

	svc := access.NewService(cfg.Access, nil)
	pass, err := svc.Unlock(t.Context(), "anything")
	if err == nil {
		t.Fatalf("expected unlock without a configured password to fail, got %+v", pass)
	}
	granted, err := svc.Grant(t.Context(), auth.GrantPassword)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/collections/all", nil)
	req.AddCookie(&http.Cookie{Name: "storeAccess", Value: granted.Token})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected a valid pass to get through the gate, got %d", rec.Code)
	}
}
