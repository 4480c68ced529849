package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/homura-labs/storefront/pkg/config"
)

func sessionConfig() config.SessionConfig {
	return config.SessionConfig{CookieName: "sf_session", CookieTTL: time.Hour, Secure: true}
}

func TestSessionIssuesCookieForNewVisitor(t *testing.T) {
	var seen string
	handler := Session(sessionConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid session id, got %q", seen)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "sf_session" || c.Value != seen || !c.HttpOnly || !c.Secure || c.MaxAge != 3600 {
		t.Fatalf("unexpected cookie %+v", c)
	}
}

func TestSessionReusesValidCookie(t *testing.T) {
	existing := uuid.NewString()
	var seen string
	handler := Session(sessionConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: existing})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != existing {
		t.Fatalf("expected %s, got %s", existing, seen)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("expected no new cookie")
	}
}

func TestSessionReplacesTamperedCookie(t *testing.T) {
	var seen string
	handler := Session(sessionConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: "../../etc"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen == "../../etc" {
		t.Fatalf("expected tampered session id to be replaced")
	}
}
