package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveWithSecurityHeaders(t *testing.T, cfg SecurityHeadersConfig) http.Header {
	t.Helper()

	handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec.Header()
}

func TestSecurityHeadersProduction(t *testing.T) {
	h := serveWithSecurityHeaders(t, DefaultSecurityHeadersConfig(false))

	if got := h.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := h.Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Errorf("X-Frame-Options = %q, want SAMEORIGIN", got)
	}
	if got := h.Get("Referrer-Policy"); got != "strict-origin-when-cross-origin" {
		t.Errorf("Referrer-Policy = %q", got)
	}

	hsts := h.Get("Strict-Transport-Security")
	if !strings.Contains(hsts, "max-age=31536000") || !strings.Contains(hsts, "includeSubDomains") {
		t.Errorf("Strict-Transport-Security = %q", hsts)
	}

	csp := h.Get("Content-Security-Policy")
	if !strings.HasPrefix(csp, "default-src 'self'") {
		t.Errorf("CSP should start with default-src: %q", csp)
	}
	if strings.Contains(csp, "'unsafe-eval'") {
		t.Errorf("production CSP must not allow unsafe-eval: %q", csp)
	}
	if !strings.Contains(csp, "https://www.googletagmanager.com") {
		t.Errorf("CSP should allow the tracking script hosts: %q", csp)
	}
}

func TestSecurityHeadersDevelopment(t *testing.T) {
	h := serveWithSecurityHeaders(t, DefaultSecurityHeadersConfig(true))

	if got := h.Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS should be disabled in development, got %q", got)
	}
	if csp := h.Get("Content-Security-Policy"); !strings.Contains(csp, "'unsafe-eval'") {
		t.Errorf("development CSP should allow unsafe-eval: %q", csp)
	}
}

func TestSecurityHeadersCustomConfig(t *testing.T) {
	h := serveWithSecurityHeaders(t, SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'none'",
		FrameOptions:          "DENY",
	})

	if got := h.Get("Content-Security-Policy"); got != "default-src 'none'" {
		t.Errorf("Content-Security-Policy = %q", got)
	}
	if got := h.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if got := h.Get("Referrer-Policy"); got != "" {
		t.Errorf("Referrer-Policy should be empty when unset, got %q", got)
	}
}

func TestBuildCSPOrder(t *testing.T) {
	csp := buildCSP(map[string]string{
		"script-src":  "'self'",
		"default-src": "'self'",
		"object-src":  "'none'",
	})

	want := "default-src 'self'; script-src 'self'; object-src 'none'"
	if csp != want {
		t.Errorf("buildCSP = %q, want %q", csp, want)
	}
}

func TestStaticCache(t *testing.T) {
	handler := StaticCache(3600)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", got)
	}
}
