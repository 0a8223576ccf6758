package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newCORSEngine(cfg CORSConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORS(cfg))
	engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return engine
}

func TestCORSPreflightAdvertisesConfiguredPolicy(t *testing.T) {
	cfg := DefaultCORSConfig([]string{"http://app.test"})
	cfg.Methods = []string{http.MethodGet, http.MethodPost}
	cfg.MaxAge = 10 * time.Minute
	engine := newCORSEngine(cfg)

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
	headers := recorder.Header()
	if got := headers.Get("Access-Control-Allow-Methods"); got != "GET,POST" {
		t.Fatalf("unexpected allow-methods %q", got)
	}
	if got := headers.Get("Access-Control-Allow-Headers"); got != "Authorization,Content-Type,X-Request-ID" {
		t.Fatalf("unexpected allow-headers %q", got)
	}
	if got := headers.Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("unexpected max-age %q", got)
	}
	if headers.Get("Vary") != "Origin" {
		t.Fatal("expected Vary: Origin for a listed origin")
	}
}

func TestCORSRejectsUnknownOriginPreflight(t *testing.T) {
	engine := newCORSEngine(DefaultCORSConfig([]string{"http://app.test"}))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "" || recorder.Header().Get("Access-Control-Allow-Methods") != "" {
		t.Fatalf("expected no CORS headers, got %v", recorder.Header())
	}
}

func TestCORSSimpleRequestExposesRequestID(t *testing.T) {
	engine := newCORSEngine(DefaultCORSConfig([]string{"*"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://anywhere.test")
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK || recorder.Body.String() != "pong" {
		t.Fatalf("expected the handler to run, got %d %q", recorder.Code, recorder.Body.String())
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected wildcard origin, got %q", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
	if recorder.Header().Get("Access-Control-Expose-Headers") != "X-Request-ID" {
		t.Fatal("expected the request id to be exposed")
	}
	if recorder.Header().Get("Access-Control-Allow-Methods") != "" {
		t.Fatal("expected preflight headers only on preflights")
	}
}
