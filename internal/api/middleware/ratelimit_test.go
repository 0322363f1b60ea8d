package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

func TestIPRateLimiter_BlocksAfterLimit(t *testing.T) {
	mw, err := NewIPRateLimiter("test", "2-M", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewIPRateLimiter: %v", err)
	}
	e := echo.New()
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	var last error
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/sign-up", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		last = h(e.NewContext(req, rec))
		if i < 2 && last != nil {
			t.Fatalf("request %d unexpectedly limited: %v", i, last)
		}
		if i == 0 && rec.Header().Get("X-RateLimit-Limit") != "2" {
			t.Fatalf("missing rate limit header")
		}
	}
	if !errors.Is(last, domain.ErrRateLimited) {
		t.Fatalf("expected rate limited error, got %v", last)
	}
}

func TestIPRateLimiter_SeparatesClients(t *testing.T) {
	mw, _ := NewIPRateLimiter("test", "1-M", nil, zerolog.Nop())
	e := echo.New()
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, ip := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip
		if err := h(e.NewContext(req, httptest.NewRecorder())); err != nil {
			t.Fatalf("client %s limited: %v", ip, err)
		}
	}
}

func TestIPRateLimiter_Disabled(t *testing.T) {
	mw, err := NewIPRateLimiter("test", "", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	called := false
	_ = mw(func(echo.Context) error { called = true; return nil })(nil)
	if !called {
		t.Fatalf("disabled limiter must pass through")
	}
}

func TestIPRateLimiter_BadFormat(t *testing.T) {
	if _, err := NewIPRateLimiter("test", "lots", nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for malformed rate")
	}
}
