package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/urbanlens/smart-city-api/internal/config"
)

func TestTokenBucketPassThroughWithoutRedis(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil)

	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, mw)

	// Far more requests than the capacity: without Redis the limiter
	// must not block anything.
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
}

func TestAsInt64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int64
	}{
		{int64(7), 7},
		{int32(7), 7},
		{7, 7},
		{7.9, 7},
		{"7", 7},
		{"x", 0},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := asInt64(tc.in); got != tc.want {
			t.Errorf("asInt64(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
