package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/urbanlens/smart-city-api/internal/config"
)

func TestEncodeDecodePayload(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Set("X-Custom", "v")
	body := []byte(`{"success":true}`)

	enc, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encodePayload: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(enc)
	if !ok {
		t.Fatal("decodePayload rejected its own encoding")
	}
	if status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	if gotHdr.Get("Content-Type") != "application/json" || gotHdr.Get("X-Custom") != "v" {
		t.Errorf("headers = %v", gotHdr)
	}
	if string(gotBody) != string(body) {
		t.Errorf("body = %q", gotBody)
	}
}

func TestDecodePayloadRejectsCorruptInput(t *testing.T) {
	for _, bs := range [][]byte{nil, {1, 2, 3}, {0, 0, 0, 200, 0, 0, 0, 99}} {
		if _, _, _, ok := decodePayload(bs); ok {
			t.Errorf("decodePayload accepted corrupt input %v", bs)
		}
	}
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, limit: 4}
	_, _ = cw.Write([]byte("abcdef"))

	// The client got everything; only the capture buffer is capped.
	if rec.Body.String() != "abcdef" {
		t.Errorf("client body = %q", rec.Body.String())
	}
	if cw.buf.String() != "abcd" {
		t.Errorf("captured = %q, want %q", cw.buf.String(), "abcd")
	}
	if cw.size != 6 {
		t.Errorf("size = %d, want 6", cw.size)
	}
}

func TestCacheKeyVariesWithQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	e := echo.New()

	key := func(target string) string {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/api/accidents")
		return cacheKey(cfg, c)
	}

	a := key("/api/accidents?page=1")
	b := key("/api/accidents?page=2")
	if a == b {
		t.Error("different queries must cache under different keys")
	}
	if a != key("/api/accidents?page=1") {
		t.Error("the same request must produce a stable key")
	}
}

func TestResponseCacheDisabledWithoutRedis(t *testing.T) {
	mw := NewResponseCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil)

	e := echo.New()
	calls := 0
	e.GET("/x", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "ok")
	}, mw)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2 (no caching without redis)", calls)
	}
}
