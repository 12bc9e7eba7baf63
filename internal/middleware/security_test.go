package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/ping", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}

func TestMethodAllowlist(t *testing.T) {
	h := MethodAllowlist(okHandler())

	for _, method := range []string{"GET", "POST", "OPTIONS"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code, method)
	}

	for _, method := range []string{"PUT", "DELETE", "PATCH"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/ping", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
	}
}

func TestPayloadSizeLimit(t *testing.T) {
	h := PayloadSizeLimit(10 << 20)(okHandler())

	req := httptest.NewRequest("POST", "/api/analyze", nil)
	req.Header.Set("Content-Length", strconv.Itoa(11<<20))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req = httptest.NewRequest("POST", "/api/analyze", nil)
	req.Header.Set("Content-Length", strconv.Itoa(2<<20))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// GET requests are never size-checked.
	req = httptest.NewRequest("GET", "/api/status", nil)
	req.Header.Set("Content-Length", strconv.Itoa(11<<20))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBlockSuspiciousAgents(t *testing.T) {
	h := BlockSuspiciousAgents(okHandler())

	blocked := []string{"curl/8.0", "python-requests/2.31", "Googlebot/2.1", "sqlmap/1.7"}
	for _, ua := range blocked {
		req := httptest.NewRequest("GET", "/api/ping", nil)
		req.Header.Set("User-Agent", ua)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, ua)
	}

	// Browsers and empty agents pass.
	for _, ua := range []string{"Mozilla/5.0 (Macintosh)", ""} {
		req := httptest.NewRequest("GET", "/api/ping", nil)
		if ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, ua)
	}
}
