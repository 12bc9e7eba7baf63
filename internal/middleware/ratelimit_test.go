package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verilens/verilens/internal/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func analyzeRequest() *http.Request {
	r := httptest.NewRequest("POST", "/api/analyze", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0")
	r.Header.Set("Accept-Language", "en-US")
	r.Header.Set("Accept-Encoding", "gzip")
	return r
}

func TestRateLimitCeilingWithinWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	h := rateLimitWithClock(ratelimit.NewMemoryStore(), AnalysisRule(20), func() time.Time { return now })(okHandler())

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, analyzeRequest())
		require.Equal(t, http.StatusOK, rec.Code, "request %d within ceiling", i+1)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, analyzeRequest())
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body struct {
		Success    bool   `json:"success"`
		Error      string `json:"error"`
		RetryAfter int    `json:"retryAfter"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Analysis rate limit exceeded", body.Error)
	assert.Greater(t, body.RetryAfter, 0)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitResetsAfterWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	h := rateLimitWithClock(ratelimit.NewMemoryStore(), UploadRule(1), func() time.Time { return now })(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, analyzeRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, analyzeRequest())
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	now = now.Add(15 * time.Minute)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, analyzeRequest())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitSeparatesFingerprints(t *testing.T) {
	h := RateLimit(ratelimit.NewMemoryStore(), GeneralRule(1))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, analyzeRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	other := analyzeRequest()
	other.Header.Set("User-Agent", "Mozilla/5.0 (different)")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code, "distinct client identity gets its own budget")
}

func TestRateLimitSeparatesRouteClasses(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	analyze := RateLimit(store, AnalysisRule(1))(okHandler())
	status := RateLimit(store, StatusRule(1))(okHandler())

	rec := httptest.NewRecorder()
	analyze.ServeHTTP(rec, analyzeRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	status.ServeHTTP(rec, analyzeRequest())
	assert.Equal(t, http.StatusOK, rec.Code, "status class has an independent budget")
}
