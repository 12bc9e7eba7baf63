package sightengine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verilens/verilens/internal/domain/analysis"
	"github.com/verilens/verilens/internal/ratelimit"
)

func testLimiter() *ratelimit.Limiter {
	return ratelimit.NewLimiter(ratelimit.NewMemoryStore(), map[string]ratelimit.Limits{
		Service: {PerMinute: 20, PerHour: 200, PerDay: 2000},
	})
}

func tempMedia(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestAnalyzeImageWithoutCredentialsIsDemoMode(t *testing.T) {
	c := New("", "", 0.7, testLimiter())

	res, err := c.AnalyzeImage(context.Background(), tempMedia(t, "a.jpg", []byte("img")))
	require.NoError(t, err)

	assert.True(t, res.DemoMode)
	assert.Equal(t, analysis.OriginDemo, res.Origin)
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 1.0)
	assert.Equal(t, "demo", res.Metadata["format"])
	assert.Equal(t, res.Score >= 0.7, res.Flagged)
}

func TestAnalyzeImageParsesProviderScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "u", r.FormValue("api_user"))
		assert.Equal(t, "s", r.FormValue("api_secret"))
		assert.Equal(t, "deepfake", r.FormValue("models"))
		_, _, err := r.FormFile("media")
		assert.NoError(t, err)

		w.Write([]byte(`{"status":"success","deepfake":{"prob":0.82},"media":{"width":640,"height":480,"format":"jpeg"}}`))
	}))
	defer srv.Close()

	c := New("u", "s", 0.7, testLimiter()).WithBaseURL(srv.URL)

	res, err := c.AnalyzeImage(context.Background(), tempMedia(t, "a.jpg", []byte("img")))
	require.NoError(t, err)

	assert.Equal(t, analysis.OriginProvider, res.Origin)
	assert.False(t, res.DemoMode)
	assert.InDelta(t, 0.82, res.Score, 1e-9)
	assert.True(t, res.Flagged)
	assert.Equal(t, float64(640), res.Metadata["width"])
	assert.Equal(t, "jpeg", res.Metadata["format"])
	assert.NotEmpty(t, res.Raw)
}

func TestScoreExtractionFallsBackThroughCandidates(t *testing.T) {
	cases := []struct {
		name string
		body string
		want float64
	}{
		{"deepfake.prob preferred", `{"status":"success","deepfake":{"prob":0.4},"type":{"deepfake":0.9}}`, 0.4},
		{"type.deepfake fallback", `{"status":"success","type":{"deepfake":0.9}}`, 0.9},
		{"default zero", `{"status":"success"}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := parseImage([]byte(tc.body))
			require.NoError(t, err)
			assert.InDelta(t, tc.want, res.Score, 1e-9)
		})
	}
}

func TestAnalyzeVideoTakesMaxAcrossScenesAndSummary(t *testing.T) {
	body := `{"status":"success","deepfake":{"prob":0.3},` +
		`"scenes":[{"deepfake":{"prob":0.2}},{"deepfake":{"prob":0.9}},{"deepfake":{"prob":0.4}}],` +
		`"media":{"width":1920,"height":1080,"duration":12.5,"fps":30}}`

	res, err := parseVideo([]byte(body))
	require.NoError(t, err)

	assert.InDelta(t, 0.9, res.Score, 1e-9)
	assert.Equal(t, "1920x1080", res.Metadata["resolution"])
	assert.Equal(t, 12.5, res.Metadata["duration"])
}

func TestAnalyzeImageDegradesOnAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"failure"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("u", "bad", 0.7, testLimiter()).WithBaseURL(srv.URL)

	res, err := c.AnalyzeImage(context.Background(), tempMedia(t, "a.jpg", []byte("img")))
	require.NoError(t, err, "provider failures never fail the request")

	assert.True(t, res.DemoMode)
	assert.Equal(t, "authentication failed - check API credentials", res.ErrCause)
}

func TestAnalyzeImageDegradesOnUnsuccessfulStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"failure","error":{"message":"invalid media"}}`))
	}))
	defer srv.Close()

	c := New("u", "s", 0.7, testLimiter()).WithBaseURL(srv.URL)

	res, err := c.AnalyzeImage(context.Background(), tempMedia(t, "a.jpg", []byte("img")))
	require.NoError(t, err)
	assert.True(t, res.DemoMode)
}

func TestAnalyzeImageRejectsEmptyAndOversizedFiles(t *testing.T) {
	c := New("u", "s", 0.7, testLimiter())

	_, err := c.AnalyzeImage(context.Background(), tempMedia(t, "empty.jpg", nil))
	assert.Error(t, err)

	big := make([]byte, maxImageBytes+1)
	_, err = c.AnalyzeImage(context.Background(), tempMedia(t, "big.jpg", big))
	assert.ErrorIs(t, err, analysis.ErrFileTooLarge)
}

func TestAnalyzeImageHonorsCallBudget(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), map[string]ratelimit.Limits{
		Service: {PerMinute: 1, PerHour: 10, PerDay: 10},
	})
	limiter.RecordCall(Service)

	c := New("u", "s", 0.7, limiter)

	_, err := c.AnalyzeImage(context.Background(), tempMedia(t, "a.jpg", []byte("img")))
	assert.ErrorIs(t, err, analysis.ErrProviderQuota)
}

func TestAnalyzeImageRecordsCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","deepfake":{"prob":0.1}}`))
	}))
	defer srv.Close()

	limiter := testLimiter()
	c := New("u", "s", 0.7, limiter).WithBaseURL(srv.URL)

	_, err := c.AnalyzeImage(context.Background(), tempMedia(t, "a.jpg", []byte("img")))
	require.NoError(t, err)

	rem := limiter.RemainingCalls(Service)
	assert.Equal(t, 19, rem.Minute)
}
