package sightengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verilens/verilens/internal/domain/analysis"
	"github.com/verilens/verilens/internal/infra/providers/demo"
	"github.com/verilens/verilens/internal/ratelimit"
)

// Service is the key this client records outbound calls under.
const Service = "sightengine"

const (
	defaultBaseURL = "https://api.sightengine.com"
	imageCheckPath = "/1.0/check.json"
	videoCheckPath = "/1.0/video/check-sync.json"

	imageTimeout = 30 * time.Second
	videoTimeout = 60 * time.Second

	// The vision API rejects images above 10MB.
	maxImageBytes = 10 << 20
)

// Client talks to the Sightengine deepfake-detection API. Without credentials
// or on any provider failure it degrades to a synthetic demo verdict: a broken
// third-party integration must never fail the end-user request.
type Client struct {
	user      string
	secret    string
	baseURL   string
	httpc     *http.Client
	threshold float64
	limiter   *ratelimit.Limiter
	demo      *demo.Generator
}

func New(user, secret string, threshold float64, limiter *ratelimit.Limiter) *Client {
	return &Client{
		user:      user,
		secret:    secret,
		baseURL:   defaultBaseURL,
		httpc:     &http.Client{},
		threshold: threshold,
		limiter:   limiter,
		demo:      demo.NewGenerator(),
	}
}

// WithBaseURL overrides the API endpoint, for tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// Configured reports whether real credentials are present.
func (c *Client) Configured() bool {
	return c.user != "" && c.secret != ""
}

// AnalyzeImage checks a single image for deepfake manipulation.
func (c *Client) AnalyzeImage(ctx context.Context, filePath string) (analysis.ProviderResult, error) {
	if !c.Configured() {
		log.Printf("sightengine: credentials missing, using image demo fallback")
		return c.flag(c.demo.Image("fallback demo", "sightengine credentials not configured")), nil
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return analysis.ProviderResult{}, fmt.Errorf("stat upload: %w", err)
	}
	if info.Size() == 0 {
		return analysis.ProviderResult{}, fmt.Errorf("uploaded file is empty")
	}
	if info.Size() > maxImageBytes {
		return analysis.ProviderResult{}, fmt.Errorf("%w: image exceeds provider 10MB limit", analysis.ErrFileTooLarge)
	}

	if !c.limiter.CanCall(Service) {
		return analysis.ProviderResult{}, analysis.ErrProviderQuota
	}

	body, err := c.call(ctx, imageCheckPath, filePath, imageTimeout)
	if err != nil {
		log.Printf("sightengine: image API failed, falling back to demo mode: %v", err)
		return c.flag(c.demo.Image("fallback demo", classify(err))), nil
	}

	res, perr := parseImage(body)
	if perr != nil {
		log.Printf("sightengine: image response rejected, falling back to demo mode: %v", perr)
		return c.flag(c.demo.Image("fallback demo", classify(perr))), nil
	}
	return c.flag(res), nil
}

// AnalyzeVideo checks a video; when the provider returns per-scene scores the
// most alarming one wins over the summary score.
func (c *Client) AnalyzeVideo(ctx context.Context, filePath string) (analysis.ProviderResult, error) {
	if !c.Configured() {
		log.Printf("sightengine: credentials missing, using video demo fallback")
		return c.flag(c.demo.Video("fallback demo", "sightengine credentials not configured")), nil
	}

	if !c.limiter.CanCall(Service) {
		return analysis.ProviderResult{}, analysis.ErrProviderQuota
	}

	body, err := c.call(ctx, videoCheckPath, filePath, videoTimeout)
	if err != nil {
		log.Printf("sightengine: video API failed, falling back to demo mode: %v", err)
		return c.flag(c.demo.Video("fallback demo", classify(err))), nil
	}

	res, perr := parseVideo(body)
	if perr != nil {
		log.Printf("sightengine: video response rejected, falling back to demo mode: %v", perr)
		return c.flag(c.demo.Video("fallback demo", classify(perr))), nil
	}
	return c.flag(res), nil
}

// flag applies the configured decision threshold to provider and demo
// results alike: score at or above the cutoff means deepfake.
func (c *Client) flag(res analysis.ProviderResult) analysis.ProviderResult {
	res.Flagged = res.Score >= c.threshold
	return res
}

// call submits the multipart check request and returns the raw response body.
func (c *Client) call(ctx context.Context, path, filePath string, timeout time.Duration) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("api_user", c.user)
	_ = mw.WriteField("api_secret", c.secret)
	_ = mw.WriteField("models", "deepfake")
	part, err := mw.CreateFormFile("media", filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	log.Printf("sightengine: POST %s file=%s size=%d", path, filepath.Base(filePath), buf.Len())

	resp, err := c.httpc.Do(req)
	// The call left the building either way; count it against the budget.
	c.limiter.RecordCall(Service)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apiStatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// apiStatusError is a non-2xx provider response, kept for classification.
type apiStatusError struct {
	Code int
	Body string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("sightengine returned HTTP %d: %s", e.Code, e.Body)
}

// classify maps a failure to a short diagnostic string carried on the demo
// fallback result.
func classify(err error) string {
	if se, ok := err.(*apiStatusError); ok {
		switch se.Code {
		case http.StatusBadRequest:
			return "bad request - check file format and size"
		case http.StatusUnauthorized:
			return "authentication failed - check API credentials"
		case http.StatusRequestEntityTooLarge:
			return "file too large - exceeds API limits"
		default:
			return fmt.Sprintf("HTTP %d from provider", se.Code)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "provider request timed out"
	}
	return "API call failed: " + err.Error()
}

// Probe makes a minimal authenticated request so operators can verify
// credentials without uploading media.
func (c *Client) Probe(ctx context.Context) error {
	if !c.Configured() {
		return fmt.Errorf("sightengine credentials not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	u := fmt.Sprintf("%s%s?api_user=%s&api_secret=%s&models=deepfake&url=%s",
		c.baseURL, imageCheckPath, c.user, c.secret, "https://example.com/test.jpg")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &apiStatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return nil
}
