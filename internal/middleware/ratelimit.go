package middleware

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/verilens/verilens/internal/ratelimit"
)

// Rule is the ceiling for one route class over a fixed window.
type Rule struct {
	// Name prefixes the counter key so route classes never share budgets.
	Name    string
	Window  time.Duration
	Max     int
	Error   string
	Message string
}

// Route-class rules matching the public API surface.
var (
	GeneralRule = func(max int) Rule {
		return Rule{
			Name: "general", Window: 15 * time.Minute, Max: max,
			Error:   "Rate limit exceeded",
			Message: "Too many requests, please try again later.",
		}
	}
	AnalysisRule = func(max int) Rule {
		return Rule{
			Name: "analysis", Window: 15 * time.Minute, Max: max,
			Error:   "Analysis rate limit exceeded",
			Message: "You have exceeded the analysis limit. Please wait before uploading more files.",
		}
	}
	UploadRule = func(max int) Rule {
		return Rule{
			Name: "upload", Window: 15 * time.Minute, Max: max,
			Error:   "Upload rate limit exceeded",
			Message: "You have exceeded the upload limit. Please wait before uploading more files.",
		}
	}
	StatusRule = func(max int) Rule {
		return Rule{
			Name: "status", Window: 5 * time.Minute, Max: max,
			Error:   "Status check rate limit exceeded",
			Message: "Too many status checks. Please wait before checking again.",
		}
	}
)

// fingerprint identifies a client by request characteristics rather than raw
// IP, so the limiter stays viable behind serverless or proxied front ends.
func fingerprint(r *http.Request) string {
	ua := header(r, "User-Agent")
	lang := header(r, "Accept-Language")
	enc := header(r, "Accept-Encoding")
	return ua + ":" + lang + ":" + enc
}

func header(r *http.Request, name string) string {
	if v := r.Header.Get(name); v != "" {
		return v
	}
	return "unknown"
}

// RateLimit enforces a per-fingerprint request ceiling for one route class.
func RateLimit(store ratelimit.CounterStore, rule Rule) func(http.Handler) http.Handler {
	return rateLimitWithClock(store, rule, time.Now)
}

func rateLimitWithClock(store ratelimit.CounterStore, rule Rule, now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := now()
			idx := t.UnixMilli() / rule.Window.Milliseconds()
			resetAt := time.UnixMilli((idx + 1) * rule.Window.Milliseconds())
			key := fmt.Sprintf("%s:%s:%d", rule.Name, fingerprint(r), idx)

			if count := store.Increment(key, resetAt); count > rule.Max {
				retryAfter := int(math.Ceil(resetAt.Sub(t).Seconds()))
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				writeEnvelope(w, http.StatusTooManyRequests, envelope{
					Error:      rule.Error,
					Message:    rule.Message,
					RetryAfter: retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
